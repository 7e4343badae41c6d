package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaytechkenya/techpulse"
)

func main() {
	cfg := techpulse.SiteConfig{
		Name:        techpulse.EnvOr("SITE_NAME", "TechPulse"),
		URL:         techpulse.EnvOr("SITE_URL", "http://localhost:3000"),
		Description: techpulse.EnvOr("SITE_DESCRIPTION", "Tech news, startup insights, and industry trends"),
		Author:      techpulse.EnvOr("SITE_AUTHOR", ""),

		Addr:         techpulse.EnvOr("ADDR", ":3000"),
		DatabasePath: techpulse.EnvOr("DATABASE_PATH", "data/techpulse.db"),

		AdminPassword: techpulse.MustEnv("ADMIN_PASSWORD"),
		SessionSecret: techpulse.MustEnv("ADMIN_SESSION_SECRET"),
		CookieSecure:  os.Getenv("COOKIE_SECURE") == "true",

		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         techpulse.EnvOr("SMTP_PORT", "587"),
		SMTPUsername:     os.Getenv("SMTP_USERNAME"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		EmailFrom:        os.Getenv("EMAIL_FROM"),
		ContactRecipient: os.Getenv("CONTACT_RECIPIENT"),
	}

	app := techpulse.New(cfg)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		app.Close()
		// Give in-flight responses a moment, then stop hard.
		time.Sleep(time.Second)
		os.Exit(0)
	}()

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
