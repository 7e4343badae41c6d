package techpulse

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Email is a single outbound HTML email.
type Email struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer delivers notification emails. The default implementation speaks
// SMTP; tests plug in fakes via WithMailer.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Send delivers the email via smtp.SendMail. PLAIN auth is used when a
// username is configured.
func (m *SMTPMailer) Send(_ context.Context, email Email) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(email.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", email.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(email.HTML)

	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := m.Host + ":" + m.Port
	if err := smtp.SendMail(addr, auth, fromAddress(m.From), email.To, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// fromAddress extracts the bare address from a "Name <addr>" header value.
func fromAddress(from string) string {
	if i := strings.IndexByte(from, '<'); i >= 0 {
		if j := strings.IndexByte(from[i:], '>'); j > 0 {
			return from[i+1 : i+j]
		}
	}
	return from
}

// logMailer logs emails instead of delivering them. It is the default
// when no SMTP host is configured, so local setups work out of the box.
type logMailer struct{}

func (logMailer) Send(_ context.Context, email Email) error {
	log.Printf("email delivery skipped (no SMTP host configured): to=%s subject=%q",
		strings.Join(email.To, ", "), email.Subject)
	return nil
}
