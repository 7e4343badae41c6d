package techpulse

import "time"

// SiteConfig holds all configuration for a techpulse site.
type SiteConfig struct {
	Name        string // Site name (default "TechPulse")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Default author name

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/techpulse.db")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL      time.Duration // Published-post cache TTL (default 5min)
	AutosaveInterval  time.Duration // Draft autosave period (default 30s)
	SearchDebounce    time.Duration // Search debounce window (default 300ms)
	EditorIdleTimeout time.Duration // Editor session reap threshold (default 2h)

	// Email delivery for the notification endpoints.
	SMTPHost         string // Empty disables SMTP; emails are logged instead
	SMTPPort         string // Default "587"
	SMTPUsername     string
	SMTPPassword     string
	EmailFrom        string // e.g. "TechPulse <noreply@example.com>"
	ContactRecipient string // Where contact-form notifications go
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "TechPulse"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/techpulse.db"
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
	if c.AutosaveInterval == 0 {
		c.AutosaveInterval = 30 * time.Second
	}
	if c.SearchDebounce == 0 {
		c.SearchDebounce = 300 * time.Millisecond
	}
	if c.EditorIdleTimeout == 0 {
		c.EditorIdleTimeout = 2 * time.Hour
	}
	if c.SMTPPort == "" {
		c.SMTPPort = "587"
	}
	if c.EmailFrom == "" {
		c.EmailFrom = c.Name + " <noreply@localhost>"
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithMailer overrides the default mailer. Used to plug in alternative
// delivery backends and fakes in tests.
func WithMailer(m Mailer) Option {
	return func(a *App) {
		a.mailer = m
	}
}

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}
