// Package techpulse is a content-driven publishing site built with Go,
// Echo, and templ. It serves a public blog with live search, comments,
// RSS, and sitemap, an admin dashboard with an autosaving article editor,
// and JSON endpoints for newsletter signup and contact-form delivery.
package techpulse

import (
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// App is the central application. It wires together the store, cache,
// editor sessions, search, mail delivery, handlers, and middleware.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Editors  *EditorManager
	Searcher *Searcher

	mailer       Mailer
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Start initializes the database, cache, editor manager, middleware, and
// routes, then starts the server. It blocks until the server stops.
func (a *App) Start() error {
	if a.Config.AdminPassword == "" {
		return fmt.Errorf("techpulse: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("techpulse: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("techpulse: init store: %w", err)
	}
	a.Store = store

	a.Cache = NewPostCache(a.Store, a.Config.PostCacheTTL)
	a.Searcher = NewSearcher(a.Store, a.Config.SearchDebounce)
	a.Editors = NewEditorManager(a.Store, a.Config.AutosaveInterval, a.Config.EditorIdleTimeout)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	if a.mailer == nil {
		if a.Config.SMTPHost != "" {
			a.mailer = &SMTPMailer{
				Host:     a.Config.SMTPHost,
				Port:     a.Config.SMTPPort,
				Username: a.Config.SMTPUsername,
				Password: a.Config.SMTPPassword,
				From:     a.Config.EmailFrom,
			}
		} else {
			a.mailer = logMailer{}
		}
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Serve embedded application assets under /public/, falling through
	// to the user's static dir for everything else.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	for _, name := range []string{"site.css", "search.js", "editor.js", "dashboard.js", "forms.js"} {
		e.GET("/public/"+name, echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	}
	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/", a.handleHome)
	e.GET("/blog/:slug/", a.handlePost)
	e.POST("/blog/:slug/comments/", a.handleCommentSubmit)
	e.GET("/category/:category/", a.handleCategory)
	e.GET("/about/", a.handlePage("about"))
	e.GET("/contact/", a.handlePage("contact"))

	// JSON API. Cross-origin callers are allowed the same way the
	// notification endpoints always worked.
	api := e.Group("/api", middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type"},
	}))
	api.GET("/search", a.handleSearchAPI)
	api.Any("/newsletter-subscribe", a.handleNewsletterSubscribe)
	api.Any("/send-contact-email", a.handleContactSend)

	// Admin routes
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)
	e.GET("/admin/editor/", a.handleEditor)
	e.POST("/admin/editor/field/", a.handleEditorField)
	e.POST("/admin/editor/save-now/", a.handleEditorSaveNow)
	e.POST("/admin/editor/load/", a.handleEditorLoad)
	e.POST("/admin/editor/new/", a.handleEditorNew)
	e.POST("/admin/editor/submit/", a.handleEditorSubmit)
	e.GET("/admin/editor/status/", a.handleEditorStatus)
	e.DELETE("/admin/post/:id/", a.handleAdminDelete)
	e.GET("/admin/images/", a.handleImageList)
	e.POST("/admin/images/upload/", a.handleImageUpload)
	e.DELETE("/admin/images/:filename/", a.handleImageDelete)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Editors != nil {
		a.Editors.Close()
	}
	if a.Searcher != nil {
		a.Searcher.Close()
	}
	if a.Store != nil {
		a.Store.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("techpulse: required environment variable %s is not set", key)
	}
	return v
}
