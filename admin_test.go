package techpulse

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// newAdminApp builds an App with the pieces the admin handlers touch.
func newAdminApp(t *testing.T) *App {
	t.Helper()
	a := newTestApp(t, &recordingMailer{})
	a.Cache = NewPostCache(a.Store, time.Minute)
	a.Editors = NewEditorManager(a.Store, time.Hour, time.Hour)
	t.Cleanup(a.Editors.Close)
	return a
}

// serveAsAdmin runs handler behind the session middleware with an
// authenticated admin session, the way routed requests see it.
func serveAsAdmin(t *testing.T, a *App, handler echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Use(session.Middleware(a.newSessionStore()))
	e.Any("/*", func(c echo.Context) error {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return handler(c)
	})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func postForm(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func TestEditorLoadMissingDraftRedirects(t *testing.T) {
	a := newAdminApp(t)

	req := postForm("/admin/editor/load/", url.Values{"id": {"no-such-id"}})
	rec := serveAsAdmin(t, a, a.handleEditorLoad, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (%s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/admin/editor/?msg=Draft+not+found" {
		t.Errorf("Location = %q, want the missing-draft notice", loc)
	}
}

func TestEditorSubmitKeepsDerivedSlug(t *testing.T) {
	a := newAdminApp(t)

	// The slug field posts empty when the author never touched it; the
	// title-derived slug must survive regardless of field order.
	form := url.Values{
		"title":    {"Hello, World! 2024"},
		"slug":     {""},
		"content":  {"Body text."},
		"category": {"AI"},
		"author":   {"Jane"},
	}
	rec := serveAsAdmin(t, a, a.handleEditorSubmit, postForm("/admin/editor/submit/", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (%s)", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get(echo.HeaderLocation); loc != "/admin/?msg=saved" {
		t.Fatalf("Location = %q, want /admin/?msg=saved", loc)
	}

	drafts, err := a.Store.ListDrafts(10)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
	post, err := a.Store.GetPost(drafts[0].ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Slug != "hello-world-2024" {
		t.Errorf("Slug = %q, want hello-world-2024", post.Slug)
	}
}

func TestEditorSubmitExplicitSlugWins(t *testing.T) {
	a := newAdminApp(t)

	form := url.Values{
		"title":    {"Hello, World! 2024"},
		"slug":     {"custom-path"},
		"content":  {"Body text."},
		"category": {"AI"},
		"author":   {"Jane"},
	}
	rec := serveAsAdmin(t, a, a.handleEditorSubmit, postForm("/admin/editor/submit/", form))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303 (%s)", rec.Code, rec.Body.String())
	}

	drafts, err := a.Store.ListDrafts(10)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(drafts))
	}
	post, err := a.Store.GetPost(drafts[0].ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if post.Slug != "custom-path" {
		t.Errorf("Slug = %q, want custom-path", post.Slug)
	}
}
