package techpulse

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, viewAdminLogin(a.Config, false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	return Render(c, viewAdminLogin(a.Config, true, CsrfToken(c)))
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if token := editorToken(c); token != "" {
		a.Editors.CloseSession(token)
	}
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, viewAdminDashboard(a.Config, posts, msg, CsrfToken(c)))
}

// editorSession returns the editor session bound to the admin's cookie
// session, creating one (and storing its token) on first use or after the
// old one was reaped.
func (a *App) editorSession(c echo.Context) (*EditorSession, error) {
	if token := editorToken(c); token != "" {
		if sess, ok := a.Editors.Get(token); ok {
			return sess, nil
		}
	}
	token, sess := a.Editors.Open()
	if err := setEditorToken(c, token); err != nil {
		a.Editors.CloseSession(token)
		return nil, err
	}
	return sess, nil
}

func (a *App) handleEditor(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	drafts, err := sess.Drafts()
	if err != nil {
		return err
	}
	lastSaved, _, target := sess.Status()
	return Render(c, viewEditor(a.Config, sess.Form(), target, drafts, lastSaved, c.QueryParam("msg"), CsrfToken(c)))
}

func (a *App) handleEditorField(c echo.Context) error {
	if !IsAdmin(c) {
		return c.NoContent(http.StatusForbidden)
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	sess.SetField(c.FormValue("name"), c.FormValue("value"))
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleEditorSaveNow(c echo.Context) error {
	if !IsAdmin(c) {
		return c.NoContent(http.StatusForbidden)
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	sess.Autosave()
	return a.editorStatusJSON(c, sess)
}

func (a *App) handleEditorLoad(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	if err := sess.LoadDraft(c.FormValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.Redirect(http.StatusSeeOther, "/admin/editor/?msg=Draft+not+found")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/editor/")
}

func (a *App) handleEditorNew(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	sess.StartNew()
	return c.Redirect(http.StatusSeeOther, "/admin/editor/")
}

func (a *App) handleEditorSubmit(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	// Apply the submitted form wholesale so a stale session can't publish
	// older field values than what the author sees.
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	posted := c.Request().PostForm
	apply := func(name string) {
		if values, ok := posted[name]; ok && len(values) > 0 {
			sess.SetField(name, values[0])
		}
	}
	// Title before slug, so an explicit slug always wins over the derived
	// one. An empty posted slug means "keep the derived slug", not "clear".
	apply("title")
	if v := c.FormValue("slug"); strings.TrimSpace(v) != "" {
		sess.SetField("slug", v)
	}
	for _, name := range []string{"excerpt", "content", "category", "author", "image_url", "tags", "read_time"} {
		apply(name)
	}
	// Unchecked checkboxes are absent from the form entirely.
	sess.SetField("published", c.FormValue("published"))
	sess.SetField("featured", c.FormValue("featured"))
	if _, err := sess.Submit(); err != nil {
		drafts, derr := sess.Drafts()
		if derr != nil {
			return derr
		}
		lastSaved, _, target := sess.Status()
		return Render(c, viewEditor(a.Config, sess.Form(), target, drafts, lastSaved, err.Error(), CsrfToken(c)))
	}
	a.Cache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/?msg=saved")
}

func (a *App) handleEditorStatus(c echo.Context) error {
	if !IsAdmin(c) {
		return c.NoContent(http.StatusForbidden)
	}
	sess, err := a.editorSession(c)
	if err != nil {
		return err
	}
	return a.editorStatusJSON(c, sess)
}

func (a *App) editorStatusJSON(c echo.Context, sess *EditorSession) error {
	lastSaved, saving, target := sess.Status()
	var savedAt string
	if !lastSaved.IsZero() {
		savedAt = lastSaved.Format(time.RFC3339)
	}
	id, _ := target.Existing()
	return c.JSON(http.StatusOK, echo.Map{
		"saving":    saving,
		"lastSaved": savedAt,
		"draftId":   id,
	})
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	if err := a.Store.DeletePost(c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	a.Cache.Invalidate()
	return a.renderAdminDashboard(c, "deleted")
}
