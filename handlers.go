package techpulse

import (
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const featuredHomeCount = 3

func (a *App) handleHome(c echo.Context) error {
	featured, err := a.Cache.Featured(featuredHomeCount)
	if err != nil {
		return err
	}
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	categories, err := a.Cache.Categories()
	if err != nil {
		return err
	}
	return Render(c, viewHome(a.Config, featured, posts, categories))
}

func (a *App) handleCategory(c echo.Context) error {
	name := c.Param("category")
	posts, err := a.Store.ListPublished(name, false, -1)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return RenderStatus(c, http.StatusNotFound, viewNotFound(a.Config))
	}
	return Render(c, viewCategory(a.Config, name, posts))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, viewNotFound(a.Config))
		}
		return err
	}
	// Best effort; a failed counter bump never blocks the page.
	if err := a.Store.IncrementViews(post.ID); err != nil {
		log.Printf("increment views for %s: %v", post.ID, err)
	}
	comments, err := a.Store.ListComments(post.ID)
	if err != nil {
		return err
	}
	return Render(c, viewPost(a.Config, post, comments, CsrfToken(c)))
}

func (a *App) handleCommentSubmit(c echo.Context) error {
	slug := c.Param("slug")
	post, err := a.Cache.GetPost(slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, viewNotFound(a.Config))
		}
		return err
	}
	name := strings.TrimSpace(c.FormValue("author_name"))
	email := strings.TrimSpace(c.FormValue("author_email"))
	content := strings.TrimSpace(c.FormValue("content"))
	if name == "" || email == "" || content == "" {
		return c.Redirect(http.StatusSeeOther, post.Link()+"?msg="+url.QueryEscape("Name, email and comment are required"))
	}
	if _, err := a.Store.AddComment(Comment{
		BlogPostID:  post.ID,
		AuthorName:  name,
		AuthorEmail: email,
		Content:     content,
	}); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, post.Link()+"?msg="+url.QueryEscape("Comment submitted for review"))
}

func (a *App) handlePage(slug string) echo.HandlerFunc {
	return func(c echo.Context) error {
		page, err := a.Store.GetPage(slug)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return RenderStatus(c, http.StatusNotFound, viewNotFound(a.Config))
			}
			return err
		}
		return Render(c, viewPage(a.Config, page))
	}
}

// handleSearchAPI serves the live search box. A superseded query returns
// 204 so the client keeps whatever newer results it already has.
func (a *App) handleSearchAPI(c echo.Context) error {
	results, ok, err := a.Searcher.Search(c.Request().Context(), c.RealIP(), c.QueryParam("q"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	if !ok {
		return c.NoContent(http.StatusNoContent)
	}
	if results == nil {
		results = []SearchResult{}
	}
	return c.JSON(http.StatusOK, results)
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, viewNotFound(a.Config))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, viewServerError(a.Config))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
