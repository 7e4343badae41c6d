package techpulse

import (
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"
)

const feedItemLimit = 20

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts()
	if err != nil {
		return err
	}
	if len(posts) > feedItemLimit {
		posts = posts[:feedItemLimit]
	}

	feed := &feeds.Feed{
		Title:       a.Config.Name,
		Link:        &feeds.Link{Href: BuildURL(a.Config.URL)},
		Description: a.Config.Description,
		Author:      &feeds.Author{Name: a.Config.Author},
		Created:     time.Now(),
	}
	for _, p := range posts {
		published := p.PublishedAt
		if published.IsZero() {
			published = p.CreatedAt
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          p.ID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: BuildURL(a.Config.URL, "blog", p.Slug)},
			Description: p.Excerpt,
			Author:      &feeds.Author{Name: p.Author},
			Created:     published,
			Updated:     p.UpdatedAt,
			Content:     renderMarkdown(p.Content),
		})
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return feed.WriteRss(c.Response())
}
