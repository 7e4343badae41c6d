package techpulse

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"time"

	"github.com/a-h/templ"
)

// component wraps a buffer-writing function as a templ.Component.
func component(fn func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		fn(&buf)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string {
	return html.EscapeString(s)
}

// writeHead emits the shared document head and opens the body.
func writeHead(buf *bytes.Buffer, cfg SiteConfig, title string) {
	if title == "" {
		title = cfg.Name
	} else {
		title = title + " | " + cfg.Name
	}
	buf.WriteString("<!DOCTYPE html><html lang=\"en\"><head>")
	buf.WriteString("<meta charset=\"utf-8\"/>")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"/>")
	buf.WriteString("<title>" + esc(title) + "</title>")
	if cfg.Description != "" {
		buf.WriteString("<meta name=\"description\" content=\"" + esc(cfg.Description) + "\"/>")
	}
	buf.WriteString("<link rel=\"alternate\" type=\"application/rss+xml\" href=\"/feed.xml\"/>")
	buf.WriteString("<link rel=\"stylesheet\" href=\"/public/site.css\"/>")
	buf.WriteString("</head><body>")
}

// writeNav emits the site header with the live search box.
func writeNav(buf *bytes.Buffer, cfg SiteConfig, categories []string) {
	buf.WriteString("<header class=\"site-header\"><nav>")
	buf.WriteString("<a class=\"brand\" href=\"/\">" + esc(cfg.Name) + "</a>")
	buf.WriteString("<ul class=\"nav-links\">")
	for _, cat := range categories {
		buf.WriteString("<li><a href=\"/category/" + esc(cat) + "/\">" + esc(cat) + "</a></li>")
	}
	buf.WriteString("<li><a href=\"/about/\">About</a></li>")
	buf.WriteString("<li><a href=\"/contact/\">Contact</a></li>")
	buf.WriteString("</ul>")
	buf.WriteString("<div class=\"search\"><input id=\"search-input\" type=\"search\" placeholder=\"Search articles...\" autocomplete=\"off\"/>")
	buf.WriteString("<ul id=\"search-results\" hidden></ul></div>")
	buf.WriteString("</nav></header>")
	buf.WriteString("<script src=\"/public/search.js\" defer></script>")
}

func writeFooter(buf *bytes.Buffer, cfg SiteConfig) {
	buf.WriteString("<footer class=\"site-footer\">")
	buf.WriteString("<form class=\"newsletter\" data-endpoint=\"/api/newsletter-subscribe\">")
	buf.WriteString("<label for=\"newsletter-email\">Subscribe to our newsletter</label>")
	buf.WriteString("<input id=\"newsletter-email\" type=\"email\" name=\"email\" placeholder=\"you@example.com\" required/>")
	buf.WriteString("<button type=\"submit\">Subscribe</button>")
	buf.WriteString("<p class=\"newsletter-status\" role=\"status\"></p>")
	buf.WriteString("</form>")
	buf.WriteString("<p>&copy; " + time.Now().Format("2006") + " " + esc(cfg.Name) + "</p>")
	buf.WriteString("</footer>")
	buf.WriteString("<script src=\"/public/forms.js\" defer></script>")
	buf.WriteString("</body></html>")
}

func writePostCard(buf *bytes.Buffer, p BlogPost) {
	buf.WriteString("<article class=\"post-card\">")
	if p.ImageURL != "" {
		buf.WriteString("<img src=\"" + esc(p.ImageURL) + "\" alt=\"\" loading=\"lazy\"/>")
	}
	buf.WriteString("<span class=\"category\">" + esc(p.Category) + "</span>")
	buf.WriteString("<h2><a href=\"" + esc(p.Link()) + "\">" + esc(p.Title) + "</a></h2>")
	if p.Excerpt != "" {
		buf.WriteString("<p>" + esc(p.Excerpt) + "</p>")
	}
	buf.WriteString("<p class=\"meta\">" + esc(p.Author))
	if !p.PublishedAt.IsZero() {
		buf.WriteString(" · " + p.PublishedAt.Format("Jan 2, 2006"))
	}
	if p.ReadTime > 0 {
		fmt.Fprintf(buf, " · %d min read", p.ReadTime)
	}
	buf.WriteString("</p></article>")
}

func viewHome(cfg SiteConfig, featured, posts []BlogPost, categories []string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "")
		writeNav(buf, cfg, categories)
		buf.WriteString("<main>")
		if len(featured) > 0 {
			buf.WriteString("<section class=\"featured\"><h1>Featured</h1>")
			for _, p := range featured {
				writePostCard(buf, p)
			}
			buf.WriteString("</section>")
		}
		buf.WriteString("<section class=\"latest\"><h1>Latest Articles</h1>")
		for _, p := range posts {
			writePostCard(buf, p)
		}
		if len(posts) == 0 {
			buf.WriteString("<p>No articles yet. Check back soon.</p>")
		}
		buf.WriteString("</section></main>")
		writeFooter(buf, cfg)
	})
}

func viewCategory(cfg SiteConfig, category string, posts []BlogPost) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, category)
		writeNav(buf, cfg, nil)
		buf.WriteString("<main><h1>" + esc(category) + "</h1>")
		for _, p := range posts {
			writePostCard(buf, p)
		}
		buf.WriteString("</main>")
		writeFooter(buf, cfg)
	})
}

func viewPost(cfg SiteConfig, post BlogPost, comments []Comment, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, post.Title)
		writeNav(buf, cfg, nil)
		buf.WriteString("<main><article class=\"post\">")
		buf.WriteString("<span class=\"category\">" + esc(post.Category) + "</span>")
		buf.WriteString("<h1>" + esc(post.Title) + "</h1>")
		buf.WriteString("<p class=\"meta\">" + esc(post.Author))
		if !post.PublishedAt.IsZero() {
			buf.WriteString(" · " + post.PublishedAt.Format("January 2, 2006"))
		}
		if post.ReadTime > 0 {
			fmt.Fprintf(buf, " · %d min read", post.ReadTime)
		}
		fmt.Fprintf(buf, " · %d views", post.Views)
		buf.WriteString("</p>")
		if post.ImageURL != "" {
			buf.WriteString("<img class=\"hero\" src=\"" + esc(post.ImageURL) + "\" alt=\"\"/>")
		}
		buf.WriteString("<div class=\"content\">")
		buf.WriteString(renderMarkdown(post.Content))
		buf.WriteString("</div>")
		if len(post.Tags) > 0 {
			buf.WriteString("<ul class=\"tags\">")
			for _, tag := range post.Tags {
				buf.WriteString("<li>" + esc(tag) + "</li>")
			}
			buf.WriteString("</ul>")
		}
		buf.WriteString("</article>")

		buf.WriteString("<section class=\"comments\"><h2>Comments</h2>")
		if len(comments) == 0 {
			buf.WriteString("<p>No comments yet.</p>")
		}
		for _, cm := range comments {
			buf.WriteString("<div class=\"comment\">")
			buf.WriteString("<p class=\"meta\">" + esc(cm.AuthorName) + " · " + cm.CreatedAt.Format("Jan 2, 2006") + "</p>")
			buf.WriteString("<p>" + esc(cm.Content) + "</p>")
			buf.WriteString("</div>")
		}
		buf.WriteString("<form method=\"post\" action=\"" + esc(post.Link()) + "comments/\">")
		buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
		buf.WriteString("<input name=\"author_name\" placeholder=\"Name\" required/>")
		buf.WriteString("<input name=\"author_email\" type=\"email\" placeholder=\"Email (not published)\" required/>")
		buf.WriteString("<textarea name=\"content\" placeholder=\"Your comment\" required></textarea>")
		buf.WriteString("<button type=\"submit\">Post Comment</button>")
		buf.WriteString("</form></section></main>")
		writeFooter(buf, cfg)
	})
}

func viewPage(cfg SiteConfig, page SitePage) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, page.Title)
		writeNav(buf, cfg, nil)
		buf.WriteString("<main><article class=\"page\">")
		buf.WriteString("<h1>" + esc(page.Title) + "</h1>")
		buf.WriteString("<div class=\"content\">")
		buf.WriteString(renderMarkdown(page.Content))
		buf.WriteString("</div></article>")
		if page.Slug == "contact" {
			writeContactForm(buf)
		}
		buf.WriteString("</main>")
		writeFooter(buf, cfg)
	})
}

func writeContactForm(buf *bytes.Buffer) {
	buf.WriteString("<form class=\"contact-form\" data-endpoint=\"/api/send-contact-email\">")
	buf.WriteString("<input name=\"company\" placeholder=\"Company\" required/>")
	buf.WriteString("<input name=\"firstName\" placeholder=\"First name\" required/>")
	buf.WriteString("<input name=\"lastName\" placeholder=\"Last name\" required/>")
	buf.WriteString("<input name=\"email\" type=\"email\" placeholder=\"Email\" required/>")
	buf.WriteString("<input name=\"phone\" placeholder=\"Phone\" required/>")
	buf.WriteString("<select name=\"inquiryType\">")
	for _, opt := range []string{"General", "Partnership", "Advertising", "Press"} {
		buf.WriteString("<option>" + opt + "</option>")
	}
	buf.WriteString("</select>")
	buf.WriteString("<textarea name=\"message\" placeholder=\"Message\" required></textarea>")
	buf.WriteString("<button type=\"submit\">Send Message</button>")
	buf.WriteString("<p class=\"contact-status\" role=\"status\"></p>")
	buf.WriteString("</form>")
}

func viewNotFound(cfg SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Not Found")
		writeNav(buf, cfg, nil)
		buf.WriteString("<main class=\"error-page\"><h1>404</h1>")
		buf.WriteString("<p>The page you are looking for does not exist.</p>")
		buf.WriteString("<p><a href=\"/\">Back to the homepage</a></p></main>")
		writeFooter(buf, cfg)
	})
}

func viewServerError(cfg SiteConfig) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Something went wrong")
		writeNav(buf, cfg, nil)
		buf.WriteString("<main class=\"error-page\"><h1>500</h1>")
		buf.WriteString("<p>Something went wrong on our side. Please try again later.</p></main>")
		writeFooter(buf, cfg)
	})
}

func viewAdminLogin(cfg SiteConfig, showError bool, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Admin Login")
		buf.WriteString("<main class=\"admin-login\"><h1>Admin</h1>")
		if showError {
			buf.WriteString("<p class=\"error\">Wrong password.</p>")
		}
		buf.WriteString("<form method=\"post\" action=\"/admin/login/\">")
		buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
		buf.WriteString("<input type=\"password\" name=\"password\" placeholder=\"Password\" autofocus required/>")
		buf.WriteString("<button type=\"submit\">Log in</button>")
		buf.WriteString("</form></main></body></html>")
	})
}

func viewAdminDashboard(cfg SiteConfig, posts []BlogPost, message, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Dashboard")
		buf.WriteString("<main class=\"admin\"><header><h1>Dashboard</h1>")
		buf.WriteString("<nav><a href=\"/admin/editor/\">New Article</a> <a href=\"/admin/images/\">Images</a></nav>")
		buf.WriteString("<form method=\"post\" action=\"/admin/logout/\">")
		buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
		buf.WriteString("<button type=\"submit\">Log out</button></form></header>")
		if message != "" {
			buf.WriteString("<p class=\"flash\">" + esc(message) + "</p>")
		}
		buf.WriteString("<table><thead><tr><th>Title</th><th>Category</th><th>Status</th><th>Views</th><th></th></tr></thead><tbody>")
		for _, p := range posts {
			buf.WriteString("<tr><td>" + esc(p.Title) + "</td>")
			buf.WriteString("<td>" + esc(p.Category) + "</td>")
			status := "Draft"
			if p.Published {
				status = "Published"
			}
			if p.Featured {
				status += " · Featured"
			}
			buf.WriteString("<td>" + status + "</td>")
			fmt.Fprintf(buf, "<td>%d</td>", p.Views)
			buf.WriteString("<td><form method=\"post\" action=\"/admin/editor/load/\">")
			buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
			buf.WriteString("<input type=\"hidden\" name=\"id\" value=\"" + esc(p.ID) + "\"/>")
			buf.WriteString("<button type=\"submit\">Edit</button></form>")
			buf.WriteString("<button class=\"delete\" data-id=\"" + esc(p.ID) + "\" data-csrf=\"" + esc(csrfToken) + "\">Delete</button></td></tr>")
		}
		buf.WriteString("</tbody></table>")
		buf.WriteString("<script src=\"/public/dashboard.js\" defer></script>")
		buf.WriteString("</main></body></html>")
	})
}

func editorField(buf *bytes.Buffer, label, name, value string) {
	buf.WriteString("<label>" + label)
	buf.WriteString("<input name=\"" + name + "\" value=\"" + esc(value) + "\"/>")
	buf.WriteString("</label>")
}

func viewEditor(cfg SiteConfig, form DraftForm, target DraftTarget, drafts []DraftSummary, lastSaved time.Time, message, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Editor")
		buf.WriteString("<main class=\"admin editor\"><header><h1>Editor</h1>")
		buf.WriteString("<p id=\"save-status\" data-csrf=\"" + esc(csrfToken) + "\">")
		if _, ok := target.Existing(); ok && !lastSaved.IsZero() {
			buf.WriteString("Saved " + lastSaved.Format("15:04:05"))
		} else {
			buf.WriteString("Not saved yet")
		}
		buf.WriteString("</p>")
		buf.WriteString("<nav><a href=\"/admin/\">Dashboard</a></nav></header>")
		if message != "" {
			buf.WriteString("<p class=\"flash\">" + esc(message) + "</p>")
		}

		if len(drafts) > 0 {
			buf.WriteString("<section class=\"drafts\"><h2>Continue writing</h2><ul>")
			for _, d := range drafts {
				buf.WriteString("<li><form method=\"post\" action=\"/admin/editor/load/\">")
				buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
				buf.WriteString("<input type=\"hidden\" name=\"id\" value=\"" + esc(d.ID) + "\"/>")
				buf.WriteString("<button type=\"submit\">" + esc(d.Title) + "</button>")
				buf.WriteString("<span class=\"meta\">" + d.UpdatedAt.Format("Jan 2 15:04") + "</span>")
				buf.WriteString("</form></li>")
			}
			buf.WriteString("</ul>")
			buf.WriteString("<form method=\"post\" action=\"/admin/editor/new/\">")
			buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
			buf.WriteString("<button type=\"submit\">Start fresh</button></form></section>")
		}

		buf.WriteString("<form id=\"editor-form\" method=\"post\" action=\"/admin/editor/submit/\">")
		buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
		editorField(buf, "Title", "title", form.Title)
		editorField(buf, "Slug", "slug", form.Slug)
		editorField(buf, "Excerpt", "excerpt", form.Excerpt)
		buf.WriteString("<label>Content<textarea name=\"content\" rows=\"20\">" + esc(form.Content) + "</textarea></label>")
		editorField(buf, "Category", "category", form.Category)
		editorField(buf, "Author", "author", form.Author)
		editorField(buf, "Image URL", "image_url", form.ImageURL)
		editorField(buf, "Tags (comma separated)", "tags", form.Tags)
		fmt.Fprintf(buf, "<label>Read time (minutes)<input name=\"read_time\" type=\"number\" min=\"1\" value=\"%d\"/></label>", form.ReadTime)
		buf.WriteString("<label><input type=\"checkbox\" name=\"published\"")
		if form.Published {
			buf.WriteString(" checked")
		}
		buf.WriteString("/> Published</label>")
		buf.WriteString("<label><input type=\"checkbox\" name=\"featured\"")
		if form.Featured {
			buf.WriteString(" checked")
		}
		buf.WriteString("/> Featured</label>")
		buf.WriteString("<button type=\"submit\">Save Article</button>")
		buf.WriteString("</form>")
		buf.WriteString("<script src=\"/public/editor.js\" defer></script>")
		buf.WriteString("</main></body></html>")
	})
}

func viewAdminImages(cfg SiteConfig, images []Image, csrfToken string) templ.Component {
	return component(func(buf *bytes.Buffer) {
		writeHead(buf, cfg, "Images")
		buf.WriteString("<main class=\"admin\"><header><h1>Images</h1>")
		buf.WriteString("<nav><a href=\"/admin/\">Dashboard</a></nav></header>")
		buf.WriteString("<form method=\"post\" action=\"/admin/images/upload/\" enctype=\"multipart/form-data\">")
		buf.WriteString("<input type=\"hidden\" name=\"_csrf\" value=\"" + esc(csrfToken) + "\"/>")
		buf.WriteString("<input type=\"file\" name=\"image\" accept=\"image/*\" required/>")
		buf.WriteString("<button type=\"submit\">Upload</button></form>")
		buf.WriteString("<ul class=\"image-list\">")
		for _, img := range images {
			buf.WriteString("<li><img src=\"/public/" + uploadsSubdir + "/" + esc(img.Filename) + "\" alt=\"" + esc(img.OriginalName) + "\" loading=\"lazy\"/>")
			fmt.Fprintf(buf, "<p class=\"meta\">%s · %dx%d · %d bytes</p>", esc(img.Filename), img.Width, img.Height, img.Size)
			buf.WriteString("</li>")
		}
		buf.WriteString("</ul></main></body></html>")
	})
}
