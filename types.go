package techpulse

import "time"

// BlogPost is the core content type stored in the database and rendered
// by templates. PublishedAt is the zero time until the post is first
// submitted with Published set.
type BlogPost struct {
	ID          string
	Title       string
	Slug        string
	Excerpt     string
	Content     string
	Category    string
	Author      string
	ImageURL    string
	Tags        []string
	ReadTime    int
	Published   bool
	Featured    bool
	Views       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt time.Time
}

// Link returns the canonical site path for the post.
func (p BlogPost) Link() string {
	return "/blog/" + p.Slug + "/"
}

// DraftSummary is the projection shown in the admin "continue writing"
// picklist.
type DraftSummary struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a reader comment on a blog post. Only approved comments are
// shown publicly; approval happens outside this application.
type Comment struct {
	ID          string
	BlogPostID  string
	AuthorName  string
	AuthorEmail string
	Content     string
	Approved    bool
	CreatedAt   time.Time
}

// SitePage is static page content such as the about and contact pages.
type SitePage struct {
	ID        string
	Slug      string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactSubmission is a record of a contact-form request. Processing is
// external; this application only creates rows.
type ContactSubmission struct {
	ID        int64
	FullName  string
	Email     string
	Phone     string
	Subject   string
	Message   string
	Processed bool
	CreatedAt time.Time
}

// SearchResult is one entry in a merged content search. Type is "blog"
// for posts and "page" for site pages.
type SearchResult struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Slug    string `json:"slug"`
	Type    string `json:"type"`
}

// Route returns the site path a result navigates to when selected.
func (r SearchResult) Route() string {
	if r.Type == "blog" {
		return "/blog/" + r.Slug + "/"
	}
	return "/" + r.Slug + "/"
}

// Image is metadata for an uploaded and processed image.
type Image struct {
	Filename     string
	OriginalName string
	Width        int
	Height       int
	Size         int
	UploadedAt   string
}
