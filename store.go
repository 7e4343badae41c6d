package techpulse

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database and provides persistence for posts,
// comments, site pages, contact submissions and image metadata.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of failing with SQLITE_BUSY, synchronous=NORMAL is safe
	// under WAL and avoids an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS blog_posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    excerpt TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    author TEXT NOT NULL,
    image_url TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    read_time INTEGER NOT NULL DEFAULT 5,
    published INTEGER NOT NULL DEFAULT 0,
    featured INTEGER NOT NULL DEFAULT 0,
    views INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    published_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_blog_posts_published ON blog_posts(published, published_at);
CREATE INDEX IF NOT EXISTS idx_blog_posts_category ON blog_posts(category);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    blog_post_id TEXT NOT NULL REFERENCES blog_posts(id),
    author_name TEXT NOT NULL,
    author_email TEXT NOT NULL,
    content TEXT NOT NULL,
    approved INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(blog_post_id, approved);

CREATE TABLE IF NOT EXISTS site_pages (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS contact_submissions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    full_name TEXT NOT NULL,
    email TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    processed INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS images (
    filename TEXT PRIMARY KEY,
    original_name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    size INTEGER NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

const postColumns = `id, title, slug, excerpt, content, category, author, image_url, tags, read_time, published, featured, views, created_at, updated_at, published_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (BlogPost, error) {
	var p BlogPost
	var tags, createdAt, updatedAt string
	var publishedAt sql.NullString
	var published, featured int
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Excerpt, &p.Content, &p.Category,
		&p.Author, &p.ImageURL, &tags, &p.ReadTime, &published, &featured,
		&p.Views, &createdAt, &updatedAt, &publishedAt)
	if err != nil {
		return BlogPost{}, err
	}
	p.Tags = decodeTags(tags)
	p.Published = published == 1
	p.Featured = featured == 1
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	if publishedAt.Valid {
		p.PublishedAt = parseTime(publishedAt.String)
	}
	return p, nil
}

func collectPosts(rows *sql.Rows) ([]BlogPost, error) {
	defer rows.Close()
	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPublished returns published posts, optionally filtered by category
// and/or the featured flag, newest first. Category feeds order by
// created_at, the general feed by published_at. A limit <= 0 returns all
// rows.
func (s *Store) ListPublished(category string, featuredOnly bool, limit int) ([]BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE published = 1`
	var args []any
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if featuredOnly {
		query += ` AND featured = 1`
	}
	if category != "" {
		query += ` ORDER BY created_at DESC`
	} else {
		query += ` ORDER BY published_at DESC`
	}
	if limit <= 0 {
		limit = -1
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published: %w", err)
	}
	return collectPosts(rows)
}

// GetPublished returns a single published post by slug.
func (s *Store) GetPublished(slug string) (BlogPost, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM blog_posts WHERE slug = ? AND published = 1`, slug)
	return scanPost(row)
}

// IncrementViews adds one to the view counter of a post. It is issued as
// a separate statement after a successful fetch; the pair is deliberately
// not atomic.
func (s *Store) IncrementViews(id string) error {
	_, err := s.db.Exec(`UPDATE blog_posts SET views = views + 1 WHERE id = ?`, id)
	return err
}

// GetPost returns a post by id regardless of published status (for admin).
func (s *Store) GetPost(id string) (BlogPost, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	return scanPost(row)
}

// ListAllPosts returns every post (published and drafts), most recently
// updated first.
func (s *Store) ListAllPosts() ([]BlogPost, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` FROM blog_posts ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all posts: %w", err)
	}
	return collectPosts(rows)
}

// ListDrafts returns the most recently updated unpublished posts as a
// summary projection for the admin picklist.
func (s *Store) ListDrafts(limit int) ([]DraftSummary, error) {
	rows, err := s.db.Query(`SELECT id, title, created_at, updated_at FROM blog_posts
		WHERE published = 0 ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()
	var drafts []DraftSummary
	for rows.Next() {
		var d DraftSummary
		var createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.Title, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		d.CreatedAt = parseTime(createdAt)
		d.UpdatedAt = parseTime(updatedAt)
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// CreatePost inserts a new post and returns its assigned id.
func (s *Store) CreatePost(p BlogPost) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO blog_posts
		(id, title, slug, excerpt, content, category, author, image_url, tags, read_time, published, featured, views, created_at, updated_at, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Excerpt, p.Content, p.Category, p.Author,
		p.ImageURL, encodeTags(p.Tags), p.ReadTime, boolInt(p.Published),
		boolInt(p.Featured), fmtTime(now), fmtTime(now), nullTime(p.PublishedAt))
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return p.ID, nil
}

// UpdatePost overwrites an existing post's editable fields by id.
func (s *Store) UpdatePost(id string, p BlogPost) error {
	res, err := s.db.Exec(`UPDATE blog_posts SET
		title = ?, slug = ?, excerpt = ?, content = ?, category = ?, author = ?,
		image_url = ?, tags = ?, read_time = ?, published = ?, featured = ?,
		updated_at = ?, published_at = ?
		WHERE id = ?`,
		p.Title, p.Slug, p.Excerpt, p.Content, p.Category, p.Author,
		p.ImageURL, encodeTags(p.Tags), p.ReadTime, boolInt(p.Published),
		boolInt(p.Featured), fmtTime(time.Now().UTC()), nullTime(p.PublishedAt), id)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post and its comments by id.
func (s *Store) DeletePost(id string) error {
	if _, err := s.db.Exec(`DELETE FROM comments WHERE blog_post_id = ?`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	_, err := s.db.Exec(`DELETE FROM blog_posts WHERE id = ?`, id)
	return err
}

// ListCategories returns the distinct categories of published posts.
func (s *Store) ListCategories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM blog_posts WHERE published = 1 ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// SearchPosts runs a case-insensitive substring search over published
// posts' title, excerpt and content, wildcarded on both sides.
func (s *Store) SearchPosts(q string, limit int) ([]SearchResult, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.Query(`SELECT id, title, excerpt, slug FROM blog_posts
		WHERE published = 1 AND (lower(title) LIKE ? OR lower(excerpt) LIKE ? OR lower(content) LIKE ?)
		LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search posts: %w", err)
	}
	defer rows.Close()
	var results []SearchResult
	for rows.Next() {
		r := SearchResult{Type: "blog"}
		if err := rows.Scan(&r.ID, &r.Title, &r.Excerpt, &r.Slug); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// SearchPages runs a case-insensitive substring search over site pages'
// title and content.
func (s *Store) SearchPages(q string, limit int) ([]SearchResult, error) {
	pattern := "%" + strings.ToLower(q) + "%"
	rows, err := s.db.Query(`SELECT id, title, slug FROM site_pages
		WHERE lower(title) LIKE ? OR lower(content) LIKE ?
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search pages: %w", err)
	}
	defer rows.Close()
	var results []SearchResult
	for rows.Next() {
		r := SearchResult{Type: "page"}
		if err := rows.Scan(&r.ID, &r.Title, &r.Slug); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ListComments returns the approved comments of a post, newest first.
func (s *Store) ListComments(postID string) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT id, blog_post_id, author_name, author_email, content, approved, created_at
		FROM comments WHERE blog_post_id = ? AND approved = 1 ORDER BY created_at DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var comments []Comment
	for rows.Next() {
		var cm Comment
		var approved int
		var createdAt string
		if err := rows.Scan(&cm.ID, &cm.BlogPostID, &cm.AuthorName, &cm.AuthorEmail,
			&cm.Content, &approved, &createdAt); err != nil {
			return nil, err
		}
		cm.Approved = approved == 1
		cm.CreatedAt = parseTime(createdAt)
		comments = append(comments, cm)
	}
	return comments, rows.Err()
}

// AddComment inserts a comment awaiting approval and returns its id.
// The approved flag is forced to false regardless of input.
func (s *Store) AddComment(cm Comment) (string, error) {
	if cm.ID == "" {
		cm.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO comments
		(id, blog_post_id, author_name, author_email, content, approved, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		cm.ID, cm.BlogPostID, cm.AuthorName, cm.AuthorEmail, cm.Content,
		fmtTime(time.Now().UTC()))
	if err != nil {
		return "", fmt.Errorf("add comment: %w", err)
	}
	return cm.ID, nil
}

// GetPage returns a site page by slug.
func (s *Store) GetPage(slug string) (SitePage, error) {
	var p SitePage
	var createdAt, updatedAt string
	err := s.db.QueryRow(`SELECT id, slug, title, content, created_at, updated_at
		FROM site_pages WHERE slug = ?`, slug).
		Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &createdAt, &updatedAt)
	if err != nil {
		return SitePage{}, err
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// ListPages returns all site pages ordered by slug.
func (s *Store) ListPages() ([]SitePage, error) {
	rows, err := s.db.Query(`SELECT id, slug, title, content, created_at, updated_at FROM site_pages ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()
	var pages []SitePage
	for rows.Next() {
		var p SitePage
		var createdAt, updatedAt string
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Content, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		p.UpdatedAt = parseTime(updatedAt)
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// SavePage upserts a site page by slug.
func (s *Store) SavePage(p SitePage) error {
	now := fmtTime(time.Now().UTC())
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO site_pages (id, slug, title, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET title = excluded.title, content = excluded.content, updated_at = excluded.updated_at`,
		p.ID, p.Slug, p.Title, p.Content, now, now)
	if err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	return nil
}

// AddContactSubmission records a contact-form request and returns its id.
func (s *Store) AddContactSubmission(cs ContactSubmission) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO contact_submissions
		(full_name, email, phone, subject, message, processed, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		cs.FullName, cs.Email, cs.Phone, cs.Subject, cs.Message,
		fmtTime(time.Now().UTC()))
	if err != nil {
		return 0, fmt.Errorf("add contact submission: %w", err)
	}
	return res.LastInsertId()
}

// SaveImage records uploaded image metadata.
func (s *Store) SaveImage(img Image) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO images (filename, original_name, width, height, size, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		img.Filename, img.OriginalName, img.Width, img.Height, img.Size, img.UploadedAt)
	return err
}

// ListImages returns all uploaded images, newest first.
func (s *Store) ListImages() ([]Image, error) {
	rows, err := s.db.Query(`SELECT filename, original_name, width, height, size, uploaded_at
		FROM images ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()
	var images []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.Filename, &img.OriginalName, &img.Width, &img.Height,
			&img.Size, &img.UploadedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// DeleteImage removes image metadata by filename.
func (s *Store) DeleteImage(filename string) error {
	_, err := s.db.Exec(`DELETE FROM images WHERE filename = ?`, filename)
	return err
}

// Tags are stored comma-wrapped (",go,web,") so single-tag matching can
// use plain substring queries.

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	trimmed := make([]string, len(tags))
	for i, t := range tags {
		trimmed[i] = strings.TrimSpace(t)
	}
	return "," + strings.Join(trimmed, ",") + ","
}

func decodeTags(tagString string) []string {
	tagString = strings.Trim(tagString, ",")
	if tagString == "" {
		return nil
	}
	parts := strings.Split(tagString, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed-width so lexicographic ordering of stored values
// matches chronological ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return fmtTime(t)
}
