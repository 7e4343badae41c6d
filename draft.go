package techpulse

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// draftStore is the slice of Store the authoring flow needs.
type draftStore interface {
	CreatePost(p BlogPost) (string, error)
	UpdatePost(id string, p BlogPost) error
	GetPost(id string) (BlogPost, error)
	ListDrafts(limit int) ([]DraftSummary, error)
}

// draftPicklistSize caps the "continue writing" picklist.
const draftPicklistSize = 10

// DraftTarget states whether a save creates a new row or updates an
// existing one. The zero value is a new draft; once an id is captured the
// target sticks to that row.
type DraftTarget struct {
	id string
}

// NewDraft is a target with no backing row yet.
func NewDraft() DraftTarget {
	return DraftTarget{}
}

// ExistingDraft targets the row with the given id.
func ExistingDraft(id string) DraftTarget {
	return DraftTarget{id: id}
}

// Existing reports the backing row id, if one has been captured.
func (t DraftTarget) Existing() (string, bool) {
	return t.id, t.id != ""
}

// DraftForm holds the editable fields of a post being authored. Tags stay
// a raw comma-separated string until save. The slug tracks the title until
// the author edits it by hand.
type DraftForm struct {
	Title    string
	Slug     string
	Excerpt  string
	Content  string
	Category string
	Author   string
	ImageURL string
	Tags     string
	ReadTime int
	Published bool
	Featured  bool

	slugEdited bool
}

func newDraftForm() DraftForm {
	return DraftForm{ReadTime: 5}
}

// SetTitle updates the title and re-derives the slug unless the author
// has entered one explicitly.
func (f *DraftForm) SetTitle(title string) {
	f.Title = title
	if !f.slugEdited {
		f.Slug = Slugify(title)
	}
}

// SetSlug records an explicit slug. Clearing the field hands derivation
// back to the title.
func (f *DraftForm) SetSlug(slug string) {
	f.Slug = strings.TrimSpace(slug)
	f.slugEdited = f.Slug != ""
}

// SetField applies a single named form field. Unknown names are ignored
// so the editor UI can post its whole form unfiltered.
func (f *DraftForm) SetField(name, value string) {
	switch name {
	case "title":
		f.SetTitle(value)
	case "slug":
		f.SetSlug(value)
	case "excerpt":
		f.Excerpt = value
	case "content":
		f.Content = value
	case "category":
		f.Category = value
	case "author":
		f.Author = value
	case "image_url":
		f.ImageURL = value
	case "tags":
		f.Tags = value
	case "read_time":
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			f.ReadTime = n
		}
	case "published":
		f.Published = value == "true" || value == "on" || value == "1"
	case "featured":
		f.Featured = value == "true" || value == "on" || value == "1"
	}
}

// validate checks the fields required before a submit may persist.
func (f DraftForm) validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return errors.New("title is required")
	case strings.TrimSpace(f.Slug) == "":
		return errors.New("slug is required")
	case strings.TrimSpace(f.Content) == "":
		return errors.New("content is required")
	case strings.TrimSpace(f.Category) == "":
		return errors.New("category is required")
	case strings.TrimSpace(f.Author) == "":
		return errors.New("author is required")
	}
	return nil
}

// post builds the record a submit persists. The published_at stamp is the
// caller's concern.
func (f DraftForm) post() BlogPost {
	return BlogPost{
		Title:     f.Title,
		Slug:      f.Slug,
		Excerpt:   f.Excerpt,
		Content:   f.Content,
		Category:  f.Category,
		Author:    f.Author,
		ImageURL:  f.ImageURL,
		Tags:      ParseTagInput(f.Tags),
		ReadTime:  f.ReadTime,
		Published: f.Published,
		Featured:  f.Featured,
	}
}

// draftPost builds the record an autosave persists: always unpublished,
// never featured, with placeholder values where required columns would
// otherwise be empty.
func (f DraftForm) draftPost() BlogPost {
	p := f.post()
	if p.Title == "" {
		p.Title = "Untitled Draft"
	}
	if p.Slug == "" {
		p.Slug = fmt.Sprintf("draft-%d", time.Now().UnixMilli())
	}
	if p.Category == "" {
		p.Category = "Draft"
	}
	if p.Author == "" {
		p.Author = "Unknown"
	}
	p.Published = false
	p.Featured = false
	return p
}

// EditorSession is the server-side state of one authoring screen. It owns
// the periodic autosave task; Close stops the task and must be called on
// teardown.
type EditorSession struct {
	store draftStore

	mu        sync.Mutex
	form      DraftForm
	target    DraftTarget
	lastSaved time.Time
	saving    bool
	lastUsed  time.Time

	stopOnce sync.Once
	stop     func()
}

func newEditorSession(store draftStore, autosaveInterval time.Duration) *EditorSession {
	s := &EditorSession{
		store:    store,
		form:     newDraftForm(),
		target:   NewDraft(),
		lastUsed: time.Now(),
	}
	s.stop = s.startAutosave(autosaveInterval)
	return s
}

// startAutosave runs the periodic autosave task. Returns a stop function.
func (s *EditorSession) startAutosave(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Autosave()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// Close stops the autosave task. Safe to call more than once.
func (s *EditorSession) Close() {
	s.stopOnce.Do(s.stop)
}

// touch marks the session as recently used for idle reaping.
func (s *EditorSession) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

func (s *EditorSession) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(cutoff)
}

// SetField applies a single form field update.
func (s *EditorSession) SetField(name, value string) {
	s.mu.Lock()
	s.form.SetField(name, value)
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Form returns a snapshot of the current form state.
func (s *EditorSession) Form() DraftForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Status reports save progress for the editor header.
func (s *EditorSession) Status() (lastSaved time.Time, saving bool, target DraftTarget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved, s.saving, s.target
}

// Autosave persists the current form as an unpublished draft: a create
// when no target row exists yet (capturing the assigned id), an update
// otherwise. Empty forms are skipped. Errors are logged and swallowed —
// autosave must never interrupt authoring. Overlapping cycles are
// last-write-wins by design of the flow.
func (s *EditorSession) Autosave() {
	s.mu.Lock()
	form := s.form
	target := s.target
	if form.Title == "" && form.Content == "" {
		s.mu.Unlock()
		return
	}
	s.saving = true
	s.mu.Unlock()

	post := form.draftPost()
	var err error
	if id, ok := target.Existing(); ok {
		err = s.store.UpdatePost(id, post)
	} else {
		var id string
		id, err = s.store.CreatePost(post)
		if err == nil {
			s.mu.Lock()
			// A concurrent cycle may have captured a target already;
			// the first capture wins.
			if _, exists := s.target.Existing(); !exists {
				s.target = ExistingDraft(id)
			}
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.saving = false
	if err == nil {
		s.lastSaved = time.Now()
	}
	s.mu.Unlock()
	if err != nil {
		log.Printf("editor: autosave failed: %v", err)
	}
}

// LoadDraft replaces the form with a stored draft and retargets saves at
// that row.
func (s *EditorSession) LoadDraft(id string) error {
	post, err := s.store.GetPost(id)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}
	s.mu.Lock()
	s.form = DraftForm{
		Title:      post.Title,
		Slug:       post.Slug,
		Excerpt:    post.Excerpt,
		Content:    post.Content,
		Category:   post.Category,
		Author:     post.Author,
		ImageURL:   post.ImageURL,
		Tags:       JoinTags(post.Tags),
		ReadTime:   post.ReadTime,
		Published:  post.Published,
		Featured:   post.Featured,
		slugEdited: post.Slug != "",
	}
	s.target = ExistingDraft(id)
	s.lastUsed = time.Now()
	s.mu.Unlock()
	return nil
}

// StartNew clears the form and the draft target. Persisted drafts are
// left untouched.
func (s *EditorSession) StartNew() {
	s.mu.Lock()
	s.form = newDraftForm()
	s.target = NewDraft()
	s.lastSaved = time.Time{}
	s.lastUsed = time.Now()
	s.mu.Unlock()
}

// Submit validates and persists the form as an article, stamping
// published_at when publishing. On success the session resets to a fresh
// new-post state; on failure the form is left intact for correction.
// Returns whether a new row was created.
func (s *EditorSession) Submit() (created bool, err error) {
	s.mu.Lock()
	form := s.form
	target := s.target
	s.mu.Unlock()

	if err := form.validate(); err != nil {
		return false, err
	}

	post := form.post()
	if post.Published {
		post.PublishedAt = time.Now().UTC()
	}

	if id, ok := target.Existing(); ok {
		err = s.store.UpdatePost(id, post)
	} else {
		_, err = s.store.CreatePost(post)
		created = true
	}
	if err != nil {
		return created, err
	}

	s.StartNew()
	return created, nil
}

// Drafts returns the picklist of recent unpublished posts.
func (s *EditorSession) Drafts() ([]DraftSummary, error) {
	return s.store.ListDrafts(draftPicklistSize)
}

// EditorManager tracks editor sessions by token and reaps sessions whose
// owners walked away, so abandoned autosave tickers don't accumulate.
type EditorManager struct {
	store    draftStore
	interval time.Duration

	mu       sync.Mutex
	sessions map[string]*EditorSession

	stopOnce sync.Once
	stop     func()
}

// NewEditorManager creates a manager whose sessions autosave every
// autosaveInterval and are reaped after idleTimeout without use.
func NewEditorManager(store draftStore, autosaveInterval, idleTimeout time.Duration) *EditorManager {
	m := &EditorManager{
		store:    store,
		interval: autosaveInterval,
		sessions: make(map[string]*EditorSession),
	}
	m.stop = m.startReaper(idleTimeout)
	return m
}

func (m *EditorManager) startReaper(idleTimeout time.Duration) func() {
	ticker := time.NewTicker(idleTimeout / 2)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				cutoff := time.Now().Add(-idleTimeout)
				m.mu.Lock()
				for token, sess := range m.sessions {
					if sess.idleSince(cutoff) {
						sess.Close()
						delete(m.sessions, token)
					}
				}
				m.mu.Unlock()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// Open creates a fresh editor session and returns its token.
func (m *EditorManager) Open() (string, *EditorSession) {
	token := uuid.NewString()
	sess := newEditorSession(m.store, m.interval)
	m.mu.Lock()
	m.sessions[token] = sess
	m.mu.Unlock()
	return token, sess
}

// Get returns the session for a token, if it is still alive.
func (m *EditorManager) Get(token string) (*EditorSession, bool) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	m.mu.Unlock()
	if ok {
		sess.touch()
	}
	return sess, ok
}

// CloseSession stops and forgets the session for a token.
func (m *EditorManager) CloseSession(token string) {
	m.mu.Lock()
	sess, ok := m.sessions[token]
	delete(m.sessions, token)
	m.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Close stops the reaper and every remaining session.
func (m *EditorManager) Close() {
	m.stopOnce.Do(m.stop)
	m.mu.Lock()
	for token, sess := range m.sessions {
		sess.Close()
		delete(m.sessions, token)
	}
	m.mu.Unlock()
}
