package techpulse

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeDraftStore is an in-memory draftStore that counts calls.
type fakeDraftStore struct {
	mu      sync.Mutex
	posts   map[string]BlogPost
	creates int
	updates int
	nextID  int
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{posts: make(map[string]BlogPost)}
}

func (f *fakeDraftStore) CreatePost(p BlogPost) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.nextID++
	id := string(rune('a' + f.nextID - 1))
	p.ID = id
	f.posts[id] = p
	return id, nil
}

func (f *fakeDraftStore) UpdatePost(id string, p BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.posts[id]; !ok {
		return ErrNotFound
	}
	f.updates++
	p.ID = id
	f.posts[id] = p
	return nil
}

func (f *fakeDraftStore) GetPost(id string) (BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.posts[id]
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return p, nil
}

func (f *fakeDraftStore) ListDrafts(limit int) ([]DraftSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var drafts []DraftSummary
	for id, p := range f.posts {
		if !p.Published {
			drafts = append(drafts, DraftSummary{ID: id, Title: p.Title})
		}
		if len(drafts) == limit {
			break
		}
	}
	return drafts, nil
}

func (f *fakeDraftStore) counts() (creates, updates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates, f.updates
}

func (f *fakeDraftStore) saved(id string) BlogPost {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.posts[id]
}

func testSession(store draftStore) *EditorSession {
	// Autosave interval far beyond test duration; cycles are driven
	// explicitly via Autosave().
	s := newEditorSession(store, time.Hour)
	return s
}

func TestDraftFormSlugDerivation(t *testing.T) {
	form := newDraftForm()

	form.SetTitle("Hello, World! 2024")
	if form.Slug != "hello-world-2024" {
		t.Errorf("Slug = %q, want hello-world-2024", form.Slug)
	}

	form.SetTitle("Hello, World! 2025")
	if form.Slug != "hello-world-2025" {
		t.Errorf("Slug should track title edits, got %q", form.Slug)
	}

	// A manual slug stops derivation.
	form.SetSlug("my-own-slug")
	form.SetTitle("Completely Different")
	if form.Slug != "my-own-slug" {
		t.Errorf("Slug = %q, want manual slug preserved", form.Slug)
	}

	// Clearing the slug hands derivation back to the title.
	form.SetSlug("")
	form.SetTitle("Back Again")
	if form.Slug != "back-again" {
		t.Errorf("Slug = %q, want back-again after clearing", form.Slug)
	}
}

func TestAutosaveCreatesOnceThenUpdates(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	sess.SetField("title", "My Draft")
	sess.Autosave()
	sess.SetField("content", "some words")
	sess.Autosave()
	sess.Autosave()

	creates, updates := store.counts()
	if creates != 1 {
		t.Errorf("creates = %d, want 1 (same row reused)", creates)
	}
	if updates != 2 {
		t.Errorf("updates = %d, want 2", updates)
	}

	lastSaved, saving, target := sess.Status()
	if lastSaved.IsZero() {
		t.Error("lastSaved should be set after a successful autosave")
	}
	if saving {
		t.Error("saving should be false between cycles")
	}
	if _, ok := target.Existing(); !ok {
		t.Error("target should point at the created row")
	}
}

func TestAutosaveSkipsEmptyForm(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	sess.Autosave()

	creates, updates := store.counts()
	if creates != 0 || updates != 0 {
		t.Errorf("empty form autosave hit the store: creates=%d updates=%d", creates, updates)
	}
}

func TestAutosaveDefaults(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	sess.SetField("content", "words without a title")
	sess.SetField("published", "true")
	sess.SetField("featured", "true")
	sess.Autosave()

	_, _, target := sess.Status()
	id, ok := target.Existing()
	if !ok {
		t.Fatal("autosave should capture the created row id")
	}
	p := store.saved(id)
	if p.Title != "Untitled Draft" {
		t.Errorf("Title = %q, want Untitled Draft", p.Title)
	}
	if p.Slug == "" {
		t.Error("autosave should generate a placeholder slug")
	}
	if p.Category != "Draft" {
		t.Errorf("Category = %q, want Draft", p.Category)
	}
	if p.Author != "Unknown" {
		t.Errorf("Author = %q, want Unknown", p.Author)
	}
	// Autosave never publishes, whatever the form says.
	if p.Published || p.Featured {
		t.Errorf("autosaved draft published=%v featured=%v, want false/false", p.Published, p.Featured)
	}
}

func TestSubmitValidation(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	if _, err := sess.Submit(); err == nil {
		t.Fatal("Submit of an empty form should fail validation")
	}
	creates, updates := store.counts()
	if creates != 0 || updates != 0 {
		t.Errorf("failed submit hit the store: creates=%d updates=%d", creates, updates)
	}
	// The form survives for correction.
	sess.SetField("title", "Kept")
	if sess.Form().Title != "Kept" {
		t.Error("form should remain editable after failed submit")
	}
}

func TestSubmitPublishStampsPublishedAt(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	for name, value := range map[string]string{
		"title": "Launch Day", "content": "we shipped",
		"category": "Startups", "author": "Jane Doe", "published": "true",
	} {
		sess.SetField(name, value)
	}

	created, err := sess.Submit()
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if !created {
		t.Error("Submit without a draft target should create")
	}

	p := store.saved("a")
	if !p.Published {
		t.Error("post should be published")
	}
	if p.PublishedAt.IsZero() {
		t.Error("PublishedAt should be stamped on publish")
	}

	// Session resets to a fresh new-post state.
	if sess.Form().Title != "" {
		t.Error("form should be cleared after successful submit")
	}
	_, _, target := sess.Status()
	if _, ok := target.Existing(); ok {
		t.Error("target should be a new draft after submit")
	}
}

func TestSubmitDraftLeavesPublishedAtZero(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	for name, value := range map[string]string{
		"title": "Still Cooking", "content": "wip",
		"category": "AI", "author": "Jane Doe",
	} {
		sess.SetField(name, value)
	}
	if _, err := sess.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	p := store.saved("a")
	if p.Published {
		t.Error("post should stay unpublished")
	}
	if !p.PublishedAt.IsZero() {
		t.Error("PublishedAt must stay zero for unpublished submits")
	}
}

func TestSubmitUpdatesExistingDraft(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	sess.SetField("title", "Autosaved First")
	sess.Autosave()

	for name, value := range map[string]string{
		"content": "finished", "category": "AI", "author": "Jane Doe",
	} {
		sess.SetField(name, value)
	}
	created, err := sess.Submit()
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if created {
		t.Error("Submit over an autosaved draft should update, not create")
	}
	creates, _ := store.counts()
	if creates != 1 {
		t.Errorf("creates = %d, want 1", creates)
	}
}

func TestLoadDraftMarksSlugEdited(t *testing.T) {
	store := newFakeDraftStore()
	id, err := store.CreatePost(BlogPost{Title: "Stored", Slug: "stored-slug", Content: "x"})
	if err != nil {
		t.Fatal(err)
	}

	sess := testSession(store)
	defer sess.Close()

	if err := sess.LoadDraft(id); err != nil {
		t.Fatalf("LoadDraft failed: %v", err)
	}
	sess.SetField("title", "New Title After Load")
	if sess.Form().Slug != "stored-slug" {
		t.Errorf("Slug = %q, loaded slug should not be re-derived", sess.Form().Slug)
	}

	_, _, target := sess.Status()
	if got, _ := target.Existing(); got != id {
		t.Errorf("target = %q, want %q", got, id)
	}
}

func TestLoadDraftMissing(t *testing.T) {
	store := newFakeDraftStore()
	sess := testSession(store)
	defer sess.Close()

	err := sess.LoadDraft("nope")
	if err == nil {
		t.Fatal("LoadDraft of a missing row should fail")
	}
	// The store error is wrapped, so callers must match with errors.Is.
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound in the chain", err)
	}
}

func TestCloseStopsAutosave(t *testing.T) {
	store := newFakeDraftStore()
	sess := newEditorSession(store, 10*time.Millisecond)
	sess.SetField("title", "Ticking")

	time.Sleep(35 * time.Millisecond)
	sess.Close()
	sess.Close() // idempotent

	creates, updates := store.counts()
	if creates == 0 {
		t.Fatal("ticker should have autosaved at least once before Close")
	}
	time.Sleep(35 * time.Millisecond)
	creates2, updates2 := store.counts()
	if creates2 != creates || updates2 != updates {
		t.Error("autosave kept running after Close")
	}
}

func TestEditorManagerLifecycle(t *testing.T) {
	store := newFakeDraftStore()
	m := NewEditorManager(store, time.Hour, time.Hour)
	defer m.Close()

	token, sess := m.Open()
	if token == "" || sess == nil {
		t.Fatal("Open should return a token and session")
	}

	got, ok := m.Get(token)
	if !ok || got != sess {
		t.Fatal("Get should return the opened session")
	}

	m.CloseSession(token)
	if _, ok := m.Get(token); ok {
		t.Fatal("session should be gone after CloseSession")
	}
}

func TestEditorManagerReapsIdleSessions(t *testing.T) {
	store := newFakeDraftStore()
	m := NewEditorManager(store, time.Hour, 40*time.Millisecond)
	defer m.Close()

	token, _ := m.Open()
	time.Sleep(120 * time.Millisecond)

	if _, ok := m.Get(token); ok {
		t.Fatal("idle session should have been reaped")
	}
}
