package techpulse

import (
	"context"
	"sync"
	"testing"
	"time"
)

// countingSearchStore records queries and serves canned results.
type countingSearchStore struct {
	mu        sync.Mutex
	postCalls int
	pageCalls int
	delay     time.Duration
}

func (f *countingSearchStore) SearchPosts(q string, limit int) ([]SearchResult, error) {
	f.mu.Lock()
	f.postCalls++
	f.mu.Unlock()
	time.Sleep(f.delay)
	return []SearchResult{{ID: "1", Title: "Post: " + q, Slug: "post", Type: "blog"}}, nil
}

func (f *countingSearchStore) SearchPages(q string, limit int) ([]SearchResult, error) {
	f.mu.Lock()
	f.pageCalls++
	f.mu.Unlock()
	return []SearchResult{{ID: "2", Title: "Page: " + q, Slug: "about", Type: "page"}}, nil
}

func (f *countingSearchStore) calls() (posts, pages int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.postCalls, f.pageCalls
}

func TestSearchShortQuerySkipsStore(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, 0)
	defer s.Close()

	for _, q := range []string{"", "a", "  a  "} {
		results, ok, err := s.Search(context.Background(), "client", q)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", q, err)
		}
		if !ok {
			t.Errorf("Search(%q) should not report superseded", q)
		}
		if results != nil {
			t.Errorf("Search(%q) = %v, want empty", q, results)
		}
	}

	posts, pages := store.calls()
	if posts != 0 || pages != 0 {
		t.Errorf("short queries hit the store: posts=%d pages=%d", posts, pages)
	}
}

func TestSearchMergesBlogThenPages(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, 0)
	defer s.Close()

	results, ok, err := s.Search(context.Background(), "client", "quantum")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !ok {
		t.Fatal("uncontested query should deliver results")
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Type != "blog" || results[1].Type != "page" {
		t.Errorf("result order = [%s %s], want [blog page]", results[0].Type, results[1].Type)
	}

	posts, pages := store.calls()
	if posts != 1 || pages != 1 {
		t.Errorf("store calls = posts:%d pages:%d, want 1 each", posts, pages)
	}
}

func TestSearchDebounceDropsSupersededQuery(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, 50*time.Millisecond)
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var firstOK bool
	go func() {
		defer wg.Done()
		_, ok, _ := s.Search(context.Background(), "client", "quant")
		firstOK = ok
	}()

	// The second keystroke lands inside the first query's debounce window.
	time.Sleep(10 * time.Millisecond)
	results, ok, err := s.Search(context.Background(), "client", "quantum")
	wg.Wait()

	if err != nil {
		t.Fatalf("second Search failed: %v", err)
	}
	if firstOK {
		t.Error("superseded query should not deliver results")
	}
	if !ok {
		t.Error("latest query should deliver results")
	}
	if len(results) != 2 {
		t.Errorf("latest query results = %d, want 2", len(results))
	}

	// Only the surviving query reached the store.
	posts, _ := store.calls()
	if posts != 1 {
		t.Errorf("store post calls = %d, want 1", posts)
	}
}

func TestSearchFencesAfterRoundTrip(t *testing.T) {
	// The store round-trip is slow enough that a newer query lands while
	// it is in flight; its results must be discarded.
	store := &countingSearchStore{delay: 40 * time.Millisecond}
	s := NewSearcher(store, 0)
	defer s.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	var slowOK bool
	go func() {
		defer wg.Done()
		_, ok, _ := s.Search(context.Background(), "client", "first")
		slowOK = ok
	}()

	time.Sleep(10 * time.Millisecond)
	s2 := make(chan bool, 1)
	go func() {
		_, ok, _ := s.Search(context.Background(), "client", "second")
		s2 <- ok
	}()
	wg.Wait()

	if slowOK {
		t.Error("slow in-flight query should be fenced after its round-trip")
	}
	if ok := <-s2; !ok {
		t.Error("newest query should deliver")
	}
}

func TestSearchKeysAreIndependent(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, 0)
	defer s.Close()

	if _, ok, _ := s.Search(context.Background(), "alice", "golang"); !ok {
		t.Error("alice's query should deliver")
	}
	if _, ok, _ := s.Search(context.Background(), "bob", "golang"); !ok {
		t.Error("bob's query should deliver; keys must not fence each other")
	}
}

func TestSearchContextCancelled(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, time.Hour)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := s.Search(ctx, "client", "query")
	if err == nil {
		t.Fatal("cancelled context should surface an error")
	}
	if ok {
		t.Error("cancelled query should not claim to be current")
	}
	posts, pages := store.calls()
	if posts != 0 || pages != 0 {
		t.Errorf("cancelled query hit the store: posts=%d pages=%d", posts, pages)
	}
}

func TestSearchEvictsIdleKeys(t *testing.T) {
	store := &countingSearchStore{}
	s := NewSearcher(store, 0)
	defer s.Close()

	if _, _, err := s.Search(context.Background(), "stale-client", "golang"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if s.keyCount() != 1 {
		t.Fatalf("keys = %d, want 1", s.keyCount())
	}

	// A key used before the cutoff is evicted; one used after survives.
	time.Sleep(5 * time.Millisecond)
	cutoff := time.Now()
	if _, _, err := s.Search(context.Background(), "live-client", "golang"); err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	s.pruneIdle(cutoff)
	if s.keyCount() != 1 {
		t.Errorf("keys after prune = %d, want 1", s.keyCount())
	}
	if s.current("stale-client", 1) {
		t.Error("stale key should have been evicted")
	}
	if !s.current("live-client", 1) {
		t.Error("live key should survive the prune")
	}
}

func TestSearcherCloseIsIdempotent(t *testing.T) {
	s := NewSearcher(&countingSearchStore{}, 0)
	s.Close()
	s.Close()
}
