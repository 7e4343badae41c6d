package techpulse

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// searchStore is the slice of Store the search flow needs.
type searchStore interface {
	SearchPosts(q string, limit int) ([]SearchResult, error)
	SearchPages(q string, limit int) ([]SearchResult, error)
}

const (
	minQueryLength  = 2
	postResultLimit = 10
	pageResultLimit = 5

	// searchKeyIdle is how long a caller key may sit unused before the
	// cleanup loop evicts it. Keys are one per typing client, so idle
	// ones are just dead weight.
	searchKeyIdle = 10 * time.Minute
)

type searchKey struct {
	seq      uint64
	lastUsed time.Time
}

// Searcher runs debounced content searches. Each caller key (one per
// typing client) carries a monotonically increasing sequence number;
// a query that is superseded by a newer one for the same key before or
// during its round-trip is dropped instead of delivering stale results.
// Idle keys are evicted in the background; Close stops that loop.
type Searcher struct {
	store searchStore
	delay time.Duration

	mu     sync.Mutex
	latest map[string]*searchKey

	done      chan struct{}
	closeOnce sync.Once
}

// NewSearcher creates a Searcher with the given debounce window and
// starts its key cleanup loop.
func NewSearcher(store searchStore, delay time.Duration) *Searcher {
	s := &Searcher{
		store:  store,
		delay:  delay,
		latest: make(map[string]*searchKey),
		done:   make(chan struct{}),
	}
	go s.cleanup()
	return s
}

func (s *Searcher) cleanup() {
	ticker := time.NewTicker(searchKeyIdle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.pruneIdle(time.Now().Add(-searchKeyIdle))
		case <-s.done:
			return
		}
	}
}

func (s *Searcher) pruneIdle(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, k := range s.latest {
		if k.lastUsed.Before(cutoff) {
			delete(s.latest, key)
		}
	}
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *Searcher) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Searcher) issue(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.latest[key]
	if !ok {
		k = &searchKey{}
		s.latest[key] = k
	}
	k.seq++
	k.lastUsed = time.Now()
	return k.seq
}

func (s *Searcher) current(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.latest[key]
	return ok && k.seq == seq
}

// Search runs the two-table content search for a caller key. It waits out
// the debounce window first; if a newer query for the same key arrives
// meanwhile (or while the store round-trip is in flight), ok is false and
// no results are delivered. Queries shorter than two characters clear the
// result set without touching the store.
func (s *Searcher) Search(ctx context.Context, key, query string) (results []SearchResult, ok bool, err error) {
	query = strings.TrimSpace(query)
	seq := s.issue(key)

	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, true, nil
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, false, ctx.Err()
		}
	}
	if !s.current(key, seq) {
		return nil, false, nil
	}

	posts, err := s.store.SearchPosts(query, postResultLimit)
	if err != nil {
		return nil, true, err
	}
	pages, err := s.store.SearchPages(query, pageResultLimit)
	if err != nil {
		return nil, true, err
	}

	// Fence again after the round-trip so slow responses to stale
	// queries never surface.
	if !s.current(key, seq) {
		return nil, false, nil
	}

	merged := make([]SearchResult, 0, len(posts)+len(pages))
	merged = append(merged, posts...)
	merged = append(merged, pages...)
	return merged, true, nil
}

// keyCount reports how many caller keys are live. Test hook.
func (s *Searcher) keyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.latest)
}
