package importer

import (
	"sync"
	"sync/atomic"

	"github.com/hivereads/hive-server/internal/normalize"
)

// Session holds the counters and dedup state for one import request.
// Created at request start, mutated only by that request's pipeline stages,
// discarded when the response stream closes.
type Session struct {
	UserID string
	Format Format

	totalBooks    atomic.Int64
	matchedBooks  atomic.Int64
	uploadedBooks atomic.Int64

	// Failure list and its dedup index, keyed by normalized title::author.
	mu          sync.Mutex
	failures    []FailureRecord
	failureKeys map[string]struct{}

	// Lazily-awaited snapshot of the catalog ids already on the user's
	// shelf. Loaded at most once per session.
	shelf func() (map[string]struct{}, error)
}

// NewSession creates a session for one import request. loadShelf runs at
// most once, on first use of Shelf.
func NewSession(userID string, format Format, loadShelf func() (map[string]struct{}, error)) *Session {
	return &Session{
		UserID:      userID,
		Format:      format,
		failureKeys: make(map[string]struct{}),
		shelf:       sync.OnceValues(loadShelf),
	}
}

// Shelf returns the user's pre-import record id set, loading it on first
// call. Concurrent callers block until the single load completes.
func (s *Session) Shelf() (map[string]struct{}, error) {
	return s.shelf()
}

// AddTotal grows the live row-count denominator.
func (s *Session) AddTotal(n int) {
	s.totalBooks.Add(int64(n))
}

// Total returns the row count observed by the counting consumer so far.
// Eventually accurate, not available up front.
func (s *Session) Total() int {
	return int(s.totalBooks.Load())
}

// IncrMatched counts a row that produced an update candidate.
func (s *Session) IncrMatched() {
	s.matchedBooks.Add(1)
}

// Matched returns the number of rows that produced an update candidate.
func (s *Session) Matched() int {
	return int(s.matchedBooks.Load())
}

// IncrUploaded counts a persisted record that was not already on the shelf.
func (s *Session) IncrUploaded() {
	s.uploadedBooks.Add(1)
}

// Uploaded returns the number of newly-persisted records.
func (s *Session) Uploaded() int {
	return int(s.uploadedBooks.Load())
}

// RecordFailure appends a failure unless one with the same normalized
// title::author key was already recorded. Returns true if the failure was
// kept. A re-read entry that fails to match five times is reported once.
func (s *Session) RecordFailure(f FailureRecord) bool {
	author := ""
	if len(f.Authors) > 0 {
		author = f.Authors[0]
	}
	key := normalize.Key(f.Title, author)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.failureKeys[key]; seen {
		return false
	}
	s.failureKeys[key] = struct{}{}
	s.failures = append(s.failures, f)
	return true
}

// Failures returns a copy of the deduplicated failure list in record order.
func (s *Session) Failures() []FailureRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]FailureRecord, len(s.failures))
	copy(out, s.failures)
	return out
}
