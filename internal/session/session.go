// Package session holds the explicit state of one dashboard session.
//
// A session belongs to one fetch at a time. Every fetch opens a new
// generation; work started under an older generation is dropped when it
// completes, so a slow trend or contributor fetch cannot leak into the
// results of the user fetched afterwards.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/github-stars-analyzer/internal/domain"
	apperrors "github.com/kurihiro0119/github-stars-analyzer/internal/errors"
)

// Kind distinguishes the per-repository fetches guarded by the session
type Kind string

const (
	KindTrend        Kind = "trend"
	KindContributors Kind = "contributors"
)

type key struct {
	kind Kind
	id   int64
}

// Notice is a non-blocking message about a per-repository failure
type Notice struct {
	Code    apperrors.ErrCode `json:"code"`
	Message string            `json:"message"`
	RepoID  int64             `json:"repo_id,omitempty"`
	At      time.Time         `json:"at"`
}

// Session is the mutable state shared by the dashboard operations
type Session struct {
	mu         sync.Mutex
	generation string
	username   string
	summary    *domain.Summary
	pending    map[key]struct{}
	completed  map[key]struct{}
	notices    []Notice
	now        func() time.Time
}

// New creates an empty session
func New() *Session {
	s := &Session{now: time.Now}
	s.clear()
	return s
}

func (s *Session) clear() {
	s.generation = ""
	s.username = ""
	s.summary = nil
	s.pending = make(map[key]struct{})
	s.completed = make(map[key]struct{})
	s.notices = nil
}

// Begin discards all derived state and opens a new generation for username
func (s *Session) Begin(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	s.generation = uuid.NewString()
	s.username = username
	return s.generation
}

// Reset discards all derived state without opening a new generation
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

// Abort discards all derived state if generation is still the active one.
// A failed fetch must not wipe the results of a fetch that superseded it.
func (s *Session) Abort(generation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	s.clear()
	return true
}

// Generation returns the current generation, empty before the first fetch
func (s *Session) Generation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Username returns the user of the current generation
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// Current reports whether generation is still the active one
func (s *Session) Current(generation string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return generation != "" && generation == s.generation
}

// SetSummary stores the summary of generation; stale summaries are dropped
func (s *Session) SetSummary(generation string, summary *domain.Summary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	s.summary = summary
	return true
}

// Summary returns the summary of the current generation
func (s *Session) Summary() *domain.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Claim marks a repository fetch as pending. It returns false when the
// fetch is already pending or completed, or when generation is stale.
func (s *Session) Claim(generation string, kind Kind, repoID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	k := key{kind: kind, id: repoID}
	if _, ok := s.pending[k]; ok {
		return false
	}
	if _, ok := s.completed[k]; ok {
		return false
	}
	s.pending[k] = struct{}{}
	return true
}

// Complete moves a claimed fetch to the completed set.
// It returns false when generation is stale and the result must be dropped.
func (s *Session) Complete(generation string, kind Kind, repoID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	k := key{kind: kind, id: repoID}
	delete(s.pending, k)
	s.completed[k] = struct{}{}
	return true
}

// Release drops a pending claim so the fetch can be attempted again
func (s *Session) Release(generation string, kind Kind, repoID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}
	delete(s.pending, key{kind: kind, id: repoID})
}

// Pending reports whether a claimed fetch is still in flight in generation
func (s *Session) Pending(generation string, kind Kind, repoID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return false
	}
	_, ok := s.pending[key{kind: kind, id: repoID}]
	return ok
}

// Done reports whether a fetch has completed in the current generation
func (s *Session) Done(kind Kind, repoID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.completed[key{kind: kind, id: repoID}]
	return ok
}

// Notify records a notice for generation from a per-repository error
func (s *Session) Notify(generation string, repoID int64, err error) {
	s.note(generation, Notice{
		Code:    apperrors.CodeOf(err),
		Message: err.Error(),
		RepoID:  repoID,
	})
}

// Inform records an informational notice that is not tied to a repository
func (s *Session) Inform(generation string, code apperrors.ErrCode, message string) {
	s.note(generation, Notice{Code: code, Message: message})
}

func (s *Session) note(generation string, n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}
	n.At = s.now()
	s.notices = append(s.notices, n)
}

// Notices returns a copy of the recorded notices, oldest first
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Notice, len(s.notices))
	copy(out, s.notices)
	return out
}
