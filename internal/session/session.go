// Package session holds in-flight review state between upload and
// processing. Sessions live in memory only; a restart discards them, and
// a sweeper removes sessions that outlive their TTL along with their
// working directories.
package session

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oharel/talush/internal/payslips"
)

// Session is one uploaded document awaiting review. A session is owned by
// a single reviewer request at a time; handlers must not mutate Slips
// concurrently.
type Session struct {
	ID               string
	Dir              string
	PDFPath          string
	PreviewDir       string
	OriginalFilename string
	Method           string
	PageCount        int
	Slips            []payslips.Payslip
	CreatedAt        time.Time
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
	logger   *slog.Logger
}

type Option func(*Store)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator injects the session ID source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func NewStore(ttl time.Duration, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
		newID:    uuid.NewString,
		logger:   logger.With("system", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID reserves an identifier for a session that is still being built,
// so the working directory can be named before Put.
func (s *Store) NewID() string {
	return s.newID()
}

// Put stores a session under its ID, stamping CreatedAt.
func (s *Store) Put(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = s.now()
	s.sessions[session.ID] = session
}

// Get returns the session, or false when it does not exist or has
// expired. Expired sessions are removed on access.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if s.expired(session) {
		delete(s.sessions, id)
		s.cleanup(session)
		return nil, false
	}
	return session, true
}

// Delete removes the session and its working directory.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		s.cleanup(session)
	}
}

// Sweep removes every expired session and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var expired []*Session
	for id, session := range s.sessions {
		if s.expired(session) {
			delete(s.sessions, id)
			expired = append(expired, session)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		s.cleanup(session)
	}
	if len(expired) > 0 {
		s.logger.Info("expired sessions swept", "count", len(expired))
	}
	return len(expired)
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps periodically until ctx is done.
func (s *Store) Run(done <-chan struct{}) {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expired(session *Session) bool {
	return s.ttl > 0 && s.now().Sub(session.CreatedAt) > s.ttl
}

func (s *Store) cleanup(session *Session) {
	if session.Dir == "" {
		return
	}
	if err := os.RemoveAll(session.Dir); err != nil {
		s.logger.Warn("session dir cleanup failed",
			"session", session.ID,
			"error", err)
	}
}
