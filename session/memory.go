package session

import (
	"context"
	"slices"
	"sync"
	"time"

	"ingredientagent"
)

type memorySession struct {
	profile   *ingredientagent.UserProfile
	history   []HistoryEntry
	expiresAt time.Time
}

// MemoryStore is a process-local Store for the CLI and tests. Expiry is
// checked on read.
type MemoryStore struct {
	mu       sync.Mutex
	opts     Options
	now      func() time.Time
	sessions map[string]*memorySession
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		opts:     opts.withDefaults(),
		now:      time.Now,
		sessions: make(map[string]*memorySession),
	}
}

func (s *MemoryStore) SaveProfile(ctx context.Context, sessionID string, profile ingredientagent.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sessionID)
	profile.Allergies = slices.Clone(profile.Allergies)
	sess.profile = &profile
	return nil
}

func (s *MemoryStore) Profile(ctx context.Context, sessionID string) (ingredientagent.UserProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil || sess.profile == nil {
		return ingredientagent.UserProfile{}, false, nil
	}
	profile := *sess.profile
	profile.Allergies = slices.Clone(profile.Allergies)
	return profile, true, nil
}

func (s *MemoryStore) AppendHistory(ctx context.Context, sessionID string, entry HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.touch(sessionID)
	sess.history = append([]HistoryEntry{entry}, sess.history...)
	if len(sess.history) > s.opts.HistoryLimit {
		sess.history = sess.history[:s.opts.HistoryLimit]
	}
	return nil
}

func (s *MemoryStore) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.live(sessionID)
	if sess == nil {
		return []HistoryEntry{}, nil
	}
	return slices.Clone(sess.history), nil
}

// touch returns the live session for id, creating it if needed, and
// extends its expiry.
func (s *MemoryStore) touch(id string) *memorySession {
	sess := s.live(id)
	if sess == nil {
		sess = &memorySession{}
		s.sessions[id] = sess
	}
	sess.expiresAt = s.now().Add(s.opts.TTL)
	return sess
}

func (s *MemoryStore) live(id string) *memorySession {
	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	if !s.now().Before(sess.expiresAt) {
		delete(s.sessions, id)
		return nil
	}
	return sess
}
