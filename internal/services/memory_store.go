package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
)

type memoryRound struct {
	round     models.Round
	expiresAt time.Time
}

type memorySession struct {
	session   models.PlayerSession
	expiresAt time.Time
}

type memoryHit struct {
	count     int
	expiresAt time.Time
}

type historyEntry struct {
	roundID   string
	at        time.Time
	expiresAt time.Time
}

// MemoryStore is a process-local RoundStore for development and tests.
// Every operation holds one mutex, which makes TransitionRound atomic.
type MemoryStore struct {
	mu       sync.Mutex
	rounds   map[string]*memoryRound
	sessions map[string]*memorySession
	history  map[string][]historyEntry
	limits   map[string]*memoryHit
	nonce    int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rounds:   make(map[string]*memoryRound),
		sessions: make(map[string]*memorySession),
		history:  make(map[string][]historyEntry),
		limits:   make(map[string]*memoryHit),
		now:      time.Now,
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) expired(at time.Time) bool {
	return !at.IsZero() && !s.now().Before(at)
}

func (s *MemoryStore) deadline(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *MemoryStore) SaveRound(ctx context.Context, round *models.Round, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rounds[round.ID]; ok && !s.expired(existing.expiresAt) {
		return fmt.Errorf("%w: %s", ErrRoundExists, round.ID)
	}
	s.rounds[round.ID] = &memoryRound{round: cloneRound(round), expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.rounds[roundID]
	if !ok || s.expired(entry.expiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, roundID)
	}
	round := cloneRound(&entry.round)
	return &round, nil
}

func (s *MemoryStore) TransitionRound(ctx context.Context, round *models.Round, from fairness.RoundStatus, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.rounds[round.ID]
	if !ok || s.expired(entry.expiresAt) {
		return fmt.Errorf("%w: %s", ErrRoundNotFound, round.ID)
	}
	if entry.round.Status != from {
		return fmt.Errorf("%w: round %s is no longer %s", fairness.ErrInvalidState, round.ID, from)
	}

	entry.round = cloneRound(round)
	entry.expiresAt = s.deadline(ttl)
	return nil
}

func (s *MemoryStore) NextNonce(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nonce++
	return s.nonce, nil
}

func (s *MemoryStore) AddToHistory(ctx context.Context, playerID, roundID string, at time.Time, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.history[playerID], historyEntry{roundID: roundID, at: at, expiresAt: s.deadline(ttl)})
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	if len(entries) > MaxHistoryRounds {
		entries = entries[len(entries)-MaxHistoryRounds:]
	}
	s.history[playerID] = entries
	return nil
}

func (s *MemoryStore) GetRoundHistory(ctx context.Context, playerID string, limit int64) ([]*models.Round, error) {
	limit = clampHistoryLimit(limit)

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.history[playerID]
	rounds := make([]*models.Round, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && int64(len(rounds)) < limit; i-- {
		if s.expired(entries[i].expiresAt) {
			continue
		}
		entry, ok := s.rounds[entries[i].roundID]
		if !ok || s.expired(entry.expiresAt) {
			continue
		}
		round := cloneRound(&entry.round)
		rounds = append(rounds, &round)
	}
	return rounds, nil
}

func (s *MemoryStore) CheckRateLimit(ctx context.Context, playerID, action string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf(KeyRateLimit, playerID, action)
	hit, ok := s.limits[key]
	if !ok || s.expired(hit.expiresAt) {
		hit = &memoryHit{expiresAt: s.deadline(window)}
		s.limits[key] = hit
	}
	hit.count++
	return hit.count <= limit, nil
}

func (s *MemoryStore) StoreSession(ctx context.Context, session *models.PlayerSession, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf(KeyPlayerSession, session.PlayerID, session.SessionID)
	s.sessions[key] = &memorySession{session: *session, expiresAt: s.deadline(ttl)}
	return nil
}

func (s *MemoryStore) GetSession(ctx context.Context, playerID, sessionID string) (*models.PlayerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf(KeyPlayerSession, playerID, sessionID)
	entry, ok := s.sessions[key]
	if !ok || s.expired(entry.expiresAt) {
		return nil, ErrSessionNotFound
	}
	entry.session.LastAccessed = s.now()
	session := entry.session
	return &session, nil
}

func (s *MemoryStore) DeleteSession(ctx context.Context, playerID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, fmt.Sprintf(KeyPlayerSession, playerID, sessionID))
	return nil
}

// PruneExpired drops expired rounds, history entries, sessions and rate-limit
// windows and returns how many rounds were removed.
func (s *MemoryStore) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.rounds {
		if s.expired(entry.expiresAt) {
			delete(s.rounds, id)
			removed++
		}
	}
	for playerID, entries := range s.history {
		kept := entries[:0]
		for _, e := range entries {
			if !s.expired(e.expiresAt) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(s.history, playerID)
		} else {
			s.history[playerID] = kept
		}
	}
	for key, entry := range s.sessions {
		if s.expired(entry.expiresAt) {
			delete(s.sessions, key)
		}
	}
	for key, hit := range s.limits {
		if s.expired(hit.expiresAt) {
			delete(s.limits, key)
		}
	}
	return removed
}

func cloneRound(r *models.Round) models.Round {
	c := *r
	if r.Path != nil {
		c.Path = append([]fairness.PathStep(nil), r.Path...)
	}
	return c
}
