package services

import (
	"context"
	"errors"
	"time"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
)

var (
	// ErrRoundNotFound is returned when no live or archived round has the id.
	ErrRoundNotFound = errors.New("round not found")
	// ErrRoundExists is returned when a new round collides with a stored id.
	ErrRoundExists = errors.New("round already exists")
	// ErrForbidden is returned when a player acts on another player's round.
	ErrForbidden = errors.New("round belongs to another player")
	// ErrSessionNotFound is returned for unknown or expired player sessions.
	ErrSessionNotFound = errors.New("session not found")
)

// RoundStore keeps live rounds and player sessions.
//
// TransitionRound is the only way to change a stored round. It writes round
// only if the stored status still equals from, so concurrent transitions of
// the same round have exactly one winner; losers get fairness.ErrInvalidState.
type RoundStore interface {
	SaveRound(ctx context.Context, round *models.Round, ttl time.Duration) error
	GetRound(ctx context.Context, roundID string) (*models.Round, error)
	TransitionRound(ctx context.Context, round *models.Round, from fairness.RoundStatus, ttl time.Duration) error
	NextNonce(ctx context.Context) (int64, error)

	AddToHistory(ctx context.Context, playerID, roundID string, at time.Time, ttl time.Duration) error
	GetRoundHistory(ctx context.Context, playerID string, limit int64) ([]*models.Round, error)

	CheckRateLimit(ctx context.Context, playerID, action string, limit int, window time.Duration) (bool, error)

	StoreSession(ctx context.Context, session *models.PlayerSession, ttl time.Duration) error
	GetSession(ctx context.Context, playerID, sessionID string) (*models.PlayerSession, error)
	DeleteSession(ctx context.Context, playerID, sessionID string) error

	Ping(ctx context.Context) error
	Close() error
}

// RoundArchive is long-term storage for revealed rounds.
type RoundArchive interface {
	ArchiveRound(ctx context.Context, round *models.Round) error
	GetArchivedRound(ctx context.Context, roundID string) (*models.Round, error)
	Ping(ctx context.Context) error
}
