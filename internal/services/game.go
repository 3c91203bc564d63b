package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
)

const (
	MessageVerified    = "Round verified successfully! Results match."
	MessageNotVerified = "Verification failed. Results do not match."
)

// GameEngine runs plinko rounds through commit, start and reveal on top of a
// RoundStore. The archive and broadcaster are optional.
type GameEngine struct {
	store       RoundStore
	archive     RoundArchive
	broadcaster Broadcaster
	protocol    *fairness.Protocol
	roundTTL    time.Duration
	now         func() time.Time
}

func NewGameEngine(store RoundStore, protocol *fairness.Protocol, roundTTL time.Duration) *GameEngine {
	if protocol == nil {
		protocol = fairness.NewProtocol(nil)
	}
	if roundTTL <= 0 {
		roundTTL = TTLRound
	}
	return &GameEngine{
		store:    store,
		protocol: protocol,
		roundTTL: roundTTL,
		now:      time.Now,
	}
}

func (ge *GameEngine) SetArchive(archive RoundArchive) {
	ge.archive = archive
}

func (ge *GameEngine) SetBroadcaster(b Broadcaster) {
	ge.broadcaster = b
}

// CommitRound creates a round for the player and publishes only the commit
// hash and nonce. Nonces come from the store counter, so they never repeat.
func (ge *GameEngine) CommitRound(ctx context.Context, playerID string) (*models.Round, error) {
	n, err := ge.store.NextNonce(ctx)
	if err != nil {
		return nil, err
	}

	commitment, err := ge.protocol.Commit(strconv.FormatInt(n, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to commit round: %w", err)
	}

	now := ge.now().UTC()
	round := &models.Round{
		ID:         models.GenerateRoundID(),
		PlayerID:   playerID,
		Status:     fairness.StatusCommitted,
		ServerSeed: commitment.ServerSeed,
		Nonce:      commitment.Nonce,
		CommitHash: commitment.CommitHash,
		Rows:       fairness.Rows,
		CreatedAt:  now,
	}

	if err := ge.store.SaveRound(ctx, round, ge.roundTTL); err != nil {
		return nil, err
	}
	if err := ge.store.AddToHistory(ctx, playerID, round.ID, now, ge.roundTTL); err != nil {
		log.Printf("Failed to record round %s in history: %v", round.ID, err)
	}

	return round, nil
}

// StartRound binds the client seed, computes the drop and moves the round to
// completed. Of several concurrent starts exactly one succeeds.
func (ge *GameEngine) StartRound(ctx context.Context, playerID, roundID string, req *models.StartRoundRequest) (*models.Round, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	round, err := ge.ownedRound(ctx, playerID, roundID)
	if err != nil {
		return nil, err
	}

	status, err := round.Status.Advance(fairness.StatusCompleted)
	if err != nil {
		return nil, err
	}

	outcome, err := ge.protocol.Play(round.Commitment(), req.ClientSeed, *req.DropColumn)
	if err != nil {
		if errors.Is(err, fairness.ErrInvariantViolation) {
			log.Printf("Invariant violation while playing round %s: %v", round.ID, err)
		}
		return nil, err
	}

	completedAt := ge.now().UTC()
	round.Status = status
	round.ClientSeed = req.ClientSeed
	round.CombinedSeed = outcome.CombinedSeed
	round.DropColumn = *req.DropColumn
	round.BinIndex = outcome.Result.BinIndex
	round.PayoutMultiplier = outcome.PayoutMultiplier
	round.BetCents = req.BetCents
	round.WinAmount = fairness.WinAmount(req.BetCents, outcome.PayoutMultiplier)
	round.Path = outcome.Result.Path
	round.PegMapHash = outcome.Result.PegMapHash
	round.CompletedAt = &completedAt

	if err := ge.store.TransitionRound(ctx, round, fairness.StatusCommitted, ge.roundTTL); err != nil {
		return nil, err
	}

	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastRoundCompleted(round)
	}

	return round, nil
}

// RevealRound discloses the server seed of a completed round and archives it.
func (ge *GameEngine) RevealRound(ctx context.Context, playerID, roundID string) (*models.Round, error) {
	round, err := ge.ownedRound(ctx, playerID, roundID)
	if err != nil {
		return nil, err
	}

	status, err := round.Status.Advance(fairness.StatusRevealed)
	if err != nil {
		return nil, err
	}

	revealedAt := ge.now().UTC()
	round.Status = status
	round.RevealedAt = &revealedAt

	if err := ge.store.TransitionRound(ctx, round, fairness.StatusCompleted, ge.roundTTL); err != nil {
		return nil, err
	}

	if ge.archive != nil {
		if err := ge.archive.ArchiveRound(ctx, round); err != nil {
			log.Printf("Failed to archive round %s: %v", round.ID, err)
		}
	}

	if ge.broadcaster != nil {
		ge.broadcaster.BroadcastRoundRevealed(round)
	}

	return round, nil
}

// GetRound looks in the live store first and falls back to the archive.
func (ge *GameEngine) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	round, err := ge.store.GetRound(ctx, roundID)
	if err == nil {
		return round, nil
	}
	if !errors.Is(err, ErrRoundNotFound) || ge.archive == nil {
		return nil, err
	}
	return ge.archive.GetArchivedRound(ctx, roundID)
}

func (ge *GameEngine) GetRoundHistory(ctx context.Context, playerID string, limit int64) ([]*models.Round, error) {
	return ge.store.GetRoundHistory(ctx, playerID, limit)
}

// VerifyRound recomputes a round from revealed inputs. It needs no stored
// state, so anyone can check any round.
func (ge *GameEngine) VerifyRound(req fairness.VerifyRequest) (*models.VerifyResponse, error) {
	report, err := fairness.Verify(req)
	if err != nil {
		return nil, err
	}

	message := MessageNotVerified
	if report.IsVerified {
		message = MessageVerified
	}
	return &models.VerifyResponse{VerifyReport: report, Message: message}, nil
}

// Health pings the store and, when configured, the archive.
func (ge *GameEngine) Health(ctx context.Context) map[string]string {
	status := map[string]string{"store": "ok"}
	if err := ge.store.Ping(ctx); err != nil {
		status["store"] = err.Error()
	}
	if ge.archive != nil {
		status["archive"] = "ok"
		if err := ge.archive.Ping(ctx); err != nil {
			status["archive"] = err.Error()
		}
	}
	return status
}

func (ge *GameEngine) ownedRound(ctx context.Context, playerID, roundID string) (*models.Round, error) {
	round, err := ge.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if round.PlayerID != playerID {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, roundID)
	}
	return round, nil
}
