package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"plinko-backend/internal/config"
	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

func setupTestRedis(t *testing.T) *services.RedisService {
	t.Helper()

	cfg := &config.Config{
		RedisURL:  "localhost:6379",
		RedisPass: "",
		RedisDB:   0,
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { redisService.Close() })
	return redisService
}

func TestRedisService(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()

	playerID := models.GeneratePlayerID()
	round := &models.Round{
		ID:         models.GenerateRoundID(),
		PlayerID:   playerID,
		Status:     fairness.StatusCommitted,
		ServerSeed: "seed",
		Nonce:      "1",
		CommitHash: fairness.CommitHash("seed", "1"),
		Rows:       fairness.Rows,
		CreatedAt:  time.Now().UTC(),
	}
	defer redisService.DeleteRound(ctx, playerID, round.ID)

	if err := redisService.SaveRound(ctx, round, time.Minute); err != nil {
		t.Fatalf("Failed to save round: %v", err)
	}
	if err := redisService.SaveRound(ctx, round, time.Minute); !errors.Is(err, services.ErrRoundExists) {
		t.Errorf("Duplicate save: error = %v, want exists", err)
	}

	retrieved, err := redisService.GetRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("Failed to get round: %v", err)
	}
	if retrieved.CommitHash != round.CommitHash {
		t.Errorf("Commit hash mismatch: expected %s, got %s", round.CommitHash, retrieved.CommitHash)
	}

	completed := *retrieved
	completed.Status = fairness.StatusCompleted
	if err := redisService.TransitionRound(ctx, &completed, fairness.StatusCommitted, time.Minute); err != nil {
		t.Fatalf("Failed to transition round: %v", err)
	}
	if err := redisService.TransitionRound(ctx, &completed, fairness.StatusCommitted, time.Minute); !errors.Is(err, fairness.ErrInvalidState) {
		t.Errorf("Stale transition: error = %v, want invalid state", err)
	}

	if _, err := redisService.GetRound(ctx, "round_missing_"+playerID); !errors.Is(err, services.ErrRoundNotFound) {
		t.Errorf("Missing round: error = %v, want not found", err)
	}

	if err := redisService.AddToHistory(ctx, playerID, round.ID, time.Now(), time.Minute); err != nil {
		t.Fatalf("Failed to add to history: %v", err)
	}
	history, err := redisService.GetRoundHistory(ctx, playerID, 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 1 || history[0].Status != fairness.StatusCompleted {
		t.Errorf("Unexpected history: %+v", history)
	}

	allowed, err := redisService.CheckRateLimit(ctx, playerID, "commit", 5, time.Minute)
	if err != nil {
		t.Errorf("Failed to check rate limit: %v", err)
	}
	if !allowed {
		t.Error("First commit should be allowed")
	}
	redisService.ClearRateLimit(ctx, playerID, "commit")
}

func TestRedisServiceConcurrentTransition(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()

	playerID := models.GeneratePlayerID()
	round := &models.Round{ID: models.GenerateRoundID(), PlayerID: playerID, Status: fairness.StatusCommitted}
	defer redisService.DeleteRound(ctx, playerID, round.ID)

	if err := redisService.SaveRound(ctx, round, time.Minute); err != nil {
		t.Fatalf("Failed to save round: %v", err)
	}

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := *round
			next.Status = fairness.StatusCompleted
			if err := redisService.TransitionRound(ctx, &next, fairness.StatusCommitted, time.Minute); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("Expected exactly one transition, got %d", wins)
	}
}

func TestRedisServiceSessions(t *testing.T) {
	redisService := setupTestRedis(t)
	ctx := context.Background()

	session := &models.PlayerSession{
		PlayerID:  models.GeneratePlayerID(),
		SessionID: models.GenerateSessionID(),
		CreatedAt: time.Now(),
	}
	if err := redisService.StoreSession(ctx, session, time.Minute); err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	if _, err := redisService.GetSession(ctx, session.PlayerID, session.SessionID); err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if err := redisService.DeleteSession(ctx, session.PlayerID, session.SessionID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := redisService.GetSession(ctx, session.PlayerID, session.SessionID); !errors.Is(err, services.ErrSessionNotFound) {
		t.Errorf("Deleted session: error = %v, want not found", err)
	}

	n1, err := redisService.NextNonce(ctx)
	if err != nil {
		t.Fatalf("Failed to allocate nonce: %v", err)
	}
	n2, _ := redisService.NextNonce(ctx)
	if n2 <= n1 {
		t.Errorf("Nonces not increasing: %d then %d", n1, n2)
	}
}
