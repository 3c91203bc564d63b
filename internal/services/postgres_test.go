package services_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

func TestPostgresArchive(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	archive, err := services.NewPostgresArchive(ctx, databaseURL)
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer archive.Close()

	result, err := fairness.GenerateGameResult(fairness.CombinedSeed("seed", "client", "1"), 6)
	if err != nil {
		t.Fatalf("Failed to generate result: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	round := &models.Round{
		ID:               models.GenerateRoundID(),
		PlayerID:         models.GeneratePlayerID(),
		Status:           fairness.StatusRevealed,
		ServerSeed:       "seed",
		Nonce:            "1",
		CommitHash:       fairness.CommitHash("seed", "1"),
		ClientSeed:       "client",
		CombinedSeed:     fairness.CombinedSeed("seed", "client", "1"),
		Rows:             fairness.Rows,
		DropColumn:       6,
		BinIndex:         result.BinIndex,
		PayoutMultiplier: fairness.PayoutMultiplier(result.BinIndex),
		BetCents:         100,
		WinAmount:        fairness.WinAmount(100, fairness.PayoutMultiplier(result.BinIndex)),
		Path:             result.Path,
		PegMapHash:       result.PegMapHash,
		CreatedAt:        now,
		CompletedAt:      &now,
		RevealedAt:       &now,
	}
	defer archive.DeleteArchivedRound(ctx, round.ID)

	if err := archive.ArchiveRound(ctx, round); err != nil {
		t.Fatalf("Failed to archive round: %v", err)
	}
	if err := archive.ArchiveRound(ctx, round); err != nil {
		t.Fatalf("Archiving twice should succeed: %v", err)
	}

	got, err := archive.GetArchivedRound(ctx, round.ID)
	if err != nil {
		t.Fatalf("Failed to load archived round: %v", err)
	}
	if got.BinIndex != round.BinIndex || got.PegMapHash != round.PegMapHash {
		t.Errorf("Archived round differs: %+v", got)
	}
	if len(got.Path) != fairness.Rows || got.Path[0] != round.Path[0] {
		t.Errorf("Archived path differs")
	}

	if _, err := archive.GetArchivedRound(ctx, "round_missing"); !errors.Is(err, services.ErrRoundNotFound) {
		t.Errorf("Missing round: error = %v, want not found", err)
	}
}
