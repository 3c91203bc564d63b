package models

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plinko-backend/internal/fairness"
)

const MaxBetCents = 1_000_000

func GenerateRoundID() string {
	return fmt.Sprintf("round_%s_%s",
		time.Now().Format("20060102"),
		uuid.NewString())
}

func GeneratePlayerID() string {
	return "player_" + uuid.NewString()
}

func GenerateSessionID() string {
	return uuid.NewString()
}

// GenerateClientSeed returns a random seed for players that do not bring
// their own.
func GenerateClientSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate client seed: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

func (r *StartRoundRequest) Validate() error {
	if r.ClientSeed == "" {
		return fairness.ErrEmptyClientSeed
	}
	if r.BetCents < 0 {
		return fmt.Errorf("%w: bet must not be negative", fairness.ErrInvalidArgument)
	}
	if r.BetCents > MaxBetCents {
		return fmt.Errorf("%w: maximum bet is %d cents", fairness.ErrInvalidArgument, MaxBetCents)
	}
	if r.DropColumn == nil {
		return fmt.Errorf("%w: drop_column is required", fairness.ErrInvalidArgument)
	}
	return fairness.ValidateDropColumn(*r.DropColumn)
}
