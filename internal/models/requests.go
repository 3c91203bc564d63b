package models

import (
	"time"

	"plinko-backend/internal/fairness"
)

type StartRoundRequest struct {
	ClientSeed string `json:"client_seed" binding:"required"`
	BetCents   int64  `json:"bet_cents" binding:"min=0"`
	DropColumn *int   `json:"drop_column" binding:"required"`
}

type CommitRoundResponse struct {
	RoundID    string `json:"round_id"`
	CommitHash string `json:"commit_hash"`
	Nonce      string `json:"nonce"`

	// SuggestedClientSeed is a random seed the client may use or replace.
	SuggestedClientSeed string `json:"suggested_client_seed"`
}

type StartRoundResponse struct {
	RoundID          string              `json:"round_id"`
	Path             []fairness.PathStep `json:"path"`
	BinIndex         int                 `json:"bin_index"`
	PayoutMultiplier float64             `json:"payout_multiplier"`
	WinAmount        int64               `json:"win_amount"`
	PegMapHash       string              `json:"peg_map_hash"`
}

type RevealRoundResponse struct {
	RoundID    string    `json:"round_id"`
	ServerSeed string    `json:"server_seed"`
	RevealedAt time.Time `json:"revealed_at"`
}

// VerifyQuery is bound from the query string of the public verify endpoint.
// Expected values are optional.
type VerifyQuery struct {
	ServerSeed string `form:"server_seed" binding:"required"`
	ClientSeed string `form:"client_seed" binding:"required"`
	Nonce      string `form:"nonce" binding:"required"`
	DropColumn *int   `form:"drop_column" binding:"required"`
	BinIndex   *int   `form:"bin_index"`
	PegMapHash string `form:"peg_map_hash"`
	CommitHash string `form:"commit_hash"`
}

type VerifyResponse struct {
	*fairness.VerifyReport
	Message string `json:"message"`
}

type GuestAuthResponse struct {
	Token     string    `json:"token"`
	PlayerID  string    `json:"player_id"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type PlayerSession struct {
	PlayerID     string    `json:"player_id"`
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}
