package models

import (
	"time"

	"plinko-backend/internal/fairness"
)

// Round is the stored record of one plinko round. ServerSeed is kept from the
// moment of commit but only leaves the service through View once revealed.
type Round struct {
	ID       string               `json:"id"`
	PlayerID string               `json:"player_id"`
	Status   fairness.RoundStatus `json:"status"`

	ServerSeed   string `json:"server_seed"`
	Nonce        string `json:"nonce"`
	CommitHash   string `json:"commit_hash"`
	ClientSeed   string `json:"client_seed,omitempty"`
	CombinedSeed string `json:"combined_seed,omitempty"`

	Rows             int                 `json:"rows"`
	DropColumn       int                 `json:"drop_column"`
	BinIndex         int                 `json:"bin_index"`
	PayoutMultiplier float64             `json:"payout_multiplier"`
	BetCents         int64               `json:"bet_cents"`
	WinAmount        int64               `json:"win_amount"`
	Path             []fairness.PathStep `json:"path,omitempty"`
	PegMapHash       string              `json:"peg_map_hash,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RevealedAt  *time.Time `json:"revealed_at,omitempty"`
}

// RoundView is the public shape of a round.
type RoundView struct {
	ID               string               `json:"id"`
	PlayerID         string               `json:"player_id"`
	Status           fairness.RoundStatus `json:"status"`
	ServerSeed       *string              `json:"server_seed"`
	Nonce            string               `json:"nonce"`
	CommitHash       string               `json:"commit_hash"`
	ClientSeed       string               `json:"client_seed,omitempty"`
	CombinedSeed     string               `json:"combined_seed,omitempty"`
	Rows             int                  `json:"rows"`
	DropColumn       int                  `json:"drop_column"`
	BinIndex         int                  `json:"bin_index"`
	PayoutMultiplier float64              `json:"payout_multiplier"`
	BetCents         int64                `json:"bet_cents"`
	WinAmount        int64                `json:"win_amount"`
	Path             []fairness.PathStep  `json:"path,omitempty"`
	PegMapHash       string               `json:"peg_map_hash,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	RevealedAt       *time.Time           `json:"revealed_at,omitempty"`
}

func (r *Round) IsRevealed() bool {
	return r.Status == fairness.StatusRevealed
}

// View returns the public shape. The server seed is nil until the round is
// revealed.
func (r *Round) View() *RoundView {
	v := &RoundView{
		ID:               r.ID,
		PlayerID:         r.PlayerID,
		Status:           r.Status,
		Nonce:            r.Nonce,
		CommitHash:       r.CommitHash,
		ClientSeed:       r.ClientSeed,
		CombinedSeed:     r.CombinedSeed,
		Rows:             r.Rows,
		DropColumn:       r.DropColumn,
		BinIndex:         r.BinIndex,
		PayoutMultiplier: r.PayoutMultiplier,
		BetCents:         r.BetCents,
		WinAmount:        r.WinAmount,
		Path:             r.Path,
		PegMapHash:       r.PegMapHash,
		CreatedAt:        r.CreatedAt,
		CompletedAt:      r.CompletedAt,
		RevealedAt:       r.RevealedAt,
	}
	if r.IsRevealed() {
		seed := r.ServerSeed
		v.ServerSeed = &seed
	}
	return v
}

// Commitment rebuilds the fairness commitment the round was created with.
func (r *Round) Commitment() *fairness.Commitment {
	return &fairness.Commitment{
		ServerSeed: r.ServerSeed,
		Nonce:      r.Nonce,
		CommitHash: r.CommitHash,
	}
}
