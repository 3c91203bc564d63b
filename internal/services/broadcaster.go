package services

import "plinko-backend/internal/models"

// Broadcaster pushes round events to connected players.
type Broadcaster interface {
	BroadcastRoundCompleted(round *models.Round)
	BroadcastRoundRevealed(round *models.Round)
}
