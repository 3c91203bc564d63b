package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/fairness"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

type VerifyHandler struct {
	gameEngine *services.GameEngine
}

func NewVerifyHandler(gameEngine *services.GameEngine) *VerifyHandler {
	return &VerifyHandler{gameEngine: gameEngine}
}

// Verify recomputes a round from revealed inputs. It is public and stateless.
func (h *VerifyHandler) Verify(c *gin.Context) {
	var query models.VerifyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	resp, err := h.gameEngine.VerifyRound(fairness.VerifyRequest{
		ServerSeed:         query.ServerSeed,
		ClientSeed:         query.ClientSeed,
		Nonce:              query.Nonce,
		DropColumn:         *query.DropColumn,
		ExpectedBinIndex:   query.BinIndex,
		ExpectedPegMapHash: query.PegMapHash,
		ExpectedCommitHash: query.CommitHash,
	})
	if err != nil {
		respondError(c, "Verification failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
