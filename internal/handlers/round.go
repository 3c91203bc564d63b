package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/middleware"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

type RoundHandler struct {
	gameEngine *services.GameEngine
}

func NewRoundHandler(gameEngine *services.GameEngine) *RoundHandler {
	return &RoundHandler{gameEngine: gameEngine}
}

func (h *RoundHandler) CommitRound(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)

	round, err := h.gameEngine.CommitRound(c.Request.Context(), playerID)
	if err != nil {
		respondError(c, "Failed to commit round", err)
		return
	}

	clientSeed, err := models.GenerateClientSeed()
	if err != nil {
		respondError(c, "Failed to commit round", err)
		return
	}

	c.JSON(http.StatusCreated, models.CommitRoundResponse{
		RoundID:             round.ID,
		CommitHash:          round.CommitHash,
		Nonce:               round.Nonce,
		SuggestedClientSeed: clientSeed,
	})
}

func (h *RoundHandler) StartRound(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)

	var req models.StartRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	round, err := h.gameEngine.StartRound(c.Request.Context(), playerID, c.Param("id"), &req)
	if err != nil {
		respondError(c, "Failed to start round", err)
		return
	}

	c.JSON(http.StatusOK, models.StartRoundResponse{
		RoundID:          round.ID,
		Path:             round.Path,
		BinIndex:         round.BinIndex,
		PayoutMultiplier: round.PayoutMultiplier,
		WinAmount:        round.WinAmount,
		PegMapHash:       round.PegMapHash,
	})
}

func (h *RoundHandler) RevealRound(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)

	round, err := h.gameEngine.RevealRound(c.Request.Context(), playerID, c.Param("id"))
	if err != nil {
		respondError(c, "Failed to reveal round", err)
		return
	}

	c.JSON(http.StatusOK, models.RevealRoundResponse{
		RoundID:    round.ID,
		ServerSeed: round.ServerSeed,
		RevealedAt: *round.RevealedAt,
	})
}

func (h *RoundHandler) GetRound(c *gin.Context) {
	round, err := h.gameEngine.GetRound(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "Failed to get round", err)
		return
	}

	c.JSON(http.StatusOK, round.View())
}

func (h *RoundHandler) GetRoundHistory(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil || limit <= 0 || limit > services.MaxHistoryRounds {
		limit = services.DefaultHistoryRounds
	}

	rounds, err := h.gameEngine.GetRoundHistory(c.Request.Context(), playerID, limit)
	if err != nil {
		respondError(c, "Failed to fetch round history", err)
		return
	}

	views := make([]*models.RoundView, 0, len(rounds))
	for _, round := range rounds {
		views = append(views, round.View())
	}

	c.JSON(http.StatusOK, gin.H{
		"rounds": views,
		"count":  len(views),
	})
}
