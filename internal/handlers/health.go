package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/services"
)

type HealthHandler struct {
	gameEngine *services.GameEngine
}

func NewHealthHandler(gameEngine *services.GameEngine) *HealthHandler {
	return &HealthHandler{gameEngine: gameEngine}
}

func (h *HealthHandler) Health(c *gin.Context) {
	checks := h.gameEngine.Health(c.Request.Context())

	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, gin.H{
		"status": http.StatusText(status),
		"checks": checks,
	})
}
