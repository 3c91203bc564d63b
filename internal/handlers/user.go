package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/middleware"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

type UserHandler struct {
	store      services.RoundStore
	jwtService *services.JWTService
}

func NewUserHandler(store services.RoundStore, jwtService *services.JWTService) *UserHandler {
	return &UserHandler{
		store:      store,
		jwtService: jwtService,
	}
}

// GuestLogin creates an anonymous player and returns a token for it.
func (h *UserHandler) GuestLogin(c *gin.Context) {
	session := &models.PlayerSession{
		PlayerID:  models.GeneratePlayerID(),
		SessionID: models.GenerateSessionID(),
		CreatedAt: time.Now().UTC(),
	}
	session.LastAccessed = session.CreatedAt

	token, expiresAt, err := h.jwtService.GenerateToken(session.PlayerID, session.SessionID)
	if err != nil {
		respondError(c, "Failed to create player", err)
		return
	}

	if err := h.store.StoreSession(c.Request.Context(), session, h.jwtService.TTL()); err != nil {
		respondError(c, "Failed to create player", err)
		return
	}

	c.JSON(http.StatusCreated, models.GuestAuthResponse{
		Token:     token,
		PlayerID:  session.PlayerID,
		SessionID: session.SessionID,
		ExpiresAt: expiresAt,
	})
}

// GetCurrentPlayer reports the session the auth middleware resolved.
func (h *UserHandler) GetCurrentPlayer(c *gin.Context) {
	session, ok := c.MustGet(middleware.ContextSession).(*models.PlayerSession)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session expired or invalid"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player_id": session.PlayerID,
		"session": gin.H{
			"session_id":    session.SessionID,
			"created_at":    session.CreatedAt,
			"last_accessed": session.LastAccessed,
		},
	})
}

func (h *UserHandler) Logout(c *gin.Context) {
	playerID := c.GetString(middleware.ContextPlayerID)
	sessionID := c.GetString(middleware.ContextSessionID)

	if err := h.store.DeleteSession(c.Request.Context(), playerID, sessionID); err != nil {
		respondError(c, "Failed to logout", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}
