package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

const (
	ContextPlayerID  = "player_id"
	ContextSessionID = "session_id"
	ContextSession   = "session"
)

// SessionStore resolves the session a token was issued for.
type SessionStore interface {
	GetSession(ctx context.Context, playerID, sessionID string) (*models.PlayerSession, error)
}

// AuthMiddleware accepts a token only while its session is still stored, so
// logging out revokes it before the JWT expires.
func AuthMiddleware(jwtService *services.JWTService, sessions SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, problem := tokenFromRequest(c)
		if problem != "" {
			abortUnauthorized(c, problem)
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		session, err := sessions.GetSession(c.Request.Context(), claims.PlayerID, claims.SessionID)
		if errors.Is(err, services.ErrSessionNotFound) {
			abortUnauthorized(c, "Session expired or invalid")
			return
		}
		if err != nil {
			log.Printf("Session lookup failed for %s: %v", claims.PlayerID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
			return
		}

		c.Set(ContextPlayerID, session.PlayerID)
		c.Set(ContextSessionID, session.SessionID)
		c.Set(ContextSession, session)

		c.Next()
	}
}

// tokenFromRequest reads a Bearer header, or the token query parameter since
// browsers cannot set headers on websocket upgrades. A non-empty second
// result is the client-facing reason the request carries no usable token.
func tokenFromRequest(c *gin.Context) (string, string) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, ""
		}
		return "", "Authorization header required"
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || token == "" {
		return "", "Invalid authorization format"
	}
	return token, ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// RateLimiter is the part of a round store the rate limit needs.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, playerID, action string, limit int, window time.Duration) (bool, error)
}

// RateLimitMiddleware caps round commits and starts per player.
func RateLimitMiddleware(limiter RateLimiter, limit int) gin.HandlerFunc {
	window := time.Minute

	return func(c *gin.Context) {
		playerID := c.GetString(ContextPlayerID)
		if playerID == "" {
			c.Next()
			return
		}

		var action string
		switch {
		case c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/rounds/commit"):
			action = "commit"
		case c.Request.Method == http.MethodPost && strings.HasSuffix(c.Request.URL.Path, "/start"):
			action = "start"
		default:
			c.Next()
			return
		}

		allowed, err := limiter.CheckRateLimit(c.Request.Context(), playerID, action, limit, window)
		if err != nil {
			log.Printf("Rate limit check failed for %s: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
