package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"plinko-backend/internal/config"
	"plinko-backend/internal/middleware"
	"plinko-backend/internal/models"
	"plinko-backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(jwtService *services.JWTService, store *services.MemoryStore, limit int) *gin.Engine {
	router := gin.New()
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(jwtService, store))
	api.Use(middleware.RateLimitMiddleware(store, limit))
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"player_id":  c.GetString(middleware.ContextPlayerID),
			"session_id": c.GetString(middleware.ContextSessionID),
		})
	})
	api.POST("/rounds/commit", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

// newSessionToken stores a session and returns a token issued for it.
func newSessionToken(t *testing.T, jwtService *services.JWTService, store *services.MemoryStore, playerID, sessionID string) string {
	t.Helper()

	session := &models.PlayerSession{PlayerID: playerID, SessionID: sessionID, CreatedAt: time.Now()}
	if err := store.StoreSession(context.Background(), session, time.Hour); err != nil {
		t.Fatalf("Failed to store session: %v", err)
	}
	token, _, err := jwtService.GenerateToken(playerID, sessionID)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return token
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour})
	store := services.NewMemoryStore()
	router := newRouter(jwtService, store, 10)

	token := newSessionToken(t, jwtService, store, "player_1", "session_1")
	orphan, _, err := jwtService.GenerateToken("player_1", "session_unknown")
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	tcs := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "bearer token", target: "/api/me", header: "Bearer " + token, want: http.StatusOK},
		{name: "query token", target: "/api/me?token=" + token, want: http.StatusOK},
		{name: "missing token", target: "/api/me", want: http.StatusUnauthorized},
		{name: "wrong scheme", target: "/api/me", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "bad token", target: "/api/me", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "empty bearer", target: "/api/me", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "valid token without session", target: "/api/me", header: "Bearer " + orphan, want: http.StatusUnauthorized},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.want, w.Body.String())
			}
		})
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour})
	store := services.NewMemoryStore()
	router := newRouter(jwtService, store, 2)

	token := newSessionToken(t, jwtService, store, "player_1", "session_1")

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		req := httptest.NewRequest(http.MethodPost, "/api/rounds/commit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != code {
			t.Fatalf("request %d: status = %d, want %d", i, w.Code, code)
		}
	}

	// Reads are not limited
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("GET %d: status = %d", i, w.Code)
		}
	}
}

func TestAuthMiddlewareRejectsDeletedSession(t *testing.T) {
	jwtService := services.NewJWTService(&config.Config{JWTSecret: "secret", JWTTTL: time.Hour})
	store := services.NewMemoryStore()
	router := newRouter(jwtService, store, 10)

	token := newSessionToken(t, jwtService, store, "player_1", "session_1")

	get := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := get(); code != http.StatusOK {
		t.Fatalf("before delete: status = %d, want %d", code, http.StatusOK)
	}
	if err := store.DeleteSession(context.Background(), "player_1", "session_1"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if code := get(); code != http.StatusUnauthorized {
		t.Fatalf("after delete: status = %d, want %d", code, http.StatusUnauthorized)
	}
}
