package handlers

import (
	"github.com/gin-gonic/gin"

	"plinko-backend/internal/middleware"
	"plinko-backend/internal/services"
)

type RouterDeps struct {
	GameEngine      *services.GameEngine
	Store           services.RoundStore
	JWTService      *services.JWTService
	WebSocket       *WebSocketHandler
	RateLimitRounds int
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	userHandler := NewUserHandler(deps.Store, deps.JWTService)
	roundHandler := NewRoundHandler(deps.GameEngine)
	verifyHandler := NewVerifyHandler(deps.GameEngine)
	healthHandler := NewHealthHandler(deps.GameEngine)

	router.GET("/health", healthHandler.Health)
	router.POST("/auth/guest", userHandler.GuestLogin)
	router.GET("/api/verify", verifyHandler.Verify)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.JWTService, deps.Store))
	protected.Use(middleware.RateLimitMiddleware(deps.Store, deps.RateLimitRounds))
	{
		protected.GET("/me", userHandler.GetCurrentPlayer)
		protected.POST("/logout", userHandler.Logout)

		if deps.WebSocket != nil {
			protected.GET("/ws", deps.WebSocket.HandleWebSocket)
		}

		rounds := protected.Group("/rounds")
		{
			rounds.POST("/commit", roundHandler.CommitRound)
			rounds.GET("/history", roundHandler.GetRoundHistory)
			rounds.GET("/:id", roundHandler.GetRound)
			rounds.POST("/:id/start", roundHandler.StartRound)
			rounds.POST("/:id/reveal", roundHandler.RevealRound)
		}
	}

	return router
}
