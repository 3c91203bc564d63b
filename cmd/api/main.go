package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"plinko-backend/internal/config"
	"plinko-backend/internal/fairness"
	"plinko-backend/internal/handlers"
	"plinko-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var store services.RoundStore
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memoryStore := services.NewMemoryStore()
		store = memoryStore

		go func() {
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()

			for range ticker.C {
				if n := memoryStore.PruneExpired(); n > 0 {
					log.Printf("Pruned %d expired rounds", n)
				}
			}
		}()
		log.Println("Using in-memory round store")
	default:
		redisService, err := services.NewRedisService(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		store = redisService
		log.Printf("Using Redis round store at %s", cfg.RedisURL)
	}
	defer store.Close()

	jwtService := services.NewJWTService(cfg)
	gameEngine := services.NewGameEngine(store, fairness.NewProtocol(nil), cfg.RoundTTL)

	if cfg.DatabaseURL != "" {
		archive, err := services.NewPostgresArchive(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to PostgreSQL: %v", err)
		}
		defer archive.Close()
		gameEngine.SetArchive(archive)
	}

	wsHandler := handlers.NewWebSocketHandler()
	gameEngine.SetBroadcaster(wsHandler)

	router := handlers.NewRouter(handlers.RouterDeps{
		GameEngine:      gameEngine,
		Store:           store,
		JWTService:      jwtService,
		WebSocket:       wsHandler,
		RateLimitRounds: cfg.RateLimitRounds,
	})

	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
