package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"connectly/backend/internal/api/handler"
	"connectly/backend/internal/calls"
	"connectly/backend/internal/chathub"
	"connectly/backend/internal/config"
	"connectly/backend/internal/messaging"
	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Call{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Connectly Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	store := storage.NewStorageService(db, rdb)

	// Realtime hub: registry tracks sessions, broadcaster announces
	// presence transitions, router dispatches inbound events.
	registry := chathub.NewRegistry(store)
	broadcaster := chathub.NewBroadcaster(registry, store)
	registry.SetAnnouncer(broadcaster)
	broadcaster.StartListener()

	messageSvc := messaging.NewService(store, store, registry)
	callSvc := calls.NewService(store, store, registry)

	// A disconnect must not leave the user's calls dangling.
	registry.OnDisconnect(func(userID string) {
		if err := callSvc.EndAllActiveForUser(userID, models.EndReasonUserDisconnected); err != nil {
			log.Printf("ERROR: Cleanup after disconnect of %s failed: %v", userID, err)
		}
	})

	router := chathub.NewRouter(registry, messageSvc, callSvc)

	r := gin.Default()
	h := handler.NewHandler(registry, router, messageSvc, callSvc, []byte(cfg.JWTSecret))
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
