// Admin CLI for operational tasks: inspecting the online mirror, seeding
// users, and cleaning up calls left active by a crashed instance.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"connectly/backend/internal/config"
	"connectly/backend/internal/models"
	"connectly/backend/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})

	store := storage.NewStorageService(db, rdb)

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <command> [args]")
		fmt.Println("Commands: online | seed-user <first> <last> <email> | end-calls <user_id>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "online":
		users, err := store.OnlineUsers()
		if err != nil {
			log.Fatalf("Error listing online users: %v", err)
		}
		if len(users) == 0 {
			fmt.Println("No users online.")
			return
		}
		for _, id := range users {
			fmt.Println(id)
		}
	case "seed-user":
		if len(os.Args) != 5 {
			fmt.Println("Usage: admin seed-user <first> <last> <email>")
			os.Exit(1)
		}
		user := &models.User{
			FirstName: os.Args[2],
			LastName:  os.Args[3],
			Email:     os.Args[4],
			IsActive:  true,
		}
		if err := store.SaveUser(user); err != nil {
			log.Fatalf("Error creating user: %v", err)
		}
		fmt.Printf("User created: %s\n", user.ID)
	case "end-calls":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin end-calls <user_id>")
			os.Exit(1)
		}
		ended, err := store.EndActiveCallsForUser(os.Args[2], models.EndReasonNetworkIssue)
		if err != nil {
			log.Fatalf("Error ending calls: %v", err)
		}
		fmt.Printf("Ended %d call(s) for user %s.\n", len(ended), os.Args[2])
	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
