// Command seedadmin creates the initial admin account if it does not exist yet.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"dairy-backend-go/internal/config"
	"dairy-backend-go/internal/core"
	"dairy-backend-go/internal/db"
)

func main() {
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize Zap logger: %v", err)
	}
	defer logger.Sync()

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if appConfig.StorageDriver == config.StorageMemory {
		logger.Fatal("In-memory storage is seeded by the server at startup; set STORAGE_DRIVER=firestore")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clients, err := db.InitFirebase(ctx, appConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase", zap.Error(err))
	}
	defer clients.Close()

	repos, err := db.Open(appConfig, clients)
	if err != nil {
		logger.Fatal("Failed to open repositories", zap.Error(err))
	}

	created, err := core.EnsureAdmin(ctx, repos.Users, appConfig.AdminEmail, appConfig.AdminPassword)
	if err != nil {
		logger.Fatal("Failed to seed admin", zap.Error(err))
	}
	if created {
		logger.Info("Admin user created", zap.String("email", appConfig.AdminEmail))
	} else {
		logger.Info("Admin user already exists", zap.String("email", appConfig.AdminEmail))
	}
}
