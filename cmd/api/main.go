package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"subsetlens/adapters/api"
	"subsetlens/internal/config"
	"subsetlens/internal/container"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	if c.Dataset == nil {
		c.Logger.Warn("DATA_FILE is not set; every request must carry its own dataset")
	}

	go cleanupSessions(ctx, c)

	server := api.NewServer(c.Explorer, cfg.Server.GinMode, c.Logger).WithSessions(c.Sessions, c.Dataset)
	if err := server.Start(ctx, ":"+cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// cleanupSessions drops sessions idle for more than a day
func cleanupSessions(ctx context.Context, c *container.Container) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.Sessions.CleanupOldSessions(24 * time.Hour); n > 0 {
				c.Logger.Info("removed %d idle sessions", n)
			}
		}
	}
}
