package main

import (
	"context"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/container"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
)

// seed inserts the default users when the store is empty.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	ctx := context.Background()
	c, err := container.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer c.Close()

	n, err := c.Service.SeedDefaults(ctx)
	if err != nil {
		logger.Fatalf("seed users: %v", err)
	}
	helpers.LogInfo(logger, "seed finished", map[string]any{"inserted": n})
}
