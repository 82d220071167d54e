// seed-demo replaces the engine tables with the demo data set.
// It wipes analytical accounts, budgets, source documents and settlement events.
//
// Usage: go run ./cmd/seed-demo
package main

import (
	"context"

	"github.com/joho/godotenv"

	"budget-engine/internal/config"
	"budget-engine/internal/db"
	"budget-engine/internal/demo"
	"budget-engine/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	if err := demo.LoadPostgres(ctx, pool); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg("failed to load demo data")
	}
	log.Info().
		Int("accounts", len(demo.Accounts)).
		Int("budgets", len(demo.Budgets)).
		Int("documents", len(demo.Documents)).
		Msg("demo data restored")
}
