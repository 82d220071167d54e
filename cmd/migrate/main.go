// migrate applies the SQL files under migrations/ to DATABASE_URL.
//
// Usage: go run ./cmd/migrate [-dir migrations]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"budget-engine/internal/config"
	"budget-engine/internal/db"
	"budget-engine/internal/logger"
)

func main() {
	_ = godotenv.Load()

	dir := flag.String("dir", "migrations", "directory holding NNN_description.sql files")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	connCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	pool, err := db.NewPool(connCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}
	defer pool.Close()

	applied, err := db.Migrate(context.Background(), pool, *dir, log)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		pool.Close()
		os.Exit(1)
	}
	log.Info().Int("applied", applied).Msg("all migrations processed")
}
