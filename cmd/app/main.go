package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"budget-engine/internal/adapters/cli"
	"budget-engine/internal/adapters/repl"
	"budget-engine/internal/app"
	"budget-engine/internal/backend"
	"budget-engine/internal/config"
	"budget-engine/internal/core"
	"budget-engine/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()
	be, err := backend.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("backend")
	}
	defer be.Close()

	svc := app.NewAppService(be.Registry, be.Budgets, be.Feed, be.Payments, log, nil)

	actor := os.Getenv("USER")
	if actor == "" {
		actor = "cli"
	}

	if len(os.Args) < 2 {
		if err := repl.Run(ctx, svc, os.Stdin, os.Stdout, actor); err != nil {
			log.Error().Err(err).Msg("repl")
		}
		return
	}

	err = cli.Run(ctx, svc, os.Args[1:], actor, os.Stdout)
	switch {
	case err == nil:
		return
	case errors.Is(err, cli.ErrUsage), core.IsInputError(err):
		fmt.Fprintln(os.Stderr, err)
		be.Close()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "error:", err)
		be.Close()
		os.Exit(1)
	}
}
