// Package backend builds the engine's data-access layer for the configured
// storage backend.
package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"budget-engine/internal/config"
	"budget-engine/internal/core"
	"budget-engine/internal/db"
	"budget-engine/internal/demo"
)

// Backend bundles the data-access interfaces the engine is constructed with.
// Close releases the underlying resources.
type Backend struct {
	Registry core.AccountRegistry
	Budgets  core.BudgetStore
	Feed     core.TransactionFeed
	Payments core.PaymentService
	Close    func()
}

// New creates the backend selected by cfg.DataBackend. The memory backend is
// preloaded with the demo data set.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, error) {
	switch cfg.DataBackend {
	case config.BackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info().Str("backend", cfg.DataBackend).Msg("initialized postgres backend")
		return &Backend{
			Registry: core.NewAccountRegistry(pool),
			Budgets:  core.NewBudgetStore(pool),
			Feed:     core.NewTransactionFeed(pool),
			Payments: core.NewPaymentService(pool),
			Close:    pool.Close,
		}, nil

	case config.BackendMemory:
		store, err := demo.NewMemoryStore(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load demo data: %w", err)
		}
		log.Warn().Str("backend", cfg.DataBackend).Msg("using in-memory backend with demo data; changes are not persisted")
		return &Backend{
			Registry: store,
			Budgets:  store,
			Feed:     store,
			Payments: store,
			Close:    func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}
