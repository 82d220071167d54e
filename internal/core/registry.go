package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRegistry is the read-only list of analytical accounts.
type AccountRegistry interface {
	// ListAccounts returns all analytical accounts ordered by code.
	ListAccounts(ctx context.Context) ([]AnalyticalAccount, error)

	// GetAccount returns the account with the given code. found is false for an
	// unknown code; that is not an error.
	GetAccount(ctx context.Context, code string) (account *AnalyticalAccount, found bool, err error)
}

// pgxQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type accountRegistry struct {
	pool *pgxpool.Pool
}

// NewAccountRegistry constructs an AccountRegistry backed by the analytical_accounts table.
func NewAccountRegistry(pool *pgxpool.Pool) AccountRegistry {
	return &accountRegistry{pool: pool}
}

func (r *accountRegistry) ListAccounts(ctx context.Context) ([]AnalyticalAccount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT code, name, description
		FROM analytical_accounts
		ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytical accounts: %w", err)
	}
	defer rows.Close()

	var accounts []AnalyticalAccount
	for rows.Next() {
		var a AnalyticalAccount
		if err := rows.Scan(&a.Code, &a.Name, &a.Description); err != nil {
			return nil, fmt.Errorf("failed to scan analytical account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("analytical account iteration error: %w", err)
	}
	return accounts, nil
}

func (r *accountRegistry) GetAccount(ctx context.Context, code string) (*AnalyticalAccount, bool, error) {
	a, err := lookupAccount(ctx, r.pool, code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to fetch analytical account %s: %w", code, err)
	}
	return a, true, nil
}

func lookupAccount(ctx context.Context, q pgxQuerier, code string) (*AnalyticalAccount, error) {
	a := &AnalyticalAccount{}
	err := q.QueryRow(ctx,
		"SELECT code, name, description FROM analytical_accounts WHERE code = $1", code,
	).Scan(&a.Code, &a.Name, &a.Description)
	if err != nil {
		return nil, err
	}
	return a, nil
}
