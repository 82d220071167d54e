package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BudgetStore provides budget allocations per analytical account and period.
type BudgetStore interface {
	// FindBudgets returns the budgets of accountCode whose period overlaps p,
	// ordered by period start. An unknown account yields an empty slice.
	FindBudgets(ctx context.Context, accountCode string, p Period) ([]Budget, error)

	// ListBudgets returns every budget overlapping p, ordered by account code
	// then period start.
	ListBudgets(ctx context.Context, p Period) ([]Budget, error)

	// CreateBudget declares a budget. A second declaration for the same
	// (account, period start, period end) is a no-op: the first budget is
	// returned with created == false.
	CreateBudget(ctx context.Context, in BudgetInput) (budget *Budget, created bool, err error)
}

type budgetStore struct {
	pool *pgxpool.Pool
}

// NewBudgetStore constructs a BudgetStore backed by the budgets table.
func NewBudgetStore(pool *pgxpool.Pool) BudgetStore {
	return &budgetStore{pool: pool}
}

const budgetColumns = `
	b.id, aa.code, b.period_start, b.period_end, b.budget_amount,
	b.description, b.created_by, b.created_at`

func scanBudget(row pgx.Row) (*Budget, error) {
	b := &Budget{}
	if err := row.Scan(&b.ID, &b.AccountCode, &b.PeriodStart, &b.PeriodEnd, &b.Amount,
		&b.Description, &b.CreatedBy, &b.CreatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *budgetStore) FindBudgets(ctx context.Context, accountCode string, p Period) ([]Budget, error) {
	return s.queryBudgets(ctx, `
		SELECT`+budgetColumns+`
		FROM budgets b
		JOIN analytical_accounts aa ON aa.id = b.analytical_account_id
		WHERE aa.code = $1
		  AND b.period_start <= $3::date
		  AND b.period_end   >= $2::date
		ORDER BY b.period_start, b.period_end`,
		accountCode, p.Start, p.End)
}

func (s *budgetStore) ListBudgets(ctx context.Context, p Period) ([]Budget, error) {
	return s.queryBudgets(ctx, `
		SELECT`+budgetColumns+`
		FROM budgets b
		JOIN analytical_accounts aa ON aa.id = b.analytical_account_id
		WHERE b.period_start <= $2::date
		  AND b.period_end   >= $1::date
		ORDER BY aa.code, b.period_start, b.period_end`,
		p.Start, p.End)
}

func (s *budgetStore) queryBudgets(ctx context.Context, q string, args ...any) ([]Budget, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	var budgets []Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("budget iteration error: %w", err)
	}
	return budgets, nil
}

func (s *budgetStore) CreateBudget(ctx context.Context, in BudgetInput) (*Budget, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}
	start, end := dateOnly(in.PeriodStart), dateOnly(in.PeriodEnd)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var accountID int
	err = tx.QueryRow(ctx, "SELECT id FROM analytical_accounts WHERE code = $1", in.AccountCode).Scan(&accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, newInputError("account_code", "analytical account %s not found", in.AccountCode)
		}
		return nil, false, fmt.Errorf("failed to resolve analytical account %s: %w", in.AccountCode, err)
	}

	var budgetID int
	created := true
	err = tx.QueryRow(ctx, `
		INSERT INTO budgets (analytical_account_id, period_start, period_end, budget_amount, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (analytical_account_id, period_start, period_end) DO NOTHING
		RETURNING id`,
		accountID, start, end, in.Amount, in.Description, in.CreatedBy,
	).Scan(&budgetID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to insert budget: %w", err)
		}
		// First writer wins: load the existing row instead.
		created = false
		err = tx.QueryRow(ctx, `
			SELECT id FROM budgets
			WHERE analytical_account_id = $1 AND period_start = $2 AND period_end = $3`,
			accountID, start, end,
		).Scan(&budgetID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing budget: %w", err)
		}
	}

	b, err := scanBudget(tx.QueryRow(ctx, `
		SELECT`+budgetColumns+`
		FROM budgets b
		JOIN analytical_accounts aa ON aa.id = b.analytical_account_id
		WHERE b.id = $1`, budgetID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read budget %d: %w", budgetID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to commit budget creation: %w", err)
	}
	return b, created, nil
}
