package core

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SortField selects the metric budget report rows are ordered by.
type SortField string

const (
	SortByCode        SortField = "code"
	SortByUtilization SortField = "utilization"
	SortByRemaining   SortField = "remaining"
	SortByBudget      SortField = "budget"
	SortByActual      SortField = "actual"
)

// ReportOptions controls row ordering. The zero value sorts by code ascending.
type ReportOptions struct {
	SortBy     SortField
	Descending bool
}

func (o ReportOptions) validate() error {
	switch o.SortBy {
	case "", SortByCode, SortByUtilization, SortByRemaining, SortByBudget, SortByActual:
		return nil
	}
	return newInputError("sort", "unknown sort field %q", o.SortBy)
}

// BudgetReportRow compares one budget with the expense booked against its
// account inside the reporting window.
type BudgetReportRow struct {
	AccountCode        string          `json:"account_code"`
	AccountName        string          `json:"account_name"`
	BudgetID           int             `json:"budget_id"`
	PeriodStart        time.Time       `json:"period_start"`
	PeriodEnd          time.Time       `json:"period_end"`
	BudgetAmount       decimal.Decimal `json:"budget_amount"`
	ActualAmount       decimal.Decimal `json:"actual_amount"`
	Remaining          decimal.Decimal `json:"remaining"`
	UtilizationPercent decimal.Decimal `json:"utilization_percent"`
	OverBudget         bool            `json:"over_budget"`
}

// BudgetReportSummary totals the returned rows with the same rules as each row.
type BudgetReportSummary struct {
	TotalBudget               decimal.Decimal `json:"total_budget"`
	TotalActual               decimal.Decimal `json:"total_actual"`
	TotalRemaining            decimal.Decimal `json:"total_remaining"`
	OverallUtilizationPercent decimal.Decimal `json:"overall_utilization_percent"`
}

// BudgetReport is the budget-vs-actual report for one period. Unbudgeted lists
// accounts with activity in the period but no budget to compare against.
type BudgetReport struct {
	Period     Period              `json:"period"`
	Rows       []BudgetReportRow   `json:"rows"`
	Summary    BudgetReportSummary `json:"summary"`
	Unbudgeted []AccountActuals    `json:"unbudgeted"`
}

// UtilizationPercent returns actual/budget*100 rounded half away from zero to
// one decimal place. A zero budget yields zero.
func UtilizationPercent(actual, budget decimal.Decimal) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	return actual.Mul(hundred).DivRound(budget, 1)
}

// BudgetEvaluator joins budgets with aggregated actuals.
type BudgetEvaluator struct {
	registry AccountRegistry
	budgets  BudgetStore
	feed     TransactionFeed
}

func NewBudgetEvaluator(registry AccountRegistry, budgets BudgetStore, feed TransactionFeed) *BudgetEvaluator {
	return &BudgetEvaluator{registry: registry, budgets: budgets, feed: feed}
}

// Evaluate builds the budget-vs-actual report for p.
func (e *BudgetEvaluator) Evaluate(ctx context.Context, p Period, opts ReportOptions) (*BudgetReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	snap, err := loadSnapshot(ctx, e.registry, e.budgets, e.feed, p)
	if err != nil {
		return nil, err
	}
	return BuildBudgetReport(p, snap.accounts, snap.budgets, snap.transactions, opts)
}

// BuildBudgetReport is the pure part of Evaluate.
//
// Each budget overlapping p produces one row. The row's actual amount is the
// expense of its account dated within the intersection of the budget period
// and p; income never counts toward utilization.
func BuildBudgetReport(p Period, accounts []AnalyticalAccount, budgets []Budget, txns []TaggedTransaction, opts ReportOptions) (*BudgetReport, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	names := snapshot{accounts: accounts}.accountNames()

	expenseByAccount := make(map[string][]TaggedTransaction)
	for _, tx := range txns {
		if tx.AccountCode != "" && tx.SourceType.IsExpense() {
			expenseByAccount[tx.AccountCode] = append(expenseByAccount[tx.AccountCode], tx)
		}
	}

	report := &BudgetReport{Period: p, Rows: []BudgetReportRow{}, Unbudgeted: []AccountActuals{}}
	budgeted := make(map[string]bool)

	for _, b := range budgets {
		window, ok := b.Period().Intersect(p)
		if !ok {
			continue
		}
		budgeted[b.AccountCode] = true

		actual := decimal.Zero
		for _, tx := range expenseByAccount[b.AccountCode] {
			if window.Contains(tx.DocumentDate) {
				actual = actual.Add(tx.Amount)
			}
		}

		remaining := b.Amount.Sub(actual)
		report.Rows = append(report.Rows, BudgetReportRow{
			AccountCode:        b.AccountCode,
			AccountName:        names[b.AccountCode],
			BudgetID:           b.ID,
			PeriodStart:        b.PeriodStart,
			PeriodEnd:          b.PeriodEnd,
			BudgetAmount:       b.Amount,
			ActualAmount:       actual,
			Remaining:          remaining,
			UtilizationPercent: UtilizationPercent(actual, b.Amount),
			OverBudget:         remaining.IsNegative(),
		})

		report.Summary.TotalBudget = report.Summary.TotalBudget.Add(b.Amount)
		report.Summary.TotalActual = report.Summary.TotalActual.Add(actual)
	}

	report.Summary.TotalRemaining = report.Summary.TotalBudget.Sub(report.Summary.TotalActual)
	report.Summary.OverallUtilizationPercent = UtilizationPercent(report.Summary.TotalActual, report.Summary.TotalBudget)

	sortRows(report.Rows, opts)

	activity := AggregateActuals(txns, p)
	for code, a := range activity {
		if budgeted[code] || a.TransactionCount == 0 {
			continue
		}
		row := *a
		row.AccountName = names[code]
		report.Unbudgeted = append(report.Unbudgeted, row)
	}
	sort.Slice(report.Unbudgeted, func(i, j int) bool {
		return report.Unbudgeted[i].AccountCode < report.Unbudgeted[j].AccountCode
	})

	return report, nil
}

func sortRows(rows []BudgetReportRow, opts ReportOptions) {
	metric := func(r BudgetReportRow) decimal.Decimal {
		switch opts.SortBy {
		case SortByUtilization:
			return r.UtilizationPercent
		case SortByRemaining:
			return r.Remaining
		case SortByBudget:
			return r.BudgetAmount
		case SortByActual:
			return r.ActualAmount
		}
		return decimal.Zero
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if opts.SortBy != "" && opts.SortBy != SortByCode {
			if c := metric(a).Cmp(metric(b)); c != 0 {
				if opts.Descending {
					return c > 0
				}
				return c < 0
			}
		} else if a.AccountCode != b.AccountCode {
			if opts.Descending {
				return a.AccountCode > b.AccountCode
			}
			return a.AccountCode < b.AccountCode
		}
		// Ties: account code ascending, then earliest period first.
		if a.AccountCode != b.AccountCode {
			return a.AccountCode < b.AccountCode
		}
		return a.PeriodStart.Before(b.PeriodStart)
	})
}
