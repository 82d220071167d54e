package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// AccountActuals is the actual activity of one analytical account in a period.
// NetActual = ActualIncome - ActualExpense.
type AccountActuals struct {
	AccountCode      string          `json:"account_code"`
	AccountName      string          `json:"account_name"`
	ActualExpense    decimal.Decimal `json:"actual_expense"`
	ActualIncome     decimal.Decimal `json:"actual_income"`
	NetActual        decimal.Decimal `json:"net_actual"`
	TransactionCount int             `json:"transaction_count"`
}

func (a *AccountActuals) add(tx TaggedTransaction) {
	if tx.SourceType.IsExpense() {
		a.ActualExpense = a.ActualExpense.Add(tx.Amount)
	} else {
		a.ActualIncome = a.ActualIncome.Add(tx.Amount)
	}
	a.NetActual = a.ActualIncome.Sub(a.ActualExpense)
	a.TransactionCount++
}

// AggregateActuals sums the transactions dated within p into one bucket per
// account code. Transactions outside p or without a tag are ignored.
// Decimal addition makes the result independent of input order.
func AggregateActuals(txns []TaggedTransaction, p Period) map[string]*AccountActuals {
	buckets := make(map[string]*AccountActuals)
	for _, tx := range txns {
		if tx.AccountCode == "" || !p.Contains(tx.DocumentDate) {
			continue
		}
		b, ok := buckets[tx.AccountCode]
		if !ok {
			b = &AccountActuals{AccountCode: tx.AccountCode}
			buckets[tx.AccountCode] = b
		}
		b.add(tx)
	}
	return buckets
}

// Aggregator produces per-account actuals for a reporting period.
type Aggregator struct {
	registry AccountRegistry
	budgets  BudgetStore
	feed     TransactionFeed
}

func NewAggregator(registry AccountRegistry, budgets BudgetStore, feed TransactionFeed) *Aggregator {
	return &Aggregator{registry: registry, budgets: budgets, feed: feed}
}

// Actuals returns one row for every account with a budget overlapping p or
// with at least one tagged transaction in p, ordered by account code.
// Budgeted accounts without activity are reported with zero actuals.
func (a *Aggregator) Actuals(ctx context.Context, p Period) ([]AccountActuals, error) {
	snap, err := loadSnapshot(ctx, a.registry, a.budgets, a.feed, p)
	if err != nil {
		return nil, err
	}

	buckets := AggregateActuals(snap.transactions, p)
	for _, b := range snap.budgets {
		if _, ok := buckets[b.AccountCode]; !ok {
			buckets[b.AccountCode] = &AccountActuals{AccountCode: b.AccountCode}
		}
	}
	return sortedActuals(buckets, snap.accountNames()), nil
}

func sortedActuals(buckets map[string]*AccountActuals, names map[string]string) []AccountActuals {
	out := make([]AccountActuals, 0, len(buckets))
	for code, b := range buckets {
		row := *b
		row.AccountName = names[code]
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out
}

// snapshot is everything one report needs, loaded up front.
type snapshot struct {
	accounts     []AnalyticalAccount
	budgets      []Budget
	transactions []TaggedTransaction
}

func (s snapshot) accountNames() map[string]string {
	names := make(map[string]string, len(s.accounts))
	for _, a := range s.accounts {
		names[a.Code] = a.Name
	}
	return names
}

// loadSnapshot fetches accounts, budgets and transactions concurrently.
func loadSnapshot(ctx context.Context, registry AccountRegistry, budgets BudgetStore, feed TransactionFeed, p Period) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := registry.ListAccounts(gctx)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		snap.accounts = accounts
		return nil
	})
	g.Go(func() error {
		bs, err := budgets.ListBudgets(gctx, p)
		if err != nil {
			return fmt.Errorf("list budgets: %w", err)
		}
		snap.budgets = bs
		return nil
	})
	g.Go(func() error {
		txns, err := feed.Transactions(gctx, p)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.transactions = txns
		return nil
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}
