// Package memory holds every engine data set in process memory. It backs the
// demo CLI when no database is configured and gives tests a fast store with
// the same semantics as the PostgreSQL implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budget-engine/internal/core"
)

type docKey struct {
	typ core.SourceDocumentType
	id  int
}

// Settlement is a recorded settlement event with the amounts it moved.
type Settlement struct {
	Event   core.SettlementEvent
	Applied decimal.Decimal
	Excess  decimal.Decimal
}

func (r Settlement) doc() docKey {
	return docKey{r.Event.DocumentType, r.Event.DocumentID}
}

// Store implements core.AccountRegistry, core.BudgetStore,
// core.TransactionFeed and core.PaymentService.
type Store struct {
	mu           sync.RWMutex
	accounts     map[string]core.AnalyticalAccount
	budgets      []core.Budget
	nextBudgetID int
	lines        []core.SourceLine
	documents    map[docKey]core.PayableDocument
	settlements  map[string]Settlement
	now          func() time.Time
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]core.AnalyticalAccount),
		nextBudgetID: 1,
		documents:    make(map[docKey]core.PayableDocument),
		settlements:  make(map[string]Settlement),
		now:          time.Now,
	}
}

var (
	_ core.AccountRegistry = (*Store)(nil)
	_ core.BudgetStore     = (*Store)(nil)
	_ core.TransactionFeed = (*Store)(nil)
	_ core.PaymentService  = (*Store)(nil)
)

// AddAccount registers or replaces an analytical account.
func (s *Store) AddAccount(a core.AnalyticalAccount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.Code] = a
}

// AddSourceLine records a document line as the issuing side would store it.
func (s *Store) AddSourceLine(l core.SourceLine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, l)
}

// AddDocument registers or replaces a customer invoice or vendor bill.
func (s *Store) AddDocument(doc core.PayableDocument) error {
	if !doc.Type.IsPayable() {
		return core.NewInputError("document_type", "document type %q has no payment balance", doc.Type)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[docKey{doc.Type, doc.ID}] = doc
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.AnalyticalAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.AnalyticalAccount, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, code string) (*core.AnalyticalAccount, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[code]
	if !ok {
		return nil, false, nil
	}
	return &a, true, nil
}

func (s *Store) FindBudgets(_ context.Context, accountCode string, p core.Period) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlapping(p, func(b core.Budget) bool { return b.AccountCode == accountCode }), nil
}

func (s *Store) ListBudgets(_ context.Context, p core.Period) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlapping(p, func(core.Budget) bool { return true }), nil
}

// overlapping must be called with s.mu held.
func (s *Store) overlapping(p core.Period, keep func(core.Budget) bool) []core.Budget {
	out := []core.Budget{}
	for _, b := range s.budgets {
		if keep(b) && b.Period().Overlaps(p) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccountCode != out[j].AccountCode {
			return out[i].AccountCode < out[j].AccountCode
		}
		if !out[i].PeriodStart.Equal(out[j].PeriodStart) {
			return out[i].PeriodStart.Before(out[j].PeriodStart)
		}
		return out[i].PeriodEnd.Before(out[j].PeriodEnd)
	})
	return out
}

func (s *Store) CreateBudget(_ context.Context, in core.BudgetInput) (*core.Budget, bool, error) {
	if err := in.Validate(); err != nil {
		return nil, false, err
	}
	p, err := core.NewPeriod(in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return nil, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[in.AccountCode]; !ok {
		return nil, false, core.NewInputError("account_code", "analytical account %s not found", in.AccountCode)
	}
	for _, b := range s.budgets {
		if b.AccountCode == in.AccountCode && b.PeriodStart.Equal(p.Start) && b.PeriodEnd.Equal(p.End) {
			existing := b
			return &existing, false, nil
		}
	}

	b := core.Budget{
		ID:          s.nextBudgetID,
		AccountCode: in.AccountCode,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		Amount:      in.Amount,
		Description: in.Description,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   s.now().UTC(),
	}
	s.nextBudgetID++
	s.budgets = append(s.budgets, b)
	return &b, true, nil
}

func (s *Store) Transactions(_ context.Context, p core.Period) ([]core.TaggedTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.TaggedTransaction
	for _, l := range s.lines {
		tx, ok := core.NormalizeLine(l)
		if ok && p.Contains(tx.DocumentDate) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (s *Store) GetDocument(_ context.Context, docType core.SourceDocumentType, id int) (*core.PayableDocument, error) {
	if !docType.IsPayable() {
		return nil, core.NewInputError("document_type", "document type %q has no payment balance", docType)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docKey{docType, id}]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", docType, id, core.ErrNotFound)
	}
	return &doc, nil
}

func (s *Store) ListDocuments(_ context.Context, filter core.PayableFilter) ([]core.PayableDocument, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.PayableDocument{}
	for _, doc := range s.documents {
		if filter.Matches(doc) {
			out = append(out, doc)
		}
	}
	core.SortPayables(out)
	return out, nil
}

// ApplySettlement holds the write lock for the whole check-then-write, so a
// replayed key is always seen before any amount changes.
func (s *Store) ApplySettlement(_ context.Context, ev core.SettlementEvent) (*core.SettlementResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if ev.SettledAt.IsZero() {
		ev.SettledAt = s.now().UTC()
	}
	key := docKey{ev.DocumentType, ev.DocumentID}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[key]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", ev.DocumentType, ev.DocumentID, core.ErrNotFound)
	}

	if prev, seen := s.settlements[ev.IdempotencyKey]; seen {
		if prev.doc() != key {
			return nil, core.NewInputError("idempotency_key",
				"idempotency key %s was already used for %s %d", ev.IdempotencyKey, prev.Event.DocumentType, prev.Event.DocumentID)
		}
		return &core.SettlementResult{
			Document:  doc,
			Applied:   decimal.Zero,
			Excess:    decimal.Zero,
			Duplicate: true,
			Warnings:  []core.Warning{core.DuplicateSettlementWarning(ev.IdempotencyKey)},
		}, nil
	}

	if doc.Status == core.DocumentStatusCancelled {
		return nil, fmt.Errorf("%s %d is cancelled: %w", ev.DocumentType, ev.DocumentID, core.ErrNotPayable)
	}

	applied, excess, warnings := core.PlanSettlement(doc, ev.Amount)
	doc.PaidAmount = doc.PaidAmount.Add(applied)
	s.documents[key] = doc
	s.settlements[ev.IdempotencyKey] = Settlement{Event: ev, Applied: applied, Excess: excess}

	return &core.SettlementResult{Document: doc, Applied: applied, Excess: excess, Warnings: warnings}, nil
}

// Settlements returns the recorded settlement events ordered by settlement
// time, then idempotency key.
func (s *Store) Settlements() []Settlement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Settlement, 0, len(s.settlements))
	for _, r := range s.settlements {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Event.SettledAt.Equal(out[j].Event.SettledAt) {
			return out[i].Event.SettledAt.Before(out[j].Event.SettledAt)
		}
		return out[i].Event.IdempotencyKey < out[j].Event.IdempotencyKey
	})
	return out
}

// SettlementCount returns the number of distinct settlement events recorded.
func (s *Store) SettlementCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.settlements)
}
