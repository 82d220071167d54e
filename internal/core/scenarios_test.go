package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-engine/internal/core"
	"budget-engine/internal/store/memory"
)

func scenarioStore(t *testing.T) *memory.Store {
	t.Helper()
	s := memory.New()
	s.AddAccount(core.AnalyticalAccount{Code: "CC001", Name: "Operations"})
	s.AddAccount(core.AnalyticalAccount{Code: "CC005", Name: "Research"})
	ctx := context.Background()
	for _, in := range []core.BudgetInput{
		{AccountCode: "CC001", PeriodStart: date(2026, time.January, 1), PeriodEnd: date(2026, time.December, 31), Amount: dec("500000")},
		{AccountCode: "CC005", PeriodStart: date(2026, time.January, 1), PeriodEnd: date(2026, time.December, 31), Amount: dec("75000")},
	} {
		_, _, err := s.CreateBudget(ctx, in)
		require.NoError(t, err)
	}
	for i, amount := range []string{"200000", "100000", "75000"} {
		s.AddSourceLine(core.SourceLine{
			DocumentType:   core.SourcePurchaseOrder,
			DocumentID:     i + 1,
			LineID:         i + 1,
			DocumentStatus: core.DocumentStatusPosted,
			DocumentDate:   date(2026, time.Month(3+i), 10),
			AccountCode:    ptr("CC001"),
			Subtotal:       dec(amount),
		})
	}
	require.NoError(t, s.AddDocument(core.PayableDocument{
		Type:        core.SourceCustomerInvoice,
		ID:          1,
		Number:      "INV-0001",
		DueDate:     date(2026, time.March, 31),
		Status:      core.DocumentStatusSent,
		TotalAmount: dec("25000"),
		PaidAmount:  dec("0"),
	}))
	return s
}

func yearReport(t *testing.T, s *memory.Store) *core.BudgetReport {
	t.Helper()
	p, err := core.ParsePeriod("2026-01-01", "2026-12-31")
	require.NoError(t, err)
	report, err := core.NewBudgetEvaluator(s, s, s).Evaluate(context.Background(), p, core.ReportOptions{})
	require.NoError(t, err)
	return report
}

func settle(key, amount string) core.SettlementEvent {
	return core.SettlementEvent{
		DocumentType:   core.SourceCustomerInvoice,
		DocumentID:     1,
		Amount:         dec(amount),
		IdempotencyKey: key,
	}
}

func TestScenarioA_Utilization(t *testing.T) {
	report := yearReport(t, scenarioStore(t))
	require.Len(t, report.Rows, 2)

	row := report.Rows[0]
	assert.Equal(t, "CC001", row.AccountCode)
	assertDecimal(t, "375000", row.ActualAmount)
	assertDecimal(t, "75.0", row.UtilizationPercent)
	assertDecimal(t, "125000", row.Remaining)
	assert.False(t, row.OverBudget)
}

func TestScenarioB_OverdueUnpaidInvoice(t *testing.T) {
	s := scenarioStore(t)
	eval := core.NewPaymentEvaluator(s, func() time.Time { return date(2026, time.October, 18) })

	dr, err := eval.Reconcile(context.Background(), core.SourceCustomerInvoice, 1)
	require.NoError(t, err)
	assert.Equal(t, core.PaymentNotPaid, dr.Reconciliation.PaymentStatus)
	assertDecimal(t, "25000", dr.Reconciliation.Balance)
	assert.True(t, dr.Reconciliation.IsOverdue)
}

func TestScenarioC_TwoSettlementsPayInFull(t *testing.T) {
	s := scenarioStore(t)
	ctx := context.Background()

	_, err := s.ApplySettlement(ctx, settle("pi_first", "12500"))
	require.NoError(t, err)
	res, err := s.ApplySettlement(ctx, settle("pi_second", "12500"))
	require.NoError(t, err)

	assertDecimal(t, "25000", res.Document.PaidAmount)
	rec := core.Reconcile(core.ReconciliationInput{
		TotalAmount: res.Document.TotalAmount,
		PaidAmount:  res.Document.PaidAmount,
		DueDate:     res.Document.DueDate,
		Status:      res.Document.Status,
	}, date(2026, time.October, 18))
	assert.Equal(t, core.PaymentPaid, rec.PaymentStatus)
	assertDecimal(t, "0", rec.Balance)
	assert.False(t, rec.IsOverdue)
}

func TestScenarioD_ReplayAppliedOnce(t *testing.T) {
	s := scenarioStore(t)
	ctx := context.Background()

	first, err := s.ApplySettlement(ctx, settle("pi_replayed", "12500"))
	require.NoError(t, err)
	assert.False(t, first.Duplicate)

	replay, err := s.ApplySettlement(ctx, settle("pi_replayed", "12500"))
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assertDecimal(t, "0", replay.Applied)
	assertDecimal(t, "12500", replay.Document.PaidAmount)

	doc, err := s.GetDocument(ctx, core.SourceCustomerInvoice, 1)
	require.NoError(t, err)
	assertDecimal(t, "12500", doc.PaidAmount)
}

func TestScenarioD_ConcurrentReplays(t *testing.T) {
	s := scenarioStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	applied := make(chan bool, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.ApplySettlement(ctx, settle("pi_concurrent", "5000"))
			if assert.NoError(t, err) {
				applied <- !res.Duplicate
			}
		}()
	}
	wg.Wait()
	close(applied)

	fresh := 0
	for ok := range applied {
		if ok {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)

	doc, err := s.GetDocument(ctx, core.SourceCustomerInvoice, 1)
	require.NoError(t, err)
	assertDecimal(t, "5000", doc.PaidAmount)
}

func TestScenarioE_BudgetWithoutTransactions(t *testing.T) {
	report := yearReport(t, scenarioStore(t))
	require.Len(t, report.Rows, 2)

	row := report.Rows[1]
	assert.Equal(t, "CC005", row.AccountCode)
	assertDecimal(t, "0", row.ActualAmount)
	assertDecimal(t, "0", row.UtilizationPercent)
	assertDecimal(t, "75000", row.Remaining)
}
