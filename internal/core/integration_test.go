package core_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-engine/internal/core"
	"budget-engine/internal/db"
	"budget-engine/internal/demo"
)

// setupTestDB migrates the test database and reloads the demo data set.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database; the demo loader truncates every engine table.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL)
	require.NoError(t, err, "connect to test database")

	_, err = db.Migrate(ctx, pool, "../../migrations", zerolog.Nop())
	require.NoError(t, err, "migrate test database")
	require.NoError(t, demo.LoadPostgres(ctx, pool), "seed test database")

	return pool
}

func TestPostgres_Registry(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	reg := core.NewAccountRegistry(pool)
	accounts, err := reg.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, len(demo.Accounts))
	assert.Equal(t, "CC001", accounts[0].Code)

	a, ok, err := reg.GetAccount(ctx, "CC003")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Marketing", a.Name)

	_, ok, err = reg.GetAccount(ctx, "CC404")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgres_BudgetStore(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	store := core.NewBudgetStore(pool)

	year, _ := core.ParsePeriod("2026-01-01", "2026-12-31")
	budgets, err := store.FindBudgets(ctx, "CC002", year)
	require.NoError(t, err)
	require.Len(t, budgets, 2)
	assert.True(t, budgets[0].PeriodStart.Before(budgets[1].PeriodStart))

	q3, _ := core.ParsePeriod("2026-07-01", "2026-09-30")
	budgets, err = store.FindBudgets(ctx, "CC002", q3)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assertDecimal(t, "180000", budgets[0].Amount)

	t.Run("CreateBudget_Dedupe", func(t *testing.T) {
		in := core.BudgetInput{
			AccountCode: "CC003",
			PeriodStart: date(2027, time.January, 1),
			PeriodEnd:   date(2027, time.March, 31),
			Amount:      dec("15000.50"),
			Description: "Marketing Q1 2027",
			CreatedBy:   "tester",
		}
		b, created, err := store.CreateBudget(ctx, in)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "CC003", b.AccountCode)
		assertDecimal(t, "15000.50", b.Amount)

		in.Amount = dec("1")
		again, created, err := store.CreateBudget(ctx, in)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, b.ID, again.ID)
		assertDecimal(t, "15000.50", again.Amount)
	})

	t.Run("CreateBudget_UnknownAccount", func(t *testing.T) {
		_, _, err := store.CreateBudget(ctx, core.BudgetInput{
			AccountCode: "CC404",
			PeriodStart: date(2027, time.January, 1),
			PeriodEnd:   date(2027, time.December, 31),
			Amount:      dec("1"),
		})
		var ie *core.InputError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "account_code", ie.Field)
	})
}

func TestPostgres_TransactionFeed(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	year, _ := core.ParsePeriod("2026-01-01", "2026-12-31")
	txns, err := core.NewTransactionFeed(pool).Transactions(ctx, year)
	require.NoError(t, err)

	// Every tagged line except those on cancelled documents and the untagged line.
	assert.Len(t, txns, 8)
	for _, tx := range txns {
		assert.NotEmpty(t, tx.AccountCode)
		assert.False(t, tx.SourceType == core.SourcePurchaseOrder && tx.SourceDocumentID == 2, "cancelled purchase order leaked")
	}
}

func TestPostgres_BudgetReportMatchesMemory(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()

	year, _ := core.ParsePeriod("2026-01-01", "2026-12-31")
	pg, err := core.NewBudgetEvaluator(core.NewAccountRegistry(pool), core.NewBudgetStore(pool), core.NewTransactionFeed(pool)).
		Evaluate(ctx, year, core.ReportOptions{})
	require.NoError(t, err)

	mem, err := demo.NewMemoryStore(ctx)
	require.NoError(t, err)
	want, err := core.NewBudgetEvaluator(mem, mem, mem).Evaluate(ctx, year, core.ReportOptions{})
	require.NoError(t, err)

	require.Len(t, pg.Rows, len(want.Rows))
	for i := range want.Rows {
		assert.Equal(t, want.Rows[i].AccountCode, pg.Rows[i].AccountCode)
		assert.True(t, want.Rows[i].ActualAmount.Equal(pg.Rows[i].ActualAmount), want.Rows[i].AccountCode)
		assert.True(t, want.Rows[i].UtilizationPercent.Equal(pg.Rows[i].UtilizationPercent), want.Rows[i].AccountCode)
	}
	assertDecimal(t, "48.8", pg.Summary.OverallUtilizationPercent)
}

func TestPostgres_Settlement(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewPaymentService(pool)

	ev := func(key, amount string) core.SettlementEvent {
		return core.SettlementEvent{DocumentType: core.SourceCustomerInvoice, DocumentID: 1, Amount: dec(amount), IdempotencyKey: key}
	}

	t.Run("TwoSettlementsPayInFull", func(t *testing.T) {
		_, err := svc.ApplySettlement(ctx, ev(uuid.NewString(), "12500"))
		require.NoError(t, err)
		res, err := svc.ApplySettlement(ctx, ev(uuid.NewString(), "12500"))
		require.NoError(t, err)
		assertDecimal(t, "25000", res.Document.PaidAmount)
		assert.Equal(t, core.PaymentPaid, core.PaymentStatusFor(res.Document.TotalAmount, res.Document.PaidAmount))
	})

	t.Run("OverpaymentIsClamped", func(t *testing.T) {
		res, err := svc.ApplySettlement(ctx, ev(uuid.NewString(), "100"))
		require.NoError(t, err)
		assertDecimal(t, "0", res.Applied)
		assertDecimal(t, "100", res.Excess)
		assertDecimal(t, "25000", res.Document.PaidAmount)
	})

	t.Run("CancelledIsNotPayable", func(t *testing.T) {
		_, err := svc.ApplySettlement(ctx, core.SettlementEvent{
			DocumentType: core.SourceCustomerInvoice, DocumentID: 3, Amount: dec("1"), IdempotencyKey: uuid.NewString(),
		})
		assert.ErrorIs(t, err, core.ErrNotPayable)
	})

	t.Run("UnknownDocument", func(t *testing.T) {
		_, err := svc.ApplySettlement(ctx, core.SettlementEvent{
			DocumentType: core.SourceVendorBill, DocumentID: 999, Amount: dec("1"), IdempotencyKey: uuid.NewString(),
		})
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}

func TestPostgres_SettlementReplay(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewPaymentService(pool)

	key := uuid.NewString()
	event := core.SettlementEvent{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("3000"), IdempotencyKey: key}

	var wg sync.WaitGroup
	results := make(chan *core.SettlementResult, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ApplySettlement(ctx, event)
			if assert.NoError(t, err) {
				results <- res
			}
		}()
	}
	wg.Wait()
	close(results)

	fresh := 0
	for res := range results {
		if !res.Duplicate {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)

	doc, err := svc.GetDocument(ctx, core.SourceVendorBill, 2)
	require.NoError(t, err)
	assertDecimal(t, "9000", doc.PaidAmount)

	var events int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM settlement_events WHERE idempotency_key = $1", key).Scan(&events))
	assert.Equal(t, 1, events)

	// The same key sent for another document is rejected.
	_, err = svc.ApplySettlement(ctx, core.SettlementEvent{DocumentType: core.SourceCustomerInvoice, DocumentID: 2, Amount: dec("1"), IdempotencyKey: key})
	assert.True(t, core.IsInputError(err))
}

func TestPostgres_ListDocuments(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()
	ctx := context.Background()
	svc := core.NewPaymentService(pool)

	all, err := svc.ListDocuments(ctx, core.PayableFilter{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "INV-0003", all[0].Number)

	open, err := svc.ListDocuments(ctx, core.PayableFilter{OpenOnly: true})
	require.NoError(t, err)
	assert.Len(t, open, 3)

	bills, err := svc.ListDocuments(ctx, core.PayableFilter{Type: core.SourceVendorBill})
	require.NoError(t, err)
	assert.Len(t, bills, 2)
}
