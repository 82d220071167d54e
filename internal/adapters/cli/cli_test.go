package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-engine/internal/app"
	"budget-engine/internal/core"
	"budget-engine/internal/demo"
)

func newTestService(t *testing.T) app.ApplicationService {
	t.Helper()
	store, err := demo.NewMemoryStore(context.Background())
	require.NoError(t, err)
	now := func() time.Time { return time.Date(2026, time.October, 18, 8, 0, 0, 0, time.UTC) }
	return app.NewAppService(store, store, store, store, zerolog.Nop(), now)
}

func run(t *testing.T, svc app.ApplicationService, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), svc, args, "tester", &out)
	return out.String(), err
}

func TestRun_Accounts(t *testing.T) {
	out, err := run(t, newTestService(t), "accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "CC001")
	assert.Contains(t, out, "Research & Design")
}

func TestRun_Report(t *testing.T) {
	out, err := run(t, newTestService(t), "report", "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "BUDGET VS ACTUAL  2026-01-01..2026-12-31")
	assert.Contains(t, out, "375000.00")
	assert.Contains(t, out, "75.0")
	assert.Contains(t, out, "OVER")
	assert.Contains(t, out, "48.8")

	_, err = run(t, newTestService(t), "rep", "2026-01-01", "2026-12-31", "name")
	assert.True(t, core.IsInputError(err))
}

func TestRun_BudgetsAndCreate(t *testing.T) {
	svc := newTestService(t)

	out, err := run(t, svc, "budget", "CC005", "2027-01-01", "2027-12-31", "90000", "Design", "2027")
	require.NoError(t, err)
	assert.Contains(t, out, "Created: budget #7 for CC005 2027-01-01..2027-12-31 amount 90000.00")

	out, err = run(t, svc, "budget", "CC005", "2027-01-01", "2027-12-31", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Already declared: budget #7")

	out, err = run(t, svc, "budgets", "CC005", "2027-01-01", "2027-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "Design 2027")

	out, err = run(t, svc, "budgets", "CC404", "2027-01-01", "2027-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "CC404 is not registered")
}

func TestRun_Actuals(t *testing.T) {
	out, err := run(t, newTestService(t), "actuals", "2026-01-01", "2026-12-31")
	require.NoError(t, err)
	assert.Contains(t, out, "335000.00")
	assert.Contains(t, out, "-40000.00")
}

func TestRun_PayablesAndSettle(t *testing.T) {
	svc := newTestService(t)

	out, err := run(t, svc, "payables", "--overdue")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-0001")
	assert.Contains(t, out, "201 days")
	assert.NotContains(t, out, "INV-0002")

	out, err = run(t, svc, "pay", "--type", "vendor_bill", "--open")
	require.NoError(t, err)
	assert.Contains(t, out, "BILL-0002")
	assert.NotContains(t, out, "BILL-0001")

	out, err = run(t, svc, "settle", "customer_invoice", "1", "30000", "evt-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied 25000.00 to INV-0001.")
	assert.Contains(t, out, "warning OVERPAYMENT")
	assert.Contains(t, out, "Status   : PAID")

	out, err = run(t, svc, "settle", "customer_invoice", "1", "30000", "evt-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Settlement evt-1 was already applied")

	out, err = run(t, svc, "rec", "CUSTOMER_INVOICE", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Document is CANCELLED and not payable.")
}

func TestRun_UsageErrors(t *testing.T) {
	svc := newTestService(t)
	for _, args := range [][]string{
		{},
		{"frobnicate"},
		{"report", "2026-01-01"},
		{"payables", "--type"},
		{"payables", "--all"},
		{"settle", "VENDOR_BILL", "2"},
	} {
		_, err := run(t, svc, args...)
		assert.ErrorIs(t, err, ErrUsage, "%v", args)
	}

	_, err := run(t, svc, "reconcile", "VENDOR_BILL", "two")
	assert.True(t, core.IsInputError(err))

	out, err := run(t, svc, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "Commands:")
}
