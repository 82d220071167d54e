package core_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-engine/internal/core"
	"budget-engine/internal/demo"
)

func TestPaymentStatusFor(t *testing.T) {
	assert.Equal(t, core.PaymentNotPaid, core.PaymentStatusFor(dec("100"), dec("0")))
	assert.Equal(t, core.PaymentNotPaid, core.PaymentStatusFor(dec("100"), dec("-5")))
	assert.Equal(t, core.PaymentPartiallyPaid, core.PaymentStatusFor(dec("100"), dec("99.99")))
	assert.Equal(t, core.PaymentPaid, core.PaymentStatusFor(dec("100"), dec("100")))
	assert.Equal(t, core.PaymentPaid, core.PaymentStatusFor(dec("100"), dec("150")))
	assert.Equal(t, core.PaymentNotPaid, core.PaymentStatusFor(dec("0"), dec("0")))
}

func TestReconcile(t *testing.T) {
	today := date(2026, time.October, 18)

	tests := []struct {
		name        string
		in          core.ReconciliationInput
		status      core.PaymentStatus
		balance     string
		overdue     bool
		daysOverdue int
		payable     bool
		warnings    []string
	}{
		{
			name:    "partially paid, due in the future",
			in:      core.ReconciliationInput{TotalAmount: dec("42000"), PaidAmount: dec("10000"), DueDate: date(2026, time.December, 31), Status: core.DocumentStatusSent},
			status:  core.PaymentPartiallyPaid,
			balance: "32000",
			payable: true,
		},
		{
			name:    "due today is not overdue",
			in:      core.ReconciliationInput{TotalAmount: dec("100"), PaidAmount: dec("0"), DueDate: today, Status: core.DocumentStatusSent},
			status:  core.PaymentNotPaid,
			balance: "100",
			payable: true,
		},
		{
			name:        "due yesterday",
			in:          core.ReconciliationInput{TotalAmount: dec("100"), PaidAmount: dec("40"), DueDate: date(2026, time.October, 17), Status: core.DocumentStatusPosted},
			status:      core.PaymentPartiallyPaid,
			balance:     "60",
			overdue:     true,
			daysOverdue: 1,
			payable:     true,
		},
		{
			name:    "paid documents are never overdue",
			in:      core.ReconciliationInput{TotalAmount: dec("125000"), PaidAmount: dec("125000"), DueDate: date(2026, time.April, 30), Status: core.DocumentStatusPosted},
			status:  core.PaymentPaid,
			balance: "0",
			payable: true,
		},
		{
			name:    "no due date",
			in:      core.ReconciliationInput{TotalAmount: dec("100"), PaidAmount: dec("0"), Status: core.DocumentStatusDraft},
			status:  core.PaymentNotPaid,
			balance: "100",
			payable: true,
		},
		{
			name:    "cancelled",
			in:      core.ReconciliationInput{TotalAmount: dec("9000"), PaidAmount: dec("0"), DueDate: date(2026, time.February, 19), Status: core.DocumentStatusCancelled},
			status:  core.PaymentNotPaid,
			balance: "9000",
		},
		{
			name:     "overpaid is clamped and warned",
			in:       core.ReconciliationInput{TotalAmount: dec("100"), PaidAmount: dec("130"), DueDate: date(2026, time.January, 1), Status: core.DocumentStatusPosted},
			status:   core.PaymentPaid,
			balance:  "0",
			payable:  true,
			warnings: []string{core.WarnPaidExceedsTotal},
		},
		{
			name:        "negative paid amount",
			in:          core.ReconciliationInput{TotalAmount: dec("100"), PaidAmount: dec("-10"), DueDate: date(2026, time.October, 8), Status: core.DocumentStatusPosted},
			status:      core.PaymentNotPaid,
			balance:     "110",
			overdue:     true,
			daysOverdue: 10,
			payable:     true,
			warnings:    []string{core.WarnNegativePaid},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := core.Reconcile(tt.in, today)
			assert.Equal(t, tt.status, got.PaymentStatus)
			assertDecimal(t, tt.balance, got.Balance)
			assert.Equal(t, tt.overdue, got.IsOverdue)
			assert.Equal(t, tt.daysOverdue, got.DaysOverdue)
			assert.Equal(t, tt.payable, got.Payable)

			var codes []string
			for _, w := range got.Warnings {
				codes = append(codes, w.Code)
			}
			assert.Equal(t, tt.warnings, codes)
		})
	}
}

func TestPlanSettlement(t *testing.T) {
	doc := core.PayableDocument{Type: core.SourceCustomerInvoice, ID: 1, TotalAmount: dec("25000"), PaidAmount: dec("20000")}

	applied, excess, warnings := core.PlanSettlement(doc, dec("3000"))
	assertDecimal(t, "3000", applied)
	assertDecimal(t, "0", excess)
	assert.Empty(t, warnings)

	applied, excess, warnings = core.PlanSettlement(doc, dec("8000"))
	assertDecimal(t, "5000", applied)
	assertDecimal(t, "3000", excess)
	require.Len(t, warnings, 1)
	assert.Equal(t, core.WarnOverpayment, warnings[0].Code)

	doc.PaidAmount = dec("25000")
	applied, excess, _ = core.PlanSettlement(doc, dec("1"))
	assertDecimal(t, "0", applied)
	assertDecimal(t, "1", excess)
}

func TestSettlementEvent_Validate(t *testing.T) {
	ok := core.SettlementEvent{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("10"), IdempotencyKey: "k"}
	require.NoError(t, ok.Validate())

	bad := []core.SettlementEvent{
		{DocumentType: core.SourcePurchaseOrder, DocumentID: 2, Amount: dec("10"), IdempotencyKey: "k"},
		{DocumentType: core.SourceVendorBill, DocumentID: 0, Amount: dec("10"), IdempotencyKey: "k"},
		{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("0"), IdempotencyKey: "k"},
		{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("10")},
		{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("0.001"), IdempotencyKey: "k"},
		{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("10.125"), IdempotencyKey: "k"},
		{DocumentType: core.SourceVendorBill, DocumentID: 2, Amount: dec("1000000000000000"), IdempotencyKey: "k"},
	}
	for _, ev := range bad {
		assert.True(t, core.IsInputError(ev.Validate()), "%+v", ev)
	}
}

func TestPayableFilter(t *testing.T) {
	open := core.PayableDocument{Type: core.SourceCustomerInvoice, Status: core.DocumentStatusSent, TotalAmount: dec("10"), PaidAmount: dec("0")}
	paid := core.PayableDocument{Type: core.SourceVendorBill, Status: core.DocumentStatusPosted, TotalAmount: dec("10"), PaidAmount: dec("10")}
	cancelled := core.PayableDocument{Type: core.SourceCustomerInvoice, Status: core.DocumentStatusCancelled, TotalAmount: dec("10")}

	all := core.PayableFilter{}
	assert.True(t, all.Matches(open))
	assert.True(t, all.Matches(paid))
	assert.True(t, all.Matches(cancelled))

	openOnly := core.PayableFilter{OpenOnly: true}
	assert.True(t, openOnly.Matches(open))
	assert.False(t, openOnly.Matches(paid))
	assert.False(t, openOnly.Matches(cancelled))

	bills := core.PayableFilter{Type: core.SourceVendorBill}
	assert.False(t, bills.Matches(open))
	assert.True(t, bills.Matches(paid))

	assert.True(t, core.IsInputError(core.PayableFilter{Type: core.SourceSalesOrder}.Validate()))
}

func TestSortPayables(t *testing.T) {
	docs := []core.PayableDocument{
		{Type: core.SourceVendorBill, ID: 1},
		{Type: core.SourceVendorBill, ID: 2, DueDate: date(2026, time.May, 1)},
		{Type: core.SourceCustomerInvoice, ID: 9, DueDate: date(2026, time.May, 1)},
		{Type: core.SourceCustomerInvoice, ID: 1, DueDate: date(2026, time.March, 1)},
		{Type: core.SourceCustomerInvoice, ID: 3},
	}
	core.SortPayables(docs)

	type key struct {
		typ core.SourceDocumentType
		id  int
	}
	var got []key
	for _, d := range docs {
		got = append(got, key{d.Type, d.ID})
	}
	assert.Equal(t, []key{
		{core.SourceCustomerInvoice, 1},
		{core.SourceCustomerInvoice, 9},
		{core.SourceVendorBill, 2},
		{core.SourceCustomerInvoice, 3},
		{core.SourceVendorBill, 1},
	}, got)
}

func TestPaymentEvaluator_Demo(t *testing.T) {
	ctx := context.Background()
	store, err := demo.NewMemoryStore(ctx)
	require.NoError(t, err)

	now := func() time.Time { return time.Date(2026, time.October, 18, 9, 0, 0, 0, time.UTC) }
	eval := core.NewPaymentEvaluator(store, now)

	all, err := eval.List(ctx, core.PayableFilter{}, false)
	require.NoError(t, err)
	var numbers []string
	for _, d := range all {
		numbers = append(numbers, d.Document.Number)
	}
	assert.Equal(t, []string{"INV-0003", "INV-0001", "BILL-0001", "BILL-0002", "INV-0002"}, numbers)

	overdue, err := eval.List(ctx, core.PayableFilter{}, true)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, "INV-0001", overdue[0].Document.Number)
	assert.Equal(t, 201, overdue[0].Reconciliation.DaysOverdue)
	assert.Equal(t, "BILL-0002", overdue[1].Document.Number)
	assert.Equal(t, 136, overdue[1].Reconciliation.DaysOverdue)
	assertDecimal(t, "12000", overdue[1].Reconciliation.Balance)

	_, err = eval.Reconcile(ctx, core.SourceCustomerInvoice, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
