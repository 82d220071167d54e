package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget-engine/internal/core"
)

func ptr(s string) *string { return &s }

func TestNormalizeLine(t *testing.T) {
	line := core.SourceLine{
		DocumentType:   core.SourceVendorBill,
		DocumentID:     7,
		LineID:         3,
		DocumentStatus: core.DocumentStatusPosted,
		DocumentDate:   time.Date(2026, time.May, 5, 14, 30, 0, 0, time.UTC),
		AccountCode:    ptr(" CC003 "),
		Subtotal:       dec("18000.50"),
	}

	tx, ok := core.NormalizeLine(line)
	require.True(t, ok)
	assert.Equal(t, "CC003", tx.AccountCode)
	assert.Equal(t, date(2026, time.May, 5), tx.DocumentDate)
	assert.Equal(t, core.SourceVendorBill, tx.SourceType)
	assert.Equal(t, 7, tx.SourceDocumentID)
	assert.Equal(t, 3, tx.SourceLineID)
	assertDecimal(t, "18000.50", tx.Amount)
}

func TestNormalizeLine_Skipped(t *testing.T) {
	valid := core.SourceLine{
		DocumentType:   core.SourcePurchaseOrder,
		DocumentID:     1,
		LineID:         1,
		DocumentStatus: core.DocumentStatusPosted,
		DocumentDate:   date(2026, time.February, 10),
		AccountCode:    ptr("CC001"),
		Subtotal:       dec("100"),
	}

	tests := []struct {
		name   string
		mutate func(*core.SourceLine)
	}{
		{"untagged", func(l *core.SourceLine) { l.AccountCode = nil }},
		{"blank tag", func(l *core.SourceLine) { l.AccountCode = ptr("   ") }},
		{"cancelled document", func(l *core.SourceLine) { l.DocumentStatus = core.DocumentStatusCancelled }},
		{"unknown type", func(l *core.SourceLine) { l.DocumentType = "CREDIT_NOTE" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := valid
			tt.mutate(&l)
			_, ok := core.NormalizeLine(l)
			assert.False(t, ok)
		})
	}

	_, ok := core.NormalizeLine(valid)
	assert.True(t, ok)
}

func TestSourceDocumentType(t *testing.T) {
	assert.True(t, core.SourcePurchaseOrder.IsExpense())
	assert.True(t, core.SourceVendorBill.IsExpense())
	assert.False(t, core.SourceSalesOrder.IsExpense())
	assert.False(t, core.SourceCustomerInvoice.IsExpense())

	assert.True(t, core.SourceCustomerInvoice.IsPayable())
	assert.True(t, core.SourceVendorBill.IsPayable())
	assert.False(t, core.SourcePurchaseOrder.IsPayable())
	assert.False(t, core.SourceDocumentType("").Valid())
}
