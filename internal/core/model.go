package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceDocumentType identifies which document table a transaction came from.
type SourceDocumentType string

const (
	SourcePurchaseOrder   SourceDocumentType = "PURCHASE_ORDER"
	SourceSalesOrder      SourceDocumentType = "SALES_ORDER"
	SourceCustomerInvoice SourceDocumentType = "CUSTOMER_INVOICE"
	SourceVendorBill      SourceDocumentType = "VENDOR_BILL"
)

// Valid reports whether t is one of the four known document types.
func (t SourceDocumentType) Valid() bool {
	switch t {
	case SourcePurchaseOrder, SourceSalesOrder, SourceCustomerInvoice, SourceVendorBill:
		return true
	}
	return false
}

// IsExpense reports whether lines of this type count toward actual expense.
// Purchase orders and vendor bills are spending; sales orders and customer
// invoices are income. Recognition happens at document creation, not payment.
func (t SourceDocumentType) IsExpense() bool {
	return t == SourcePurchaseOrder || t == SourceVendorBill
}

// IsPayable reports whether documents of this type carry a payment balance.
func (t SourceDocumentType) IsPayable() bool {
	return t == SourceCustomerInvoice || t == SourceVendorBill
}

// AnalyticalAccount is a cost center. Code is the stable identity.
type AnalyticalAccount struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Budget is a spending ceiling for one analytical account over an inclusive date range.
type Budget struct {
	ID          int             `json:"id"`
	AccountCode string          `json:"account_code"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Amount      decimal.Decimal `json:"budget_amount"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Period returns the budget's date range.
func (b Budget) Period() Period {
	return Period{Start: b.PeriodStart, End: b.PeriodEnd}
}

// BudgetInput holds the fields required to declare a budget.
type BudgetInput struct {
	AccountCode string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Amount      decimal.Decimal
	Description string
	CreatedBy   string
}

// Validate rejects inputs that can never form a valid budget.
func (in BudgetInput) Validate() error {
	if in.AccountCode == "" {
		return newInputError("account_code", "analytical account code is required")
	}
	if in.PeriodStart.IsZero() || in.PeriodEnd.IsZero() {
		return newInputError("period", "period start and end are required")
	}
	if dateOnly(in.PeriodStart).After(dateOnly(in.PeriodEnd)) {
		return newInputError("period", "period start %s is after period end %s",
			in.PeriodStart.Format(DateLayout), in.PeriodEnd.Format(DateLayout))
	}
	if in.Amount.IsNegative() {
		return newInputError("budget_amount", "budget amount cannot be negative, got %s", in.Amount)
	}
	return validateMoney("budget_amount", in.Amount)
}

// MoneyScale is the number of decimal places every stored amount carries.
const MoneyScale = 2

// maxMoney is the exclusive bound of a NUMERIC(14, 2) column.
var maxMoney = decimal.New(1, 12)

// validateMoney rejects amounts a money column cannot hold exactly. They are
// refused instead of rounded.
func validateMoney(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(MoneyScale)) {
		return newInputError(field, "amount %s has more than %d decimal places", amount, MoneyScale)
	}
	if amount.Abs().GreaterThanOrEqual(maxMoney) {
		return newInputError(field, "amount %s must be below %s", amount, maxMoney)
	}
	return nil
}

// TaggedTransaction is one analytical-account-tagged document line, normalized
// from any of the four source document types.
type TaggedTransaction struct {
	AccountCode      string             `json:"analytical_account_code"`
	DocumentDate     time.Time          `json:"document_date"`
	Amount           decimal.Decimal    `json:"amount"`
	SourceType       SourceDocumentType `json:"source_document_type"`
	SourceDocumentID int                `json:"source_document_id"`
	SourceLineID     int                `json:"source_line_id"`
}

// DocumentStatus is the lifecycle state of an issued document. Only
// CANCELLED carries meaning for this engine; other values are passed through.
type DocumentStatus string

const (
	DocumentStatusDraft     DocumentStatus = "DRAFT"
	DocumentStatusSent      DocumentStatus = "SENT"
	DocumentStatusPosted    DocumentStatus = "POSTED"
	DocumentStatusCancelled DocumentStatus = "CANCELLED"
)

// PaymentStatus is derived from total and paid amounts; it is never stored.
type PaymentStatus string

const (
	PaymentNotPaid       PaymentStatus = "NOT_PAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

// PayableDocument is a customer invoice or vendor bill as seen by reconciliation.
type PayableDocument struct {
	Type         SourceDocumentType `json:"document_type"`
	ID           int                `json:"id"`
	Number       string             `json:"number"`
	PartnerName  string             `json:"partner_name"`
	DocumentDate time.Time          `json:"document_date"`
	DueDate      time.Time          `json:"due_date"`
	Status       DocumentStatus     `json:"status"`
	TotalAmount  decimal.Decimal    `json:"total_amount"`
	PaidAmount   decimal.Decimal    `json:"paid_amount"`
}

// SettlementEvent is a captured payment reported by the payment collaborator.
// IdempotencyKey is the provider's session or reference id.
type SettlementEvent struct {
	DocumentType   SourceDocumentType `json:"document_type"`
	DocumentID     int                `json:"document_id"`
	Amount         decimal.Decimal    `json:"settlement_amount"`
	IdempotencyKey string             `json:"idempotency_key"`
	SettledAt      time.Time          `json:"settled_at"`
}

// Validate rejects malformed settlement events before any lookup.
func (ev SettlementEvent) Validate() error {
	if !ev.DocumentType.IsPayable() {
		return newInputError("document_type", "document type %q cannot receive settlements", ev.DocumentType)
	}
	if ev.DocumentID <= 0 {
		return newInputError("document_id", "document id must be positive")
	}
	if !ev.Amount.IsPositive() {
		return newInputError("settlement_amount", "settlement amount must be > 0, got %s", ev.Amount)
	}
	if err := validateMoney("settlement_amount", ev.Amount); err != nil {
		return err
	}
	if ev.IdempotencyKey == "" {
		return newInputError("idempotency_key", "idempotency key is required")
	}
	return nil
}

// Warning is a non-fatal anomaly surfaced alongside a result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	WarnPaidExceedsTotal    = "PAID_EXCEEDS_TOTAL"
	WarnNegativePaid        = "NEGATIVE_PAID_AMOUNT"
	WarnOverpayment         = "OVERPAYMENT"
	WarnDuplicateSettlement = "DUPLICATE_SETTLEMENT"
)
