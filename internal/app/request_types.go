package app

import "encoding/json"

// Request types carry raw adapter input. Tags are checked by validateRequest
// before any value is converted to core types.

// PeriodRequest is an inclusive date range in YYYY-MM-DD form.
type PeriodRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// BudgetQueryRequest is the input for ListBudgets.
type BudgetQueryRequest struct {
	AccountCode string `json:"account_code" validate:"required,max=32"`
	PeriodRequest
}

// CreateBudgetRequest is the input for declaring a budget.
type CreateBudgetRequest struct {
	AccountCode string      `json:"account_code" validate:"required,max=32"`
	PeriodStart string      `json:"period_start" validate:"required,datetime=2006-01-02"`
	PeriodEnd   string      `json:"period_end" validate:"required,datetime=2006-01-02"`
	Amount      json.Number `json:"budget_amount" validate:"required,numeric"`
	Description string      `json:"description" validate:"max=500"`
}

// BudgetReportRequest is the input for GetBudgetReport. Sort defaults to code,
// Order to asc.
type BudgetReportRequest struct {
	PeriodRequest
	Sort  string `json:"sort" validate:"omitempty,oneof=code utilization remaining budget actual"`
	Order string `json:"order" validate:"omitempty,oneof=asc desc"`
}

// PayablesRequest filters ListPayables. An empty Type lists both invoices and bills.
type PayablesRequest struct {
	Type        string `json:"type" validate:"omitempty,oneof=CUSTOMER_INVOICE VENDOR_BILL"`
	OpenOnly    bool   `json:"open_only"`
	OverdueOnly bool   `json:"overdue_only"`
}

// DocumentRequest identifies one invoice or bill.
type DocumentRequest struct {
	Type string `json:"document_type" validate:"required,oneof=CUSTOMER_INVOICE VENDOR_BILL"`
	ID   int    `json:"document_id" validate:"required,gt=0"`
}

// SettlementRequest is a settlement event as delivered by the payment
// collaborator. SettledAt is RFC 3339; empty means now.
type SettlementRequest struct {
	DocumentType   string      `json:"document_type" validate:"required,oneof=CUSTOMER_INVOICE VENDOR_BILL"`
	DocumentID     int         `json:"document_id" validate:"required,gt=0"`
	Amount         json.Number `json:"settlement_amount" validate:"required,numeric"`
	IdempotencyKey string      `json:"idempotency_key" validate:"required,max=255"`
	SettledAt      string      `json:"settled_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}
