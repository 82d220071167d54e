package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReconciliationInput is the minimal state a payment evaluation needs.
type ReconciliationInput struct {
	TotalAmount decimal.Decimal
	PaidAmount  decimal.Decimal
	DueDate     time.Time
	Status      DocumentStatus
}

// Reconciliation is the derived payment state of one invoice or bill.
type Reconciliation struct {
	PaymentStatus PaymentStatus   `json:"payment_status"`
	Balance       decimal.Decimal `json:"balance"`
	IsOverdue     bool            `json:"is_overdue"`
	DaysOverdue   int             `json:"days_overdue"`
	Payable       bool            `json:"payable"`
	Warnings      []Warning       `json:"warnings,omitempty"`
}

// PaymentStatusFor derives the payment status from total and paid amounts.
func PaymentStatusFor(total, paid decimal.Decimal) PaymentStatus {
	switch {
	case !paid.IsPositive():
		return PaymentNotPaid
	case paid.LessThan(total):
		return PaymentPartiallyPaid
	default:
		return PaymentPaid
	}
}

// Reconcile evaluates in as of the calendar day of today.
//
// The balance is never negative; a paid amount above the total is clamped and
// reported as a warning. Cancelled documents are neither payable nor overdue.
func Reconcile(in ReconciliationInput, today time.Time) Reconciliation {
	r := Reconciliation{
		PaymentStatus: PaymentStatusFor(in.TotalAmount, in.PaidAmount),
		Balance:       decimal.Max(in.TotalAmount.Sub(in.PaidAmount), decimal.Zero),
		Payable:       in.Status != DocumentStatusCancelled,
	}

	if in.PaidAmount.GreaterThan(in.TotalAmount) {
		r.Warnings = append(r.Warnings, Warning{
			Code:    WarnPaidExceedsTotal,
			Message: fmt.Sprintf("paid amount %s exceeds total %s by %s", in.PaidAmount, in.TotalAmount, in.PaidAmount.Sub(in.TotalAmount)),
		})
	}
	if in.PaidAmount.IsNegative() {
		r.Warnings = append(r.Warnings, Warning{
			Code:    WarnNegativePaid,
			Message: fmt.Sprintf("paid amount %s is negative", in.PaidAmount),
		})
	}

	if !r.Payable || r.PaymentStatus == PaymentPaid || in.DueDate.IsZero() {
		return r
	}
	due, day := dateOnly(in.DueDate), dateOnly(today)
	if due.Before(day) {
		r.IsOverdue = true
		r.DaysOverdue = int(day.Sub(due).Hours() / 24)
	}
	return r
}

// DocumentReconciliation pairs a payable document with its derived state.
type DocumentReconciliation struct {
	Document       PayableDocument `json:"document"`
	Reconciliation Reconciliation  `json:"reconciliation"`
}

// PaymentEvaluator reconciles stored documents against the current date.
type PaymentEvaluator struct {
	payments PaymentService
	now      func() time.Time
}

// NewPaymentEvaluator constructs a PaymentEvaluator. A nil now uses time.Now.
func NewPaymentEvaluator(payments PaymentService, now func() time.Time) *PaymentEvaluator {
	if now == nil {
		now = time.Now
	}
	return &PaymentEvaluator{payments: payments, now: now}
}

func reconcileDocument(doc PayableDocument, today time.Time) DocumentReconciliation {
	return DocumentReconciliation{
		Document: doc,
		Reconciliation: Reconcile(ReconciliationInput{
			TotalAmount: doc.TotalAmount,
			PaidAmount:  doc.PaidAmount,
			DueDate:     doc.DueDate,
			Status:      doc.Status,
		}, today),
	}
}

// Reconcile loads one document and evaluates it. A missing document yields ErrNotFound.
func (e *PaymentEvaluator) Reconcile(ctx context.Context, docType SourceDocumentType, id int) (*DocumentReconciliation, error) {
	doc, err := e.payments.GetDocument(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	dr := reconcileDocument(*doc, e.now())
	return &dr, nil
}

// List evaluates every document matching filter. With overdueOnly set, only
// overdue documents are returned.
func (e *PaymentEvaluator) List(ctx context.Context, filter PayableFilter, overdueOnly bool) ([]DocumentReconciliation, error) {
	docs, err := e.payments.ListDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}
	today := e.now()
	out := make([]DocumentReconciliation, 0, len(docs))
	for _, doc := range docs {
		dr := reconcileDocument(doc, today)
		if overdueOnly && !dr.Reconciliation.IsOverdue {
			continue
		}
		out = append(out, dr)
	}
	return out, nil
}
