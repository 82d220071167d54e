package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PayableFilter narrows ListDocuments. A zero Type matches both invoices and bills.
// OpenOnly drops documents that are fully paid or cancelled.
type PayableFilter struct {
	Type     SourceDocumentType
	OpenOnly bool
}

func (f PayableFilter) Validate() error {
	if f.Type != "" && !f.Type.IsPayable() {
		return newInputError("type", "document type %q has no payment balance", f.Type)
	}
	return nil
}

// Matches applies the filter to one document. Backends may pre-filter in their query
// but must agree with this.
func (f PayableFilter) Matches(doc PayableDocument) bool {
	if f.Type != "" && doc.Type != f.Type {
		return false
	}
	if f.OpenOnly {
		if doc.Status == DocumentStatusCancelled {
			return false
		}
		if PaymentStatusFor(doc.TotalAmount, doc.PaidAmount) == PaymentPaid {
			return false
		}
	}
	return true
}

// SettlementResult reports the outcome of applying a settlement event.
// Applied is what was added to the paid amount; Excess is the part of the
// event beyond the outstanding balance. A replay has Duplicate set and
// changes nothing.
type SettlementResult struct {
	Document  PayableDocument `json:"document"`
	Applied   decimal.Decimal `json:"applied_amount"`
	Excess    decimal.Decimal `json:"excess_amount"`
	Duplicate bool            `json:"duplicate"`
	Warnings  []Warning       `json:"warnings,omitempty"`
}

// PaymentService reads payable documents and applies settlement events.
type PaymentService interface {
	// GetDocument returns ErrNotFound when the document does not exist.
	GetDocument(ctx context.Context, docType SourceDocumentType, id int) (*PayableDocument, error)

	// ListDocuments returns matching documents ordered by due date, then type and id.
	ListDocuments(ctx context.Context, filter PayableFilter) ([]PayableDocument, error)

	// ApplySettlement adds ev.Amount to the document's paid amount at most once
	// per idempotency key. A cancelled document yields ErrNotPayable.
	ApplySettlement(ctx context.Context, ev SettlementEvent) (*SettlementResult, error)
}

// PlanSettlement splits amount into the part that reduces the outstanding
// balance and the excess. The paid amount never exceeds the total through a
// settlement, and never decreases.
func PlanSettlement(doc PayableDocument, amount decimal.Decimal) (applied, excess decimal.Decimal, warnings []Warning) {
	outstanding := decimal.Max(doc.TotalAmount.Sub(doc.PaidAmount), decimal.Zero)
	applied = decimal.Min(amount, outstanding)
	excess = amount.Sub(applied)
	if excess.IsPositive() {
		warnings = append(warnings, Warning{
			Code: WarnOverpayment,
			Message: fmt.Sprintf("settlement of %s exceeds outstanding balance %s on %s %d; %s not applied",
				amount, outstanding, doc.Type, doc.ID, excess),
		})
	}
	return applied, excess, warnings
}

// DuplicateSettlementWarning is attached to results of replayed settlement events.
func DuplicateSettlementWarning(key string) Warning {
	return Warning{
		Code:    WarnDuplicateSettlement,
		Message: fmt.Sprintf("settlement %s was already applied; ignored", key),
	}
}

// payableTable maps a payable document type onto its table and columns.
type payableTable struct {
	table, number, partner, date string
}

var payableTables = map[SourceDocumentType]payableTable{
	SourceCustomerInvoice: {table: "customer_invoices", number: "invoice_number", partner: "customer_name", date: "invoice_date"},
	SourceVendorBill:      {table: "vendor_bills", number: "bill_number", partner: "vendor_name", date: "bill_date"},
}

func (t payableTable) selectColumns() string {
	return fmt.Sprintf("id, %s, %s, %s, due_date, status, total_amount, paid_amount", t.number, t.partner, t.date)
}

func scanPayable(row pgx.Row, docType SourceDocumentType) (*PayableDocument, error) {
	doc := &PayableDocument{Type: docType}
	var dueDate *time.Time
	var status string
	if err := row.Scan(&doc.ID, &doc.Number, &doc.PartnerName, &doc.DocumentDate,
		&dueDate, &status, &doc.TotalAmount, &doc.PaidAmount); err != nil {
		return nil, err
	}
	if dueDate != nil {
		doc.DueDate = *dueDate
	}
	doc.Status = DocumentStatus(status)
	return doc, nil
}

type paymentService struct {
	pool *pgxpool.Pool
}

// NewPaymentService constructs a PaymentService over the customer_invoices,
// vendor_bills and settlement_events tables.
func NewPaymentService(pool *pgxpool.Pool) PaymentService {
	return &paymentService{pool: pool}
}

func (s *paymentService) GetDocument(ctx context.Context, docType SourceDocumentType, id int) (*PayableDocument, error) {
	t, ok := payableTables[docType]
	if !ok {
		return nil, newInputError("document_type", "document type %q has no payment balance", docType)
	}
	doc, err := scanPayable(s.pool.QueryRow(ctx,
		"SELECT "+t.selectColumns()+" FROM "+t.table+" WHERE id = $1", id), docType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", docType, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s %d: %w", docType, id, err)
	}
	return doc, nil
}

func (s *paymentService) ListDocuments(ctx context.Context, filter PayableFilter) ([]PayableDocument, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	var docs []PayableDocument
	for _, docType := range []SourceDocumentType{SourceCustomerInvoice, SourceVendorBill} {
		if filter.Type != "" && filter.Type != docType {
			continue
		}
		t := payableTables[docType]
		q := "SELECT " + t.selectColumns() + " FROM " + t.table
		if filter.OpenOnly {
			q += " WHERE status <> 'CANCELLED' AND paid_amount < total_amount"
		}

		rows, err := s.pool.Query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("failed to query %s: %w", t.table, err)
		}
		for rows.Next() {
			doc, err := scanPayable(rows, docType)
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan %s row: %w", t.table, err)
			}
			if filter.Matches(*doc) {
				docs = append(docs, *doc)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%s iteration error: %w", t.table, err)
		}
	}

	SortPayables(docs)
	return docs, nil
}

func (s *paymentService) ApplySettlement(ctx context.Context, ev SettlementEvent) (*SettlementResult, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	t := payableTables[ev.DocumentType]
	if ev.SettledAt.IsZero() {
		ev.SettledAt = time.Now().UTC()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Lock the document row; concurrent settlements on it serialize here.
	doc, err := scanPayable(tx.QueryRow(ctx,
		"SELECT "+t.selectColumns()+" FROM "+t.table+" WHERE id = $1 FOR UPDATE", ev.DocumentID), ev.DocumentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %d: %w", ev.DocumentType, ev.DocumentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to lock %s %d: %w", ev.DocumentType, ev.DocumentID, err)
	}

	// 2. Replays are detected before any amount is touched.
	if dup, err := findSettlement(ctx, tx, ev); err != nil || dup != nil {
		return dup, err
	}
	if doc.Status == DocumentStatusCancelled {
		return nil, fmt.Errorf("%s %d is cancelled: %w", ev.DocumentType, ev.DocumentID, ErrNotPayable)
	}

	// 3. Record the event. The unique key is the final guard against a replay
	// racing in through another document row.
	applied, excess, warnings := PlanSettlement(*doc, ev.Amount)
	var eventID int
	err = tx.QueryRow(ctx, `
		INSERT INTO settlement_events (idempotency_key, document_type, document_id, amount, applied_amount, excess_amount, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id`,
		ev.IdempotencyKey, string(ev.DocumentType), ev.DocumentID, ev.Amount, applied, excess, ev.SettledAt,
	).Scan(&eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, newInputError("idempotency_key", "idempotency key %s is already in use", ev.IdempotencyKey)
		}
		return nil, fmt.Errorf("failed to record settlement event: %w", err)
	}

	// 4. Apply.
	if applied.IsPositive() {
		if err := tx.QueryRow(ctx,
			"UPDATE "+t.table+" SET paid_amount = paid_amount + $1 WHERE id = $2 RETURNING paid_amount",
			applied, ev.DocumentID,
		).Scan(&doc.PaidAmount); err != nil {
			return nil, fmt.Errorf("failed to update paid amount of %s %d: %w", ev.DocumentType, ev.DocumentID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return &SettlementResult{Document: *doc, Applied: applied, Excess: excess, Warnings: warnings}, nil
}

// findSettlement returns a duplicate result when ev's key was already recorded
// for the same document, and an InputError when it was recorded for another.
func findSettlement(ctx context.Context, tx pgx.Tx, ev SettlementEvent) (*SettlementResult, error) {
	var docType string
	var docID int
	err := tx.QueryRow(ctx,
		"SELECT document_type, document_id FROM settlement_events WHERE idempotency_key = $1",
		ev.IdempotencyKey,
	).Scan(&docType, &docID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up settlement %s: %w", ev.IdempotencyKey, err)
	}
	return duplicateResult(ctx, tx, ev, SourceDocumentType(docType), docID)
}

func duplicateResult(ctx context.Context, q pgxQuerier, ev SettlementEvent, docType SourceDocumentType, docID int) (*SettlementResult, error) {
	if docType != ev.DocumentType || docID != ev.DocumentID {
		return nil, newInputError("idempotency_key",
			"idempotency key %s was already used for %s %d", ev.IdempotencyKey, docType, docID)
	}
	t := payableTables[docType]
	doc, err := scanPayable(q.QueryRow(ctx,
		"SELECT "+t.selectColumns()+" FROM "+t.table+" WHERE id = $1", docID), docType)
	if err != nil {
		return nil, fmt.Errorf("failed to reload %s %d: %w", docType, docID, err)
	}
	return &SettlementResult{
		Document:  *doc,
		Applied:   decimal.Zero,
		Excess:    decimal.Zero,
		Duplicate: true,
		Warnings:  []Warning{DuplicateSettlementWarning(ev.IdempotencyKey)},
	}, nil
}

// SortPayables orders documents by due date (undated last), then type and id.
func SortPayables(docs []PayableDocument) {
	sort.Slice(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if !a.DueDate.Equal(b.DueDate) {
			if a.DueDate.IsZero() || b.DueDate.IsZero() {
				return b.DueDate.IsZero()
			}
			return a.DueDate.Before(b.DueDate)
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
}
