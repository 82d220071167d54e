package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// TransactionFeed is a read-only view over document lines tagged with an
// analytical account.
type TransactionFeed interface {
	// Transactions returns every tagged line whose document date falls in p.
	// Untagged lines and lines of cancelled documents are excluded.
	Transactions(ctx context.Context, p Period) ([]TaggedTransaction, error)
}

// SourceLine is a document line as stored by the document-issuing side,
// before normalization. Every backend maps its rows into SourceLine and
// passes them through NormalizeLine, so the TaggedTransaction shape is
// decided in exactly one place.
type SourceLine struct {
	DocumentType   SourceDocumentType
	DocumentID     int
	LineID         int
	DocumentStatus DocumentStatus
	DocumentDate   time.Time
	AccountCode    *string
	Subtotal       decimal.Decimal
}

// NormalizeLine maps a source line to a TaggedTransaction. ok is false when
// the line must not reach the aggregator: no analytical tag, an unknown
// document type, or a cancelled document.
func NormalizeLine(src SourceLine) (tx TaggedTransaction, ok bool) {
	if !src.DocumentType.Valid() {
		return TaggedTransaction{}, false
	}
	if src.DocumentStatus == DocumentStatusCancelled {
		return TaggedTransaction{}, false
	}
	if src.AccountCode == nil {
		return TaggedTransaction{}, false
	}
	code := strings.TrimSpace(*src.AccountCode)
	if code == "" {
		return TaggedTransaction{}, false
	}
	return TaggedTransaction{
		AccountCode:      code,
		DocumentDate:     dateOnly(src.DocumentDate),
		Amount:           src.Subtotal,
		SourceType:       src.DocumentType,
		SourceDocumentID: src.DocumentID,
		SourceLineID:     src.LineID,
	}, true
}

type transactionFeed struct {
	pool *pgxpool.Pool
}

// NewTransactionFeed constructs a TransactionFeed over the purchase order,
// sales order, customer invoice and vendor bill tables.
func NewTransactionFeed(pool *pgxpool.Pool) TransactionFeed {
	return &transactionFeed{pool: pool}
}

// Each branch reads one document table; the analytical tag is left-joined so
// that NormalizeLine is the single place where untagged lines are dropped.
const feedQuery = `
	SELECT 'PURCHASE_ORDER', d.id, l.id, d.status, d.order_date, aa.code, l.subtotal
	FROM purchase_order_lines l
	JOIN purchase_orders d ON d.id = l.order_id
	LEFT JOIN analytical_accounts aa ON aa.id = l.analytical_account_id
	WHERE d.order_date BETWEEN $1::date AND $2::date
	UNION ALL
	SELECT 'SALES_ORDER', d.id, l.id, d.status, d.order_date, aa.code, l.subtotal
	FROM sales_order_lines l
	JOIN sales_orders d ON d.id = l.order_id
	LEFT JOIN analytical_accounts aa ON aa.id = l.analytical_account_id
	WHERE d.order_date BETWEEN $1::date AND $2::date
	UNION ALL
	SELECT 'CUSTOMER_INVOICE', d.id, l.id, d.status, d.invoice_date, aa.code, l.subtotal
	FROM customer_invoice_lines l
	JOIN customer_invoices d ON d.id = l.invoice_id
	LEFT JOIN analytical_accounts aa ON aa.id = l.analytical_account_id
	WHERE d.invoice_date BETWEEN $1::date AND $2::date
	UNION ALL
	SELECT 'VENDOR_BILL', d.id, l.id, d.status, d.bill_date, aa.code, l.subtotal
	FROM vendor_bill_lines l
	JOIN vendor_bills d ON d.id = l.bill_id
	LEFT JOIN analytical_accounts aa ON aa.id = l.analytical_account_id
	WHERE d.bill_date BETWEEN $1::date AND $2::date`

func (f *transactionFeed) Transactions(ctx context.Context, p Period) ([]TaggedTransaction, error) {
	rows, err := f.pool.Query(ctx, feedQuery, p.Start, p.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query tagged transactions: %w", err)
	}
	defer rows.Close()

	var txns []TaggedTransaction
	for rows.Next() {
		var src SourceLine
		var docType, status string
		if err := rows.Scan(&docType, &src.DocumentID, &src.LineID, &status,
			&src.DocumentDate, &src.AccountCode, &src.Subtotal); err != nil {
			return nil, fmt.Errorf("failed to scan document line: %w", err)
		}
		src.DocumentType = SourceDocumentType(docType)
		src.DocumentStatus = DocumentStatus(status)

		if tx, ok := NormalizeLine(src); ok {
			txns = append(txns, tx)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("document line iteration error: %w", err)
	}
	return txns, nil
}
