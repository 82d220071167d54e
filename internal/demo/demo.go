// Package demo holds a small furniture-business data set: five cost centers,
// a year of budgets, a handful of tagged documents and open invoices.
package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"budget-engine/internal/core"
	"budget-engine/internal/store/memory"
)

// Year is the calendar year every demo date falls in.
const Year = 2026

func day(month time.Month, d int) time.Time {
	return time.Date(Year, month, d, 0, 0, 0, 0, time.UTC)
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func code(s string) *string { return &s }

var Accounts = []core.AnalyticalAccount{
	{Code: "CC001", Name: "Showroom Operations", Description: "Rent, fit-out and running costs of the showroom"},
	{Code: "CC002", Name: "Workshop Production", Description: "Timber, hardware and workshop consumables"},
	{Code: "CC003", Name: "Marketing", Description: "Campaigns, catalogues and trade fairs"},
	{Code: "CC004", Name: "Logistics", Description: "Delivery fleet and freight"},
	{Code: "CC005", Name: "Research & Design", Description: "Prototypes and design studio"},
}

var Budgets = []core.BudgetInput{
	{AccountCode: "CC001", PeriodStart: day(time.January, 1), PeriodEnd: day(time.December, 31), Amount: amount("500000"), Description: "Showroom annual budget"},
	{AccountCode: "CC002", PeriodStart: day(time.January, 1), PeriodEnd: day(time.June, 30), Amount: amount("200000"), Description: "Workshop H1"},
	{AccountCode: "CC002", PeriodStart: day(time.July, 1), PeriodEnd: day(time.December, 31), Amount: amount("180000"), Description: "Workshop H2"},
	{AccountCode: "CC003", PeriodStart: day(time.January, 1), PeriodEnd: day(time.December, 31), Amount: amount("60000"), Description: "Marketing annual budget"},
	{AccountCode: "CC004", PeriodStart: day(time.January, 1), PeriodEnd: day(time.December, 31), Amount: amount("0"), Description: "Logistics outsourced this year"},
	{AccountCode: "CC005", PeriodStart: day(time.January, 1), PeriodEnd: day(time.December, 31), Amount: amount("75000"), Description: "Design studio annual budget"},
}

// Document is one demo document with its lines.
type Document struct {
	Type    core.SourceDocumentType
	ID      int
	Number  string
	Partner string
	Date    time.Time
	DueDate time.Time
	Status  core.DocumentStatus
	Total   decimal.Decimal
	Paid    decimal.Decimal
	Lines   []Line
}

// Line is a document line; a nil AccountCode is an untagged line.
type Line struct {
	ID          int
	Description string
	Subtotal    decimal.Decimal
	AccountCode *string
}

var Documents = []Document{
	{Type: core.SourcePurchaseOrder, ID: 1, Number: "PO-0001", Partner: "Oak & Co Timber", Date: day(time.February, 10), Status: core.DocumentStatusPosted,
		Lines: []Line{
			{ID: 1, Description: "Showroom display units", Subtotal: amount("250000"), AccountCode: code("CC001")},
			{ID: 2, Description: "Oak boards", Subtotal: amount("90000"), AccountCode: code("CC002")},
		}},
	{Type: core.SourcePurchaseOrder, ID: 2, Number: "PO-0002", Partner: "Brass Fittings Ltd", Date: day(time.March, 3), Status: core.DocumentStatusCancelled,
		Lines: []Line{
			{ID: 3, Description: "Cancelled hardware order", Subtotal: amount("40000"), AccountCode: code("CC002")},
		}},
	{Type: core.SourcePurchaseOrder, ID: 3, Number: "PO-0003", Partner: "FleetServ", Date: day(time.April, 15), Status: core.DocumentStatusPosted,
		Lines: []Line{
			{ID: 4, Description: "Van servicing", Subtotal: amount("12000"), AccountCode: code("CC004")},
			{ID: 5, Description: "Office sundries", Subtotal: amount("800")},
		}},
	{Type: core.SourceVendorBill, ID: 1, Number: "BILL-0001", Partner: "City Properties", Date: day(time.March, 31), DueDate: day(time.April, 30), Status: core.DocumentStatusPosted,
		Total: amount("125000"), Paid: amount("125000"),
		Lines: []Line{
			{ID: 1, Description: "Showroom rent Q1", Subtotal: amount("125000"), AccountCode: code("CC001")},
		}},
	{Type: core.SourceVendorBill, ID: 2, Number: "BILL-0002", Partner: "PrintHouse", Date: day(time.May, 5), DueDate: day(time.June, 4), Status: core.DocumentStatusPosted,
		Total: amount("18000"), Paid: amount("6000"),
		Lines: []Line{
			{ID: 2, Description: "Spring catalogue", Subtotal: amount("18000"), AccountCode: code("CC003")},
		}},
	{Type: core.SourceSalesOrder, ID: 1, Number: "SO-0001", Partner: "Hotel Aurora", Date: day(time.February, 20), Status: core.DocumentStatusPosted,
		Lines: []Line{
			{ID: 1, Description: "Lobby furniture set", Subtotal: amount("310000"), AccountCode: code("CC001")},
		}},
	{Type: core.SourceCustomerInvoice, ID: 1, Number: "INV-0001", Partner: "Hotel Aurora", Date: day(time.March, 1), DueDate: day(time.March, 31), Status: core.DocumentStatusSent,
		Total: amount("25000"), Paid: amount("0"),
		Lines: []Line{
			{ID: 1, Description: "Lobby furniture deposit", Subtotal: amount("25000"), AccountCode: code("CC001")},
		}},
	{Type: core.SourceCustomerInvoice, ID: 2, Number: "INV-0002", Partner: "Studio Nord", Date: day(time.June, 12), DueDate: day(time.December, 31), Status: core.DocumentStatusSent,
		Total: amount("42000"), Paid: amount("10000"),
		Lines: []Line{
			{ID: 2, Description: "Custom shelving", Subtotal: amount("42000"), AccountCode: code("CC002")},
		}},
	{Type: core.SourceCustomerInvoice, ID: 3, Number: "INV-0003", Partner: "Casa Verde", Date: day(time.January, 20), DueDate: day(time.February, 19), Status: core.DocumentStatusCancelled,
		Total: amount("9000"), Paid: amount("0"),
		Lines: []Line{
			{ID: 3, Description: "Withdrawn order", Subtotal: amount("9000"), AccountCode: code("CC003")},
		}},
}

// LoadMemory fills s with the demo data set.
func LoadMemory(ctx context.Context, s *memory.Store) error {
	for _, a := range Accounts {
		s.AddAccount(a)
	}
	for _, b := range Budgets {
		if _, _, err := s.CreateBudget(ctx, b); err != nil {
			return fmt.Errorf("demo budget %s %s: %w", b.AccountCode, b.Description, err)
		}
	}
	for _, d := range Documents {
		for _, l := range d.Lines {
			s.AddSourceLine(core.SourceLine{
				DocumentType:   d.Type,
				DocumentID:     d.ID,
				LineID:         l.ID,
				DocumentStatus: d.Status,
				DocumentDate:   d.Date,
				AccountCode:    l.AccountCode,
				Subtotal:       l.Subtotal,
			})
		}
		if d.Type.IsPayable() {
			if err := s.AddDocument(payable(d)); err != nil {
				return err
			}
		}
	}
	return nil
}

// NewMemoryStore returns a memory store preloaded with the demo data set.
func NewMemoryStore(ctx context.Context) (*memory.Store, error) {
	s := memory.New()
	if err := LoadMemory(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func payable(d Document) core.PayableDocument {
	return core.PayableDocument{
		Type:         d.Type,
		ID:           d.ID,
		Number:       d.Number,
		PartnerName:  d.Partner,
		DocumentDate: d.Date,
		DueDate:      d.DueDate,
		Status:       d.Status,
		TotalAmount:  d.Total,
		PaidAmount:   d.Paid,
	}
}

type docTable struct {
	header, lines, fk, number, partner, date string
}

var docTables = map[core.SourceDocumentType]docTable{
	core.SourcePurchaseOrder:   {"purchase_orders", "purchase_order_lines", "order_id", "order_number", "vendor_name", "order_date"},
	core.SourceSalesOrder:      {"sales_orders", "sales_order_lines", "order_id", "order_number", "customer_name", "order_date"},
	core.SourceCustomerInvoice: {"customer_invoices", "customer_invoice_lines", "invoice_id", "invoice_number", "customer_name", "invoice_date"},
	core.SourceVendorBill:      {"vendor_bills", "vendor_bill_lines", "bill_id", "bill_number", "vendor_name", "bill_date"},
}

// LoadPostgres replaces the contents of the engine tables with the demo data
// set in a single transaction. Document ids are preserved.
func LoadPostgres(ctx context.Context, pool *pgxpool.Pool) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		TRUNCATE TABLE settlement_events,
			purchase_order_lines, purchase_orders,
			sales_order_lines, sales_orders,
			customer_invoice_lines, customer_invoices,
			vendor_bill_lines, vendor_bills,
			budgets, analytical_accounts
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to clear engine tables: %w", err)
	}

	accountIDs := make(map[string]int, len(Accounts))
	for _, a := range Accounts {
		var id int
		err := tx.QueryRow(ctx,
			"INSERT INTO analytical_accounts (code, name, description) VALUES ($1, $2, $3) RETURNING id",
			a.Code, a.Name, a.Description).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert analytical account %s: %w", a.Code, err)
		}
		accountIDs[a.Code] = id
	}

	for _, b := range Budgets {
		_, err := tx.Exec(ctx, `
			INSERT INTO budgets (analytical_account_id, period_start, period_end, budget_amount, description, created_by)
			VALUES ($1, $2, $3, $4, $5, 'seed')`,
			accountIDs[b.AccountCode], b.PeriodStart, b.PeriodEnd, b.Amount, b.Description)
		if err != nil {
			return fmt.Errorf("failed to insert budget %s: %w", b.Description, err)
		}
	}

	for _, d := range Documents {
		if err := insertDocument(ctx, tx, d, accountIDs); err != nil {
			return err
		}
	}

	// Ids were inserted explicitly; move each sequence past them.
	for _, t := range docTables {
		for _, table := range []string{t.header, t.lines} {
			_, err := tx.Exec(ctx, fmt.Sprintf(
				"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %[1]s", table))
			if err != nil {
				return fmt.Errorf("failed to reset %s id sequence: %w", table, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit demo data: %w", err)
	}
	return nil
}

func insertDocument(ctx context.Context, tx pgx.Tx, d Document, accountIDs map[string]int) error {
	t := docTables[d.Type]
	var err error
	if d.Type.IsPayable() {
		var due *time.Time
		if !d.DueDate.IsZero() {
			due = &d.DueDate
		}
		_, err = tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, %s, %s, %s, due_date, status, total_amount, paid_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`, t.header, t.number, t.partner, t.date),
			d.ID, d.Number, d.Partner, d.Date, due, string(d.Status), d.Total, d.Paid)
	} else {
		_, err = tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, %s, %s, %s, status)
			VALUES ($1, $2, $3, $4, $5)`, t.header, t.number, t.partner, t.date),
			d.ID, d.Number, d.Partner, d.Date, string(d.Status))
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s %s: %w", d.Type, d.Number, err)
	}

	for _, l := range d.Lines {
		var accountID *int
		if l.AccountCode != nil {
			id := accountIDs[*l.AccountCode]
			accountID = &id
		}
		_, err := tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, %s, description, subtotal, analytical_account_id)
			VALUES ($1, $2, $3, $4, $5)`, t.lines, t.fk),
			l.ID, d.ID, l.Description, l.Subtotal, accountID)
		if err != nil {
			return fmt.Errorf("failed to insert line %d of %s: %w", l.ID, d.Number, err)
		}
	}
	return nil
}
