package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"budget-engine/internal/app"
	"budget-engine/internal/core"
)

const width = 92

func rule(out io.Writer, ch string) {
	fmt.Fprintln(out, strings.Repeat(ch, width))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(core.DateLayout)
}

func printAccounts(out io.Writer, result *app.AccountListResult) {
	rule(out, "=")
	fmt.Fprintf(out, "  %-8s %-28s %s\n", "CODE", "NAME", "DESCRIPTION")
	rule(out, "-")
	for _, a := range result.Accounts {
		fmt.Fprintf(out, "  %-8s %-28s %s\n", a.Code, a.Name, a.Description)
	}
	rule(out, "=")
}

func printBudgets(out io.Writer, result *app.BudgetListResult) {
	if !result.AccountKnown {
		fmt.Fprintf(out, "Analytical account %s is not registered.\n", result.AccountCode)
	}
	rule(out, "=")
	fmt.Fprintf(out, "  BUDGETS  %s  %s\n", result.AccountCode, result.Period)
	rule(out, "-")
	fmt.Fprintf(out, "  %-5s %-12s %-12s %15s  %s\n", "ID", "START", "END", "AMOUNT", "DESCRIPTION")
	for _, b := range result.Budgets {
		fmt.Fprintf(out, "  %-5d %-12s %-12s %15s  %s\n", b.ID,
			b.PeriodStart.Format(core.DateLayout), b.PeriodEnd.Format(core.DateLayout),
			b.Amount.StringFixed(2), b.Description)
	}
	rule(out, "=")
}

func printActuals(out io.Writer, result *app.ActualsResult) {
	rule(out, "=")
	fmt.Fprintf(out, "  ACTUALS  %s\n", result.Period)
	rule(out, "-")
	fmt.Fprintf(out, "  %-8s %-24s %15s %15s %15s %5s\n", "CODE", "NAME", "EXPENSE", "INCOME", "NET", "TXNS")
	for _, a := range result.Accounts {
		fmt.Fprintf(out, "  %-8s %-24s %15s %15s %15s %5d\n", a.AccountCode, a.AccountName,
			a.ActualExpense.StringFixed(2), a.ActualIncome.StringFixed(2), a.NetActual.StringFixed(2), a.TransactionCount)
	}
	rule(out, "=")
}

func printBudgetReport(out io.Writer, report *core.BudgetReport) {
	rule(out, "=")
	fmt.Fprintf(out, "  BUDGET VS ACTUAL  %s\n", report.Period)
	rule(out, "-")
	fmt.Fprintf(out, "  %-8s %-23s %14s %14s %14s %7s\n", "CODE", "PERIOD", "BUDGET", "ACTUAL", "REMAINING", "UTIL%")
	for _, row := range report.Rows {
		flag := ""
		if row.OverBudget {
			flag = "  OVER"
		}
		fmt.Fprintf(out, "  %-8s %-23s %14s %14s %14s %7s%s\n", row.AccountCode,
			row.PeriodStart.Format(core.DateLayout)+".."+row.PeriodEnd.Format(core.DateLayout),
			row.BudgetAmount.StringFixed(2), row.ActualAmount.StringFixed(2), row.Remaining.StringFixed(2),
			row.UtilizationPercent.StringFixed(1), flag)
	}
	rule(out, "-")
	s := report.Summary
	fmt.Fprintf(out, "  %-32s %14s %14s %14s %7s\n", "TOTAL",
		s.TotalBudget.StringFixed(2), s.TotalActual.StringFixed(2), s.TotalRemaining.StringFixed(2),
		s.OverallUtilizationPercent.StringFixed(1))
	rule(out, "=")

	if len(report.Unbudgeted) > 0 {
		fmt.Fprintln(out, "  Unbudgeted activity:")
		for _, a := range report.Unbudgeted {
			fmt.Fprintf(out, "  %-8s %-24s expense %s income %s\n", a.AccountCode, a.AccountName,
				a.ActualExpense.StringFixed(2), a.ActualIncome.StringFixed(2))
		}
	}
}

func printPayables(out io.Writer, result *app.PayablesResult) {
	rule(out, "=")
	fmt.Fprintf(out, "  PAYABLES as of %s\n", result.AsOf.Format(core.DateLayout))
	rule(out, "-")
	fmt.Fprintf(out, "  %-17s %-10s %-12s %12s %12s %-15s %s\n", "TYPE", "NUMBER", "DUE", "TOTAL", "BALANCE", "STATUS", "OVERDUE")
	for _, d := range result.Documents {
		doc, rec := d.Document, d.Reconciliation
		overdue := ""
		if rec.IsOverdue {
			overdue = fmt.Sprintf("%d days", rec.DaysOverdue)
		}
		status := string(rec.PaymentStatus)
		if !rec.Payable {
			status = string(doc.Status)
		}
		fmt.Fprintf(out, "  %-17s %-10s %-12s %12s %12s %-15s %s\n", doc.Type, doc.Number,
			formatDate(doc.DueDate),
			doc.TotalAmount.StringFixed(2), rec.Balance.StringFixed(2), status, overdue)
	}
	rule(out, "=")
}

func printReconciliation(out io.Writer, doc core.PayableDocument, rec core.Reconciliation) {
	fmt.Fprintf(out, "%s %s (%s)\n", doc.Type, doc.Number, doc.PartnerName)
	fmt.Fprintf(out, "  Total    : %s\n", doc.TotalAmount.StringFixed(2))
	fmt.Fprintf(out, "  Paid     : %s\n", doc.PaidAmount.StringFixed(2))
	fmt.Fprintf(out, "  Balance  : %s\n", rec.Balance.StringFixed(2))
	fmt.Fprintf(out, "  Status   : %s\n", rec.PaymentStatus)
	fmt.Fprintf(out, "  Due      : %s\n", formatDate(doc.DueDate))
	if !rec.Payable {
		fmt.Fprintf(out, "  Document is %s and not payable.\n", doc.Status)
	}
	if rec.IsOverdue {
		fmt.Fprintf(out, "  OVERDUE by %d days\n", rec.DaysOverdue)
	}
	for _, w := range rec.Warnings {
		fmt.Fprintf(out, "  warning %s: %s\n", w.Code, w.Message)
	}
}
