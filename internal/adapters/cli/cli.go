package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"budget-engine/internal/app"
	"budget-engine/internal/core"
)

// ErrUsage is returned for an unknown command or missing arguments.
var ErrUsage = errors.New("usage error")

const usage = `Commands:
  accounts
  budgets   <account-code> <from> <to>
  budget    <account-code> <from> <to> <amount> [description]
  actuals   <from> <to>
  report    <from> <to> [code|utilization|remaining|budget|actual] [asc|desc]
  payables  [--type CUSTOMER_INVOICE|VENDOR_BILL] [--open] [--overdue]
  reconcile <CUSTOMER_INVOICE|VENDOR_BILL> <id>
  settle    <CUSTOMER_INVOICE|VENDOR_BILL> <id> <amount> <idempotency-key>
Dates are YYYY-MM-DD.`

// Run executes a one-shot CLI command, writing its output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, actor string, out io.Writer) error {
	if len(args) == 0 {
		return usageError("")
	}

	switch args[0] {
	case "accounts", "acc":
		result, err := svc.ListAccounts(ctx)
		if err != nil {
			return err
		}
		printAccounts(out, result)

	case "budgets":
		if len(args) < 4 {
			return usageError("budgets needs <account-code> <from> <to>")
		}
		result, err := svc.ListBudgets(ctx, app.BudgetQueryRequest{
			AccountCode:   args[1],
			PeriodRequest: app.PeriodRequest{From: args[2], To: args[3]},
		})
		if err != nil {
			return err
		}
		printBudgets(out, result)

	case "budget":
		if len(args) < 5 {
			return usageError("budget needs <account-code> <from> <to> <amount>")
		}
		req := app.CreateBudgetRequest{
			AccountCode: args[1],
			PeriodStart: args[2],
			PeriodEnd:   args[3],
			Amount:      json.Number(args[4]),
		}
		if len(args) > 5 {
			req.Description = strings.Join(args[5:], " ")
		}
		result, err := svc.CreateBudget(ctx, req, actor)
		if err != nil {
			return err
		}
		verb := "Created"
		if !result.Created {
			verb = "Already declared"
		}
		b := result.Budget
		fmt.Fprintf(out, "%s: budget #%d for %s %s amount %s\n", verb, b.ID, b.AccountCode, b.Period(), b.Amount.StringFixed(2))

	case "actuals":
		if len(args) < 3 {
			return usageError("actuals needs <from> <to>")
		}
		result, err := svc.GetActuals(ctx, app.PeriodRequest{From: args[1], To: args[2]})
		if err != nil {
			return err
		}
		printActuals(out, result)

	case "report", "rep":
		if len(args) < 3 {
			return usageError("report needs <from> <to>")
		}
		req := app.BudgetReportRequest{PeriodRequest: app.PeriodRequest{From: args[1], To: args[2]}}
		if len(args) > 3 {
			req.Sort = args[3]
		}
		if len(args) > 4 {
			req.Order = args[4]
		}
		result, err := svc.GetBudgetReport(ctx, req)
		if err != nil {
			return err
		}
		printBudgetReport(out, result.Report)

	case "payables", "pay":
		req, err := parsePayablesFlags(args[1:])
		if err != nil {
			return err
		}
		result, err := svc.ListPayables(ctx, req)
		if err != nil {
			return err
		}
		printPayables(out, result)

	case "reconcile", "rec":
		if len(args) < 3 {
			return usageError("reconcile needs <type> <id>")
		}
		id, err := strconv.Atoi(args[2])
		if err != nil {
			return core.NewInputError("document_id", "expected a number, got %q", args[2])
		}
		result, err := svc.GetReconciliation(ctx, app.DocumentRequest{Type: strings.ToUpper(args[1]), ID: id})
		if err != nil {
			return err
		}
		printReconciliation(out, result.Document, result.Reconciliation)

	case "settle":
		if len(args) < 5 {
			return usageError("settle needs <type> <id> <amount> <idempotency-key>")
		}
		id, err := strconv.Atoi(args[2])
		if err != nil {
			return core.NewInputError("document_id", "expected a number, got %q", args[2])
		}
		result, err := svc.ApplySettlement(ctx, app.SettlementRequest{
			DocumentType:   strings.ToUpper(args[1]),
			DocumentID:     id,
			Amount:         json.Number(args[3]),
			IdempotencyKey: args[4],
		})
		if err != nil {
			return err
		}
		if result.Duplicate {
			fmt.Fprintf(out, "Settlement %s was already applied; nothing changed.\n", args[4])
		} else {
			fmt.Fprintf(out, "Applied %s to %s.\n", result.Applied.StringFixed(2), result.Document.Number)
		}
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "warning %s: %s\n", w.Code, w.Message)
		}
		printReconciliation(out, result.Document, result.Reconciliation)

	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)

	default:
		return usageError("unknown command: " + args[0])
	}
	return nil
}

func usageError(msg string) error {
	if msg == "" {
		return fmt.Errorf("%w\n%s", ErrUsage, usage)
	}
	return fmt.Errorf("%w: %s\n%s", ErrUsage, msg, usage)
}

func parsePayablesFlags(args []string) (app.PayablesRequest, error) {
	var req app.PayablesRequest
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--open":
			req.OpenOnly = true
		case "--overdue":
			req.OverdueOnly = true
		case "--type":
			if i+1 >= len(args) {
				return req, usageError("--type needs a value")
			}
			i++
			req.Type = strings.ToUpper(args[i])
		default:
			return req, usageError("unknown payables flag: " + args[i])
		}
	}
	return req, nil
}
