package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"budget-engine/internal/app"
	"budget-engine/internal/core"
)

// handleNewBudget runs an interactive budget declaration for one account.
func handleNewBudget(ctx context.Context, reader *bufio.Reader, out io.Writer, svc app.ApplicationService, actor, accountCode string) {
	fmt.Fprintf(out, "Declaring a budget for analytical account: %s\n", accountCode)
	fmt.Fprintln(out, "Type 'cancel' at any prompt to abort.")

	ask := func(prompt string) (string, bool) {
		fmt.Fprint(out, prompt)
		raw, _ := reader.ReadString('\n')
		raw = strings.TrimSpace(raw)
		if strings.EqualFold(raw, "cancel") {
			fmt.Fprintln(out, "Budget declaration cancelled.")
			return "", false
		}
		return raw, true
	}

	start, ok := ask("  Period start (YYYY-MM-DD): ")
	if !ok {
		return
	}
	end, ok := ask("  Period end   (YYYY-MM-DD): ")
	if !ok {
		return
	}

	var amount decimal.Decimal
	for {
		raw, ok := ask("  Amount: ")
		if !ok {
			return
		}
		a, err := decimal.NewFromString(raw)
		if err != nil || a.IsNegative() {
			fmt.Fprintln(out, "  Invalid amount. Enter a non-negative number.")
			continue
		}
		amount = a
		break
	}

	description, ok := ask("  Description (optional): ")
	if !ok {
		return
	}

	fmt.Fprintf(out, "Declare %s for %s from %s to %s? (y/N): ", amount.StringFixed(2), accountCode, start, end)
	confirm, _ := reader.ReadString('\n')
	if !strings.EqualFold(strings.TrimSpace(confirm), "y") {
		fmt.Fprintln(out, "Budget not declared.")
		return
	}

	result, err := svc.CreateBudget(ctx, app.CreateBudgetRequest{
		AccountCode: accountCode,
		PeriodStart: start,
		PeriodEnd:   end,
		Amount:      json.Number(amount.String()),
		Description: description,
	}, actor)
	if err != nil {
		printError(out, err)
		return
	}

	b := result.Budget
	if !result.Created {
		fmt.Fprintf(out, "A budget for %s %s already exists (#%d, %s); nothing changed.\n",
			b.AccountCode, b.Period(), b.ID, b.Amount.StringFixed(2))
		return
	}
	fmt.Fprintf(out, "Budget #%d declared: %s %s from %s to %s.\n", b.ID, b.AccountCode,
		b.Amount.StringFixed(2), b.PeriodStart.Format(core.DateLayout), b.PeriodEnd.Format(core.DateLayout))
}
