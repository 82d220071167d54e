package app

import (
	"time"

	"budget-engine/internal/core"
)

// AccountListResult is returned by ListAccounts.
type AccountListResult struct {
	Accounts []core.AnalyticalAccount `json:"accounts"`
}

// BudgetListResult is returned by ListBudgets.
type BudgetListResult struct {
	AccountCode  string        `json:"account_code"`
	AccountKnown bool          `json:"account_known"`
	Period       core.Period   `json:"period"`
	Budgets      []core.Budget `json:"budgets"`
}

// BudgetResult is returned by CreateBudget.
type BudgetResult struct {
	Budget  *core.Budget `json:"budget"`
	Created bool         `json:"created"`
}

// ActualsResult is returned by GetActuals.
type ActualsResult struct {
	Period   core.Period           `json:"period"`
	Accounts []core.AccountActuals `json:"accounts"`
}

// BudgetReportResult is returned by GetBudgetReport.
type BudgetReportResult struct {
	Report *core.BudgetReport `json:"report"`
}

// PayablesResult is returned by ListPayables.
type PayablesResult struct {
	AsOf      time.Time                     `json:"as_of"`
	Documents []core.DocumentReconciliation `json:"documents"`
}

// ReconciliationResult is returned by GetReconciliation.
type ReconciliationResult struct {
	AsOf time.Time `json:"as_of"`
	core.DocumentReconciliation
}

// SettlementResult is returned by ApplySettlement. Reconciliation reflects
// the document after the event.
type SettlementResult struct {
	core.SettlementResult
	Reconciliation core.Reconciliation `json:"reconciliation"`
}
