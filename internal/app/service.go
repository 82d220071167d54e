package app

import (
	"context"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from the engine. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// ListAccounts returns every analytical account ordered by code.
	ListAccounts(ctx context.Context) (*AccountListResult, error)

	// ListBudgets returns the budgets of one account overlapping the period.
	// An unknown account code yields an empty list with AccountKnown false.
	ListBudgets(ctx context.Context, req BudgetQueryRequest) (*BudgetListResult, error)

	// CreateBudget declares a budget on behalf of actor. Declaring the same
	// (account, start, end) again returns the first budget with Created false.
	CreateBudget(ctx context.Context, req CreateBudgetRequest, actor string) (*BudgetResult, error)

	// GetActuals returns actual expense, income and net per account for a period.
	GetActuals(ctx context.Context, req PeriodRequest) (*ActualsResult, error)

	// GetBudgetReport returns the budget-vs-actual report for a period.
	GetBudgetReport(ctx context.Context, req BudgetReportRequest) (*BudgetReportResult, error)

	// ListPayables returns customer invoices and vendor bills with their
	// reconciliation as of today.
	ListPayables(ctx context.Context, req PayablesRequest) (*PayablesResult, error)

	// GetReconciliation returns the reconciliation of a single invoice or bill.
	GetReconciliation(ctx context.Context, req DocumentRequest) (*ReconciliationResult, error)

	// ApplySettlement applies a captured payment to an invoice or bill at most
	// once per idempotency key.
	ApplySettlement(ctx context.Context, req SettlementRequest) (*SettlementResult, error)
}
