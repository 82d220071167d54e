package app

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"budget-engine/internal/core"
	"budget-engine/internal/logger"
)

type appService struct {
	registry   core.AccountRegistry
	budgets    core.BudgetStore
	aggregator *core.Aggregator
	evaluator  *core.BudgetEvaluator
	payments   core.PaymentService
	reconciler *core.PaymentEvaluator
	log        zerolog.Logger
	now        func() time.Time
}

// NewAppService constructs an appService that satisfies ApplicationService.
// now supplies the current date for overdue checks; nil uses time.Now.
func NewAppService(
	registry core.AccountRegistry,
	budgets core.BudgetStore,
	feed core.TransactionFeed,
	payments core.PaymentService,
	log zerolog.Logger,
	now func() time.Time,
) ApplicationService {
	if now == nil {
		now = time.Now
	}
	return &appService{
		registry:   registry,
		budgets:    budgets,
		aggregator: core.NewAggregator(registry, budgets, feed),
		evaluator:  core.NewBudgetEvaluator(registry, budgets, feed),
		payments:   payments,
		reconciler: core.NewPaymentEvaluator(payments, now),
		log:        log,
		now:        now,
	}
}

// logFor prefers the request-scoped logger placed in ctx by the adapters.
func (s *appService) logFor(ctx context.Context) *zerolog.Logger {
	l := logger.FromContext(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = s.log
	}
	return &l
}

func (s *appService) ListAccounts(ctx context.Context) (*AccountListResult, error) {
	accounts, err := s.registry.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []core.AnalyticalAccount{}
	}
	return &AccountListResult{Accounts: accounts}, nil
}

func (s *appService) ListBudgets(ctx context.Context, req BudgetQueryRequest) (*BudgetListResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	p, err := core.ParsePeriod(req.From, req.To)
	if err != nil {
		return nil, err
	}

	_, known, err := s.registry.GetAccount(ctx, req.AccountCode)
	if err != nil {
		return nil, err
	}
	budgets, err := s.budgets.FindBudgets(ctx, req.AccountCode, p)
	if err != nil {
		return nil, err
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	return &BudgetListResult{AccountCode: req.AccountCode, AccountKnown: known, Period: p, Budgets: budgets}, nil
}

func (s *appService) CreateBudget(ctx context.Context, req CreateBudgetRequest, actor string) (*BudgetResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	start, err := core.ParseDate("period_start", req.PeriodStart)
	if err != nil {
		return nil, err
	}
	end, err := core.ParseDate("period_end", req.PeriodEnd)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return nil, core.NewInputError("budget_amount", "must be a decimal number")
	}

	budget, created, err := s.budgets.CreateBudget(ctx, core.BudgetInput{
		AccountCode: strings.TrimSpace(req.AccountCode),
		PeriodStart: start,
		PeriodEnd:   end,
		Amount:      amount,
		Description: req.Description,
		CreatedBy:   actor,
	})
	if err != nil {
		return nil, err
	}

	ev := s.logFor(ctx).Info()
	if !created {
		ev = s.logFor(ctx).Warn()
	}
	ev.Str("account_code", budget.AccountCode).
		Int("budget_id", budget.ID).
		Str("period", budget.Period().String()).
		Bool("created", created).
		Str("actor", actor).
		Msg("budget declared")

	return &BudgetResult{Budget: budget, Created: created}, nil
}

func (s *appService) GetActuals(ctx context.Context, req PeriodRequest) (*ActualsResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	p, err := core.ParsePeriod(req.From, req.To)
	if err != nil {
		return nil, err
	}
	actuals, err := s.aggregator.Actuals(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ActualsResult{Period: p, Accounts: actuals}, nil
}

func (s *appService) GetBudgetReport(ctx context.Context, req BudgetReportRequest) (*BudgetReportResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	p, err := core.ParsePeriod(req.From, req.To)
	if err != nil {
		return nil, err
	}
	opts := core.ReportOptions{SortBy: core.SortField(req.Sort), Descending: req.Order == "desc"}

	report, err := s.evaluator.Evaluate(ctx, p, opts)
	if err != nil {
		return nil, err
	}

	for _, row := range report.Rows {
		if row.OverBudget {
			s.logFor(ctx).Warn().
				Str("account_code", row.AccountCode).
				Str("budget", row.BudgetAmount.String()).
				Str("actual", row.ActualAmount.String()).
				Str("utilization_percent", row.UtilizationPercent.String()).
				Msg("account over budget")
		}
	}
	return &BudgetReportResult{Report: report}, nil
}

func (s *appService) ListPayables(ctx context.Context, req PayablesRequest) (*PayablesResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	filter := core.PayableFilter{Type: core.SourceDocumentType(req.Type), OpenOnly: req.OpenOnly}
	docs, err := s.reconciler.List(ctx, filter, req.OverdueOnly)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		s.logWarnings(ctx, d.Document, d.Reconciliation.Warnings)
	}
	return &PayablesResult{AsOf: s.today(), Documents: docs}, nil
}

func (s *appService) GetReconciliation(ctx context.Context, req DocumentRequest) (*ReconciliationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	dr, err := s.reconciler.Reconcile(ctx, core.SourceDocumentType(req.Type), req.ID)
	if err != nil {
		return nil, err
	}
	s.logWarnings(ctx, dr.Document, dr.Reconciliation.Warnings)
	return &ReconciliationResult{AsOf: s.today(), DocumentReconciliation: *dr}, nil
}

func (s *appService) ApplySettlement(ctx context.Context, req SettlementRequest) (*SettlementResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		return nil, core.NewInputError("settlement_amount", "must be a decimal number")
	}
	var settledAt time.Time
	if req.SettledAt != "" {
		settledAt, err = time.Parse(time.RFC3339, req.SettledAt)
		if err != nil {
			return nil, core.NewInputError("settled_at", "expected an RFC 3339 timestamp")
		}
	}

	res, err := s.payments.ApplySettlement(ctx, core.SettlementEvent{
		DocumentType:   core.SourceDocumentType(req.DocumentType),
		DocumentID:     req.DocumentID,
		Amount:         amount,
		IdempotencyKey: req.IdempotencyKey,
		SettledAt:      settledAt,
	})
	if err != nil {
		return nil, err
	}

	doc := res.Document
	s.logFor(ctx).Info().
		Str("document_type", string(doc.Type)).
		Int("document_id", doc.ID).
		Str("idempotency_key", req.IdempotencyKey).
		Str("applied", res.Applied.String()).
		Str("paid_amount", doc.PaidAmount.String()).
		Bool("duplicate", res.Duplicate).
		Msg("settlement processed")
	s.logWarnings(ctx, doc, res.Warnings)

	rec := core.Reconcile(core.ReconciliationInput{
		TotalAmount: doc.TotalAmount,
		PaidAmount:  doc.PaidAmount,
		DueDate:     doc.DueDate,
		Status:      doc.Status,
	}, s.now())

	return &SettlementResult{SettlementResult: *res, Reconciliation: rec}, nil
}

// logWarnings records anomalies; they are returned to the caller as well.
func (s *appService) logWarnings(ctx context.Context, doc core.PayableDocument, warnings []core.Warning) {
	for _, w := range warnings {
		s.logFor(ctx).Warn().
			Str("document_type", string(doc.Type)).
			Int("document_id", doc.ID).
			Str("code", w.Code).
			Msg(w.Message)
	}
}

func (s *appService) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
