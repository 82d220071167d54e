package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"budget-engine/internal/app"
)

// apiListAccounts handles GET /api/analytical-accounts.
func (h *Handler) apiListAccounts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiListBudgets handles GET /api/analytical-accounts/{code}/budgets?from=&to=.
func (h *Handler) apiListBudgets(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListBudgets(r.Context(), app.BudgetQueryRequest{
		AccountCode:   chi.URLParam(r, "code"),
		PeriodRequest: periodFromQuery(r),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiCreateBudget handles POST /api/budgets. A new budget answers 201; a
// repeated declaration answers 200 with the first budget.
func (h *Handler) apiCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req app.CreateBudgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.CreateBudget(r.Context(), req, actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSONStatus(w, status, result)
}

func periodFromQuery(r *http.Request) app.PeriodRequest {
	q := r.URL.Query()
	return app.PeriodRequest{From: q.Get("from"), To: q.Get("to")}
}
