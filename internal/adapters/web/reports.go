package web

import (
	"net/http"

	"budget-engine/internal/app"
)

// apiActuals handles GET /api/reports/actuals?from=&to=.
func (h *Handler) apiActuals(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetActuals(r.Context(), periodFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiBudgetReport handles GET /api/reports/budget-vs-actual?from=&to=&sort=&order=.
func (h *Handler) apiBudgetReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.GetBudgetReport(r.Context(), app.BudgetReportRequest{
		PeriodRequest: periodFromQuery(r),
		Sort:          q.Get("sort"),
		Order:         q.Get("order"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
