package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"budget-engine/internal/app"
	"budget-engine/internal/core"
)

// documentTypeSlugs maps URL path segments onto document types.
var documentTypeSlugs = map[string]core.SourceDocumentType{
	"invoices":         core.SourceCustomerInvoice,
	"customer-invoice": core.SourceCustomerInvoice,
	"bills":            core.SourceVendorBill,
	"vendor-bill":      core.SourceVendorBill,
}

// parseDocumentType accepts a slug or the canonical upper-case name.
func parseDocumentType(s string) string {
	if t, ok := documentTypeSlugs[strings.ToLower(s)]; ok {
		return string(t)
	}
	return strings.ToUpper(s)
}

// apiListPayables handles GET /api/payables?type=&open=&overdue=.
func (h *Handler) apiListPayables(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.PayablesRequest{
		OpenOnly:    q.Get("open") == "true",
		OverdueOnly: q.Get("overdue") == "true",
	}
	if t := q.Get("type"); t != "" {
		req.Type = parseDocumentType(t)
	}

	result, err := h.svc.ListPayables(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiReconciliation handles GET /api/payables/{type}/{id}/reconciliation.
func (h *Handler) apiReconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorResponse(w, r, errorResponse{Error: "invalid document id", Code: "INVALID_INPUT", Field: "document_id"}, http.StatusBadRequest)
		return
	}

	result, err := h.svc.GetReconciliation(r.Context(), app.DocumentRequest{
		Type: parseDocumentType(chi.URLParam(r, "type")),
		ID:   id,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// apiApplySettlement handles POST /api/settlements from the payment collaborator.
// Replays answer 200 with duplicate=true so the sender stops retrying.
func (h *Handler) apiApplySettlement(w http.ResponseWriter, r *http.Request) {
	var req app.SettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.DocumentType = parseDocumentType(req.DocumentType)

	result, err := h.svc.ApplySettlement(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
