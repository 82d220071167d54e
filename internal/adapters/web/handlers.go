package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"budget-engine/internal/app"
)

// Options configures NewHandler.
type Options struct {
	// AllowedOrigins is the comma-separated CORS allow list; empty disables CORS.
	AllowedOrigins string
	// JWTSecret verifies actor tokens; empty runs every request as AnonymousActor.
	JWTSecret string
	// WebhookSecret authenticates the payment collaborator on POST /api/settlements.
	WebhookSecret string
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc           app.ApplicationService
	router        chi.Router
	jwtSecret     string
	webhookSecret string
	log           zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options, log zerolog.Logger) http.Handler {
	h := &Handler{
		svc:           svc,
		jwtSecret:     opts.JWTSecret,
		webhookSecret: opts.WebhookSecret,
		log:           log,
	}
	if opts.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set: API requests are not authenticated and run as " + AnonymousActor)
	}
	if opts.WebhookSecret == "" {
		log.Warn().Msg("WEBHOOK_SECRET not set: settlement webhook will reject every call")
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(opts.AllowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	// ── Payment collaborator webhook (shared secret) ─────────────────────────
	r.With(h.RequireWebhookSecret).Post("/api/settlements", h.apiApplySettlement)

	// ── Protected API routes ──────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireActor)

		// Registry / budgets
		r.Get("/api/analytical-accounts", h.apiListAccounts)
		r.Get("/api/analytical-accounts/{code}/budgets", h.apiListBudgets)
		r.Post("/api/budgets", h.apiCreateBudget)

		// Reports
		r.Get("/api/reports/actuals", h.apiActuals)
		r.Get("/api/reports/budget-vs-actual", h.apiBudgetReport)

		// Payment reconciliation
		r.Get("/api/payables", h.apiListPayables)
		r.Get("/api/payables/{type}/{id}/reconciliation", h.apiReconciliation)
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
