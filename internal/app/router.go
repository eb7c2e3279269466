package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/mailer"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/onboard"
	"github.com/ledgerline/ledgerline/internal/reconcile"
	"github.com/ledgerline/ledgerline/internal/whitelist"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	IngestHandler    *reconcile.Handler
	CreditHandler    *creditledger.Handler
	InvoiceHandler   *invoiceledger.Handler
	WhitelistHandler *whitelist.Handler
	OnboardHandler   *onboard.Handler
	MailerHandler    *mailer.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with ledgerline defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ingest", params.IngestHandler.MountRoutes)
		r.Route("/credit-ledger", params.CreditHandler.MountRoutes)
		r.Route("/invoice-ledger", params.InvoiceHandler.MountRoutes)
		r.Route("/whitelist", params.WhitelistHandler.MountRoutes)
		r.Route("/onboarding", params.OnboardHandler.MountRoutes)
		r.Route("/emails", params.MailerHandler.MountRoutes)
	})

	return r
}
