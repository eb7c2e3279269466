package mailer

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler exposes the send endpoint and template management.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *Repository
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *Repository) *Handler {
	return &Handler{logger: logger, service: service, templates: templates}
}

// MountRoutes registers mailer routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/anchors/{anchorID}/invoices/{invoiceNumber}/send", h.sendInvoiceEmail)
	r.Put("/templates/{lender}", h.upsertTemplate)
}

func operatorOnly(r *http.Request) error {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return httpx.ErrUnauthorized
	}
	if id.Role != shared.RoleSuperAdmin && id.Role != shared.RoleAdmin {
		return httpx.ErrForbidden
	}
	return nil
}

func (h *Handler) sendInvoiceEmail(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	anchorID := chi.URLParam(r, "anchorID")
	invoiceNumber := chi.URLParam(r, "invoiceNumber")

	result, err := h.service.SendInvoiceEmail(r.Context(), anchorID, invoiceNumber)
	if err != nil {
		h.logger.Error("send invoice email failed",
			"anchor_id", anchorID, "invoice_number", invoiceNumber, "error", err)
		httpx.RespondError(w, mapStoreError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

type templateRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (h *Handler) upsertTemplate(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req templateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if req.Subject == "" || req.Body == "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "subject and body are required")
		return
	}

	lender := chi.URLParam(r, "lender")
	if err := h.templates.Upsert(r.Context(), Template{Lender: lender, Subject: req.Subject, Body: req.Body}); err != nil {
		h.logger.Error("template upsert failed", "lender", lender, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"lender": lender})
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrLedgerNotFound) {
		return httpx.ErrNotFound
	}
	return err
}
