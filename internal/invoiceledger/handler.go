package invoiceledger

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/objstore"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Uploaded invoice PDFs are capped; settlement files carry scans, not source
// documents.
const maxPDFBytes = 10 << 20

// Handler exposes invoice ledger queries and the PDF upload.
type Handler struct {
	logger  *slog.Logger
	service *Service
	store   objstore.Store
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, store objstore.Store) *Handler {
	return &Handler{logger: logger, service: service, store: store}
}

// MountRoutes registers invoice ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/anchors/{anchorID}/invoices/{invoiceNumber}", h.get)
	r.Post("/anchors/{anchorID}/invoices/{invoiceNumber}/pdf", h.uploadPDF)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))
	filter := ListFilter{
		AnchorID:        q.Get("anchorId"),
		DistributorCode: q.Get("distributorCode"),
		CompanyName:     q.Get("companyName"),
		Status:          Status(q.Get("status")),
		EmailStatus:     EmailStatus(q.Get("emailStatus")),
		Page:            page,
		PerPage:         perPage,
	}

	entries, pagination, err := h.service.ListEntries(r.Context(), id, filter)
	if err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		h.logger.Error("invoice list failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    entries,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	anchorID := chi.URLParam(r, "anchorID")
	if id.Role == shared.RoleAdmin && id.AnchorID != anchorID {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	entry, err := h.service.GetEntry(r.Context(), anchorID, chi.URLParam(r, "invoiceNumber"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("invoice get failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	if id.Role == shared.RoleViewer && entry.DistributorPhone != id.Phone {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) uploadPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	anchorID := chi.URLParam(r, "anchorID")
	invoiceNumber := chi.URLParam(r, "invoiceNumber")
	switch id.Role {
	case shared.RoleSuperAdmin:
	case shared.RoleAdmin:
		if id.AnchorID != anchorID {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
	default:
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPDFBytes+1))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Unreadable Upload", err.Error())
		return
	}
	if len(body) == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Empty Upload", "request body is empty")
		return
	}
	if len(body) > maxPDFBytes {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Upload Too Large", "invoice PDFs are capped at 10 MiB")
		return
	}

	url, err := h.store.Put(r.Context(), objstore.InvoicePDFKey(anchorID, invoiceNumber), body, "application/pdf")
	if err != nil {
		h.logger.Error("invoice pdf upload failed",
			"anchor_id", anchorID, "invoice_number", invoiceNumber, "error", err)
		httpx.RespondError(w, err)
		return
	}

	if err := h.service.AttachPDF(r.Context(), anchorID, invoiceNumber, url); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("invoice pdf attach failed",
			"anchor_id", anchorID, "invoice_number", invoiceNumber, "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"invoicePdfUrl": url})
}
