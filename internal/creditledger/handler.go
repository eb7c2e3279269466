package creditledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler exposes credit ledger queries.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers credit ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/anchors/{anchorID}/distributors/{distributorCode}", h.get)
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
		CompanyName:     q.Get("companyName"),
		DistributorCode: q.Get("distributorCode"),
		Page:            page,
		PerPage:         perPage,
	}

	entries, pagination, err := h.service.ListEntries(r.Context(), id, filter)
	if err != nil {
		if errors.Is(err, shared.ErrForbidden) {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		h.logger.Error("credit ledger list failed", "error", err)
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
	if id.Role == shared.RoleViewer {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}

	entry, err := h.service.GetEntry(r.Context(), anchorID, chi.URLParam(r, "distributorCode"))
	if err != nil {
		if errors.Is(err, shared.ErrLedgerNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("credit ledger get failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}
