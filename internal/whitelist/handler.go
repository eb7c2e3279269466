package whitelist

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler exposes whitelist management and the eligible-invoice summary.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers whitelist routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/eligible", h.eligibleSummaries)
	r.Get("/{distributorCode}", h.get)
	r.Post("/", h.upsert)
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

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	entries, pagination, err := h.service.ListEntries(r.Context(), ListFilter{
		CompanyName:     q.Get("companyName"),
		DistributorCode: q.Get("distributorCode"),
		Page:            page,
		PerPage:         perPage,
	})
	if err != nil {
		h.logger.Error("whitelist list failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries":    entries,
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	entry, err := h.service.GetEntry(r.Context(), chi.URLParam(r, "distributorCode"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("whitelist get failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) eligibleSummaries(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	summaries, err := h.service.EligibleSummaries(r.Context())
	if err != nil {
		h.logger.Error("eligible summaries failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"distributors": summaries})
}

type upsertEntryRequest struct {
	CompanyName      string `json:"companyName" validate:"required"`
	DistributorCode  string `json:"distributorCode" validate:"required"`
	DistributorPhone string `json:"distributorPhone" validate:"omitempty,numeric,len=10"`
	DistributorEmail string `json:"distributorEmail" validate:"required,email"`
	Lender           string `json:"lender" validate:"required"`
	LenderEmail      string `json:"lenderEmail" validate:"omitempty,email"`
	AnchorID         string `json:"anchorId" validate:"required"`
}

type upsertRequest struct {
	Entries []upsertEntryRequest `json:"entries" validate:"required,min=1,dive"`
}

func (h *Handler) upsert(w http.ResponseWriter, r *http.Request) {
	if err := operatorOnly(r); err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req upsertRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	// An in-batch duplicate distributor code rejects the whole payload.
	seen := make(map[string]bool, len(req.Entries))
	entries := make([]Entry, 0, len(req.Entries))
	for _, in := range req.Entries {
		if seen[in.DistributorCode] {
			httpx.Problem(w, http.StatusUnprocessableEntity, "Duplicate Keys",
				"distributor code "+in.DistributorCode+" appears more than once")
			return
		}
		seen[in.DistributorCode] = true
		entries = append(entries, Entry{
			CompanyName:      in.CompanyName,
			DistributorCode:  in.DistributorCode,
			DistributorPhone: in.DistributorPhone,
			DistributorEmail: in.DistributorEmail,
			Lender:           in.Lender,
			LenderEmail:      in.LenderEmail,
			AnchorID:         in.AnchorID,
		})
	}

	n, err := h.service.Upsert(r.Context(), entries)
	if err != nil {
		h.logger.Error("whitelist upsert failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{"upsertedRows": n})
}
