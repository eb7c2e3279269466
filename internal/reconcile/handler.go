package reconcile

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/ledgerline/ledgerline/internal/ingest"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler exposes the ingestion endpoints. Files arrive as CSV request
// bodies; invoice creation takes JSON.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ingestion routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/onboarding", h.ingestOnboarding)
	r.Post("/credit-limits", h.ingestCreditLimits)
	r.Post("/anchors/{anchorID}/invoices", h.createInvoices)
	r.Post("/anchors/{anchorID}/settlements", h.applySettlements)
}

// authorizeAnchor enforces that only operators may ingest, and that an
// anchor-scoped admin only touches their own anchor.
func authorizeAnchor(r *http.Request, anchorID string) error {
	id, ok := shared.IdentityFromContext(r.Context())
	if !ok {
		return httpx.ErrUnauthorized
	}
	switch id.Role {
	case shared.RoleSuperAdmin:
		return nil
	case shared.RoleAdmin:
		if anchorID != "" && id.AnchorID != anchorID {
			return fmt.Errorf("%w: anchor %s is out of scope", httpx.ErrForbidden, anchorID)
		}
		return nil
	}
	return httpx.ErrForbidden
}

func (h *Handler) ingestOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := authorizeAnchor(r, ""); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := ingest.ReadCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Unreadable File", err.Error())
		return
	}
	report, err := h.service.IngestOnboarding(r.Context(), rows)
	if err != nil {
		h.respondIngestError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) ingestCreditLimits(w http.ResponseWriter, r *http.Request) {
	if err := authorizeAnchor(r, ""); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := ingest.ReadCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Unreadable File", err.Error())
		return
	}
	report, err := h.service.ReplaceCreditLimits(r.Context(), rows)
	if err != nil {
		h.respondIngestError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

type invoiceDraftRequest struct {
	CompanyName      string `json:"companyName"`
	DistributorCode  string `json:"distributorCode" validate:"required"`
	BeneficiaryName  string `json:"beneficiaryName"`
	BeneficiaryAccNo string `json:"beneficiaryAccNo"`
	BankName         string `json:"bankName"`
	IFSCCode         string `json:"ifscCode"`
	Branch           string `json:"branch"`
	InvoiceNumber    string `json:"invoiceNumber" validate:"required"`
	InvoiceAmount    string `json:"invoiceAmount" validate:"required"`
	InvoiceDate      string `json:"invoiceDate" validate:"required"`
	LoanAmount       string `json:"loanAmount" validate:"required"`
	FundingType      string `json:"fundingType"`
	DistributorPhone string `json:"distributorPhone" validate:"omitempty,numeric,len=10"`
	DistributorEmail string `json:"distributorEmail" validate:"omitempty,email"`
}

type createInvoicesRequest struct {
	Invoices []invoiceDraftRequest `json:"invoices" validate:"required,min=1,dive"`
}

func (h *Handler) createInvoices(w http.ResponseWriter, r *http.Request) {
	anchorID := chi.URLParam(r, "anchorID")
	if err := authorizeAnchor(r, anchorID); err != nil {
		httpx.RespondError(w, err)
		return
	}

	var req createInvoicesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed JSON", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	drafts := make([]invoiceledger.Entry, 0, len(req.Invoices))
	var rowErrs []ingest.RowError
	for i, in := range req.Invoices {
		draft, err := draftFromRequest(in)
		if err != nil {
			rowErrs = append(rowErrs, ingest.RowError{RowNumber: i + 1, Key: in.InvoiceNumber, Message: err.Error()})
			continue
		}
		drafts = append(drafts, *draft)
	}
	if len(rowErrs) > 0 {
		httpx.ProblemWith(w, http.StatusBadRequest, "Invalid Invoices",
			"one or more invoices failed validation", rowErrs)
		return
	}

	report, err := h.service.CreateInvoices(r.Context(), anchorID, drafts)
	if err != nil {
		h.respondIngestError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func draftFromRequest(in invoiceDraftRequest) (*invoiceledger.Entry, error) {
	invoiceAmount, err := ingest.ParseAmount(in.InvoiceAmount)
	if err != nil {
		return nil, fmt.Errorf("invoiceAmount: %w", err)
	}
	loanAmount, err := ingest.ParseAmount(in.LoanAmount)
	if err != nil {
		return nil, fmt.Errorf("loanAmount: %w", err)
	}
	invoiceDate, err := ingest.ParseDate(in.InvoiceDate, ingest.DateLong)
	if err != nil {
		return nil, fmt.Errorf("invoiceDate: %w", err)
	}
	return &invoiceledger.Entry{
		CompanyName:      in.CompanyName,
		DistributorCode:  in.DistributorCode,
		BeneficiaryName:  in.BeneficiaryName,
		BeneficiaryAccNo: in.BeneficiaryAccNo,
		BankName:         in.BankName,
		IFSCCode:         in.IFSCCode,
		Branch:           in.Branch,
		InvoiceNumber:    in.InvoiceNumber,
		InvoiceAmount:    invoiceAmount,
		InvoiceDate:      invoiceDate,
		LoanAmount:       loanAmount,
		FundingType:      in.FundingType,
		DistributorPhone: in.DistributorPhone,
		DistributorEmail: in.DistributorEmail,
	}, nil
}

func (h *Handler) applySettlements(w http.ResponseWriter, r *http.Request) {
	anchorID := chi.URLParam(r, "anchorID")
	if err := authorizeAnchor(r, anchorID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	rows, err := ingest.ReadCSV(r.Body)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Unreadable File", err.Error())
		return
	}
	report, err := h.service.ApplySettlementFile(r.Context(), anchorID, rows)
	if err != nil {
		h.respondIngestError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

// respondIngestError maps batch rejections to structured problem responses
// so a caller fixing a source file sees every defect at once.
func (h *Handler) respondIngestError(w http.ResponseWriter, err error) {
	var schemaErr *ingest.SchemaError
	if errors.As(err, &schemaErr) {
		httpx.ProblemWith(w, http.StatusUnprocessableEntity, "Header Mismatch", schemaErr.Error(), map[string]any{
			"missingFields": schemaErr.MissingFields,
			"extraFields":   schemaErr.ExtraFields,
		})
		return
	}
	var dupErr *ingest.DuplicateKeyError
	if errors.As(err, &dupErr) {
		httpx.ProblemWith(w, http.StatusUnprocessableEntity, "Duplicate Keys", dupErr.Error(), map[string]any{
			"field": dupErr.Field,
			"keys":  dupErr.Keys,
		})
		return
	}
	var rowErrs *ingest.BatchRowErrors
	if errors.As(err, &rowErrs) {
		httpx.ProblemWith(w, http.StatusUnprocessableEntity, "Invalid Rows", rowErrs.Error(), rowErrs.Rows)
		return
	}
	h.logger.Error("ingestion failed", "error", err)
	httpx.RespondError(w, err)
}
