package mailer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/eligibility"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/whitelist"
)

// Attachment is one email attachment.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Email is one outbound message.
type Email struct {
	To          []string
	Cc          []string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers outbound email. Delivery is an external collaborator; the
// engine only tracks whether handoff succeeded.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// InvoiceStore is the invoice ledger surface the mailer needs.
type InvoiceStore interface {
	GetByNumber(ctx context.Context, anchorID, invoiceNumber string) (*invoiceledger.Entry, error)
	ListByStatuses(ctx context.Context, anchorID, distributorCode string, statuses []invoiceledger.Status) ([]invoiceledger.Entry, error)
	SetStatusFields(ctx context.Context, anchorID, invoiceNumber string, status *invoiceledger.Status, emailStatus *invoiceledger.EmailStatus) error
}

// CreditStore reads the distributor's credit entry for the send-time check.
type CreditStore interface {
	Get(ctx context.Context, anchorID, distributorCode string) (*creditledger.Entry, error)
}

// WhitelistStore resolves distributor and lender contact details.
type WhitelistStore interface {
	Get(ctx context.Context, distributorCode string) (*whitelist.Entry, error)
}

// TemplateStore resolves the lender's email template.
type TemplateStore interface {
	GetByLender(ctx context.Context, lender string) (*Template, error)
}

// In-flight invoices hold limit that an email would commit again; both states
// mean an email went out or the customer is deciding.
var inFlightStatuses = []invoiceledger.Status{
	invoiceledger.StatusInProgress,
	invoiceledger.StatusPendingWithCustomer,
}

// Service drafts and sends financing emails.
type Service struct {
	invoices  InvoiceStore
	credits   CreditStore
	whitelist WhitelistStore
	templates TemplateStore
	sender    Sender
	log       *slog.Logger
}

// NewService wires the mailer.
func NewService(invoices InvoiceStore, credits CreditStore, wl WhitelistStore, templates TemplateStore, sender Sender, log *slog.Logger) *Service {
	return &Service{invoices: invoices, credits: credits, whitelist: wl, templates: templates, sender: sender, log: log}
}

// SendResult reports the outcome of one send attempt.
type SendResult struct {
	InvoiceNumber string                    `json:"invoiceNumber"`
	Sent          bool                      `json:"sent"`
	EmailStatus   invoiceledger.EmailStatus `json:"emailStatus"`
	Reason        string                    `json:"reason,omitempty"`
}

// SendInvoiceEmail re-runs the full eligibility gate at send time, drafts the
// lender's template for the invoice and delivers it. The stored email status
// is not trusted: an invoice demoted while the limit was committed becomes
// sendable again once the blocking exposure settles. Insufficient headroom
// demotes the invoice instead of sending.
func (s *Service) SendInvoiceEmail(ctx context.Context, anchorID, invoiceNumber string) (*SendResult, error) {
	invoice, err := s.invoices.GetByNumber(ctx, anchorID, invoiceNumber)
	if err != nil {
		return nil, err
	}
	if invoice.EmailStatus == invoiceledger.EmailSent {
		return &SendResult{
			InvoiceNumber: invoiceNumber,
			EmailStatus:   invoice.EmailStatus,
			Reason:        "invoice email already sent",
		}, nil
	}
	if invoice.Status == invoiceledger.StatusProcessed || invoice.Status == invoiceledger.StatusNotProcessed {
		return &SendResult{
			InvoiceNumber: invoiceNumber,
			EmailStatus:   invoice.EmailStatus,
			Reason:        fmt.Sprintf("invoice lifecycle is complete (%s)", invoice.Status),
		}, nil
	}

	contact, err := s.whitelist.Get(ctx, invoice.DistributorCode)
	if errors.Is(err, shared.ErrNotFound) {
		return &SendResult{
			InvoiceNumber: invoiceNumber,
			EmailStatus:   invoiceledger.EmailNotEligible,
			Reason:        fmt.Sprintf("distributor %s is not whitelisted", invoice.DistributorCode),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mailer: whitelist contact for %s: %w", invoice.DistributorCode, err)
	}

	credit, err := s.credits.Get(ctx, anchorID, invoice.DistributorCode)
	if err != nil {
		return nil, err
	}

	inFlight, err := s.sumInFlight(ctx, anchorID, invoice.DistributorCode, invoiceNumber)
	if err != nil {
		return nil, err
	}

	// Headroom at send time is availableLimit minus every in-flight loan
	// amount, with the candidate itself excluded from the sum.
	decision := eligibility.Decide(eligibility.Input{
		Whitelisted: true,
		Overdue:     credit.Overdue,
		Headroom:    credit.AvailableLimit.Sub(inFlight),
		LoanAmount:  invoice.LoanAmount,
	})
	switch decision.EmailStatus {
	case invoiceledger.EmailEligible:
	case invoiceledger.EmailInsufficientLimit:
		status := invoiceledger.StatusPendingWithCustomer
		emailStatus := invoiceledger.EmailInsufficientLimit
		if err := s.invoices.SetStatusFields(ctx, anchorID, invoiceNumber, &status, &emailStatus); err != nil {
			return nil, err
		}
		s.log.Info("send blocked by headroom",
			"anchor_id", anchorID, "invoice_number", invoiceNumber,
			"in_flight", inFlight.String(), "loan_amount", invoice.LoanAmount.String())
		return &SendResult{
			InvoiceNumber: invoiceNumber,
			EmailStatus:   emailStatus,
			Reason:        "available limit already committed to in-flight invoices",
		}, nil
	default:
		return &SendResult{
			InvoiceNumber: invoiceNumber,
			EmailStatus:   decision.EmailStatus,
			Reason:        fmt.Sprintf("distributor %s has overdue amounts", invoice.DistributorCode),
		}, nil
	}

	tmpl, err := s.templates.GetByLender(ctx, contact.Lender)
	if err != nil {
		return nil, fmt.Errorf("mailer: template for lender %s: %w", contact.Lender, err)
	}

	email := s.draft(tmpl, contact, invoice)
	if err := s.sender.Send(ctx, email); err != nil {
		return nil, fmt.Errorf("mailer: send %s: %w", invoiceNumber, err)
	}

	sent := eligibility.OnSent()
	if err := s.invoices.SetStatusFields(ctx, anchorID, invoiceNumber, &sent.Status, &sent.EmailStatus); err != nil {
		return nil, err
	}

	s.log.Info("invoice email sent",
		"anchor_id", anchorID, "invoice_number", invoiceNumber,
		"distributor_code", invoice.DistributorCode, "lender", contact.Lender)
	return &SendResult{InvoiceNumber: invoiceNumber, Sent: true, EmailStatus: sent.EmailStatus}, nil
}

func (s *Service) sumInFlight(ctx context.Context, anchorID, distributorCode, excludeNumber string) (decimal.Decimal, error) {
	entries, err := s.invoices.ListByStatuses(ctx, anchorID, distributorCode, inFlightStatuses)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range entries {
		if e.InvoiceNumber == excludeNumber {
			continue
		}
		total = total.Add(e.LoanAmount)
	}
	return total, nil
}

func (s *Service) draft(tmpl *Template, contact *whitelist.Entry, invoice *invoiceledger.Entry) Email {
	values := map[string]string{
		"companyName":     contact.CompanyName,
		"distributorCode": invoice.DistributorCode,
		"invoiceNumber":   invoice.InvoiceNumber,
		"invoiceAmount":   FormatAmount(invoice.InvoiceAmount),
		"loanAmount":      FormatAmount(invoice.LoanAmount),
		"invoiceDate":     invoice.InvoiceDate.Format("02-01-2006"),
		"lender":          contact.Lender,
	}

	email := Email{
		To:      []string{contact.DistributorEmail},
		Subject: Fill(tmpl.Subject, values),
		Body:    Fill(tmpl.Body, values),
	}
	if contact.LenderEmail != "" {
		email.Cc = []string{contact.LenderEmail}
	}
	if summary := invoiceCSV(invoice); summary != nil {
		email.Attachments = append(email.Attachments, Attachment{
			Filename:    invoice.InvoiceNumber + ".csv",
			ContentType: "text/csv",
			Data:        summary,
		})
	}
	return email
}

// invoiceCSV renders the invoice details the lender expects alongside the
// email body.
func invoiceCSV(invoice *invoiceledger.Entry) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{
		"Invoice Number", "Company Name", "Distributor Code", "Invoice Amount",
		"Loan Amount", "Invoice Date", "Beneficiary Name", "Beneficiary Acc No",
		"Bank Name", "IFSC Code", "Branch",
	})
	_ = w.Write([]string{
		invoice.InvoiceNumber, invoice.CompanyName, invoice.DistributorCode,
		invoice.InvoiceAmount.String(), invoice.LoanAmount.String(),
		invoice.InvoiceDate.Format("02-01-2006"), invoice.BeneficiaryName,
		invoice.BeneficiaryAccNo, invoice.BankName, invoice.IFSCCode, invoice.Branch,
	})
	w.Flush()
	if w.Error() != nil {
		return nil
	}
	return buf.Bytes()
}
