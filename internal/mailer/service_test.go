package mailer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/creditledger"
	"github.com/ledgerline/ledgerline/internal/invoiceledger"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/internal/whitelist"
)

type fakeInvoices struct {
	entries map[string]*invoiceledger.Entry
}

func (f *fakeInvoices) key(anchorID, number string) string { return anchorID + "|" + number }

func (f *fakeInvoices) GetByNumber(_ context.Context, anchorID, number string) (*invoiceledger.Entry, error) {
	e, ok := f.entries[f.key(anchorID, number)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeInvoices) ListByStatuses(_ context.Context, anchorID, distributorCode string, statuses []invoiceledger.Status) ([]invoiceledger.Entry, error) {
	var out []invoiceledger.Entry
	for _, e := range f.entries {
		if e.AnchorID != anchorID || e.DistributorCode != distributorCode {
			continue
		}
		for _, s := range statuses {
			if e.Status == s {
				out = append(out, *e)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeInvoices) SetStatusFields(_ context.Context, anchorID, number string, status *invoiceledger.Status, emailStatus *invoiceledger.EmailStatus) error {
	e, ok := f.entries[f.key(anchorID, number)]
	if !ok {
		return shared.ErrNotFound
	}
	if status != nil {
		e.Status = *status
	}
	if emailStatus != nil {
		e.EmailStatus = *emailStatus
	}
	return nil
}

type fakeCredits struct {
	entries map[string]*creditledger.Entry
}

func (f *fakeCredits) Get(_ context.Context, anchorID, code string) (*creditledger.Entry, error) {
	e, ok := f.entries[anchorID+"|"+code]
	if !ok {
		return nil, shared.ErrLedgerNotFound
	}
	copied := *e
	return &copied, nil
}

type fakeWhitelist struct {
	entries map[string]*whitelist.Entry
}

func (f *fakeWhitelist) Get(_ context.Context, code string) (*whitelist.Entry, error) {
	e, ok := f.entries[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return e, nil
}

type fakeTemplates struct {
	byLender map[string]*Template
}

func (f *fakeTemplates) GetByLender(_ context.Context, lender string) (*Template, error) {
	t, ok := f.byLender[lender]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return t, nil
}

type captureSender struct {
	sent []Email
	err  error
}

func (c *captureSender) Send(_ context.Context, e Email) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, e)
	return nil
}

func invoice(number string, loan int64, status invoiceledger.Status, emailStatus invoiceledger.EmailStatus) *invoiceledger.Entry {
	return &invoiceledger.Entry{
		AnchorID:        "A1",
		CompanyName:     "Acme Traders",
		DistributorCode: "D100",
		InvoiceNumber:   number,
		InvoiceAmount:   decimal.NewFromInt(loan),
		InvoiceDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		LoanAmount:      decimal.NewFromInt(loan),
		Status:          status,
		EmailStatus:     emailStatus,
	}
}

func newMailerFixture(available int64, invoices ...*invoiceledger.Entry) (*Service, *fakeInvoices, *captureSender) {
	inv := &fakeInvoices{entries: make(map[string]*invoiceledger.Entry)}
	for _, e := range invoices {
		inv.entries["A1|"+e.InvoiceNumber] = e
	}
	credits := &fakeCredits{entries: map[string]*creditledger.Entry{
		"A1|D100": {
			AnchorID:        "A1",
			DistributorCode: "D100",
			AvailableLimit:  decimal.NewFromInt(available),
		},
	}}
	wl := &fakeWhitelist{entries: map[string]*whitelist.Entry{
		"D100": {
			CompanyName:      "Acme Traders",
			DistributorCode:  "D100",
			DistributorEmail: "billing@acme.test",
			Lender:           "Axis",
			LenderEmail:      "ops@axis.test",
		},
	}}
	templates := &fakeTemplates{byLender: map[string]*Template{
		"Axis": {
			Lender:  "Axis",
			Subject: "Financing for invoice {{invoiceNumber}}",
			Body:    "Dear {{companyName}}, invoice {{invoiceNumber}} for {{loanAmount}} is ready.",
		},
	}}
	sender := &captureSender{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(inv, credits, wl, templates, sender, logger), inv, sender
}

func TestSendInvoiceEmail(t *testing.T) {
	svc, inv, sender := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusYetToProcess, invoiceledger.EmailEligible))

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.NoError(t, err)
	require.True(t, result.Sent)
	require.Equal(t, invoiceledger.EmailSent, result.EmailStatus)

	require.Len(t, sender.sent, 1)
	email := sender.sent[0]
	require.Equal(t, []string{"billing@acme.test"}, email.To)
	require.Equal(t, []string{"ops@axis.test"}, email.Cc)
	require.Equal(t, "Financing for invoice INV-1", email.Subject)
	require.Contains(t, email.Body, "Dear Acme Traders")
	require.Contains(t, email.Body, "40,000")
	require.Len(t, email.Attachments, 1)
	require.Equal(t, "INV-1.csv", email.Attachments[0].Filename)

	stored := inv.entries["A1|INV-1"]
	require.Equal(t, invoiceledger.StatusInProgress, stored.Status)
	require.Equal(t, invoiceledger.EmailSent, stored.EmailStatus)
}

func TestSendBlockedByInFlightInvoices(t *testing.T) {
	// 100000 available, 70000 already committed in flight: a 40000 send must
	// not go out.
	svc, inv, sender := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusYetToProcess, invoiceledger.EmailEligible),
		invoice("INV-0", 70000, invoiceledger.StatusInProgress, invoiceledger.EmailSent))

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Equal(t, invoiceledger.EmailInsufficientLimit, result.EmailStatus)
	require.Empty(t, sender.sent)

	stored := inv.entries["A1|INV-1"]
	require.Equal(t, invoiceledger.StatusPendingWithCustomer, stored.Status)
	require.Equal(t, invoiceledger.EmailInsufficientLimit, stored.EmailStatus)
}

func TestSendPromotesDemotedInvoiceOnceLimitFrees(t *testing.T) {
	// INV-2 was demoted while INV-1 held the limit. With INV-1 settled the
	// fresh gate run must promote and send INV-2 despite its stored status.
	svc, inv, sender := newMailerFixture(100000,
		invoice("INV-2", 70000, invoiceledger.StatusPendingWithCustomer, invoiceledger.EmailInsufficientLimit))

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-2")
	require.NoError(t, err)
	require.True(t, result.Sent)
	require.Equal(t, invoiceledger.EmailSent, result.EmailStatus)
	require.Len(t, sender.sent, 1)

	stored := inv.entries["A1|INV-2"]
	require.Equal(t, invoiceledger.StatusInProgress, stored.Status)
	require.Equal(t, invoiceledger.EmailSent, stored.EmailStatus)
}

func TestSendBlockedByOverdueAtSendTime(t *testing.T) {
	svc, _, sender := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusYetToProcess, invoiceledger.EmailEligible))
	svc.credits.(*fakeCredits).entries["A1|D100"].Overdue = decimal.NewFromInt(500)

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Equal(t, invoiceledger.EmailOverdue, result.EmailStatus)
	require.Empty(t, sender.sent)
}

func TestSendRefusesNonWhitelistedDistributor(t *testing.T) {
	svc, inv, sender := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusYetToProcess, invoiceledger.EmailEligible))
	inv.entries["A1|INV-1"].DistributorCode = "D999"

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Equal(t, invoiceledger.EmailNotEligible, result.EmailStatus)
	require.Empty(t, sender.sent)
}

func TestSendSkipsNonEligibleInvoice(t *testing.T) {
	svc, _, sender := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusInProgress, invoiceledger.EmailSent))

	result, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.NoError(t, err)
	require.False(t, result.Sent)
	require.Equal(t, invoiceledger.EmailSent, result.EmailStatus)
	require.Empty(t, sender.sent)
}

func TestSendFailureLeavesStatusUntouched(t *testing.T) {
	svc, inv, _ := newMailerFixture(100000,
		invoice("INV-1", 40000, invoiceledger.StatusYetToProcess, invoiceledger.EmailEligible))
	svc.sender = &captureSender{err: context.DeadlineExceeded}

	_, err := svc.SendInvoiceEmail(context.Background(), "A1", "INV-1")
	require.Error(t, err)

	stored := inv.entries["A1|INV-1"]
	require.Equal(t, invoiceledger.EmailEligible, stored.EmailStatus)
	require.Equal(t, invoiceledger.StatusYetToProcess, stored.Status)
}
