package eligibility

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/invoiceledger"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestDecideNotWhitelisted(t *testing.T) {
	d := Decide(Input{Whitelisted: false, Headroom: dec(1000000), LoanAmount: dec(1)})
	require.Equal(t, invoiceledger.EmailNotEligible, d.EmailStatus)
	require.Equal(t, invoiceledger.StatusYetToProcess, d.Status)
}

func TestDecideOverdueBlocksRegardlessOfLimit(t *testing.T) {
	d := Decide(Input{Whitelisted: true, Overdue: dec(1), Headroom: dec(1000000), LoanAmount: dec(1)})
	require.Equal(t, invoiceledger.EmailOverdue, d.EmailStatus)
	require.Equal(t, invoiceledger.StatusPendingWithCustomer, d.Status)
}

func TestDecideHeadroom(t *testing.T) {
	d := Decide(Input{Whitelisted: true, Headroom: dec(60000), LoanAmount: dec(40000)})
	require.Equal(t, invoiceledger.EmailEligible, d.EmailStatus)
	require.Equal(t, invoiceledger.StatusYetToProcess, d.Status)

	// Exact headroom still qualifies.
	d = Decide(Input{Whitelisted: true, Headroom: dec(40000), LoanAmount: dec(40000)})
	require.Equal(t, invoiceledger.EmailEligible, d.EmailStatus)

	d = Decide(Input{Whitelisted: true, Headroom: dec(60000), LoanAmount: dec(70000)})
	require.Equal(t, invoiceledger.EmailInsufficientLimit, d.EmailStatus)
	require.Equal(t, invoiceledger.StatusPendingWithCustomer, d.Status)
}

func TestOverdueNeverEligibleProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		in := Input{
			Whitelisted: rng.Intn(2) == 0,
			Overdue:     dec(rng.Int63n(1000) + 1),
			Headroom:    dec(rng.Int63n(2000000) - 1000000),
			LoanAmount:  dec(rng.Int63n(1000000)),
		}
		d := Decide(in)
		require.NotEqual(t, invoiceledger.EmailEligible, d.EmailStatus)
		require.NotEqual(t, invoiceledger.EmailSent, d.EmailStatus)
	}
}

func TestOnSent(t *testing.T) {
	d := OnSent()
	require.Equal(t, invoiceledger.EmailSent, d.EmailStatus)
	require.Equal(t, invoiceledger.StatusInProgress, d.Status)
}

func TestOnSettlementStatus(t *testing.T) {
	es := OnSettlementStatus(true, invoiceledger.StatusProcessed)
	require.NotNil(t, es)
	require.Equal(t, invoiceledger.EmailSent, *es)

	es = OnSettlementStatus(true, invoiceledger.StatusNotProcessed)
	require.NotNil(t, es)
	require.Equal(t, invoiceledger.EmailNotEligible, *es)

	require.Nil(t, OnSettlementStatus(true, invoiceledger.StatusInProgress))
	require.Nil(t, OnSettlementStatus(false, invoiceledger.StatusProcessed))
}
