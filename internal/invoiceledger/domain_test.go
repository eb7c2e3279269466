package invoiceledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func TestSettledAgainstNullLikeTokens(t *testing.T) {
	for _, tok := range shared.NullLikeTokens {
		e := Entry{UTR: tok}
		require.False(t, e.Settled(), "token %q must read as unsettled", tok)
	}
	e := Entry{UTR: "UTR123"}
	require.True(t, e.Settled())
}

func TestOutstanding(t *testing.T) {
	require.True(t, (&Entry{Status: StatusYetToProcess, UTR: "NA"}).Outstanding())
	require.True(t, (&Entry{Status: StatusInProgress, UTR: ""}).Outstanding())
	require.False(t, (&Entry{Status: StatusNotProcessed, UTR: "NA"}).Outstanding())
	require.False(t, (&Entry{Status: StatusProcessed, UTR: "UTR123"}).Outstanding())
	// Processed but not yet settled still consumes the limit.
	require.True(t, (&Entry{Status: StatusProcessed, UTR: "-"}).Outstanding())
}

func TestPendingExposureRandomized(t *testing.T) {
	statuses := []Status{
		StatusYetToProcess, StatusInProgress, StatusProcessed,
		StatusPendingWithCustomer, StatusPendingWithLender, StatusNotProcessed,
	}
	utrs := append([]string{}, shared.NullLikeTokens...)
	utrs = append(utrs, "UTR001", "UTR002")

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 200; i++ {
		var entries []Entry
		want := decimal.Zero
		for j := 0; j < rng.Intn(20); j++ {
			e := Entry{
				Status:     statuses[rng.Intn(len(statuses))],
				UTR:        utrs[rng.Intn(len(utrs))],
				LoanAmount: decimal.NewFromInt(rng.Int63n(100000)),
			}
			if e.Status != StatusNotProcessed && shared.IsNullLike(e.UTR) {
				want = want.Add(e.LoanAmount)
			}
			entries = append(entries, e)
		}
		require.True(t, want.Equal(PendingExposure(entries)))
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("pendingWithCustomer")
	require.NoError(t, err)
	require.Equal(t, StatusPendingWithCustomer, s)

	_, err = ParseStatus("done")
	require.Error(t, err)
}

func TestSettlementChangeHasUpdates(t *testing.T) {
	require.False(t, SettlementChange{}.HasUpdates())

	utr := "UTR123"
	require.True(t, SettlementChange{UTR: &utr}.HasUpdates())

	// An email-status flip alone does not count as a settlement update.
	es := EmailSent
	require.False(t, SettlementChange{EmailStatus: &es}.HasUpdates())
}
