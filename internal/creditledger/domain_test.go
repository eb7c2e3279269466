package creditledger

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestComputeBillingStatus(t *testing.T) {
	require.Equal(t, BillingPositive, ComputeBillingStatus(dec(0), dec(0)))
	require.Equal(t, BillingPositive, ComputeBillingStatus(dec(1), dec(0)))
	require.Equal(t, BillingNegative, ComputeBillingStatus(dec(-1), dec(0)))
	require.Equal(t, BillingNegative, ComputeBillingStatus(dec(100), dec(1)))
	require.Equal(t, BillingNegative, ComputeBillingStatus(dec(-100), dec(100)))
}

func TestBillingStatusInvariantRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		available := dec(rng.Int63n(200001) - 100000)
		pending := dec(rng.Int63n(200001) - 100000)
		overdue := dec(rng.Int63n(100001) - 50000)

		d := DeriveFrom(available, overdue, pending)
		require.True(t, d.CurrentAvailable.Equal(available.Sub(pending)))

		wantNegative := d.CurrentAvailable.IsNegative() || overdue.IsPositive()
		if wantNegative {
			require.Equal(t, BillingNegative, d.BillingStatus)
		} else {
			require.Equal(t, BillingPositive, d.BillingStatus)
		}
	}
}

func TestParseBillingStatus(t *testing.T) {
	s, err := ParseBillingStatus("positive")
	require.NoError(t, err)
	require.Equal(t, BillingPositive, s)

	_, err = ParseBillingStatus("neutral")
	require.Error(t, err)
}

func TestParseFundingType(t *testing.T) {
	f, err := ParseFundingType("close")
	require.NoError(t, err)
	require.Equal(t, FundingClose, f)

	_, err = ParseFundingType("closed")
	require.Error(t, err)
}
