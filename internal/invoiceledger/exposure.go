package invoiceledger

import "github.com/shopspring/decimal"

// PendingExposure sums loan amounts over the outstanding entries of a set.
// It is the reference definition of the exposure invariant; the SQL
// aggregation in SumOutstanding must agree with it.
func PendingExposure(entries []Entry) decimal.Decimal {
	total := decimal.Zero
	for i := range entries {
		if entries[i].Outstanding() {
			total = total.Add(entries[i].LoanAmount)
		}
	}
	return total
}
