package shared

import "strings"

// NullLikeTokens is the set of raw cell values treated as absent. This is a
// business rule, not a parsing accident: settlement files routinely carry
// "NA", "-" or "0" in the UTR column for invoices that have not been paid,
// and exposure math must treat all of them as unsettled.
var NullLikeTokens = []string{"", "NA", "N/A", "NULL", "null", "-", "nil", "none", "0", ".", "_"}

// IsNullLike reports whether a raw value normalizes to absent.
func IsNullLike(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, tok := range NullLikeTokens {
		if trimmed == tok {
			return true
		}
	}
	return false
}
