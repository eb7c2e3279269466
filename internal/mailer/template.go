// Package mailer drafts and sends financing emails for eligible invoices.
// Sending re-checks the credit headroom at send time; the decision made at
// invoice creation may be stale by then.
package mailer

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Template is one lender's email template. Subject and Body carry
// {{placeholder}} markers filled per invoice.
type Template struct {
	ID        int64
	Lender    string
	Subject   string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Fill substitutes {{name}} markers from the given values. Unknown markers
// are left in place so a half-configured template is visible in the output
// rather than silently blank.
func Fill(text string, values map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := values[name]; ok {
			return v
		}
		return match
	})
}

var amountPrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatAmount renders a money amount with Indian digit grouping, the way
// the source files carry it ("1,00,000").
func FormatAmount(d decimal.Decimal) string {
	f, _ := d.Float64()
	return amountPrinter.Sprintf("%v", number.Decimal(f))
}
