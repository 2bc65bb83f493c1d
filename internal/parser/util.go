package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// amountShape is a comma-grouped decimal with exactly two places,
// e.g. 25.99, 1,234.56 or 1,00,000.00.
const amountShape = `-?(?:\d{1,3}(?:,\d{2,3})+|\d+)\.\d{2}`

// holderPattern finds a salutation followed by a name up to the line break.
var holderPattern = regexp.MustCompile(`Mrs?\.[ \t]+([^\r\n]+)`)

// findAccountHolder returns the first name following "Mr." or "Mrs.",
// scanning pages in order.
func findAccountHolder(pages []string) string {
	for _, page := range pages {
		if !strings.Contains(page, "Mr.") && !strings.Contains(page, "Mrs.") {
			continue
		}
		if m := holderPattern.FindStringSubmatch(page); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}
	return models.UnknownHolder
}

// classifyByBalance decides whether an amount was paid out or paid in by
// checking which direction reproduces the stated balance from the previous one.
// Falls back to the description when there is no usable previous balance.
func classifyByBalance(amt, bal decimal.Decimal, prevBal *decimal.Decimal, desc string) string {
	if prevBal != nil {
		debitMatches := prevBal.Sub(amt).Equal(bal)
		creditMatches := prevBal.Add(amt).Equal(bal)
		if debitMatches && !creditMatches {
			return "DEBIT"
		}
		if creditMatches && !debitMatches {
			return "CREDIT"
		}
	}
	return classifyByDescription(desc)
}

var creditKeywords = []string{
	"salary", "deposit", "credited", "refund", "interest", "received",
	"by transfer", "by clg", "neft cr", "imps cr", "reversal", "cash dep",
}

// classifyByDescription guesses the side of an amount from its description.
// Anything unrecognised is treated as money paid out.
func classifyByDescription(desc string) string {
	lower := strings.ToLower(desc)
	for _, kw := range creditKeywords {
		if strings.Contains(lower, kw) {
			return "CREDIT"
		}
	}
	return "DEBIT"
}
