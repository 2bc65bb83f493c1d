package normalizer

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order. Numeric forms are day-first.
var dateLayouts = []string{
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02-01-2006",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 Jan 06",
	"Jan 2, 2006",
	"2 January 2006",
	"January 2, 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

var spaceRun = regexp.MustCompile(`\s+`)

// ParseDate makes a best-effort attempt to read a calendar date.
// The result is midnight UTC on that day.
func ParseDate(s string) (time.Time, bool) {
	s = spaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return day(t), true
		}
	}

	// Spreadsheet exports sometimes carry the raw serial number.
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 10000 && v <= 2958465 {
		if t, err := excelize.ExcelDateToTime(v, false); err == nil {
			return day(t), true
		}
	}

	return time.Time{}, false
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

var (
	currencyPrefix = regexp.MustCompile(`(?i)^(rs\.?|inr|usd|gbp|eur)\s*`)
	nonNumeric     = regexp.MustCompile(`[^\d.\-]`)
)

// ParseAmount reads a monetary amount such as "1,234.56", "-£25.99" or
// "(12.00)". Grouping commas and currency symbols are stripped. Blank cells,
// "-" and "nan" are reported as absent.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "-", "nan", "n/a", "null", "none":
		return decimal.Zero, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyPrefix.ReplaceAllString(strings.TrimSpace(s), "")
	s = nonNumeric.ReplaceAllString(s, "")
	if s == "" || s == "-" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
