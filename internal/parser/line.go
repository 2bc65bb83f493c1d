package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
	"github.com/insightdelivered/statement-analyzer/internal/normalizer"
)

// LineParser handles statements exported as line-oriented page text.
//
// Each transaction line has this layout:
//
//	Txn date | Value date | Particulars | [Cheque no] | [Debit] | [Credit] | [Balance]
//
// Date format: DD-Mon-YYYY
// Example line: "05-Jan-2024 05-Jan-2024 NEFT SALARY ACME LTD 5,000.00 12,500.00"
type LineParser struct{}

func (p *LineParser) Mode() models.Mode {
	return models.ModeLine
}

// An optional row serial ("1", "12.", "3)") may precede the dates. The
// description starts right after the value date and may be empty, so the
// whitespace before the first amount is left for the amount groups.
var lineTxnPattern = regexp.MustCompile(
	`^(?:\d+[.)]?\s+)?(\d{1,2}-[A-Za-z]{3}-\d{4})\s+(\d{1,2}-[A-Za-z]{3}-\d{4})\b(.*?)` +
		`(?:\s+(\d{6}|null))?` +
		`(?:\s+(` + amountShape + `))?` +
		`(?:\s+(` + amountShape + `))?` +
		`(?:\s+(` + amountShape + `))?\s*$`,
)

func (p *LineParser) Extract(doc models.Document) (*models.Extraction, error) {
	if len(doc.Pages) == 0 {
		return nil, ErrEmptyDocument
	}

	ext := &models.Extraction{
		Mode:          models.ModeLine,
		AccountHolder: findAccountHolder(doc.Pages),
		// Line statements always print paid-out and paid-in side by side.
		Columns: models.ColumnSet{Debit: true, Credit: true, Balance: true},
	}

	// The stated balance carries across page breaks.
	var lastBalance *decimal.Decimal
	for i, page := range doc.Pages {
		for j, line := range strings.Split(page, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			debug := models.DebugLine{Page: i + 1, LineNum: j + 1, Text: line, Result: "skipped"}

			m := lineTxnPattern.FindStringSubmatch(line)
			if m == nil {
				ext.DebugLines = append(ext.DebugLines, debug)
				continue
			}

			rec := models.RawRecord{
				Date:        m[1],
				ValueDate:   m[2],
				Description: strings.TrimSpace(m[3]),
				Reference:   "N/A",
				Page:        i + 1,
				Line:        j + 1,
			}
			if ref := m[4]; ref != "" && ref != "null" {
				rec.Reference = ref
			}

			debug.Result = "parsed"
			debug.Method = assignAmounts(&rec, nonEmpty(m[5], m[6], m[7]), lastBalance)

			if rec.Balance != "" {
				if bal, ok := normalizer.ParseAmount(rec.Balance); ok {
					lastBalance = &bal
				}
			}

			ext.Records = append(ext.Records, rec)
			ext.DebugLines = append(ext.DebugLines, debug)
		}
	}

	return ext, nil
}

// assignAmounts places the trailing numbers of a line into the debit, credit
// and balance fields and reports which rule was used.
func assignAmounts(rec *models.RawRecord, amounts []string, lastBalance *decimal.Decimal) string {
	switch len(amounts) {
	case 3:
		rec.Debit, rec.Credit, rec.Balance = amounts[0], amounts[1], amounts[2]
		return "full"
	case 2:
		// One amount column plus the running balance. The regex cannot tell
		// which column the amount sat in, so use balance progression.
		rec.Balance = amounts[1]
		side := classifyByDescription(rec.Description)
		amt, okAmt := normalizer.ParseAmount(amounts[0])
		bal, okBal := normalizer.ParseAmount(amounts[1])
		if okAmt && okBal {
			side = classifyByBalance(amt, bal, lastBalance, rec.Description)
		}
		setSide(rec, side, amounts[0])
		return "balance"
	case 1:
		setSide(rec, classifyByDescription(rec.Description), amounts[0])
		return "single"
	default:
		return "no-amount"
	}
}

func setSide(rec *models.RawRecord, side, amount string) {
	if side == "CREDIT" {
		rec.Credit = amount
		return
	}
	rec.Debit = amount
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
