// Package normalizer reduces raw extracted records to the canonical
// transaction schema: parsed dates, one signed amount, date order.
package normalizer

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Convention is the amount sign rule chosen once for a whole statement.
type Convention string

const (
	// CreditMinusDebit applies when both debit-like and credit-like columns exist.
	CreditMinusDebit Convention = "credit_minus_debit"
	// DebitOnly negates the debit column.
	DebitOnly Convention = "debit_only"
	// CreditOnly takes the credit column as is.
	CreditOnly Convention = "credit_only"
	// Signed reads a single signed amount column.
	Signed Convention = "signed"
	// NoAmount means no amount can be resolved for any row.
	NoAmount Convention = "none"
)

// ChooseConvention picks the sign rule from column availability alone.
func ChooseConvention(cols models.ColumnSet) Convention {
	switch {
	case cols.Debit && cols.Credit:
		return CreditMinusDebit
	case cols.Debit:
		return DebitOnly
	case cols.Credit:
		return CreditOnly
	case cols.Signed:
		return Signed
	default:
		return NoAmount
	}
}

// Result is the normalized transaction stream of one statement.
type Result struct {
	Transactions []models.Transaction
	Convention   Convention
	// Dropped counts records without a resolvable date or amount.
	Dropped int
}

// Normalize converts an extraction into transactions sorted by date.
// Same-day transactions keep their source order.
func Normalize(ext *models.Extraction) *Result {
	res := &Result{Convention: NoAmount}
	if ext == nil {
		return res
	}
	res.Convention = ChooseConvention(ext.Columns)

	for _, rec := range ext.Records {
		date, ok := ParseDate(rec.Date)
		if !ok {
			res.Dropped++
			continue
		}
		amount, ok := resolveAmount(rec, res.Convention)
		if !ok {
			res.Dropped++
			continue
		}

		txn := models.Transaction{
			Date:        date,
			ValueDate:   rec.ValueDate,
			Description: rec.Description,
			Reference:   rec.Reference,
			Amount:      amount.InexactFloat64(),
		}
		if bal, ok := ParseAmount(rec.Balance); ok {
			f := bal.InexactFloat64()
			txn.Balance = &f
		}
		res.Transactions = append(res.Transactions, txn)
	}

	sort.SliceStable(res.Transactions, func(i, j int) bool {
		return res.Transactions[i].Date.Before(res.Transactions[j].Date)
	})

	return res
}

// resolveAmount applies the statement's sign convention to one record.
// Debit and credit columns are unsigned; their magnitude is used.
func resolveAmount(rec models.RawRecord, conv Convention) (decimal.Decimal, bool) {
	switch conv {
	case CreditMinusDebit:
		debit, hasDebit := ParseAmount(rec.Debit)
		credit, hasCredit := ParseAmount(rec.Credit)
		if !hasDebit && !hasCredit {
			return decimal.Zero, false
		}
		return credit.Abs().Sub(debit.Abs()), true
	case DebitOnly:
		debit, ok := ParseAmount(rec.Debit)
		return debit.Abs().Neg(), ok
	case CreditOnly:
		credit, ok := ParseAmount(rec.Credit)
		return credit.Abs(), ok
	case Signed:
		return ParseAmount(rec.Amount)
	default:
		return decimal.Zero, false
	}
}
