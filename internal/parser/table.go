package parser

import (
	"fmt"
	"strings"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Field is a canonical transaction field that a table column can map to.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldDebit       Field = "debit"
	FieldCredit      Field = "credit"
	FieldBalance     Field = "balance"
	FieldReference   Field = "reference"
	FieldAmount      Field = "amount"
)

// ColumnRule maps a field to the header substrings that identify it.
type ColumnRule struct {
	Field      Field
	Substrings []string
}

// DefaultColumnRules is evaluated in order; a column is claimed by at most one field.
var DefaultColumnRules = []ColumnRule{
	{FieldDate, []string{"date"}},
	{FieldDescription, []string{"desc", "narr", "part"}},
	{FieldDebit, []string{"debit", "withdrawal"}},
	{FieldCredit, []string{"credit", "deposit"}},
	{FieldBalance, []string{"balance"}},
	{FieldReference, []string{"ref", "cheque", "chq"}},
	{FieldAmount, []string{"amount"}},
}

// ColumnMap holds the column index chosen for each field.
type ColumnMap map[Field]int

// ResolveColumns matches header labels against rules, case-insensitively.
// For each rule the first unclaimed column containing any substring wins.
func ResolveColumns(headers []string, rules []ColumnRule) ColumnMap {
	cols := make(ColumnMap)
	claimed := make(map[int]bool)
	for _, rule := range rules {
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			if containsAny(strings.ToLower(h), rule.Substrings) {
				cols[rule.Field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

// TableParser handles statements exported as tables keyed by column name.
type TableParser struct {
	Rules []ColumnRule
}

func (p *TableParser) Mode() models.Mode {
	return models.ModeTable
}

func (p *TableParser) Extract(doc models.Document) (*models.Extraction, error) {
	if len(doc.Tables) == 0 {
		return nil, ErrEmptyDocument
	}
	rules := p.Rules
	if len(rules) == 0 {
		rules = DefaultColumnRules
	}

	ext := &models.Extraction{
		Mode:          models.ModeTable,
		AccountHolder: models.UnknownHolder,
	}

	for ti, table := range doc.Tables {
		cols := ResolveColumns(table.Headers, rules)
		if _, ok := cols[FieldDate]; !ok {
			return nil, fmt.Errorf("table %d %q: %w", ti+1, table.Name, ErrNoDateColumn)
		}
		if _, ok := cols[FieldDescription]; !ok {
			return nil, fmt.Errorf("table %d %q: %w", ti+1, table.Name, ErrNoDescriptionColumn)
		}

		_, hasDebit := cols[FieldDebit]
		_, hasCredit := cols[FieldCredit]
		_, hasAmount := cols[FieldAmount]
		_, hasBalance := cols[FieldBalance]
		ext.Columns.Debit = ext.Columns.Debit || hasDebit
		ext.Columns.Credit = ext.Columns.Credit || hasCredit
		ext.Columns.Signed = ext.Columns.Signed || hasAmount
		ext.Columns.Balance = ext.Columns.Balance || hasBalance

		for ri, row := range table.Rows {
			if isBlankRow(row) {
				continue
			}
			ext.Records = append(ext.Records, models.RawRecord{
				Date:        cell(row, cols, FieldDate),
				Description: cell(row, cols, FieldDescription),
				Reference:   cell(row, cols, FieldReference),
				Debit:       cell(row, cols, FieldDebit),
				Credit:      cell(row, cols, FieldCredit),
				Amount:      cell(row, cols, FieldAmount),
				Balance:     cell(row, cols, FieldBalance),
				Page:        ti + 1,
				Line:        ri + 1,
			})
		}
	}

	// A signed amount column only counts when no debit/credit column exists.
	if ext.Columns.Debit || ext.Columns.Credit {
		ext.Columns.Signed = false
	}

	return ext, nil
}

func cell(row []string, cols ColumnMap, f Field) string {
	idx, ok := cols[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
