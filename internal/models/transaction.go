package models

import "time"

// Mode identifies how a statement document was ingested.
type Mode string

const (
	ModeLine  Mode = "line"
	ModeTable Mode = "table"
)

// UnknownHolder is reported when no account holder could be found.
const UnknownHolder = "Unknown"

// Table is one segmented table from a statement export.
type Table struct {
	Name    string     `json:"name,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Document is the intermediate representation handed to the core.
// Exactly one of Pages or Tables is expected to be populated.
type Document struct {
	Pages  []string `json:"pages,omitempty"`
	Tables []Table  `json:"tables,omitempty"`
}

// RawRecord holds the textual fields of one recognised transaction, as found
// in the source. Empty strings mean the field was absent.
type RawRecord struct {
	Date        string `json:"date"`
	ValueDate   string `json:"valueDate,omitempty"`
	Description string `json:"description"`
	Reference   string `json:"reference,omitempty"`
	Debit       string `json:"debit,omitempty"`
	Credit      string `json:"credit,omitempty"`
	Amount      string `json:"amount,omitempty"` // signed single-column amount
	Balance     string `json:"balance,omitempty"`
	Page        int    `json:"page"`
	Line        int    `json:"line"`
}

// ColumnSet records which amount columns a statement provides.
type ColumnSet struct {
	Debit   bool `json:"debit"`
	Credit  bool `json:"credit"`
	Signed  bool `json:"signed"`
	Balance bool `json:"balance"`
}

// DebugLine captures what the line parser did with each input line.
type DebugLine struct {
	Page    int    `json:"page"`
	LineNum int    `json:"lineNum"`
	Text    string `json:"text"`
	Result  string `json:"result"` // "parsed" or "skipped"
	Method  string `json:"method,omitempty"`
}

// Extraction is the output of a Record Extractor.
type Extraction struct {
	Mode          Mode        `json:"mode"`
	AccountHolder string      `json:"accountHolder"`
	Columns       ColumnSet   `json:"columns"`
	Records       []RawRecord `json:"records"`
	DebugLines    []DebugLine `json:"debugLines,omitempty"`
}

// Category is a transaction category label from a closed set.
type Category string

const (
	CategorySalary           Category = "salary"
	CategoryRent             Category = "rent"
	CategoryUtilities        Category = "utilities"
	CategoryLoanPayment      Category = "loan_payment"
	CategoryEmployeeExpenses Category = "employee_expenses"
	CategorySupplies         Category = "supplies"
	CategoryInsurance        Category = "insurance"
	CategoryTax              Category = "tax"
	CategoryOther            Category = "other"
)

// Categories lists every valid category in priority order; CategoryOther is last.
var Categories = []Category{
	CategorySalary,
	CategoryRent,
	CategoryUtilities,
	CategoryLoanPayment,
	CategoryEmployeeExpenses,
	CategorySupplies,
	CategoryInsurance,
	CategoryTax,
	CategoryOther,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Transaction is a normalized statement transaction.
// Amount is positive for inflows and negative for outflows.
type Transaction struct {
	Date        time.Time `json:"date"`
	ValueDate   string    `json:"valueDate,omitempty"`
	Description string    `json:"description"`
	Reference   string    `json:"reference,omitempty"`
	Amount      float64   `json:"amount"`
	Balance     *float64  `json:"balance,omitempty"` // stated by the source
	Category    Category  `json:"category"`
}
