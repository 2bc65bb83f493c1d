package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// Statement is what the CSV writer needs from an analysis run.
type Statement struct {
	RunID         string
	AccountHolder string
	Transactions  []models.Transaction
}

// CSVWriter writes categorized transactions as CSV.
type CSVWriter struct {
	IncludeHeader bool
}

// WriteToFile writes the statement to a CSV file at path.
func (w *CSVWriter) WriteToFile(path string, st *Statement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	return w.Write(f, st)
}

// Write writes the statement in CSV format to out.
func (w *CSVWriter) Write(out io.Writer, st *Statement) error {
	cw := csv.NewWriter(out)

	if w.IncludeHeader {
		if st.AccountHolder != "" {
			cw.Write([]string{"# Account Holder", st.AccountHolder})
		}
		if st.RunID != "" {
			cw.Write([]string{"# Run ID", st.RunID})
		}
	}

	if err := cw.Write([]string{"Date", "Description", "Reference", "Category", "Amount", "Balance"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range st.Transactions {
		row := []string{
			txn.Date.Format("2006-01-02"),
			txn.Description,
			txn.Reference,
			string(txn.Category),
			formatAmount(txn.Amount),
			formatBalance(txn.Balance),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

// formatBalance leaves the cell empty when the source stated no balance.
func formatBalance(balance *float64) string {
	if balance == nil {
		return ""
	}
	return formatAmount(*balance)
}
