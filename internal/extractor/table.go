package extractor

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/statement-analyzer/internal/models"
)

// XLSXTables reads every sheet of a workbook as one table.
// Cells are read raw so dates arrive as Excel serial numbers.
func XLSXTables(r io.Reader) ([]models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", ErrUnreadable, err)
	}
	defer f.Close()

	var tables []models.Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", ErrUnreadable, sheet, err)
		}
		if t, ok := buildTable(sheet, rows); ok {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

// CSVTables reads a delimited export as a single table. The delimiter is
// sniffed from the first non-empty line.
func CSVTables(r io.Reader) ([]models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: csv: %v", ErrUnreadable, err)
	}
	t, ok := buildTable("csv", rows)
	if !ok {
		return nil, nil
	}
	return []models.Table{t}, nil
}

func sniffDelimiter(data []byte) rune {
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		best, bestCount := ',', strings.Count(line, ",")
		for _, d := range []rune{';', '\t'} {
			if c := strings.Count(line, string(d)); c > bestCount {
				best, bestCount = d, c
			}
		}
		return best
	}
	return ','
}

// buildTable picks the header row and keeps the rows below it.
// The header is the first row with a cell mentioning "date", else the
// first non-empty row.
func buildTable(name string, rows [][]string) (models.Table, bool) {
	header := -1
	for i, row := range rows {
		if hasDateCell(row) {
			header = i
			break
		}
	}
	if header < 0 {
		for i, row := range rows {
			if !blank(row) {
				header = i
				break
			}
		}
	}
	if header < 0 {
		return models.Table{}, false
	}

	t := models.Table{Name: name, Headers: trimCells(rows[header])}
	for _, row := range rows[header+1:] {
		if blank(row) {
			continue
		}
		t.Rows = append(t.Rows, trimCells(row))
	}
	return t, true
}

func hasDateCell(row []string) bool {
	for _, c := range row {
		if strings.Contains(strings.ToLower(c), "date") {
			return true
		}
	}
	return false
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func trimCells(row []string) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
