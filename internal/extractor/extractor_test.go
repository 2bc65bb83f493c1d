package extractor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXTables(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]interface{}{
		{"Statement of account"},
		{},
		{"Txn Date", "Narration", "Withdrawal", "Deposit", "Balance"},
		{"01-Jan-2024", "SALARY ACME", "", 5000, 5000},
		{},
		{"05-Jan-2024", "RENT JAN", 1500.5, "", 3499.5},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatal(err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	tables, err := XLSXTables(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != 1 {
		t.Fatalf("expected 1 table (empty sheet skipped), got %d", len(tables))
	}

	tbl := tables[0]
	if tbl.Name != "Sheet1" {
		t.Errorf("name: got %q", tbl.Name)
	}
	wantHeaders := []string{"Txn Date", "Narration", "Withdrawal", "Deposit", "Balance"}
	if !reflect.DeepEqual(tbl.Headers, wantHeaders) {
		t.Errorf("headers: got %v, want %v", tbl.Headers, wantHeaders)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %v", len(tbl.Rows), tbl.Rows)
	}
	if tbl.Rows[0][3] != "5000" || tbl.Rows[1][2] != "1500.5" {
		t.Errorf("numeric cells: got %v", tbl.Rows)
	}
}

func TestXLSXTables_Garbage(t *testing.T) {
	_, err := XLSXTables(strings.NewReader("not a workbook"))
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("got %v, want ErrUnreadable", err)
	}
}

func TestCSVTables(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantHeaders []string
		wantRows    int
	}{
		{
			name:        "comma",
			input:       "Date,Description,Debit,Credit\n01-Jan-2024,SALARY,,5000\n02-Jan-2024,\"RENT, JAN\",1500,\n",
			wantHeaders: []string{"Date", "Description", "Debit", "Credit"},
			wantRows:    2,
		},
		{
			name:        "semicolon with bom and preamble",
			input:       "\xef\xbb\xbfExport;;\nDate;Particulars;Amount\n01/01/2024;SALARY;5000,00\n",
			wantHeaders: []string{"Date", "Particulars", "Amount"},
			wantRows:    1,
		},
		{
			name:        "tab",
			input:       "Value Date\tDetails\tAmount\n2024-01-01\tFEE\t-10\n",
			wantHeaders: []string{"Value Date", "Details", "Amount"},
			wantRows:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables, err := CSVTables(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(tables) != 1 {
				t.Fatalf("expected 1 table, got %d", len(tables))
			}
			if !reflect.DeepEqual(tables[0].Headers, tt.wantHeaders) {
				t.Errorf("headers: got %q, want %q", tables[0].Headers, tt.wantHeaders)
			}
			if len(tables[0].Rows) != tt.wantRows {
				t.Errorf("rows: got %d, want %d", len(tables[0].Rows), tt.wantRows)
			}
		})
	}
}

func TestCSVTables_Empty(t *testing.T) {
	tables, err := CSVTables(strings.NewReader("\n\n"))
	if err != nil || tables != nil {
		t.Errorf("got %v, %v", tables, err)
	}
}

func TestBuildTable_NoDateHeader(t *testing.T) {
	rows := [][]string{{"", ""}, {"Narration", "Amount"}, {"X", "1"}}
	tbl, ok := buildTable("t", rows)
	if !ok || tbl.Headers[0] != "Narration" || len(tbl.Rows) != 1 {
		t.Errorf("got %+v, %v", tbl, ok)
	}
}

func TestSplitPages(t *testing.T) {
	got := SplitPages("page one\fpage two\f  \n\f")
	want := []string{"page one", "page two"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	doc, err := Load(ctx, "statement.TXT", []byte("a\fb"))
	if err != nil || len(doc.Pages) != 2 || doc.Tables != nil {
		t.Errorf("txt: got %+v, %v", doc, err)
	}

	doc, err = Load(ctx, "export.csv", []byte("Date,Description\n01-Jan-2024,X\n"))
	if err != nil || len(doc.Tables) != 1 || doc.Pages != nil {
		t.Errorf("csv: got %+v, %v", doc, err)
	}

	if _, err := Load(ctx, "photo.png", nil); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("png: got %v, want ErrUnsupportedFormat", err)
	}

	if _, err := Load(ctx, "broken.pdf", []byte("%PDF-garbage")); !errors.Is(err, ErrUnreadable) {
		t.Errorf("pdf: got %v, want ErrUnreadable", err)
	}
}

func TestIsReadable(t *testing.T) {
	statement := "Statement of account for period January 2024\nOpening balance 1,000.00\nClosing balance 2,000.00"
	tests := []struct {
		name     string
		pages    []string
		expected bool
	}{
		{"statement text", []string{statement}, true},
		{"too short", []string{"bank"}, false},
		{"no statement words", []string{strings.Repeat("lorem ipsum dolor sit amet ", 5)}, false},
		{"garbage glyphs", []string{strings.Repeat("ÃÂÄÅÆÇÈÉ", 20) + " bank"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadable(tt.pages); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}
