package format

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/greg-hellings/execadmin/pkg/report"
)

func numericGrid() *report.Grid {
	return &report.Grid{
		Name:    "Limits",
		Columns: []report.Column{{Key: "code", Label: "Code"}, {Key: "limit", Label: "Credit Limit"}},
		Rows: []map[string]any{
			{"code": "007", "limit": 1500.5},
			{"code": "008"},
		},
	}
}

func TestWriteExcel(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteExcel(numericGrid(), &buf); err != nil {
		t.Fatalf("WriteExcel returned error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 1 || sheets[0] != "Limits" {
		t.Fatalf("expected single Limits sheet, got %v", sheets)
	}

	tests := []struct {
		cell     string
		expected string
	}{
		{cell: "A1", expected: "Code"},
		{cell: "B1", expected: "Credit Limit"},
		{cell: "A2", expected: "007"},
		{cell: "B2", expected: "1500.5"},
		{cell: "B3", expected: ""},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue("Limits", tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s): %v", tt.cell, err)
		}
		if got != tt.expected {
			t.Errorf("cell %s: expected %q, got %q", tt.cell, tt.expected, got)
		}
	}

	typ, err := f.GetCellType("Limits", "A2")
	if err != nil {
		t.Fatalf("GetCellType: %v", err)
	}
	if typ == excelize.CellTypeNumber {
		t.Errorf("code column should stay text")
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "", expected: "Export"},
		{input: "a/b:c", expected: "a_b_c"},
		{input: strings.Repeat("x", 40), expected: strings.Repeat("x", 31)},
	}
	for _, tt := range tests {
		if got := sheetName(tt.input); got != tt.expected {
			t.Errorf("sheetName(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestWriteWord(t *testing.T) {
	g := sampleGrid()
	g.Rows[0]["ExecutiveName"] = "<b>Kamal</b>"

	var buf bytes.Buffer
	if err := WriteWord(g, &buf); err != nil {
		t.Fatalf("WriteWord returned error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "\ufeff<html>") {
		t.Errorf("expected BOM and html prefix, got %q", out[:20])
	}
	expectContains(t, out, "background-color:#006699", "css missing")
	expectContains(t, out, "Executive Code", "label should keep its case")
	expectContains(t, out, "&lt;b&gt;Kamal&lt;/b&gt;", "cell text should be escaped")
	expectContains(t, out, "</body></html>", "document should be closed")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(sampleGrid(), &buf); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Executive Code,Executive Name,User Profile,Territory,Operation Type,Status" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "EX1,Kamal Perera,,North,Sales,Active") {
		t.Errorf("unexpected first row %q", lines[1])
	}
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(sampleGrid(), &buf); err != nil {
		t.Fatalf("WritePDF returned error: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "%PDF-1.4") {
		t.Errorf("missing pdf header")
	}
	if !strings.HasSuffix(out, "%%EOF\n") {
		t.Errorf("missing eof marker")
	}
	expectContains(t, out, "/Count 1", "expected a single page")
	expectContains(t, out, "(Executives) Tj", "title missing")
	expectContains(t, out, "Nimal \\(Acting\\)", "parentheses should be escaped")

	xref := strings.Index(out, "xref\n")
	if xref < 0 {
		t.Fatalf("missing xref table")
	}
	expectContains(t, out, fmt.Sprintf("startxref\n%d\n", xref), "startxref offset mismatch")
}

func TestWritePDFPaginates(t *testing.T) {
	g := &report.Grid{Name: "Many", Columns: []report.Column{{Key: "n", Label: "N"}}}
	for i := 0; i < 100; i++ {
		g.Rows = append(g.Rows, map[string]any{"n": i})
	}

	var buf bytes.Buffer
	if err := WritePDF(g, &buf); err != nil {
		t.Fatalf("WritePDF returned error: %v", err)
	}
	out := buf.String()
	expectContains(t, out, "/Count 3", "expected three pages")
	if got := strings.Count(out, "(N) Tj"); got != 3 {
		t.Errorf("expected header on every page, found %d", got)
	}
}

func TestPDFTableLinesFitPage(t *testing.T) {
	g := &report.Grid{Name: "Wide"}
	row := map[string]any{}
	for i := 0; i < 8; i++ {
		key := fmt.Sprintf("c%d", i)
		g.Columns = append(g.Columns, report.Column{Key: key, Label: strings.ToUpper(key)})
		row[key] = strings.Repeat("x", 40)
	}
	g.Rows = append(g.Rows, row)

	lines := pdfTableLines(g)
	if len(lines) != 3 {
		t.Fatalf("expected header, rule and one row, got %d lines", len(lines))
	}
	for i, line := range lines {
		if n := utf8.RuneCountInString(line); n > pdfLineChars {
			t.Errorf("line %d is %d characters wide, page holds %d", i, n, pdfLineChars)
		}
	}
	if pdfLineChars != 162 {
		t.Errorf("pdfLineChars = %d, expected 162", pdfLineChars)
	}
}

func TestPDFEscape(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: `a(b)\c`, expected: `a\(b\)\\c`},
		{input: "café", expected: `caf\351`},
		{input: "ලං", expected: "??"},
		{input: "ab…", expected: "ab..."},
	}
	for _, tt := range tests {
		if got := pdfEscape(tt.input); got != tt.expected {
			t.Errorf("pdfEscape(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestWriteDispatch(t *testing.T) {
	for _, f := range report.Formats() {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, sampleGrid(), f); err != nil {
				t.Fatalf("Write(%s): %v", f, err)
			}
			if buf.Len() == 0 {
				t.Errorf("Write(%s) produced no output", f)
			}
		})
	}

	var buf bytes.Buffer
	if err := Write(&buf, sampleGrid(), report.Format("ods")); !errors.Is(err, report.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}
