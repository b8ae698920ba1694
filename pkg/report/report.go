// Package report holds the grid data model shared by the export formats and
// the console renderer.
package report

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/greg-hellings/execadmin/pkg/executive"
)

// DefaultGridName is used when a grid has no name.
const DefaultGridName = "Export"

// ErrUnknownFormat is returned by ParseFormat for an unsupported format.
var ErrUnknownFormat = errors.New("unknown export format")

// Format is an export target.
type Format string

const (
	FormatExcel   Format = "xlsx"
	FormatWord    Format = "doc"
	FormatPDF     Format = "pdf"
	FormatCSV     Format = "csv"
	FormatConsole Format = "table"
)

// Formats lists every export format in display order.
func Formats() []Format {
	return []Format{FormatExcel, FormatWord, FormatPDF, FormatCSV, FormatConsole}
}

// ParseFormat accepts a format name or a common alias such as "excel" or "xls".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "xls", "excel":
		return FormatExcel, nil
	case "doc", "word", "html":
		return FormatWord, nil
	case "pdf":
		return FormatPDF, nil
	case "csv":
		return FormatCSV, nil
	case "table", "console", "":
		return FormatConsole, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return ".xlsx"
	case FormatWord:
		return ".doc"
	case FormatPDF:
		return ".pdf"
	case FormatCSV:
		return ".csv"
	}
	return ".txt"
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatWord:
		return "application/msword"
	case FormatPDF:
		return "application/pdf"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Column is one exported column. Key indexes the row maps.
type Column struct {
	Key   string
	Label string
}

// Grid is a named table of rows keyed by column.
type Grid struct {
	Name    string
	Columns []Column
	Rows    []map[string]any
}

// FileName returns the download name of grid in format f.
func FileName(g *Grid, f Format) string {
	name := DefaultGridName
	if g != nil && strings.TrimSpace(g.Name) != "" {
		name = strings.TrimSpace(g.Name)
	}
	return name + f.Extension()
}

// Labels returns the column labels in order.
func (g *Grid) Labels() []string {
	out := make([]string, len(g.Columns))
	for i, c := range g.Columns {
		out[i] = c.Label
	}
	return out
}

// Value returns the raw value of column key in row i, or nil.
func (g *Grid) Value(i int, key string) any {
	if i < 0 || i >= len(g.Rows) || g.Rows[i] == nil {
		return nil
	}
	return g.Rows[i][key]
}

// Cell returns the display text of column key in row i. Missing values
// render as "".
func (g *Grid) Cell(i int, key string) string {
	return CellText(g.Value(i, key))
}

// Record returns row i as display strings in column order.
func (g *Grid) Record(i int) []string {
	out := make([]string, len(g.Columns))
	for j, c := range g.Columns {
		out[j] = g.Cell(i, c.Key)
	}
	return out
}

// CellText renders a cell value for text formats.
func CellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case decimal.Decimal:
		return t.String()
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// Executive list columns.
var executiveColumns = []Column{
	{Key: "ExecutiveCode", Label: "Executive Code"},
	{Key: "ExecutiveName", Label: "Executive Name"},
	{Key: "UserProfileName", Label: "User Profile"},
	{Key: "TerritoryName", Label: "Territory"},
	{Key: "OperationTypeDesc", Label: "Operation Type"},
	{Key: "Status", Label: "Status"},
}

// StatusText renders the list status flag.
func StatusText(s executive.Summary) string {
	if s.Active() {
		return "Active"
	}
	return "Inactive"
}

// FromExecutives builds the list screen grid.
func FromExecutives(name string, rows []executive.Summary) *Grid {
	g := &Grid{
		Name:    name,
		Columns: append([]Column(nil), executiveColumns...),
		Rows:    make([]map[string]any, 0, len(rows)),
	}
	for _, r := range rows {
		g.Rows = append(g.Rows, map[string]any{
			"ExecutiveCode":     strings.TrimSpace(r.ExecutiveCode),
			"ExecutiveName":     strings.TrimSpace(r.ExecutiveName),
			"UserProfileName":   strings.TrimSpace(r.UserProfileName),
			"TerritoryName":     strings.TrimSpace(r.TerritoryName),
			"OperationTypeDesc": strings.TrimSpace(r.OperationTypeDesc),
			"Status":            StatusText(r),
		})
	}
	return g
}
