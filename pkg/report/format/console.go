// Package format renders report grids: a terminal table plus the Excel,
// Word, PDF and CSV export documents.
package format

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/term"

	"github.com/greg-hellings/execadmin/pkg/report"
)

// ConsoleFormatter renders a Grid as a terminal table that adapts its column
// widths to the current console width.
type ConsoleFormatter struct {
	// MaxColWidth constrains every column. If 0, a width is derived from the
	// terminal width and the column count.
	MaxColWidth int

	// EnableColors toggles ANSI colors for the status column.
	EnableColors bool

	// Footer, when set, is printed under the table instead of the row count.
	Footer string
}

// NewConsoleFormatter creates a formatter with colors enabled.
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{EnableColors: true}
}

// Render writes the grid to writer.
func (f *ConsoleFormatter) Render(g *report.Grid, writer io.Writer) error {
	if g == nil {
		return fmt.Errorf("nil grid")
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(writer)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.DrawBorder = true

	header := table.Row{}
	for _, c := range g.Columns {
		header = append(header, c.Label)
	}
	tw.AppendHeader(header)

	width := f.columnWidth(len(g.Columns), writer)
	if width > 0 {
		tw.SetColumnConfigs(columnConfigs(len(g.Columns), width))
	}

	for i := range g.Rows {
		row := table.Row{}
		for _, c := range g.Columns {
			val := g.Cell(i, c.Key)
			if width > 0 {
				val = truncateRunes(val, width)
			}
			row = append(row, f.cell(c.Key, val))
		}
		tw.AppendRow(row)
	}
	tw.Render()

	footer := f.Footer
	if footer == "" {
		footer = fmt.Sprintf("Rows: %d", len(g.Rows))
	}
	if _, err := fmt.Fprintln(writer, footer); err != nil {
		return fmt.Errorf("failed writing footer: %w", err)
	}
	return nil
}

// cell colors the status column; an empty cell renders as a dash.
func (f *ConsoleFormatter) cell(key, val string) string {
	if val == "" {
		return f.color("—", text.FgHiBlack)
	}
	if key == "Status" {
		switch val {
		case "Active":
			return f.color(val, text.FgGreen)
		case "Inactive":
			return f.color(val, text.FgRed)
		}
	}
	return val
}

// columnWidth picks a per-column width that fits the terminal, or -1 when
// the width is unknown.
func (f *ConsoleFormatter) columnWidth(cols int, w io.Writer) int {
	if cols == 0 {
		return -1
	}
	if f.MaxColWidth > 0 {
		return f.MaxColWidth
	}
	termWidth := detectTerminalWidth(w)
	if termWidth <= 0 {
		return -1
	}
	if termWidth < 60 {
		termWidth = 60
	}
	width := (termWidth - 3) / cols
	if width < 8 {
		width = 8
	}
	if width > 40 {
		width = 40
	}
	return width
}

func columnConfigs(cols, width int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, cols)
	for i := 0; i < cols; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:   i + 1,
			WidthMax: width,
			WidthMin: minInt(5, width),
		})
	}
	return configs
}

// detectTerminalWidth attempts to get terminal width if writer is a file (stdout/stderr).
func detectTerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			return width
		}
	}
	return -1
}

// truncateRunes truncates a string to (max) runes with ellipsis.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count >= max-1 {
			break
		}
		b.WriteRune(r)
		count++
	}
	b.WriteRune('…')
	return b.String()
}

func (f *ConsoleFormatter) color(s string, c text.Color) string {
	if !f.EnableColors {
		return s
	}
	return text.Colors{c}.Sprint(s)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// RenderConsole renders the grid to w using the default console formatter.
func RenderConsole(g *report.Grid, w io.Writer) error {
	return NewConsoleFormatter().Render(g, w)
}
