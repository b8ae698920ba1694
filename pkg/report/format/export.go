package format

import (
	"fmt"
	"io"

	"github.com/greg-hellings/execadmin/pkg/report"
)

// Exporter writes a grid as one document format.
type Exporter interface {
	Export(g *report.Grid, w io.Writer) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(g *report.Grid, w io.Writer) error

// Export calls fn.
func (fn ExporterFunc) Export(g *report.Grid, w io.Writer) error { return fn(g, w) }

// Export renders the grid as a console table.
func (f *ConsoleFormatter) Export(g *report.Grid, w io.Writer) error { return f.Render(g, w) }

// For returns the exporter of format f.
func For(f report.Format) (Exporter, error) {
	switch f {
	case report.FormatExcel:
		return ExporterFunc(WriteExcel), nil
	case report.FormatWord:
		return ExporterFunc(WriteWord), nil
	case report.FormatPDF:
		return ExporterFunc(WritePDF), nil
	case report.FormatCSV:
		return ExporterFunc(WriteCSV), nil
	case report.FormatConsole:
		return NewConsoleFormatter(), nil
	}
	return nil, fmt.Errorf("%w: %q", report.ErrUnknownFormat, f)
}

// Write renders g in format f to w.
func Write(w io.Writer, g *report.Grid, f report.Format) error {
	if g == nil {
		return fmt.Errorf("nil grid")
	}
	exp, err := For(f)
	if err != nil {
		return err
	}
	if err := exp.Export(g, w); err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}
