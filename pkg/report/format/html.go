package format

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/greg-hellings/execadmin/pkg/report"
)

const wordCSS = `<style>table{border-collapse:collapse;} td,th{padding:5px; border:1px solid #AAAAAA;} th{background-color:#006699;color:white;}</style>`

// utf8BOM lets Word detect the encoding of the HTML document.
const utf8BOM = "\ufeff"

// plainTable builds a go-pretty table with the labels left as written.
func plainTable(g *report.Grid) table.Writer {
	tw := table.NewWriter()
	tw.Style().Format.Header = text.FormatDefault
	header := table.Row{}
	for _, c := range g.Columns {
		header = append(header, c.Label)
	}
	tw.AppendHeader(header)
	for i := range g.Rows {
		row := table.Row{}
		for _, v := range g.Record(i) {
			row = append(row, v)
		}
		tw.AppendRow(row)
	}
	return tw
}

// WriteWord writes the grid as an HTML document Word opens as a .doc file.
func WriteWord(g *report.Grid, w io.Writer) error {
	tw := plainTable(g)
	tw.Style().HTML.CSSClass = "grid"
	tw.Style().HTML.EscapeText = true
	doc := utf8BOM + `<html><head><meta charset="utf-8">` + wordCSS + "</head><body>" +
		tw.RenderHTML() + "</body></html>"
	if _, err := io.WriteString(w, doc); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// WriteCSV writes the grid as comma separated values with a header line.
func WriteCSV(g *report.Grid, w io.Writer) error {
	out := plainTable(g).RenderCSV()
	if out != "" {
		out += "\n"
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
