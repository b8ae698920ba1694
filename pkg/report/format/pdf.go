package format

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/greg-hellings/execadmin/pkg/report"
)

// Landscape A4 in points, Courier 8pt.
const (
	pdfPageWidth   = 842
	pdfPageHeight  = 595
	pdfMargin      = 30
	pdfFontSize    = 8
	pdfLeading     = 11
	pdfMaxColWidth = 30
	pdfColumnGap   = 2
)

// pdfLineChars is how many Courier glyphs (0.6 em wide) fit between the margins.
const pdfLineChars = (pdfPageWidth - 2*pdfMargin) * 10 / (6 * pdfFontSize)

// WritePDF writes the grid as a plain text table in a PDF document. Rows
// flow onto further pages and the header repeats on each page.
func WritePDF(g *report.Grid, w io.Writer) error {
	lines := pdfTableLines(g)
	perPage := (pdfPageHeight-2*pdfMargin)/pdfLeading - 1
	header, body := lines[:2], lines[2:]
	var pages [][]string
	title := strings.TrimSpace(g.Name)
	if title == "" {
		title = report.DefaultGridName
	}
	for first := true; first || len(body) > 0; first = false {
		n := perPage - len(header)
		if first {
			n-- // title line
		}
		if n > len(body) {
			n = len(body)
		}
		page := []string{}
		if first {
			page = append(page, title)
		}
		page = append(page, header...)
		page = append(page, body[:n]...)
		body = body[n:]
		pages = append(pages, page)
	}

	var doc pdfDocument
	doc.add("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	doc.add(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	doc.add("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>")
	for i, page := range pages {
		doc.add(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			pdfPageWidth, pdfPageHeight, 5+2*i))
		content := pdfContent(page)
		doc.add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}

// pdfTableLines lays the grid out in fixed width columns: header, rule, rows.
func pdfTableLines(g *report.Grid) []string {
	maxChars := pdfLineChars
	widths := make([]int, len(g.Columns))
	for i, c := range g.Columns {
		widths[i] = utf8.RuneCountInString(c.Label)
		for r := range g.Rows {
			if n := utf8.RuneCountInString(g.Cell(r, c.Key)); n > widths[i] {
				widths[i] = n
			}
		}
		if widths[i] > pdfMaxColWidth {
			widths[i] = pdfMaxColWidth
		}
		if widths[i] < 1 {
			widths[i] = 1
		}
	}
	total := 0
	for _, wd := range widths {
		total += wd + pdfColumnGap
	}
	if total > maxChars {
		for i := range widths {
			widths[i] = widths[i] * maxChars / total
			if widths[i] < 3 {
				widths[i] = 3
			}
		}
	}

	format := func(cells []string) string {
		var b strings.Builder
		for i, cell := range cells {
			cell = truncateRunes(cell, widths[i])
			b.WriteString(cell)
			if i < len(cells)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-utf8.RuneCountInString(cell)+pdfColumnGap))
			}
		}
		return strings.TrimRight(b.String(), " ")
	}

	lines := []string{format(g.Labels())}
	rule := 0
	for _, wd := range widths {
		rule += wd + pdfColumnGap
	}
	lines = append(lines, strings.Repeat("-", max(rule-pdfColumnGap, 1)))
	for r := range g.Rows {
		lines = append(lines, format(g.Record(r)))
	}
	return lines
}

func pdfContent(lines []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "BT\n/F1 %d Tf\n%d TL\n%d %d Td\n", pdfFontSize, pdfLeading, pdfMargin, pdfPageHeight-pdfMargin-pdfFontSize)
	for i, line := range lines {
		if i > 0 {
			b.WriteString("T*\n")
		}
		fmt.Fprintf(&b, "(%s) Tj\n", pdfEscape(line))
	}
	b.WriteString("ET")
	return b.String()
}

// pdfEscape escapes a literal string; runes outside Latin-1 become '?'.
func pdfEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '…':
			b.WriteString("...")
		case r < 32:
			b.WriteByte(' ')
		case r < 128:
			b.WriteRune(r)
		case r < 256:
			fmt.Fprintf(&b, "\\%03o", r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

type pdfDocument struct {
	objects []string
}

func (d *pdfDocument) add(obj string) {
	d.objects = append(d.objects, obj)
}

// WriteTo writes the objects with a cross-reference table.
func (d *pdfDocument) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(d.objects))
	for i, obj := range d.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(d.objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(d.objects)+1, xref)
	return buf.WriteTo(w)
}
