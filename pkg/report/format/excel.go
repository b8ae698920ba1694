package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/greg-hellings/execadmin/pkg/report"
)

const (
	excelColWidth    = 18
	excelHeaderColor = "#D3D3D3"
	excelMaxSheetLen = 31
)

// WriteExcel writes the grid as a single sheet workbook with a bold shaded
// header. Numeric values are stored as numbers, everything else as text.
func WriteExcel(g *report.Grid, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(g.Name)
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{excelHeaderColor}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, c := range g.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, c.Label); err != nil {
			return fmt.Errorf("failed to write header %s: %w", c.Label, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to style header %s: %w", c.Label, err)
		}
	}

	for r := range g.Rows {
		for i, c := range g.Columns {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, excelValue(g.Value(r, c.Key))); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	if len(g.Columns) > 0 {
		last, err := excelize.ColumnNumberToName(len(g.Columns))
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", last, excelColWidth); err != nil {
			return fmt.Errorf("failed to size columns: %w", err)
		}
	}

	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to remove default sheet: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// excelValue keeps numbers numeric and renders everything else as text.
func excelValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return t
	case decimal.Decimal:
		return t.InexactFloat64()
	case bool:
		return t
	}
	return report.CellText(v)
}

// sheetName returns a name Excel accepts.
func sheetName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = report.DefaultGridName
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if r := []rune(name); len(r) > excelMaxSheetLen {
		name = string(r[:excelMaxSheetLen])
	}
	return name
}
