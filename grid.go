package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/tealeg/xlsx"
)

// Grid is a read-only view of one statement sheet.
type Grid interface {
	// Value returns cell value at 1-based row and column: nil for empty cells,
	// float64 for numbers (dates are serial numbers), bool, or trimmed-free string.
	Value(row, col int) any
	// Bounds returns the used range as the last row and the last column numbers.
	Bounds() (rows, cols int)
}

// openStatementGrid opens the first sheet of a statement file by its extension.
func openStatementGrid(filePath string) (Grid, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".xlsx":
		return openXlsxGrid(filePath)
	case ".xls":
		return openXlsGrid(filePath)
	default:
		return nil, fmt.Errorf("unsupported statement file '%s', expected .xlsx or .xls", filePath)
	}
}

type xlsxGrid struct {
	sheet *xlsx.Sheet
	rows  int
	cols  int
}

func openXlsxGrid(filePath string) (*xlsxGrid, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	if len(f.Sheets) < 1 {
		return nil, fmt.Errorf("%w: '%s' has no sheets", ErrMissingInput, filePath)
	}
	return newXlsxGrid(f.Sheets[0]), nil
}

func newXlsxGrid(sheet *xlsx.Sheet) *xlsxGrid {
	g := &xlsxGrid{sheet: sheet, rows: len(sheet.Rows)}
	for _, row := range sheet.Rows {
		if row != nil && len(row.Cells) > g.cols {
			g.cols = len(row.Cells)
		}
	}
	return g
}

func (g *xlsxGrid) Bounds() (int, int) {
	return g.rows, g.cols
}

func (g *xlsxGrid) Value(row, col int) any {
	if row < 1 || col < 1 || row > len(g.sheet.Rows) {
		return nil
	}
	r := g.sheet.Rows[row-1]
	if r == nil || col > len(r.Cells) {
		return nil
	}
	cell := r.Cells[col-1]
	if cell == nil || cell.Value == "" {
		return nil
	}
	switch cell.Type() {
	case xlsx.CellTypeNumeric:
		if f, err := strconv.ParseFloat(cell.Value, 64); err == nil {
			return f
		}
	case xlsx.CellTypeBool:
		return cell.Value == "1"
	}
	return cell.Value
}

type xlsGrid struct {
	cells [][]string
	cols  int
}

func openXlsGrid(filePath string) (*xlsGrid, error) {
	f, err := xls.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	if f.GetNumberSheets() < 1 {
		return nil, fmt.Errorf("%w: '%s' has no sheets", ErrMissingInput, filePath)
	}
	sheet, err := f.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("failed to get first sheet: %w", err)
	}

	// Copy values out, the reader doesn't expose a used range.
	g := &xlsGrid{}
	for i := 0; i <= int(sheet.GetNumberRows()); i++ {
		row, err := sheet.GetRow(i)
		if err != nil || row == nil {
			g.cells = append(g.cells, nil)
			continue
		}
		cols := row.GetCols()
		values := make([]string, len(cols))
		for j, cell := range cols {
			values[j] = cell.GetString()
		}
		if len(values) > g.cols {
			g.cols = len(values)
		}
		g.cells = append(g.cells, values)
	}
	// Trailing empty rows aren't part of the used range.
	for len(g.cells) > 0 && g.cells[len(g.cells)-1] == nil {
		g.cells = g.cells[:len(g.cells)-1]
	}
	return g, nil
}

func (g *xlsGrid) Bounds() (int, int) {
	return len(g.cells), g.cols
}

func (g *xlsGrid) Value(row, col int) any {
	if row < 1 || col < 1 || row > len(g.cells) || col > len(g.cells[row-1]) {
		return nil
	}
	return numericTextValue(g.cells[row-1][col-1])
}

// numericTextValue restores numbers from cells which are read as text.
// Text with leading zeros like "00123" stays text.
func numericTextValue(text string) any {
	if text == "" {
		return nil
	}
	if len(text) > 1 && text[0] == '0' && text[1] >= '0' && text[1] <= '9' {
		return text
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f
	}
	return text
}

// cellText renders a Grid value as text.
func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return toString(v)
	}
}

func toString(v any) string {
	return fmt.Sprintf("%v", v)
}
