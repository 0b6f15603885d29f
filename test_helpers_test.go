package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

func assertStringEqual(t *testing.T, actual, expected string) {
	// Compare actual vs expected strings line by line
	actualLines := strings.Split(actual, "\n")
	expectedLines := strings.Split(expected, "\n")

	if len(actualLines) != len(expectedLines) {
		t.Errorf("Output has different number of lines - got %d, expected %d\n",
			len(actualLines), len(expectedLines))
	}
	linesCount := len(actualLines)
	if len(expectedLines) < linesCount {
		linesCount = len(expectedLines)
	}

	for i := 0; i < linesCount; i++ {
		if actualLines[i] != expectedLines[i] {
			// Find first differing character
			minLen := len(actualLines[i])
			if len(expectedLines[i]) < minLen {
				minLen = len(expectedLines[i])
			}

			diffPos := 0
			for diffPos < minLen && actualLines[i][diffPos] == expectedLines[i][diffPos] {
				diffPos++
			}

			t.Errorf("Line %d differs at position %d:\nExpected: %s\n  Actual: %s\n",
				i+1, diffPos,
				expectedLines[i],
				actualLines[i])
		}
	}
}

func checkErrorContainsSubstring(t *testing.T, err error, substring string) {
	if !strings.Contains(err.Error(), substring) {
		t.Errorf(
			"Expected error message to contain '%s', got '%s'",
			substring,
			err.Error(),
		)
	}
}

var decimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool {
	return a.Equal(b)
})

// mapGrid is an in-memory Grid, mapGrid[0] is the 1st row.
type mapGrid [][]any

func (g mapGrid) Value(row, col int) any {
	if row < 1 || row > len(g) || col < 1 || col > len(g[row-1]) {
		return nil
	}
	return g[row-1][col-1]
}

func (g mapGrid) Bounds() (int, int) {
	cols := 0
	for _, row := range g {
		if len(row) > cols {
			cols = len(row)
		}
	}
	return len(g), cols
}

// statementHeader imitates the bank export: title, blank row, then header on the 3rd row.
var statementHeader = [][]any{
	{"ESTADO DE CUENTA CORRIENTE"},
	{},
	{"F. Operación", "F. Valor", "Concepto", "Nº. Doc.", "Importe", "Saldo Contable"},
}

const statementHeaderRow = 3

// newStatementGrid returns statement with the header and given data rows.
func newStatementGrid(rows ...[]any) mapGrid {
	grid := mapGrid{}
	grid = append(grid, statementHeader...)
	return append(grid, rows...)
}

// stmtRow builds data row in statementHeader column order.
func stmtRow(date, document any, concept string, amount any) []any {
	return []any{date, date, concept, document, amount, nil}
}

// testConfig returns default configuration in UTC.
func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := defaultConfig()
	cfg.TimeZoneLocation = "UTC"
	if err := cfg.finish(); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
	return cfg
}

// newTestWorkbook creates workbook with "OCTUBRE MN", "OCTUBRE ME" and "RESUMEN" sheets
// and puts documents into the reference column of "OCTUBRE <currency>" from its start row.
func newTestWorkbook(t *testing.T, layout *LedgerConfig, currency Currency, documents ...any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", "RESUMEN"); err != nil {
		t.Fatalf("can't rename sheet: %v", err)
	}
	for _, c := range []Currency{CurrencyMN, CurrencyME} {
		if _, err := f.NewSheet(layout.SheetName("OCTUBRE", c)); err != nil {
			t.Fatalf("can't create sheet: %v", err)
		}
	}
	sheet := layout.SheetName("OCTUBRE", currency)
	for i, document := range documents {
		cell, err := excelize.CoordinatesToCellName(layout.DocumentColumn, layout.StartRows[currency]+i)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetCellValue(sheet, cell, document); err != nil {
			t.Fatalf("can't set %s: %v", cell, err)
		}
	}
	return f
}

// reopenLedger serializes the ledger and reads it back like a new upload.
func reopenLedger(t *testing.T, ledger *Ledger, layout *LedgerConfig) *Ledger {
	t.Helper()
	var buf bytes.Buffer
	if err := ledger.Write(&buf); err != nil {
		t.Fatalf("can't write ledger: %v", err)
	}
	reopened, err := OpenLedgerReader(&buf, layout)
	if err != nil {
		t.Fatalf("can't read ledger back: %v", err)
	}
	t.Cleanup(func() { reopened.Close() })
	return reopened
}

func mustCell(t *testing.T, col, row int) string {
	t.Helper()
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		t.Fatal(err)
	}
	return cell
}

func mustRawValue(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	value, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("can't read %s: %v", cell, err)
	}
	return value
}

// writeStatementXlsx saves rows as the only sheet of a statement workbook.
// Strings and float64 values are supported.
func writeStatementXlsx(t *testing.T, filePath string, rows ...[]any) {
	t.Helper()
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Movimientos")
	if err != nil {
		t.Fatal(err)
	}
	for _, values := range rows {
		row := sheet.AddRow()
		for _, value := range values {
			cell := row.AddCell()
			switch v := value.(type) {
			case string:
				cell.SetString(v)
			case float64:
				cell.SetFloat(v)
			}
		}
	}
	if err := file.Save(filePath); err != nil {
		t.Fatalf("can't save statement: %v", err)
	}
}

// octoberStatementRows is the statement used by end-to-end tests, in
// statementHeader layout.
func octoberStatementRows() [][]any {
	return [][]any{
		{"ESTADO DE CUENTA CORRIENTE"},
		{""},
		{"F. Operación", "F. Valor", "Concepto", "Nº. Doc.", "Importe", "Saldo Contable"},
		{"", "", "Saldo Inicial: 5,000.00"},
		{"20-10-2025", "20-10-2025", "COMIS MANEJO", "00123", -15.50},
		{"20-10-2025", "20-10-2025", "TRANSFERENCIA", "00500", 1200.0},
		{"20-10-2025", "20-10-2025", "PAGO LUZ", "00399", -80.0},
		{"21-10-2025", "21-10-2025", "ITF", "00501", -0.05},
		{"22-10-2025", "22-10-2025", "PAGO PROVEEDOR", "00502", -300.0},
		{"", "", "Saldo Final: 5,804.45"},
	}
}
