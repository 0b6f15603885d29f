package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Ledger is an opened cash/bank ledger workbook. All changes are kept in memory until
// Write or SaveAs is called.
type Ledger struct {
	file   *excelize.File
	layout *LedgerConfig
	// Derived style IDs by base style ID and kind of change.
	styles map[derivedStyleKey]int
}

type derivedStyleKey struct {
	base int
	kind string
}

// OpenLedger opens the ledger workbook from the file system.
func OpenLedger(filePath string, layout *LedgerConfig) (*Ledger, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger '%s': %w", filePath, err)
	}
	return NewLedger(f, layout), nil
}

// OpenLedgerReader reads the ledger workbook from r.
func OpenLedgerReader(r io.Reader, layout *LedgerConfig) (*Ledger, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return NewLedger(f, layout), nil
}

// NewLedger wraps already opened workbook.
func NewLedger(f *excelize.File, layout *LedgerConfig) *Ledger {
	return &Ledger{
		file:   f,
		layout: layout,
		styles: make(map[derivedStyleKey]int),
	}
}

func (l *Ledger) Close() error {
	return l.file.Close()
}

// Write serializes the workbook with all changes.
func (l *Ledger) Write(w io.Writer) error {
	return l.file.Write(w)
}

func (l *Ledger) SaveAs(filePath string) error {
	return l.file.SaveAs(filePath)
}

// FindSheet returns name of the sheet for the month and currency.
func (l *Ledger) FindSheet(month string, currency Currency) (string, error) {
	name := l.layout.SheetName(month, currency)
	sheets := l.file.GetSheetList()
	for _, sheet := range sheets {
		if sheet == name {
			return sheet, nil
		}
	}
	return "", &SheetNotFoundError{Sheet: name, Available: sheets}
}

// Scan walks the reference-number column from the currency start row down to the first
// empty cell. Highest document number is taken from the last occupied row, the ledger
// is expected to be in ascending order.
func (l *Ledger) Scan(sheet string, currency Currency) (*LedgerState, error) {
	startRow, ok := l.layout.StartRows[currency]
	if !ok {
		return nil, fmt.Errorf("%w: unknown currency '%s'", ErrInvalidSelector, currency)
	}
	state := &LedgerState{
		Sheet:                   sheet,
		Currency:                currency,
		StartRow:                startRow,
		ExistingDocumentNumbers: make(map[string]struct{}),
	}

	row := startRow
	for ; ; row++ {
		raw, err := l.rawValue(sheet, l.layout.DocumentColumn, row)
		if err != nil {
			return nil, err
		}
		if raw == "" {
			break
		}
		number := NormalizeDocumentNumber(numericTextValue(raw))
		state.ExistingDocumentNumbers[number.Key] = struct{}{}
		state.HighestDocumentNumber = number.Value
	}
	state.InsertionRow = row
	return state, nil
}

// rawValue returns trimmed unformatted cell value so number formats don't affect keys.
func (l *Ledger) rawValue(sheet string, col, row int) (string, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "", err
	}
	value, err := l.file.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return "", fmt.Errorf("failed to read %s!%s: %w", sheet, cell, err)
	}
	return strings.TrimSpace(value), nil
}

// Append writes records into consecutive rows starting from state.InsertionRow.
// Existing cell formatting is preserved, amounts get the amount number format and
// the whole row gets the highlight fill.
func (l *Ledger) Append(state *LedgerState, records []StatementRecord) error {
	for i, record := range records {
		row := state.InsertionRow + i
		if err := l.writeRecord(state.Sheet, row, record); err != nil {
			return fmt.Errorf("failed to write record '%s' into %d row: %w", record.DocumentNumber.Raw, row, err)
		}
	}
	return nil
}

func (l *Ledger) writeRecord(sheet string, row int, record StatementRecord) error {
	layout := l.layout

	if !record.OperationDate.IsZero() {
		cell, err := excelize.CoordinatesToCellName(layout.DateColumn, row)
		if err != nil {
			return err
		}
		if err := l.ensureDateFormat(sheet, cell); err != nil {
			return err
		}
		if err := l.file.SetCellValue(sheet, cell, record.OperationDate); err != nil {
			return err
		}
	}

	if err := l.writeDocumentNumber(sheet, row, record.DocumentNumber); err != nil {
		return err
	}

	cell, err := excelize.CoordinatesToCellName(layout.DescriptionColumn, row)
	if err != nil {
		return err
	}
	if err := l.file.SetCellStr(sheet, cell, record.Description); err != nil {
		return err
	}

	if err := l.writeAmounts(sheet, row, record); err != nil {
		return err
	}
	return l.highlightRow(sheet, row)
}

// writeDocumentNumber stores digits-only numbers as integers and everything else as
// text. Cell style is kept as is.
func (l *Ledger) writeDocumentNumber(sheet string, row int, number DocumentNumber) error {
	cell, err := excelize.CoordinatesToCellName(l.layout.DocumentColumn, row)
	if err != nil {
		return err
	}
	styleID, err := l.file.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	if number.Numeric && (number.Value != 0 || number.Key == "0") {
		err = l.file.SetCellValue(sheet, cell, number.Value)
	} else {
		err = l.file.SetCellStr(sheet, cell, number.Raw)
	}
	if err != nil {
		return err
	}
	return l.file.SetCellStyle(sheet, cell, cell, styleID)
}

// writeAmounts puts inflows into debit (with zero credit) and outflows as absolute
// values into credit (with empty debit).
func (l *Ledger) writeAmounts(sheet string, row int, record StatementRecord) error {
	debitCell, err := excelize.CoordinatesToCellName(l.layout.DebitColumn, row)
	if err != nil {
		return err
	}
	creditCell, err := excelize.CoordinatesToCellName(l.layout.CreditColumn, row)
	if err != nil {
		return err
	}

	if record.Amount.IsPositive() {
		if err := l.setAmount(sheet, debitCell, record.Amount.InexactFloat64()); err != nil {
			return err
		}
		if err := l.setAmount(sheet, creditCell, 0); err != nil {
			return err
		}
	} else {
		if err := l.file.SetCellValue(sheet, debitCell, nil); err != nil {
			return err
		}
		if err := l.applyAmountFormat(sheet, debitCell); err != nil {
			return err
		}
		if err := l.setAmount(sheet, creditCell, record.Amount.Abs().InexactFloat64()); err != nil {
			return err
		}
	}
	return nil
}

func (l *Ledger) setAmount(sheet, cell string, value float64) error {
	if err := l.file.SetCellFloat(sheet, cell, value, -1, 64); err != nil {
		return err
	}
	return l.applyAmountFormat(sheet, cell)
}

func (l *Ledger) applyAmountFormat(sheet, cell string) error {
	format := l.layout.AmountFormat
	return l.restyle(sheet, cell, "amount", func(style *excelize.Style) {
		style.NumFmt = 0
		style.CustomNumFmt = &format
	})
}

// ensureDateFormat gives the date cell a date number format if it has none.
func (l *Ledger) ensureDateFormat(sheet, cell string) error {
	styleID, err := l.file.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	style, err := l.file.GetStyle(styleID)
	if err != nil {
		return err
	}
	if style.NumFmt != 0 || style.CustomNumFmt != nil {
		return nil
	}
	format := l.layout.DateFormat
	return l.restyle(sheet, cell, "date", func(style *excelize.Style) {
		style.CustomNumFmt = &format
	})
}

func (l *Ledger) highlightRow(sheet string, row int) error {
	color := l.layout.HighlightColor
	for col := l.layout.HighlightFromColumn; col <= l.layout.HighlightToColumn; col++ {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		err = l.restyle(sheet, cell, "highlight", func(style *excelize.Style) {
			style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// restyle replaces cell style with a copy of it changed by change. Copies are cached
// per base style so a run adds at most one style per existing style and kind.
func (l *Ledger) restyle(sheet, cell, kind string, change func(*excelize.Style)) error {
	baseID, err := l.file.GetCellStyle(sheet, cell)
	if err != nil {
		return err
	}
	key := derivedStyleKey{base: baseID, kind: kind}
	styleID, ok := l.styles[key]
	if !ok {
		style, err := l.file.GetStyle(baseID)
		if err != nil {
			return fmt.Errorf("failed to get style %d: %w", baseID, err)
		}
		change(style)
		if styleID, err = l.file.NewStyle(style); err != nil {
			return fmt.Errorf("failed to create %s style: %w", kind, err)
		}
		l.styles[key] = styleID
	}
	return l.file.SetCellStyle(sheet, cell, cell, styleID)
}
