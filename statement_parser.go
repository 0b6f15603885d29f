package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExtractStatement finds the header, maps columns and classifies every data row.
func ExtractStatement(grid Grid, cfg *StatementConfig, loc *time.Location) (*StatementExtraction, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: statement", ErrMissingInput)
	}

	headerRow, ok := LocateHeaderRow(grid, cfg.HeaderMarker, cfg.HeaderScanRows, cfg.HeaderScanColumns)
	if !ok {
		return nil, fmt.Errorf(
			"%w: after scanning %d rows can't find '%s' in first %d columns",
			ErrHeaderNotFound, cfg.HeaderScanRows, cfg.HeaderMarker, cfg.HeaderScanColumns,
		)
	}
	columns, err := MapColumns(grid, headerRow, cfg.columnMarkers())
	if err != nil {
		return nil, err
	}

	result := &StatementExtraction{}
	lastRow, _ := grid.Bounds()
	for row := headerRow + 1; row <= lastRow; row++ {
		description := strings.TrimSpace(cellText(grid.Value(row, columns[FieldConcept])))
		if description == "" {
			continue
		}
		reason := cfg.classify(description)
		if reason == ExcludedBalance {
			continue
		}
		result.TotalRecords++

		date, err := NormalizeDate(grid.Value(row, columns[FieldOperationDate]), loc)
		if err != nil {
			return nil, fmt.Errorf("failed to parse operation date from %d row: %w", row, err)
		}
		record := StatementRecord{
			Row:            row,
			OperationDate:  date,
			DocumentNumber: NormalizeDocumentNumber(grid.Value(row, columns[FieldDocumentNumber])),
			Description:    description,
			Amount:         parseAmount(grid.Value(row, columns[FieldAmount])),
		}

		if reason == Included {
			result.Included = append(result.Included, record)
		} else {
			result.Excluded = append(result.Excluded, newExcludedEntry(record, reason))
		}
	}

	// Writer relies on this order to insert document numbers monotonically.
	sort.SliceStable(result.Included, func(i, j int) bool {
		return result.Included[i].DocumentNumber.Value < result.Included[j].DocumentNumber.Value
	})
	return result, nil
}

// classify applies description prefix rules. Balance lines are checked first.
func (cfg *StatementConfig) classify(description string) ClassificationReason {
	for _, prefix := range cfg.BalancePrefixes {
		if strings.HasPrefix(description, prefix) {
			return ExcludedBalance
		}
	}
	if description == cfg.TaxMarker {
		return ExcludedTax
	}
	for _, prefix := range cfg.CommissionPrefixes {
		if strings.HasPrefix(description, prefix) {
			return ExcludedCommission
		}
	}
	return Included
}

func newExcludedEntry(record StatementRecord, reason ClassificationReason) ExcludedEntry {
	return ExcludedEntry{
		Record:      record,
		Reason:      reason,
		DisplayDate: FormatDisplayDate(record.OperationDate),
	}
}

// parseAmount never fails: text which isn't a number gives zero.
func parseAmount(value any) decimal.Decimal {
	switch v := value.(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		sanitized := strings.NewReplacer(",", "", " ", "", "\u00A0", "").Replace(strings.TrimSpace(v))
		amount, err := decimal.NewFromString(sanitized)
		if err != nil {
			return decimal.Zero
		}
		return amount
	default:
		return decimal.Zero
	}
}
