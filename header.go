package main

import (
	"strings"
)

// StatementField is one of the semantic columns the extractor needs.
type StatementField int

const (
	FieldOperationDate StatementField = iota
	FieldDocumentNumber
	FieldConcept
	FieldAmount
)

var statementFields = []StatementField{FieldOperationDate, FieldDocumentNumber, FieldConcept, FieldAmount}

func (f StatementField) String() string {
	switch f {
	case FieldOperationDate:
		return "operation date"
	case FieldDocumentNumber:
		return "document number"
	case FieldConcept:
		return "concept"
	case FieldAmount:
		return "amount"
	default:
		return "unknown"
	}
}

// StatementColumns maps every StatementField to a 1-based column number.
type StatementColumns map[StatementField]int

// LocateHeaderRow returns the first row among 1..maxRows which has a cell in the first
// maxCols columns containing marker.
func LocateHeaderRow(grid Grid, marker string, maxRows, maxCols int) (int, bool) {
	for row := 1; row <= maxRows; row++ {
		for col := 1; col <= maxCols; col++ {
			if strings.Contains(cellText(grid.Value(row, col)), marker) {
				return row, true
			}
		}
	}
	return 0, false
}

// MapColumns resolves columns by header substrings. If a marker matches more than one
// column then the last one wins. Fails with all unresolved fields listed.
func MapColumns(grid Grid, headerRow int, markers map[StatementField]string) (StatementColumns, error) {
	_, lastCol := grid.Bounds()
	columns := make(StatementColumns, len(markers))
	for col := 1; col <= lastCol; col++ {
		header := cellText(grid.Value(headerRow, col))
		if header == "" {
			continue
		}
		for field, marker := range markers {
			if strings.Contains(header, marker) {
				columns[field] = col
			}
		}
	}

	var missing []string
	for _, field := range statementFields {
		if _, ok := columns[field]; !ok {
			missing = append(missing, field.String())
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{HeaderRow: headerRow, Missing: missing}
	}
	return columns, nil
}
