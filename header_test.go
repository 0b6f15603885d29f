package main

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocateHeaderRow(t *testing.T) {
	tests := []struct {
		name        string
		grid        mapGrid
		maxRows     int
		maxCols     int
		expectedRow int
		expectedOk  bool
	}{
		{"found", newStatementGrid(), 50, 5, statementHeaderRow, true},
		{"first_match_wins", append(newStatementGrid(), []any{"F. Operación"}), 50, 5, statementHeaderRow, true},
		{"in_later_column", mapGrid{{}, {nil, nil, "F. Operación"}}, 50, 5, 2, true},
		{"beyond_columns", mapGrid{{nil, nil, nil, nil, nil, "F. Operación"}}, 50, 5, 0, false},
		{"beyond_rows", newStatementGrid(), 2, 5, 0, false},
		{"empty", mapGrid{}, 50, 5, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, ok := LocateHeaderRow(tt.grid, "F. Operaci", tt.maxRows, tt.maxCols)
			if row != tt.expectedRow || ok != tt.expectedOk {
				t.Errorf("LocateHeaderRow() = %d, %t, expected %d, %t", row, ok, tt.expectedRow, tt.expectedOk)
			}
		})
	}
}

func TestMapColumns(t *testing.T) {
	markers := defaultConfig().Statement.columnMarkers()

	t.Run("all_found", func(t *testing.T) {
		columns, err := MapColumns(newStatementGrid(), statementHeaderRow, markers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := StatementColumns{
			FieldOperationDate:  1,
			FieldConcept:        3,
			FieldDocumentNumber: 4,
			FieldAmount:         5,
		}
		if diff := cmp.Diff(expected, columns); diff != "" {
			t.Errorf("MapColumns() mismatch (-expected +actual):\n%s", diff)
		}
	})

	t.Run("last_match_wins", func(t *testing.T) {
		grid := mapGrid{{"F. Operación", "Doc. Origen", "Concepto", "Nº. Doc.", "Importe"}}
		columns, err := MapColumns(grid, 1, markers)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if columns[FieldDocumentNumber] != 4 {
			t.Errorf("expected document number in 4 column, got %d", columns[FieldDocumentNumber])
		}
	})

	t.Run("missing", func(t *testing.T) {
		grid := mapGrid{{"F. Operación", "Concepto", "Saldo"}}
		_, err := MapColumns(grid, 1, markers)
		if !errors.Is(err, ErrRequiredColumnsMissing) {
			t.Fatalf("expected ErrRequiredColumnsMissing, got %v", err)
		}
		var missingErr *MissingColumnsError
		if !errors.As(err, &missingErr) {
			t.Fatalf("expected MissingColumnsError, got %T", err)
		}
		if diff := cmp.Diff([]string{"document number", "amount"}, missingErr.Missing); diff != "" {
			t.Errorf("Missing mismatch (-expected +actual):\n%s", diff)
		}
		checkErrorContainsSubstring(t, err, "document number, amount")
	})
}
