package main

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func testRecord(document, description, amount string) StatementRecord {
	return StatementRecord{
		DocumentNumber: NormalizeDocumentNumber(document),
		Description:    description,
		Amount:         decimal.RequireFromString(amount),
	}
}

func testLedgerState(highest int64, keys ...string) *LedgerState {
	state := &LedgerState{
		Sheet:                   "OCTUBRE MN",
		Currency:                CurrencyMN,
		StartRow:                33,
		InsertionRow:            33 + len(keys),
		ExistingDocumentNumbers: make(map[string]struct{}),
		HighestDocumentNumber:   highest,
	}
	for _, key := range keys {
		state.ExistingDocumentNumbers[key] = struct{}{}
	}
	return state
}

func TestReconcile(t *testing.T) {
	commission := newExcludedEntry(testRecord("00123", "COMIS MANEJO", "-15.50"), ExcludedCommission)
	tax := newExcludedEntry(testRecord("00124", "ITF", "-0.05"), ExcludedTax)

	tests := []struct {
		name             string
		included         []StatementRecord
		excluded         []ExcludedEntry
		state            *LedgerState
		expectedNew      []string
		expectedNotAdded []string
	}{
		{
			name:        "greater_than_highest_is_new",
			included:    []StatementRecord{testRecord("00500", "TRANSFERENCIA", "1200.00")},
			state:       testLedgerState(400, "398", "399", "400"),
			expectedNew: []string{"00500"},
		},
		{
			name:     "not_greater_and_absent_is_dropped",
			included: []StatementRecord{testRecord("350", "PAGO", "-10")},
			state:    testLedgerState(400, "398", "399", "400"),
		},
		{
			name:             "present_is_duplicate",
			included:         []StatementRecord{testRecord("500", "TRANSFERENCIA", "1200.00")},
			state:            testLedgerState(500, "499", "500"),
			expectedNotAdded: []string{"500"},
		},
		{
			name:             "duplicate_by_normalized_key",
			included:         []StatementRecord{testRecord("000500", "TRANSFERENCIA", "1200.00")},
			state:            testLedgerState(300, "500"),
			expectedNotAdded: []string{"000500"},
		},
		{
			name: "duplicates_before_excluded",
			included: []StatementRecord{
				testRecord("350", "PAGO", "-10"),
				testRecord("398", "PAGO", "-10"),
				testRecord("401", "ABONO", "10"),
				testRecord("402", "ABONO", "20"),
			},
			excluded:         []ExcludedEntry{commission, tax},
			state:            testLedgerState(400, "398", "399", "400"),
			expectedNew:      []string{"401", "402"},
			expectedNotAdded: []string{"398", "00123", "00124"},
		},
		{
			name:        "empty_ledger",
			included:    []StatementRecord{testRecord("1", "A", "1"), testRecord("2", "B", "2")},
			state:       testLedgerState(0),
			expectedNew: []string{"1", "2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extraction := &StatementExtraction{
				Included:     tt.included,
				Excluded:     tt.excluded,
				TotalRecords: len(tt.included) + len(tt.excluded),
			}

			result := Reconcile(context.Background(), extraction, tt.state)

			var actualNew, actualNotAdded []string
			for _, r := range result.NewRecords {
				actualNew = append(actualNew, r.DocumentNumber.Raw)
			}
			for _, e := range result.NotAdded {
				actualNotAdded = append(actualNotAdded, e.Record.DocumentNumber.Raw)
			}
			if diff := cmp.Diff(tt.expectedNew, actualNew); diff != "" {
				t.Errorf("NewRecords mismatch (-expected +actual):\n%s", diff)
			}
			if diff := cmp.Diff(tt.expectedNotAdded, actualNotAdded); diff != "" {
				t.Errorf("NotAdded mismatch (-expected +actual):\n%s", diff)
			}
			if result.TotalStatementRecords != extraction.TotalRecords {
				t.Errorf("TotalStatementRecords = %d, expected %d", result.TotalStatementRecords, extraction.TotalRecords)
			}
			if result.Ledger != tt.state {
				t.Errorf("Ledger state is not attached")
			}

			isSorted := sort.SliceIsSorted(result.NewRecords, func(i, j int) bool {
				return result.NewRecords[i].DocumentNumber.Value < result.NewRecords[j].DocumentNumber.Value
			})
			if !isSorted {
				t.Errorf("NewRecords are not sorted: %v", actualNew)
			}
			for _, r := range result.NewRecords {
				if r.DocumentNumber.Value <= tt.state.HighestDocumentNumber {
					t.Errorf("new record %s is not greater than highest %d", r.DocumentNumber.Raw, tt.state.HighestDocumentNumber)
				}
			}
		})
	}
}

func TestReconcile_DuplicateReason(t *testing.T) {
	extraction := &StatementExtraction{
		Included:     []StatementRecord{testRecord("500", "TRANSFERENCIA", "1200.00")},
		TotalRecords: 1,
	}
	result := Reconcile(context.Background(), extraction, testLedgerState(500, "500"))

	if len(result.NotAdded) != 1 {
		t.Fatalf("expected exactly one not added entry, got %+v", result.NotAdded)
	}
	if result.NotAdded[0].Reason != DuplicateExisting {
		t.Errorf("Reason = %s, expected DuplicateExisting", result.NotAdded[0].Reason)
	}
	if len(result.NewRecords) != 0 {
		t.Errorf("expected no new records, got %+v", result.NewRecords)
	}
}
