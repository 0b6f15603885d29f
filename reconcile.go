package main

import (
	"context"
)

// Reconcile splits included statement records into new ones and duplicates.
// A record is new only if its document number isn't in the ledger and is greater
// than the highest ledger document number. Records which are neither duplicates nor
// new are dropped without being reported.
func Reconcile(ctx context.Context, extraction *StatementExtraction, state *LedgerState) *ReconciliationResult {
	log := LoggerFromContext(ctx)
	result := &ReconciliationResult{
		TotalStatementRecords: extraction.TotalRecords,
		Ledger:                state,
	}
	var duplicates []ExcludedEntry
	for _, record := range extraction.Included {
		switch {
		case state.Contains(record.DocumentNumber.Key):
			log.Debug().
				Str("documentNumber", record.DocumentNumber.Raw).
				Int("row", record.Row).
				Msg("already registered")
			duplicates = append(duplicates, newExcludedEntry(record, DuplicateExisting))
		case record.DocumentNumber.Value > state.HighestDocumentNumber:
			result.NewRecords = append(result.NewRecords, record)
		default:
			log.Debug().
				Str("documentNumber", record.DocumentNumber.Raw).
				Int("row", record.Row).
				Int64("highest", state.HighestDocumentNumber).
				Msg("not greater than highest ledger document number, skipped")
		}
	}
	result.NotAdded = append(duplicates, extraction.Excluded...)
	return result
}
