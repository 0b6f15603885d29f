package main

import (
	"time"

	"github.com/shopspring/decimal"
)

// Currency selects the ledger section (and its fixed start row) to reconcile against.
type Currency string

const (
	// CurrencyMN is the national currency section of the ledger.
	CurrencyMN Currency = "MN"
	// CurrencyME is the foreign currency section of the ledger.
	CurrencyME Currency = "ME"
)

// DocumentNumber is a transaction reference identifier in raw and normalized forms.
type DocumentNumber struct {
	// Raw is the trimmed text form as found in the source cell.
	Raw string
	// Key is Raw without leading zeros, "0" if nothing is left. Used for set membership.
	Key string
	// Value is Key parsed as integer, 0 if Key is not a number. Used for ordering.
	Value int64
	// Numeric is true if Raw consists of digits only.
	Numeric bool
}

// StatementRecord is one transaction row of the bank statement.
type StatementRecord struct {
	// Row is the 1-based row number in the statement sheet.
	Row int
	// OperationDate is a calendar date at UTC midnight, zero if the cell was empty.
	OperationDate time.Time
	// DocumentNumber of the transaction.
	DocumentNumber DocumentNumber
	// Description is the trimmed concept text.
	Description string
	// Amount is positive for inflows and negative for outflows.
	Amount decimal.Decimal
}

// ClassificationReason tells why a statement record was or wasn't added to the ledger.
type ClassificationReason int

const (
	Included ClassificationReason = iota
	ExcludedBalance
	ExcludedTax
	ExcludedCommission
	DuplicateExisting
)

func (r ClassificationReason) String() string {
	switch r {
	case Included:
		return "Included"
	case ExcludedBalance:
		return "ExcludedBalance"
	case ExcludedTax:
		return "ExcludedTax"
	case ExcludedCommission:
		return "ExcludedCommission"
	case DuplicateExisting:
		return "DuplicateExisting"
	default:
		return "Unknown"
	}
}

// translationKey returns the i18n key of the human-readable reason text.
func (r ClassificationReason) translationKey() string {
	return "reason " + r.String()
}

// ExcludedEntry is a statement record which is reported but never written to the ledger.
type ExcludedEntry struct {
	Record      StatementRecord
	Reason      ClassificationReason
	DisplayDate string
}

// StatementExtraction is the outcome of walking the statement rows.
type StatementExtraction struct {
	// Included records sorted ascending by document number value.
	Included []StatementRecord
	// Excluded contains tax and commission entries in statement order.
	Excluded []ExcludedEntry
	// TotalRecords counts every non-empty, non-balance row.
	TotalRecords int
}

// LedgerState is a read-only snapshot of one ledger section.
type LedgerState struct {
	Sheet    string
	Currency Currency
	// StartRow is the first 1-based row of the transactions block.
	StartRow int
	// InsertionRow is the first row with an empty reference-number cell.
	InsertionRow int
	// ExistingDocumentNumbers holds keys of document numbers in [StartRow, InsertionRow).
	ExistingDocumentNumbers map[string]struct{}
	// HighestDocumentNumber is the value of the last occupied row's document number.
	HighestDocumentNumber int64
}

// Contains reports whether the document number key is already recorded.
func (s *LedgerState) Contains(key string) bool {
	_, ok := s.ExistingDocumentNumbers[key]
	return ok
}

// ReconciliationResult is the outcome of one reconciliation run.
type ReconciliationResult struct {
	// NewRecords are appended to the ledger, ascending by document number value.
	NewRecords []StatementRecord
	// NotAdded holds duplicates followed by tax and commission entries.
	NotAdded []ExcludedEntry
	// TotalStatementRecords counts all non-balance statement rows.
	TotalStatementRecords int
	// Ledger is the state the records were reconciled against.
	Ledger *LedgerState
}
