package main

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds of a reconciliation run. All of them are terminal and are raised
// before any ledger cell is written.
var (
	ErrMissingInput           = errors.New("missing input")
	ErrHeaderNotFound         = errors.New("statement header not found")
	ErrRequiredColumnsMissing = errors.New("required statement columns missing")
	ErrLedgerSheetNotFound    = errors.New("ledger sheet not found")
	ErrInvalidDateFormat      = errors.New("invalid date format")
	// ErrInvalidSelector is returned for unknown currency or month.
	ErrInvalidSelector = errors.New("invalid selector")
)

// SheetNotFoundError is returned when the ledger has no sheet for the month and currency.
type SheetNotFoundError struct {
	Sheet     string
	Available []string
}

func (e *SheetNotFoundError) Error() string {
	return fmt.Sprintf("sheet '%s' not found, available sheets: %s", e.Sheet, strings.Join(e.Available, ", "))
}

func (e *SheetNotFoundError) Unwrap() error {
	return ErrLedgerSheetNotFound
}

// MissingColumnsError lists every statement field whose header wasn't found.
type MissingColumnsError struct {
	HeaderRow int
	Missing   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf(
		"%s: header row %d has no columns for %s",
		ErrRequiredColumnsMissing, e.HeaderRow, strings.Join(e.Missing, ", "),
	)
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrRequiredColumnsMissing
}
