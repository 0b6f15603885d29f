package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Engine reconciles bank statements against ledger sheets. It keeps no state between
// runs, a ledger must not be shared by concurrent runs.
type Engine struct {
	cfg *Config
	loc *time.Location
}

func NewEngine(cfg *Config) *Engine {
	return &Engine{cfg: cfg, loc: cfg.Location()}
}

// Run extracts statement records, reconciles them against the "<month> <currency>"
// ledger sheet and appends new records into the ledger. All checks and reads happen
// before the first write, so on error the ledger is left untouched.
func (e *Engine) Run(ctx context.Context, statement Grid, ledger *Ledger, currency Currency, month string) (*ReconciliationResult, error) {
	if statement == nil {
		return nil, fmt.Errorf("%w: statement is not provided", ErrMissingInput)
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger is not provided", ErrMissingInput)
	}
	if currency == "" || month == "" {
		return nil, fmt.Errorf("%w: currency and month are required", ErrMissingInput)
	}

	log := LoggerFromContext(ctx).With().
		Str("runID", uuid.NewString()).
		Str("currency", string(currency)).
		Str("month", month).
		Logger()
	ctx = WithLogger(ctx, log)

	extraction, err := ExtractStatement(statement, &e.cfg.Statement, e.loc)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("total", extraction.TotalRecords).
		Int("included", len(extraction.Included)).
		Int("excluded", len(extraction.Excluded)).
		Msg("statement parsed")

	sheet, err := ledger.FindSheet(month, currency)
	if err != nil {
		return nil, err
	}
	state, err := ledger.Scan(sheet, currency)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("sheet", sheet).
		Int("insertionRow", state.InsertionRow).
		Int("existing", len(state.ExistingDocumentNumbers)).
		Int64("highest", state.HighestDocumentNumber).
		Msg("ledger scanned")

	result := Reconcile(ctx, extraction, state)
	if len(result.NewRecords) > 0 {
		if err := ledger.Append(state, result.NewRecords); err != nil {
			return nil, fmt.Errorf("failed to update '%s' sheet: %w", sheet, err)
		}
	}
	log.Info().
		Int("added", len(result.NewRecords)).
		Int("notAdded", len(result.NotAdded)).
		Msg("reconciliation done")
	return result, nil
}

// ResultFileName returns name of the updated ledger file for the given run date.
func ResultFileName(month string, currency Currency, now time.Time) string {
	return fmt.Sprintf("Cajas_Bancos_%s_%s_%s.xlsx", month, currency, now.Format("2006-01-02"))
}
