package main

import (
	"fmt"
	"io"
)

// NotAddedDetail is a not added record as shown to users.
type NotAddedDetail struct {
	Date           string `json:"date"`
	DocumentNumber string `json:"documentNumber"`
	Description    string `json:"description"`
	Amount         string `json:"amount"`
	Reason         string `json:"reason"`
}

// ReconcileResponse is the summary of a run returned by the HTTP service.
type ReconcileResponse struct {
	Success               bool             `json:"success"`
	TotalStatementRecords int              `json:"totalStatementRecords"`
	Added                 int              `json:"added"`
	NotAdded              int              `json:"notAdded"`
	NotAddedDetails       []NotAddedDetail `json:"notAddedDetails"`
	Message               string           `json:"message"`
	// File is base64 encoded updated ledger, only if something was added.
	File     string `json:"file,omitempty"`
	FileName string `json:"fileName,omitempty"`
}

// ErrorResponse is returned by the HTTP service on failed runs.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewReconcileResponse builds localized summary of the result without the file.
func NewReconcileResponse(result *ReconciliationResult, translator *I18n) *ReconcileResponse {
	details := make([]NotAddedDetail, 0, len(result.NotAdded))
	for _, entry := range result.NotAdded {
		details = append(details, NotAddedDetail{
			Date:           entry.DisplayDate,
			DocumentNumber: entry.Record.DocumentNumber.Raw,
			Description:    entry.Record.Description,
			Amount:         entry.Record.Amount.StringFixed(2),
			Reason:         translator.T(entry.Reason.translationKey()),
		})
	}
	return &ReconcileResponse{
		Success:               true,
		TotalStatementRecords: result.TotalStatementRecords,
		Added:                 len(result.NewRecords),
		NotAdded:              len(result.NotAdded),
		NotAddedDetails:       details,
		Message:               SummaryMessage(result, translator),
	}
}

// SummaryMessage returns "N record(s) added" or "nothing to add" message.
func SummaryMessage(result *ReconciliationResult, translator *I18n) string {
	if len(result.NewRecords) == 0 {
		return translator.T("No new records to add")
	}
	return translator.T("n records added", "n", len(result.NewRecords))
}

// DumpReport writes human-readable report of the run.
func DumpReport(result *ReconciliationResult, writer io.Writer, translator *I18n) {
	fmt.Fprintln(writer, translator.T("Statement has n records", "n", result.TotalStatementRecords))
	if ledger := result.Ledger; ledger != nil {
		fmt.Fprintln(writer, translator.T("Ledger sheet s has transactions in rows start..end, highest document number h",
			"s", ledger.Sheet,
			"start", ledger.StartRow,
			"end", ledger.InsertionRow-1,
			"h", ledger.HighestDocumentNumber,
		))
	}

	fmt.Fprintln(writer, translator.T("Added n", "n", len(result.NewRecords)))
	for _, record := range result.NewRecords {
		fmt.Fprintln(writer, translator.T("added record",
			"date", FormatDisplayDate(record.OperationDate),
			"document", record.DocumentNumber.Raw,
			"description", record.Description,
			"amount", record.Amount,
		))
	}

	fmt.Fprintln(writer, translator.T("Not added n", "n", len(result.NotAdded)))
	for _, entry := range result.NotAdded {
		fmt.Fprintln(writer, translator.T("not added record",
			"date", entry.DisplayDate,
			"document", entry.Record.DocumentNumber.Raw,
			"description", entry.Record.Description,
			"amount", entry.Record.Amount,
			"reason", translator.T(entry.Reason.translationKey()),
		))
	}
	fmt.Fprintln(writer, SummaryMessage(result, translator))
}
