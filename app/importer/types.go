package importer

import (
	"fmt"
	"time"
)

// Row is one normalized spreadsheet row, consumed immediately by the
// orchestrator and never persisted.
type Row struct {
	Name    string
	Email   string
	Phone   string
	Country string
	Message string
	Source  string
	Plan    string
}

// RowError reports a data row that could not be turned into a Row.
type RowError struct {
	Index  int // spreadsheet row number, header included
	Reason string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

type Status string

const (
	StatusSuccess       Status = "success"
	StatusPartial       Status = "partial"
	StatusAllDuplicates Status = "all_duplicates"
	StatusError         Status = "error"
	StatusNoData        Status = "no_data"
	StatusSkipped       Status = "skipped"
)

// MaxRunErrors caps the error log carried by a single import result.
const MaxRunErrors = 10

type Result struct {
	RunID           string
	SpreadsheetID   string
	SpreadsheetName string
	Success         int
	Failed          int
	Duplicates      int
	Errors          []string
	Status          Status
	Timestamp       time.Time
}

func (r *Result) appendError(msg string) {
	if len(r.Errors) < MaxRunErrors {
		r.Errors = append(r.Errors, msg)
	}
}

// Summary aggregates per-spreadsheet results of one sync-all run.
type Summary struct {
	Sheets     int
	Success    int
	Failed     int
	Duplicates int
	Results    []Result
}
