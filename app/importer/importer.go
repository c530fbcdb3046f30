package importer

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mkravets/leadsync/app/database"
)

// Importer drives one spreadsheet (or all active spreadsheets) through
// fetch -> parse -> dedupe -> create. Rows are processed strictly
// sequentially so the dedupe index never sees concurrent writers.
type Importer struct {
	leadRepo   database.LeadRepository
	sheetRepo  database.SpreadsheetRepository
	httpClient *http.Client
	csvParser  *CSVParser
	normalizer *Normalizer
	history    *History
	userAgent  string

	mu       sync.Mutex
	inflight map[string]bool
}

func NewImporter(leadRepo database.LeadRepository, sheetRepo database.SpreadsheetRepository,
	httpClient *http.Client, userAgent string) *Importer {
	return &Importer{
		leadRepo:   leadRepo,
		sheetRepo:  sheetRepo,
		httpClient: httpClient,
		csvParser:  NewCSVParser(),
		normalizer: NewNormalizer(),
		history:    NewHistory(),
		userAgent:  userAgent,
		inflight:   make(map[string]bool),
	}
}

func (im *Importer) History() []Result {
	return im.history.List()
}

// Sync imports a single spreadsheet against a dedupe index built fresh from
// the lead store.
func (im *Importer) Sync(ctx context.Context, sheet database.Spreadsheet) Result {
	index, err := im.buildIndex()
	if err != nil {
		result := im.newResult(sheet)
		result.Status = StatusError
		result.appendError(fmt.Sprintf("failed to load existing leads: %v", err))
		im.history.Add(result)
		return result
	}

	return im.syncWithIndex(ctx, sheet, index)
}

// SyncAll imports every active spreadsheet sequentially, sharing one dedupe
// index across sheets so a lead imported from sheet A is never re-imported
// from sheet B in the same run.
func (im *Importer) SyncAll(ctx context.Context) (Summary, error) {
	sheets, err := im.sheetRepo.GetActiveSpreadsheets()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list active spreadsheets: %w", err)
	}

	index, err := im.buildIndex()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to load existing leads: %w", err)
	}

	summary := Summary{Sheets: len(sheets)}
	for _, sheet := range sheets {
		result := im.syncWithIndex(ctx, sheet, index)
		summary.Success += result.Success
		summary.Failed += result.Failed
		summary.Duplicates += result.Duplicates
		summary.Results = append(summary.Results, result)
	}

	return summary, nil
}

// ImportUpload runs an uploaded CSV or XLSX file through the same
// normalize/dedupe/create pipeline as a published sheet.
func (im *Importer) ImportUpload(filename string, file io.Reader) (Result, error) {
	var records [][]string
	var err error

	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		records, err = ParseXLSX(file)
		if err != nil {
			return Result{}, fmt.Errorf("failed to parse workbook: %w", err)
		}
	} else {
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return Result{}, fmt.Errorf("failed to read upload: %w", readErr)
		}
		records = im.csvParser.Run(string(data))
	}

	index, err := im.buildIndex()
	if err != nil {
		return Result{}, fmt.Errorf("failed to load existing leads: %w", err)
	}

	result := Result{
		RunID:           uuid.NewString(),
		SpreadsheetID:   "upload",
		SpreadsheetName: filename,
		Timestamp:       time.Now().UTC(),
	}
	im.importRecords(records, index, &result)
	im.history.Add(result)

	slog.Info("Upload import completed", "file", filename, "status", string(result.Status),
		"success", result.Success, "duplicates", result.Duplicates, "failed", result.Failed)

	return result, nil
}

func (im *Importer) buildIndex() (*LeadIndex, error) {
	leads, err := im.leadRepo.GetAllLeads()
	if err != nil {
		return nil, err
	}
	return BuildLeadIndex(leads), nil
}

func (im *Importer) newResult(sheet database.Spreadsheet) Result {
	return Result{
		RunID:           uuid.NewString(),
		SpreadsheetID:   sheet.ID,
		SpreadsheetName: sheet.Name,
		Timestamp:       time.Now().UTC(),
	}
}

func (im *Importer) syncWithIndex(ctx context.Context, sheet database.Spreadsheet, index *LeadIndex) Result {
	if !im.begin(sheet.ID) {
		slog.Warn("Import already running, skipping", "sheet", sheet.Name)
		result := im.newResult(sheet)
		result.Status = StatusSkipped
		return result
	}
	defer im.end(sheet.ID)

	result := im.newResult(sheet)

	csvURL, err := ResolveCSVURL(sheet.URL)
	if err != nil {
		result.Status = StatusError
		result.appendError(err.Error())
		im.finishRun(sheet, &result)
		return result
	}

	data, err := im.fetch(ctx, csvURL)
	if err != nil {
		result.Status = StatusError
		result.appendError(fmt.Sprintf("failed to fetch sheet: %v", err))
		im.finishRun(sheet, &result)
		return result
	}

	records := im.csvParser.Run(string(data))
	im.importRecords(records, index, &result)
	im.finishRun(sheet, &result)

	return result
}

// importRecords runs one batch of records through normalize, dedupe and
// create, mutating the shared index as leads land in the store.
func (im *Importer) importRecords(records [][]string, index *LeadIndex, result *Result) {
	if len(records) < 2 {
		result.Status = StatusNoData
		return
	}

	rows, rowErrs := im.normalizer.Run(records)
	for _, rowErr := range rowErrs {
		result.Failed++
		result.appendError(rowErr.Error())
	}

	for _, row := range DedupeRows(rows) {
		if index.HasEmail(row.Email) {
			result.Duplicates++
			continue
		}
		if row.Phone != "" && index.HasPhone(row.Phone) {
			result.Duplicates++
			continue
		}

		_, err := im.leadRepo.CreateLead(database.Lead{
			Name:    row.Name,
			Email:   row.Email,
			Phone:   row.Phone,
			Country: row.Country,
			Message: row.Message,
			Source:  cmp.Or(row.Source, "spreadsheet"),
			Plan:    row.Plan,
			Status:  "new",
		})
		if err != nil {
			// Store-side uniqueness can reject rows the index pre-check
			// did not see.
			if isDuplicateError(err) {
				result.Duplicates++
			} else {
				result.Failed++
				result.appendError(fmt.Sprintf("%s: %v", row.Email, err))
			}
			continue
		}

		result.Success++
		index.Add(row.Email, row.Phone)
	}

	result.Status = classify(result)
}

// finishRun persists last_synced best-effort and records the result.
func (im *Importer) finishRun(sheet database.Spreadsheet, result *Result) {
	if err := im.sheetRepo.UpdateLastSynced(sheet.ID, result.Timestamp); err != nil {
		slog.Warn("Failed to update last synced time", "sheet", sheet.Name, "error", err)
	}

	im.history.Add(*result)

	logger := slog.Info
	if result.Status == StatusError {
		logger = slog.Error
	}
	logger("Import completed", "sheet", sheet.Name, "status", string(result.Status),
		"success", result.Success, "duplicates", result.Duplicates, "failed", result.Failed)
}

func (im *Importer) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", im.userAgent)

	resp, err := im.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch CSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (im *Importer) begin(sheetID string) bool {
	im.mu.Lock()
	defer im.mu.Unlock()

	if im.inflight[sheetID] {
		return false
	}
	im.inflight[sheetID] = true
	return true
}

func (im *Importer) end(sheetID string) {
	im.mu.Lock()
	defer im.mu.Unlock()
	delete(im.inflight, sheetID)
}

func isDuplicateError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")
}

func classify(result *Result) Status {
	switch {
	case result.Success == 0 && result.Failed == 0 && result.Duplicates == 0:
		return StatusNoData
	case result.Failed == 0 && result.Duplicates == 0:
		return StatusSuccess
	case result.Success == 0 && result.Failed == 0:
		return StatusAllDuplicates
	case result.Success > 0:
		return StatusPartial
	default:
		return StatusError
	}
}
