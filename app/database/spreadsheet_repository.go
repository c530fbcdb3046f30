package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var _ SpreadsheetRepository = (*SQLSpreadsheetRepository)(nil)

type SQLSpreadsheetRepository struct {
	db *DB
}

func NewSpreadsheetRepository(db *DB) *SQLSpreadsheetRepository {
	return &SQLSpreadsheetRepository{db: db}
}

const spreadsheetColumns = `id, name, url, is_active, auto_sync, sync_interval,
       last_synced, created_at, updated_at`

func scanSpreadsheet(row interface{ Scan(...any) error }) (Spreadsheet, error) {
	var sheet Spreadsheet
	err := row.Scan(
		&sheet.ID, &sheet.Name, &sheet.URL, &sheet.IsActive, &sheet.AutoSync,
		&sheet.SyncInterval, &sheet.LastSynced, &sheet.CreatedAt, &sheet.UpdatedAt,
	)
	return sheet, err
}

func (r *SQLSpreadsheetRepository) GetSpreadsheet(id string) (*Spreadsheet, error) {
	row := r.db.QueryRow(`SELECT `+spreadsheetColumns+` FROM spreadsheets WHERE id = ?`, id)

	sheet, err := scanSpreadsheet(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	return &sheet, nil
}

func (r *SQLSpreadsheetRepository) GetSpreadsheets() ([]Spreadsheet, error) {
	rows, err := r.db.Query(`SELECT ` + spreadsheetColumns + ` FROM spreadsheets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get spreadsheets: %w", err)
	}
	defer rows.Close()

	return collectSpreadsheets(rows)
}

func (r *SQLSpreadsheetRepository) GetActiveSpreadsheets() ([]Spreadsheet, error) {
	rows, err := r.db.Query(`SELECT ` + spreadsheetColumns + ` FROM spreadsheets WHERE is_active = 1 ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to get active spreadsheets: %w", err)
	}
	defer rows.Close()

	return collectSpreadsheets(rows)
}

func collectSpreadsheets(rows *sql.Rows) ([]Spreadsheet, error) {
	var sheets []Spreadsheet
	for rows.Next() {
		sheet, err := scanSpreadsheet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spreadsheet row: %w", err)
		}
		sheets = append(sheets, sheet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spreadsheet rows: %w", err)
	}

	return sheets, nil
}

func (r *SQLSpreadsheetRepository) CreateSpreadsheet(sheet Spreadsheet) (string, error) {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	if sheet.SyncInterval <= 0 {
		sheet.SyncInterval = 60
	}
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO spreadsheets (id, name, url, is_active, auto_sync, sync_interval, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, sheet.ID, sheet.Name, sheet.URL, sheet.IsActive, sheet.AutoSync, sheet.SyncInterval, now, now)

	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}

	return sheet.ID, nil
}

// UpsertSpreadsheet inserts a spreadsheet or, when one with the same name
// exists, updates its URL and sync settings. Used for seed registration
// at startup.
func (r *SQLSpreadsheetRepository) UpsertSpreadsheet(sheet Spreadsheet) (string, error) {
	var existingID string
	err := r.db.QueryRow("SELECT id FROM spreadsheets WHERE name = ?", sheet.Name).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to check existing spreadsheet: %w", err)
	}

	if err == sql.ErrNoRows {
		return r.CreateSpreadsheet(sheet)
	}

	_, err = r.db.Exec(`
		UPDATE spreadsheets
		SET url = ?, is_active = ?, auto_sync = ?, sync_interval = ?, updated_at = ?
		WHERE id = ?
	`, sheet.URL, sheet.IsActive, sheet.AutoSync, sheet.SyncInterval, time.Now().UTC(), existingID)
	if err != nil {
		return "", fmt.Errorf("failed to update spreadsheet: %w", err)
	}

	return existingID, nil
}

func (r *SQLSpreadsheetRepository) UpdateSpreadsheet(id string, upd SpreadsheetUpdate) error {
	var assignments []string
	var args []any

	if upd.Name != nil {
		assignments = append(assignments, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.URL != nil {
		assignments = append(assignments, "url = ?")
		args = append(args, *upd.URL)
	}
	if upd.IsActive != nil {
		assignments = append(assignments, "is_active = ?")
		args = append(args, *upd.IsActive)
	}
	if upd.AutoSync != nil {
		assignments = append(assignments, "auto_sync = ?")
		args = append(args, *upd.AutoSync)
	}
	if upd.SyncInterval != nil {
		assignments = append(assignments, "sync_interval = ?")
		args = append(args, *upd.SyncInterval)
	}

	if len(assignments) == 0 {
		return nil
	}

	assignments = append(assignments, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.Exec(
		"UPDATE spreadsheets SET "+strings.Join(assignments, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update spreadsheet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("spreadsheet not found: %s", id)
	}

	return nil
}

func (r *SQLSpreadsheetRepository) UpdateLastSynced(id string, syncedAt time.Time) error {
	_, err := r.db.Exec(`
		UPDATE spreadsheets
		SET last_synced = ?, updated_at = ?
		WHERE id = ?
	`, syncedAt, time.Now().UTC(), id)

	if err != nil {
		return fmt.Errorf("failed to update last synced time: %w", err)
	}

	return nil
}

func (r *SQLSpreadsheetRepository) DeleteSpreadsheet(id string) error {
	result, err := r.db.Exec("DELETE FROM spreadsheets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete spreadsheet: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("spreadsheet not found: %s", id)
	}

	return nil
}
