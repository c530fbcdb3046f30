package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when a lead violates the unique email constraint.
// The message intentionally contains "already exists" so callers inspecting
// store error text classify it as a duplicate.
var ErrDuplicate = errors.New("lead already exists")

var _ LeadRepository = (*SQLLeadRepository)(nil)

type SQLLeadRepository struct {
	db *DB
}

func NewLeadRepository(db *DB) *SQLLeadRepository {
	return &SQLLeadRepository{db: db}
}

const leadColumns = `id, name, email, phone, mobile, country, company, message,
       source, plan, status, notes, created_at, updated_at`

func scanLead(row interface{ Scan(...any) error }) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Mobile,
		&lead.Country, &lead.Company, &lead.Message, &lead.Source, &lead.Plan,
		&lead.Status, &lead.Notes, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

func (r *SQLLeadRepository) GetLead(id string) (*Lead, error) {
	row := r.db.QueryRow(`SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)

	lead, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	return &lead, nil
}

func (r *SQLLeadRepository) GetLeads(filter LeadFilter) ([]Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads`
	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(name LIKE ? OR email LIKE ? OR company LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

func (r *SQLLeadRepository) GetAllLeads() ([]Lead, error) {
	rows, err := r.db.Query(`SELECT ` + leadColumns + ` FROM leads`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

func collectLeads(rows *sql.Rows) ([]Lead, error) {
	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lead rows: %w", err)
	}

	return leads, nil
}

func (r *SQLLeadRepository) GetLeadCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM leads").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get lead count: %w", err)
	}
	return count, nil
}

func (r *SQLLeadRepository) GetLeadStats() (*LeadStats, error) {
	stats := &LeadStats{
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}

	if err := r.db.QueryRow("SELECT COUNT(*) FROM leads").Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to get total lead count: %w", err)
	}

	rows, err := r.db.Query("SELECT status, COUNT(*) FROM leads GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	sourceRows, err := r.db.Query("SELECT source, COUNT(*) FROM leads WHERE source != '' GROUP BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to get source counts: %w", err)
	}
	defer sourceRows.Close()
	for sourceRows.Next() {
		var source string
		var count int
		if err := sourceRows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		stats.BySource[source] = count
	}
	if err := sourceRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source counts: %w", err)
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30)
	err = r.db.QueryRow("SELECT COUNT(*) FROM leads WHERE created_at >= ?", cutoff).Scan(&stats.CreatedLast30Days)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent lead count: %w", err)
	}

	return stats, nil
}

func (r *SQLLeadRepository) CreateLead(lead Lead) (string, error) {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO leads (id, name, email, phone, mobile, country, company,
		                   message, source, plan, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, lead.ID, lead.Name, lead.Email, lead.Phone, lead.Mobile, lead.Country,
		lead.Company, lead.Message, lead.Source, lead.Plan, lead.Status, lead.Notes,
		now, now)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("%w: %s", ErrDuplicate, lead.Email)
		}
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	return lead.ID, nil
}

func (r *SQLLeadRepository) UpdateLead(id string, upd LeadUpdate) error {
	var assignments []string
	var args []any

	set := func(column string, value *string) {
		if value != nil {
			assignments = append(assignments, column+" = ?")
			args = append(args, *value)
		}
	}

	set("name", upd.Name)
	set("email", upd.Email)
	set("phone", upd.Phone)
	set("mobile", upd.Mobile)
	set("country", upd.Country)
	set("company", upd.Company)
	set("message", upd.Message)
	set("source", upd.Source)
	set("plan", upd.Plan)
	set("status", upd.Status)
	set("notes", upd.Notes)

	if len(assignments) == 0 {
		return nil
	}

	assignments = append(assignments, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	result, err := r.db.Exec(
		"UPDATE leads SET "+strings.Join(assignments, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: email taken by another lead", ErrDuplicate)
		}
		return fmt.Errorf("failed to update lead: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lead not found: %s", id)
	}

	return nil
}

func (r *SQLLeadRepository) DeleteLead(id string) error {
	result, err := r.db.Exec("DELETE FROM leads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("lead not found: %s", id)
	}

	return nil
}
