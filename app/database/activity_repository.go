package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ ActivityRepository = (*SQLActivityRepository)(nil)

type SQLActivityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) *SQLActivityRepository {
	return &SQLActivityRepository{db: db}
}

func (r *SQLActivityRepository) GetActivities(leadID string) ([]Activity, error) {
	rows, err := r.db.Query(`
		SELECT id, lead_id, type, note, created_at
		FROM activities
		WHERE lead_id = ?
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func (r *SQLActivityRepository) GetRecentActivities(limit int) ([]Activity, error) {
	rows, err := r.db.Query(`
		SELECT id, lead_id, type, note, created_at
		FROM activities
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}
	defer rows.Close()

	return collectActivities(rows)
}

func collectActivities(rows *sql.Rows) ([]Activity, error) {
	var activities []Activity
	for rows.Next() {
		var activity Activity
		err := rows.Scan(&activity.ID, &activity.LeadID, &activity.Type, &activity.Note, &activity.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}

	return activities, nil
}

func (r *SQLActivityRepository) CreateActivity(activity Activity) (string, error) {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.Type == "" {
		activity.Type = "note"
	}

	_, err := r.db.Exec(`
		INSERT INTO activities (id, lead_id, type, note, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, activity.ID, activity.LeadID, activity.Type, activity.Note, time.Now().UTC())

	if err != nil {
		return "", fmt.Errorf("failed to create activity: %w", err)
	}

	return activity.ID, nil
}
