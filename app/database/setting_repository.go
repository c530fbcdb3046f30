package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Default enumerations returned when a setting row is absent. The admin UI can
// overwrite them at any time; missing keys never surface as errors.
var defaultSettings = map[string][]string{
	"lead_statuses": {"new", "contacted", "qualified", "proposal", "won", "lost"},
	"lead_sources":  {"website", "referral", "spreadsheet", "social", "other"},
	"plans":         {"starter", "standard", "premium"},
}

var _ SettingRepository = (*SQLSettingRepository)(nil)

type SQLSettingRepository struct {
	db *DB
}

func NewSettingRepository(db *DB) *SQLSettingRepository {
	return &SQLSettingRepository{db: db}
}

func (r *SQLSettingRepository) GetSetting(key string) ([]string, error) {
	var raw string
	err := r.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&raw)
	if err == sql.ErrNoRows {
		if defaults, ok := defaultSettings[key]; ok {
			return defaults, nil
		}
		return nil, fmt.Errorf("unknown setting: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting: %w", err)
	}

	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("failed to decode setting %s: %w", key, err)
	}

	return values, nil
}

func (r *SQLSettingRepository) SetSetting(key string, values []string) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode setting %s: %w", key, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(raw), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to set setting: %w", err)
	}

	return nil
}
