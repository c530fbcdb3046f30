package database

import (
	"time"
)

type LeadFilter struct {
	Status string
	Source string
	Search string
	Limit  int
	Offset int
}

// LeadUpdate carries partial updates; nil fields are left untouched.
type LeadUpdate struct {
	Name    *string
	Email   *string
	Phone   *string
	Mobile  *string
	Country *string
	Company *string
	Message *string
	Source  *string
	Plan    *string
	Status  *string
	Notes   *string
}

type LeadStats struct {
	Total             int
	ByStatus          map[string]int
	BySource          map[string]int
	CreatedLast30Days int
}

type LeadRepository interface {
	GetLead(id string) (*Lead, error)
	GetLeads(filter LeadFilter) ([]Lead, error)
	GetAllLeads() ([]Lead, error)
	GetLeadCount() (int, error)
	GetLeadStats() (*LeadStats, error)

	CreateLead(lead Lead) (string, error)
	UpdateLead(id string, upd LeadUpdate) error
	DeleteLead(id string) error
}

// SpreadsheetUpdate carries partial updates; nil fields are left untouched.
type SpreadsheetUpdate struct {
	Name         *string
	URL          *string
	IsActive     *bool
	AutoSync     *bool
	SyncInterval *int
}

type SpreadsheetRepository interface {
	GetSpreadsheet(id string) (*Spreadsheet, error)
	GetSpreadsheets() ([]Spreadsheet, error)
	GetActiveSpreadsheets() ([]Spreadsheet, error)

	CreateSpreadsheet(sheet Spreadsheet) (string, error)
	UpsertSpreadsheet(sheet Spreadsheet) (string, error)
	UpdateSpreadsheet(id string, upd SpreadsheetUpdate) error
	UpdateLastSynced(id string, syncedAt time.Time) error
	DeleteSpreadsheet(id string) error
}

type ActivityRepository interface {
	GetActivities(leadID string) ([]Activity, error)
	GetRecentActivities(limit int) ([]Activity, error)

	CreateActivity(activity Activity) (string, error)
}

type SettingRepository interface {
	GetSetting(key string) ([]string, error)
	SetSetting(key string, values []string) error
}

// ApplicationUpdate carries partial updates; nil fields are left untouched.
type ApplicationUpdate struct {
	Status *string
}

type JobRepository interface {
	GetJob(id string) (*JobPosting, error)
	GetJobs() ([]JobPosting, error)

	CreateJob(job JobPosting) (string, error)
	UpdateJob(id string, job JobPosting) error
	DeleteJob(id string) error

	GetApplications(jobID string) ([]Application, error)
	CreateApplication(app Application) (string, error)
	UpdateApplication(id string, upd ApplicationUpdate) error
}
