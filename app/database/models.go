package database

import (
	"time"
)

type Lead struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Mobile    string // legacy phone column kept for imported records
	Country   string
	Company   string
	Message   string
	Source    string
	Plan      string
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Activity struct {
	ID        string
	LeadID    string
	Type      string
	Note      string
	CreatedAt time.Time
}

type Spreadsheet struct {
	ID           string
	Name         string
	URL          string
	IsActive     bool
	AutoSync     bool
	SyncInterval int // minutes
	LastSynced   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type JobPosting struct {
	ID             string
	Title          string
	Department     string
	Location       string
	EmploymentType string
	Description    string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Application struct {
	ID        string
	JobID     string
	Name      string
	Email     string
	Phone     string
	ResumeURL string
	Status    string
	CreatedAt time.Time
}
