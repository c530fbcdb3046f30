package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ JobRepository = (*SQLJobRepository)(nil)

type SQLJobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) *SQLJobRepository {
	return &SQLJobRepository{db: db}
}

const jobColumns = `id, title, department, location, employment_type, description, status, created_at, updated_at`

func scanJob(row interface{ Scan(...any) error }) (JobPosting, error) {
	var job JobPosting
	err := row.Scan(
		&job.ID, &job.Title, &job.Department, &job.Location, &job.EmploymentType,
		&job.Description, &job.Status, &job.CreatedAt, &job.UpdatedAt,
	)
	return job, err
}

func (r *SQLJobRepository) GetJob(id string) (*JobPosting, error) {
	row := r.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

func (r *SQLJobRepository) GetJobs() ([]JobPosting, error) {
	rows, err := r.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobPosting
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

func (r *SQLJobRepository) CreateJob(job JobPosting) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = "open"
	}
	if job.EmploymentType == "" {
		job.EmploymentType = "full_time"
	}
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO jobs (id, title, department, location, employment_type, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Title, job.Department, job.Location, job.EmploymentType,
		job.Description, job.Status, now, now)

	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	return job.ID, nil
}

func (r *SQLJobRepository) UpdateJob(id string, job JobPosting) error {
	result, err := r.db.Exec(`
		UPDATE jobs
		SET title = ?, department = ?, location = ?, employment_type = ?,
		    description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`, job.Title, job.Department, job.Location, job.EmploymentType,
		job.Description, job.Status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

func (r *SQLJobRepository) DeleteJob(id string) error {
	result, err := r.db.Exec("DELETE FROM jobs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job not found: %s", id)
	}

	return nil
}

func (r *SQLJobRepository) GetApplications(jobID string) ([]Application, error) {
	rows, err := r.db.Query(`
		SELECT id, job_id, name, email, phone, resume_url, status, created_at
		FROM applications
		WHERE job_id = ?
		ORDER BY created_at DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get applications: %w", err)
	}
	defer rows.Close()

	var apps []Application
	for rows.Next() {
		var app Application
		err := rows.Scan(&app.ID, &app.JobID, &app.Name, &app.Email, &app.Phone,
			&app.ResumeURL, &app.Status, &app.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application row: %w", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating application rows: %w", err)
	}

	return apps, nil
}

func (r *SQLJobRepository) CreateApplication(app Application) (string, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.Status == "" {
		app.Status = "received"
	}

	_, err := r.db.Exec(`
		INSERT INTO applications (id, job_id, name, email, phone, resume_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, app.ID, app.JobID, app.Name, app.Email, app.Phone, app.ResumeURL, app.Status, time.Now().UTC())

	if err != nil {
		return "", fmt.Errorf("failed to create application: %w", err)
	}

	return app.ID, nil
}

func (r *SQLJobRepository) UpdateApplication(id string, upd ApplicationUpdate) error {
	if upd.Status == nil {
		return nil
	}

	result, err := r.db.Exec("UPDATE applications SET status = ? WHERE id = ?", *upd.Status, id)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("application not found: %s", id)
	}

	return nil
}
