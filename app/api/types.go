package api

import (
	"context"
	"io"

	"github.com/mkravets/leadsync/app/database"
	"github.com/mkravets/leadsync/app/importer"
	"github.com/mkravets/leadsync/app/tasks"
)

// ImportService is the slice of the importer the API layer depends on.
type ImportService interface {
	Sync(ctx context.Context, sheet database.Spreadsheet) importer.Result
	SyncAll(ctx context.Context) (importer.Summary, error)
	ImportUpload(filename string, file io.Reader) (importer.Result, error)
	History() []importer.Result
}

var _ ImportService = (*importer.Importer)(nil)

type Handler struct {
	leadRepo     database.LeadRepository
	activityRepo database.ActivityRepository
	sheetRepo    database.SpreadsheetRepository
	settingRepo  database.SettingRepository
	jobRepo      database.JobRepository
	importSvc    ImportService
	scheduler    tasks.TaskSchedulerInterface
}

func NewHandler(leadRepo database.LeadRepository, activityRepo database.ActivityRepository,
	sheetRepo database.SpreadsheetRepository, settingRepo database.SettingRepository,
	jobRepo database.JobRepository, importSvc ImportService,
	scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		leadRepo:     leadRepo,
		activityRepo: activityRepo,
		sheetRepo:    sheetRepo,
		settingRepo:  settingRepo,
		jobRepo:      jobRepo,
		importSvc:    importSvc,
		scheduler:    scheduler,
	}
}
