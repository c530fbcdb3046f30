package tasks

import (
	"context"

	"github.com/mkravets/leadsync/app/database"
	"github.com/mkravets/leadsync/app/importer"
)

// SheetSyncer runs one spreadsheet import pass.
type SheetSyncer interface {
	Sync(ctx context.Context, sheet database.Spreadsheet) importer.Result
}

// TaskSchedulerInterface defines the interface for background import
// scheduling. The scheduler holds at most one recurring timer per
// spreadsheet id; Rearm replaces any prior timer for that id and only arms
// when the spreadsheet is active with auto-sync enabled.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Rearm(sheet database.Spreadsheet)
	Disarm(sheetID string)
}
