package tasks

import (
	"context"
	"log/slog"

	"github.com/mkravets/leadsync/app/database"
	"github.com/mkravets/leadsync/app/importer"
)

type ImportSheetTask struct {
	Task
	Sheet  database.Spreadsheet
	syncer SheetSyncer
}

// NewImportSheetTask builds a one-shot import task. MaxRetries stays zero:
// a failed fetch waits for the next timer tick or a manual sync instead of
// being retried automatically.
func NewImportSheetTask(sheet database.Spreadsheet, syncer SheetSyncer) *ImportSheetTask {
	return &ImportSheetTask{
		Task:   NewTask(TaskTypeImportSheet, sheet.Name),
		Sheet:  sheet,
		syncer: syncer,
	}
}

func (t *ImportSheetTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result := t.syncer.Sync(ctx, t.Sheet)

	if result.Status == importer.StatusSkipped {
		slog.Debug("Task skipped, import already running", "type", "ImportSheet", "sheet", t.SheetName)
		return nil
	}

	slog.Info("Task completed",
		"type", "ImportSheet",
		"sheet", t.SheetName,
		"duration", t.GetDuration(),
		"status", string(result.Status),
		"success", result.Success,
		"duplicates", result.Duplicates,
		"failed", result.Failed)

	return nil
}
