package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mkravets/leadsync/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type timerHandle struct {
	cancel context.CancelFunc
}

type Scheduler struct {
	sheetRepo   database.SpreadsheetRepository
	syncer      SheetSyncer
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface

	mu     sync.Mutex
	timers map[string]*timerHandle
}

func NewScheduler(sheetRepo database.SpreadsheetRepository, syncer SheetSyncer, workerCount int) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		sheetRepo:   sheetRepo,
		syncer:      syncer,
		workerCount: workerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 100),
		timers:      make(map[string]*timerHandle),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	sheets, err := s.sheetRepo.GetActiveSpreadsheets()
	if err != nil {
		slog.Error("Failed to load spreadsheets for auto-sync", "error", err)
		return
	}

	armed := 0
	for _, sheet := range sheets {
		if sheet.AutoSync {
			s.Rearm(sheet)
			armed++
		}
	}
	slog.Info("Scheduler started", "workers", s.workerCount, "auto_sync_sheets", armed)
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// Rearm cancels any existing timer for the spreadsheet id and starts a new
// recurring one when the spreadsheet is active with auto-sync enabled.
func (s *Scheduler) Rearm(sheet database.Spreadsheet) {
	s.mu.Lock()
	if handle, ok := s.timers[sheet.ID]; ok {
		handle.cancel()
		delete(s.timers, sheet.ID)
	}

	if !sheet.IsActive || !sheet.AutoSync || sheet.SyncInterval <= 0 {
		s.mu.Unlock()
		return
	}

	timerCtx, cancel := context.WithCancel(s.ctx)
	handle := &timerHandle{cancel: cancel}
	s.timers[sheet.ID] = handle
	s.mu.Unlock()

	interval := time.Duration(sheet.SyncInterval) * time.Minute
	slog.Debug("Auto-sync armed", "sheet", sheet.Name, "interval", interval.String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.removeTimer(sheet.ID, handle)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-timerCtx.Done():
				return
			case <-ticker.C:
				if !s.enqueueTick(sheet.ID) {
					return
				}
			}
		}
	}()
}

// Disarm cancels the timer for the spreadsheet id, if any.
func (s *Scheduler) Disarm(sheetID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handle, ok := s.timers[sheetID]; ok {
		handle.cancel()
		delete(s.timers, sheetID)
	}
}

// enqueueTick re-reads the spreadsheet so a tick always runs against the
// current configuration. Returns false when the timer should stop because
// the spreadsheet is gone or no longer eligible.
func (s *Scheduler) enqueueTick(sheetID string) bool {
	sheet, err := s.sheetRepo.GetSpreadsheet(sheetID)
	if err != nil {
		slog.Warn("Failed to load spreadsheet for auto-sync tick", "sheet_id", sheetID, "error", err)
		return true
	}
	if sheet == nil || !sheet.IsActive || !sheet.AutoSync {
		slog.Debug("Spreadsheet no longer eligible for auto-sync", "sheet_id", sheetID)
		return false
	}

	task := NewImportSheetTask(*sheet, s.syncer)
	if err := s.EnqueueTask(task); err != nil {
		slog.Warn("Failed to enqueue ImportSheetTask", "sheet", sheet.Name, "error", err)
	}

	return true
}

func (s *Scheduler) removeTimer(sheetID string, handle *timerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.timers[sheetID]; ok && current == handle {
		delete(s.timers, sheetID)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "sheet", task.GetSheetName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		}
	}
}
