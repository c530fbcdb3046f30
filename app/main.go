package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mkravets/leadsync/app/api"
	"github.com/mkravets/leadsync/app/cfg"
	"github.com/mkravets/leadsync/app/config"
	"github.com/mkravets/leadsync/app/database"
	"github.com/mkravets/leadsync/app/importer"
	"github.com/mkravets/leadsync/app/tasks"
)

func main() {
	// Optional .env for local development; environment wins over file values
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting LeadSync server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	leadRepo := database.NewLeadRepository(db)
	activityRepo := database.NewActivityRepository(db)
	sheetRepo := database.NewSpreadsheetRepository(db)
	settingRepo := database.NewSettingRepository(db)
	jobRepo := database.NewJobRepository(db)

	// Register seed spreadsheets, if a seeds directory is present
	loader := config.NewLoader(appCfg.SheetsDir)
	seeds, err := loader.LoadAll()
	if err != nil {
		slog.Error("Failed to load spreadsheet seed configurations", "error", err)
		os.Exit(1)
	}
	for file, seed := range seeds {
		_, err := sheetRepo.UpsertSpreadsheet(database.Spreadsheet{
			Name:         seed.Sheet.Name,
			URL:          seed.Sheet.URL,
			IsActive:     seed.Settings.Active,
			AutoSync:     seed.Settings.AutoSync,
			SyncInterval: seed.Settings.SyncInterval,
		})
		if err != nil {
			slog.Warn("Failed to register seed spreadsheet", "file", file, "error", err)
			continue
		}
		slog.Info("Registered seed spreadsheet", "name", seed.Sheet.Name, "auto_sync", seed.Settings.AutoSync)
	}

	httpClient := &http.Client{
		Timeout: time.Duration(appCfg.FetchTimeout) * time.Second,
	}

	leadImporter := importer.NewImporter(leadRepo, sheetRepo, httpClient, appCfg.UserAgent)

	scheduler := tasks.NewScheduler(sheetRepo, leadImporter, appCfg.WorkerCount)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(leadRepo, activityRepo, sheetRepo, settingRepo, jobRepo, leadImporter, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // sync-all of many sheets can be slow
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
