package api

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkravets/leadsync/app/database"
	"github.com/mkravets/leadsync/app/importer"
)

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if leadCount, err := h.leadRepo.GetLeadCount(); err == nil {
		health["leads"] = leadCount
	}

	if sheets, err := h.sheetRepo.GetSpreadsheets(); err == nil {
		health["spreadsheets"] = len(sheets)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.leadRepo.GetLeadStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_lead_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"leads": gin.H{
			"total":        stats.Total,
			"by_status":    stats.ByStatus,
			"by_source":    stats.BySource,
			"last_30_days": stats.CreatedLast30Days,
		},
	}

	if activities, err := h.activityRepo.GetRecentActivities(10); err == nil {
		recent := make([]gin.H, 0, len(activities))
		for _, activity := range activities {
			recent = append(recent, activityJSON(activity))
		}
		response["recent_activities"] = recent
	}

	imports := h.importSvc.History()
	runs := make([]gin.H, 0, len(imports))
	for _, run := range imports {
		runs = append(runs, resultJSON(run))
	}
	response["recent_imports"] = runs

	c.JSON(http.StatusOK, response)
}

// Leads

func (h *Handler) ListLeads(c *gin.Context) {
	filter := database.LeadFilter{
		Status: c.Query("status"),
		Source: c.Query("source"),
		Search: c.Query("q"),
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	leads, err := h.leadRepo.GetLeads(filter)
	if err != nil {
		slog.Error("Database error", "operation", "get_leads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(leads))
	for _, lead := range leads {
		out = append(out, leadJSON(lead))
	}

	c.JSON(http.StatusOK, gin.H{"leads": out, "total": len(out)})
}

func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.leadRepo.GetLead(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_lead", "lead", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}

	c.JSON(http.StatusOK, leadJSON(*lead))
}

type createLeadRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
	Company string `json:"company"`
	Message string `json:"message"`
	Source  string `json:"source"`
	Plan    string `json:"plan"`
	Status  string `json:"status"`
	Notes   string `json:"notes"`
}

func (h *Handler) CreateLead(c *gin.Context) {
	var req createLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != "" && !h.isValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown lead status: " + req.Status})
		return
	}

	id, err := h.leadRepo.CreateLead(database.Lead{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   importer.CleanPhone(req.Phone),
		Country: req.Country,
		Company: req.Company,
		Message: req.Message,
		Source:  req.Source,
		Plan:    req.Plan,
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Database error", "operation", "create_lead", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type updateLeadRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Mobile  *string `json:"mobile"`
	Country *string `json:"country"`
	Company *string `json:"company"`
	Message *string `json:"message"`
	Source  *string `json:"source"`
	Plan    *string `json:"plan"`
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
}

func (h *Handler) UpdateLead(c *gin.Context) {
	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != nil && !h.isValidStatus(*req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown lead status: " + *req.Status})
		return
	}
	if req.Phone != nil {
		cleaned := importer.CleanPhone(*req.Phone)
		req.Phone = &cleaned
	}

	err := h.leadRepo.UpdateLead(c.Param("id"), database.LeadUpdate{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Mobile:  req.Mobile,
		Country: req.Country,
		Company: req.Company,
		Message: req.Message,
		Source:  req.Source,
		Plan:    req.Plan,
		Status:  req.Status,
		Notes:   req.Notes,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		slog.Error("Database error", "operation", "update_lead", "lead", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Status != nil {
		_, err := h.activityRepo.CreateActivity(database.Activity{
			LeadID: c.Param("id"),
			Type:   "status_change",
			Note:   "Status changed to " + *req.Status,
		})
		if err != nil {
			slog.Warn("Failed to record status change activity", "lead", c.Param("id"), "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteLead(c *gin.Context) {
	if err := h.leadRepo.DeleteLead(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Activities

func (h *Handler) ListActivities(c *gin.Context) {
	activities, err := h.activityRepo.GetActivities(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_activities", "lead", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(activities))
	for _, activity := range activities {
		out = append(out, activityJSON(activity))
	}

	c.JSON(http.StatusOK, gin.H{"activities": out, "total": len(out)})
}

type createActivityRequest struct {
	Type string `json:"type"`
	Note string `json:"note" binding:"required"`
}

func (h *Handler) CreateActivity(c *gin.Context) {
	var req createActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.leadRepo.GetLead(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_lead", "lead", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return
	}

	id, err := h.activityRepo.CreateActivity(database.Activity{
		LeadID: lead.ID,
		Type:   req.Type,
		Note:   req.Note,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_activity", "lead", lead.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// Settings

func (h *Handler) GetSetting(c *gin.Context) {
	values, err := h.settingRepo.GetSetting(c.Param("key"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "values": values})
}

type putSettingRequest struct {
	Values []string `json:"values" binding:"required"`
}

func (h *Handler) PutSetting(c *gin.Context) {
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.settingRepo.SetSetting(c.Param("key"), req.Values); err != nil {
		slog.Error("Database error", "operation", "set_setting", "key", c.Param("key"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Spreadsheets

func (h *Handler) ListSpreadsheets(c *gin.Context) {
	sheets, err := h.sheetRepo.GetSpreadsheets()
	if err != nil {
		slog.Error("Database error", "operation", "get_spreadsheets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(sheets))
	for _, sheet := range sheets {
		out = append(out, sheetJSON(sheet))
	}

	c.JSON(http.StatusOK, gin.H{"spreadsheets": out, "total": len(out)})
}

type createSpreadsheetRequest struct {
	Name         string `json:"name" binding:"required"`
	URL          string `json:"url" binding:"required"`
	IsActive     *bool  `json:"is_active"`
	AutoSync     bool   `json:"auto_sync"`
	SyncInterval int    `json:"sync_interval"`
}

func (h *Handler) CreateSpreadsheet(c *gin.Context) {
	var req createSpreadsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := importer.ResolveCSVURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	sheet := database.Spreadsheet{
		Name:         req.Name,
		URL:          req.URL,
		IsActive:     isActive,
		AutoSync:     req.AutoSync,
		SyncInterval: req.SyncInterval,
	}

	id, err := h.sheetRepo.CreateSpreadsheet(sheet)
	if err != nil {
		slog.Error("Database error", "operation", "create_spreadsheet", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if created, err := h.sheetRepo.GetSpreadsheet(id); err == nil && created != nil {
		h.scheduler.Rearm(*created)
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type updateSpreadsheetRequest struct {
	Name         *string `json:"name"`
	URL          *string `json:"url"`
	IsActive     *bool   `json:"is_active"`
	AutoSync     *bool   `json:"auto_sync"`
	SyncInterval *int    `json:"sync_interval"`
}

func (h *Handler) UpdateSpreadsheet(c *gin.Context) {
	var req updateSpreadsheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.URL != nil {
		if _, err := importer.ResolveCSVURL(*req.URL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	err := h.sheetRepo.UpdateSpreadsheet(c.Param("id"), database.SpreadsheetUpdate{
		Name:         req.Name,
		URL:          req.URL,
		IsActive:     req.IsActive,
		AutoSync:     req.AutoSync,
		SyncInterval: req.SyncInterval,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	// Re-arm so toggles and interval changes take effect immediately
	if sheet, err := h.sheetRepo.GetSpreadsheet(c.Param("id")); err == nil && sheet != nil {
		h.scheduler.Rearm(*sheet)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteSpreadsheet(c *gin.Context) {
	if err := h.sheetRepo.DeleteSpreadsheet(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	h.scheduler.Disarm(c.Param("id"))

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) SyncSpreadsheet(c *gin.Context) {
	sheet, err := h.sheetRepo.GetSpreadsheet(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_spreadsheet", "sheet", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if sheet == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Spreadsheet not found"})
		return
	}

	result := h.importSvc.Sync(c.Request.Context(), *sheet)

	c.JSON(http.StatusOK, resultJSON(result))
}

func (h *Handler) SyncAllSpreadsheets(c *gin.Context) {
	summary, err := h.importSvc.SyncAll(c.Request.Context())
	if err != nil {
		slog.Error("Sync all failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	results := make([]gin.H, 0, len(summary.Results))
	for _, result := range summary.Results {
		results = append(results, resultJSON(result))
	}

	c.JSON(http.StatusOK, gin.H{
		"sheets":     summary.Sheets,
		"success":    summary.Success,
		"failed":     summary.Failed,
		"duplicates": summary.Duplicates,
		"results":    results,
	})
}

// Imports

func (h *Handler) GetImportHistory(c *gin.Context) {
	runs := h.importSvc.History()

	out := make([]gin.H, 0, len(runs))
	for _, run := range runs {
		out = append(out, resultJSON(run))
	}

	c.JSON(http.StatusOK, gin.H{"imports": out, "total": len(out)})
}

func (h *Handler) UploadImport(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open upload"})
		return
	}
	defer file.Close()

	result, err := h.importSvc.ImportUpload(fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resultJSON(result))
}

// Jobs

func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.jobRepo.GetJobs()
	if err != nil {
		slog.Error("Database error", "operation", "get_jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, jobJSON(job))
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out, "total": len(out)})
}

type jobRequest struct {
	Title          string `json:"title" binding:"required"`
	Department     string `json:"department"`
	Location       string `json:"location"`
	EmploymentType string `json:"employment_type"`
	Description    string `json:"description"`
	Status         string `json:"status"`
}

func (h *Handler) CreateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.jobRepo.CreateJob(database.JobPosting{
		Title:          req.Title,
		Department:     req.Department,
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
		Description:    req.Description,
		Status:         req.Status,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) UpdateJob(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.jobRepo.UpdateJob(c.Param("id"), database.JobPosting{
		Title:          req.Title,
		Department:     req.Department,
		Location:       req.Location,
		EmploymentType: req.EmploymentType,
		Description:    req.Description,
		Status:         req.Status,
	})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) DeleteJob(c *gin.Context) {
	if err := h.jobRepo.DeleteJob(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ListApplications(c *gin.Context) {
	apps, err := h.jobRepo.GetApplications(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_applications", "job", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]gin.H, 0, len(apps))
	for _, app := range apps {
		out = append(out, applicationJSON(app))
	}

	c.JSON(http.StatusOK, gin.H{"applications": out, "total": len(out)})
}

type createApplicationRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone"`
	ResumeURL string `json:"resume_url"`
}

func (h *Handler) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.jobRepo.GetJob(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	id, err := h.jobRepo.CreateApplication(database.Application{
		JobID:     job.ID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     importer.CleanPhone(req.Phone),
		ResumeURL: req.ResumeURL,
	})
	if err != nil {
		slog.Error("Database error", "operation", "create_application", "job", job.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

type updateApplicationRequest struct {
	Status *string `json:"status"`
}

func (h *Handler) UpdateApplication(c *gin.Context) {
	var req updateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.jobRepo.UpdateApplication(c.Param("id"), database.ApplicationUpdate{Status: req.Status})
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// helpers

func (h *Handler) isValidStatus(status string) bool {
	statuses, err := h.settingRepo.GetSetting("lead_statuses")
	if err != nil {
		return true
	}
	return slices.Contains(statuses, status)
}

func leadJSON(lead database.Lead) gin.H {
	return gin.H{
		"id":         lead.ID,
		"name":       lead.Name,
		"email":      lead.Email,
		"phone":      lead.Phone,
		"mobile":     lead.Mobile,
		"country":    lead.Country,
		"company":    lead.Company,
		"message":    lead.Message,
		"source":     lead.Source,
		"plan":       lead.Plan,
		"status":     lead.Status,
		"notes":      lead.Notes,
		"created_at": lead.CreatedAt,
		"updated_at": lead.UpdatedAt,
	}
}

func activityJSON(activity database.Activity) gin.H {
	return gin.H{
		"id":         activity.ID,
		"lead_id":    activity.LeadID,
		"type":       activity.Type,
		"note":       activity.Note,
		"created_at": activity.CreatedAt,
	}
}

func sheetJSON(sheet database.Spreadsheet) gin.H {
	return gin.H{
		"id":            sheet.ID,
		"name":          sheet.Name,
		"url":           sheet.URL,
		"is_active":     sheet.IsActive,
		"auto_sync":     sheet.AutoSync,
		"sync_interval": sheet.SyncInterval,
		"last_synced":   sheet.LastSynced,
		"created_at":    sheet.CreatedAt,
		"updated_at":    sheet.UpdatedAt,
	}
}

func resultJSON(result importer.Result) gin.H {
	return gin.H{
		"run_id":           result.RunID,
		"spreadsheet_id":   result.SpreadsheetID,
		"spreadsheet_name": result.SpreadsheetName,
		"success":          result.Success,
		"failed":           result.Failed,
		"duplicates":       result.Duplicates,
		"errors":           result.Errors,
		"status":           string(result.Status),
		"timestamp":        result.Timestamp,
	}
}

func jobJSON(job database.JobPosting) gin.H {
	return gin.H{
		"id":              job.ID,
		"title":           job.Title,
		"department":      job.Department,
		"location":        job.Location,
		"employment_type": job.EmploymentType,
		"description":     job.Description,
		"status":          job.Status,
		"created_at":      job.CreatedAt,
		"updated_at":      job.UpdatedAt,
	}
}

func applicationJSON(app database.Application) gin.H {
	return gin.H{
		"id":         app.ID,
		"job_id":     app.JobID,
		"name":       app.Name,
		"email":      app.Email,
		"phone":      app.Phone,
		"resume_url": app.ResumeURL,
		"status":     app.Status,
		"created_at": app.CreatedAt,
	}
}
