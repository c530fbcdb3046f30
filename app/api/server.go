package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer creates a new HTTP server with all routes configured
func NewServer(handler *Handler, apiAccessKey string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware for the admin console
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-API-Key, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler, apiAccessKey)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler, apiAccessKey string) {
	r.GET("/health", handler.GetHealth)
	r.GET("/stats", handler.GetStats)

	api := r.Group("/api")
	if apiAccessKey != "" {
		api.Use(authMiddleware(apiAccessKey))
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled (API_ACCESS_KEY not set)")
	}
	{
		api.GET("/leads", handler.ListLeads)
		api.POST("/leads", handler.CreateLead)
		api.GET("/leads/:id", handler.GetLead)
		api.PATCH("/leads/:id", handler.UpdateLead)
		api.DELETE("/leads/:id", handler.DeleteLead)
		api.GET("/leads/:id/activities", handler.ListActivities)
		api.POST("/leads/:id/activities", handler.CreateActivity)

		api.GET("/settings/:key", handler.GetSetting)
		api.PUT("/settings/:key", handler.PutSetting)

		api.GET("/spreadsheets", handler.ListSpreadsheets)
		api.POST("/spreadsheets", handler.CreateSpreadsheet)
		api.PATCH("/spreadsheets/:id", handler.UpdateSpreadsheet)
		api.DELETE("/spreadsheets/:id", handler.DeleteSpreadsheet)
		api.POST("/spreadsheets/:id/sync", handler.SyncSpreadsheet)
		api.POST("/spreadsheets/sync_all", handler.SyncAllSpreadsheets)

		api.GET("/imports/history", handler.GetImportHistory)
		api.POST("/imports/upload", handler.UploadImport)

		api.GET("/jobs", handler.ListJobs)
		api.POST("/jobs", handler.CreateJob)
		api.PATCH("/jobs/:id", handler.UpdateJob)
		api.DELETE("/jobs/:id", handler.DeleteJob)
		api.GET("/jobs/:id/applications", handler.ListApplications)
		api.POST("/jobs/:id/applications", handler.CreateApplication)
		api.PATCH("/applications/:id", handler.UpdateApplication)
	}

	// Root endpoint with basic information
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service":     "LeadSync",
			"description": "CRM lead management with spreadsheet import and deduplication",
			"endpoints": map[string]string{
				"health":       "/health",
				"stats":        "/stats",
				"leads":        "/api/leads",
				"spreadsheets": "/api/spreadsheets",
				"imports":      "/api/imports/history",
				"jobs":         "/api/jobs",
			},
			"api_status": map[string]interface{}{
				"auth_required": apiAccessKey != "",
				"header":        "X-API-Key",
			},
		})
	})

	// Favicon handler (return 204 to avoid 404s)
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

// authMiddleware creates authentication middleware for API endpoints
func authMiddleware(apiAccessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-API-Key")

		if providedKey == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				providedKey = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if providedKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "API key required",
				"message": "Provide API key in X-API-Key header or Authorization: Bearer <key>",
			})
			c.Abort()
			return
		}

		if providedKey != apiAccessKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid API key",
				"message": "The provided API key is not valid",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
