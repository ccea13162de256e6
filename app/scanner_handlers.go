// Package app exposes the scan run lifecycle over HTTP: trigger a per-date
// run, poll its status, list available dates and query filtered results.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/dexten32/accuscanner/app/config"
	"github.com/dexten32/accuscanner/app/models"
	"github.com/dexten32/accuscanner/auth"

	"github.com/gin-gonic/gin"
)

// runRecordStore is the slice of persistence the trigger/status handlers
// need. Kept narrow, like the worker's runStore, so tests can substitute an
// in-memory fake.
type runRecordStore interface {
	GetRun(ctx context.Context, date string) (models.ScanRun, error)
	MarkRunRunning(ctx context.Context, date string) error
}

var (
	datesCache *DateCache
	worker     *WorkerRunner
	runRecords runRecordStore = dbRunStore{}
)

// InitScanner wires the date cache and worker runner. Call once at startup
// after MustInitDB.
func InitScanner() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for scanner: %v", err)
	}

	datesCache = NewDateCache(func(ctx context.Context) ([]string, error) {
		if db == nil {
			return nil, nil
		}
		return distinctTradeDates(ctx)
	})

	worker = NewWorkerRunner(cfg.Worker.Python, cfg.Worker.Script, dbRunStore{}, func(string) {
		datesCache.Invalidate()
	})
}

type runRequest struct {
	Date string `json:"date"`
}

// RunScanner triggers the worker for a date. A completed run is terminal and
// short-circuits; running or failed runs are reset and relaunched.
func RunScanner(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		return
	}
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	log.Printf("Received run request for date: %s", req.Date)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	existing, err := runRecords.GetRun(ctx, req.Date)
	switch {
	case err == nil:
		if existing.Status == models.RunCompleted {
			c.JSON(http.StatusOK, gin.H{"message": "Scan already completed", "status": models.RunCompleted})
			return
		}
		log.Printf("Overwriting existing run with status: %s", existing.Status)
	case errors.Is(err, sql.ErrNoRows):
		// first trigger for this date
	default:
		log.Printf("run lookup failed date=%s: %v", req.Date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	if err := runRecords.MarkRunRunning(ctx, req.Date); err != nil {
		log.Printf("failed to mark run running date=%s: %v", req.Date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	worker.Launch(req.Date)

	c.JSON(http.StatusOK, gin.H{"message": "Scanner started", "status": models.RunRunning})
}

// GetRunStatus reports the run record for a date, or status "missing" when no
// record exists. This endpoint is polled, so it carries no rate limit.
func GetRunStatus(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	run, err := runRecords.GetRun(ctx, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusOK, gin.H{"status": models.RunMissing})
			return
		}
		log.Printf("status lookup failed date=%s: %v", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// GetScanResults returns the persisted rows for a date, filtered by the
// inclusive ranges from the query string and sorted by score descending.
func GetScanResults(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date is required"})
		return
	}

	filter := models.DefaultResultFilter()
	bounds := []struct {
		param string
		dst   *float64
	}{
		{"min_delivery", &filter.MinDelivery},
		{"max_delivery", &filter.MaxDelivery},
		{"min_vol", &filter.MinVolMult},
		{"max_vol", &filter.MaxVolMult},
		{"min_price", &filter.MinPrice},
		{"max_price", &filter.MaxPrice},
	}
	for _, b := range bounds {
		raw := c.Query(b.param)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid value for " + b.param})
			return
		}
		*b.dst = v
	}

	switch c.Query("is_fno") {
	case "true":
		v := true
		filter.IsFnO = &v
	case "false":
		v := false
		filter.IsFnO = &v
	}

	if db == nil {
		c.JSON(http.StatusOK, []models.ScanResult{})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := queryScanResults(ctx, date, filter)
	if err != nil {
		log.Printf("results query failed date=%s: %v", date, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetAvailableDates serves the cached distinct trade dates, sliced to the
// caller's plan history window.
func GetAvailableDates(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access denied, token missing"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	dates, err := datesCache.Dates(ctx, claims.Plan)
	if err != nil {
		log.Printf("date cache refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, dates)
}
