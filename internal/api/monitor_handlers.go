package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"statusping/internal/config"
	"statusping/internal/models"
	"statusping/internal/plans"
)

// MonitorScheduler is the scheduler capability the monitor API needs. A nil
// reference means no scheduler is running in this context (e.g. tests) and
// schedule/unschedule calls are skipped.
type MonitorScheduler interface {
	Schedule(monitorID string, intervalSeconds int) error
	Unschedule(monitorID string)
}

// CheckRunner runs one check for a monitor right now.
type CheckRunner interface {
	PerformCheck(ctx context.Context, monitorID string) error
}

// CreateMonitorRequest represents a monitor creation payload
type CreateMonitorRequest struct {
	Name               string `json:"name"`
	URL                string `json:"url"`
	Method             string `json:"method"`
	CheckInterval      int    `json:"check_interval"`
	Timeout            int    `json:"timeout"`
	ExpectedStatusCode int    `json:"expected_status_code"`
	IsPublic           *bool  `json:"is_public"`
}

// UpdateMonitorRequest represents a partial monitor update
type UpdateMonitorRequest struct {
	Name               *string `json:"name"`
	URL                *string `json:"url"`
	Method             *string `json:"method"`
	CheckInterval      *int    `json:"check_interval"`
	Timeout            *int    `json:"timeout"`
	ExpectedStatusCode *int    `json:"expected_status_code"`
	IsActive           *bool   `json:"is_active"`
	IsPublic           *bool   `json:"is_public"`
}

// HandleListMonitors returns all monitors for the current user
func HandleListMonitors(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var monitors []models.Monitor
		err := db.Where("user_id = ?", user.ID).
			Order("created_at DESC").
			Find(&monitors).Error
		if err != nil {
			http.Error(w, "Failed to fetch monitors", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(monitors)
	}
}

// HandleCreateMonitor creates a new monitor and schedules its checks,
// enforcing the owner's plan limits.
func HandleCreateMonitor(db *gorm.DB, cfg *config.Config, sched MonitorScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		var req CreateMonitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Name == "" || !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
			http.Error(w, "Name and an http(s) URL are required", http.StatusBadRequest)
			return
		}

		if req.Method == "" {
			req.Method = "GET"
		}
		if req.CheckInterval == 0 {
			req.CheckInterval = cfg.DefaultCheckInterval
		}
		if req.Timeout == 0 {
			req.Timeout = cfg.DefaultTimeout
		}
		if req.ExpectedStatusCode == 0 {
			req.ExpectedStatusCode = 200
		}
		isPublic := true
		if req.IsPublic != nil {
			isPublic = *req.IsPublic
		}

		limits := plans.ForPlan(user.Plan)

		var count int64
		db.Model(&models.Monitor{}).Where("user_id = ?", user.ID).Count(&count)
		if count >= int64(limits.MaxMonitors) {
			http.Error(w, fmt.Sprintf("Your %s plan allows up to %d monitors. Upgrade your plan to add more.",
				user.Plan, limits.MaxMonitors), http.StatusForbidden)
			return
		}

		if req.CheckInterval < limits.MinCheckInterval {
			http.Error(w, fmt.Sprintf("Your %s plan requires a minimum check interval of %d seconds. Upgrade your plan for faster checks.",
				user.Plan, limits.MinCheckInterval), http.StatusForbidden)
			return
		}

		mon := models.Monitor{
			UserID:             user.ID,
			Name:               req.Name,
			URL:                req.URL,
			Method:             req.Method,
			CheckInterval:      req.CheckInterval,
			Timeout:            req.Timeout,
			ExpectedStatusCode: req.ExpectedStatusCode,
			IsActive:           true,
			IsPublic:           isPublic,
			CurrentStatus:      models.StatusUnknown,
		}

		if err := db.Create(&mon).Error; err != nil {
			http.Error(w, "Failed to create monitor", http.StatusInternalServerError)
			return
		}

		if sched != nil {
			if err := sched.Schedule(mon.ID, mon.CheckInterval); err != nil {
				http.Error(w, "Failed to schedule monitor", http.StatusInternalServerError)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(mon)
	}
}

// HandleGetMonitor returns a single monitor by ID
func HandleGetMonitor(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		mon, ok := loadOwnedMonitor(db, w, r, user)
		if !ok {
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mon)
	}
}

// HandleUpdateMonitor applies a partial update and reconciles the schedule:
// an active monitor is (re)scheduled with its possibly-new interval, a
// deactivated one is unscheduled.
func HandleUpdateMonitor(db *gorm.DB, sched MonitorScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		mon, ok := loadOwnedMonitor(db, w, r, user)
		if !ok {
			return
		}

		var req UpdateMonitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.CheckInterval != nil {
			limits := plans.ForPlan(user.Plan)
			if *req.CheckInterval < limits.MinCheckInterval {
				http.Error(w, fmt.Sprintf("Your %s plan requires a minimum check interval of %d seconds.",
					user.Plan, limits.MinCheckInterval), http.StatusForbidden)
				return
			}
			mon.CheckInterval = *req.CheckInterval
		}
		if req.Name != nil {
			mon.Name = *req.Name
		}
		if req.URL != nil {
			mon.URL = *req.URL
		}
		if req.Method != nil {
			mon.Method = *req.Method
		}
		if req.Timeout != nil {
			mon.Timeout = *req.Timeout
		}
		if req.ExpectedStatusCode != nil {
			mon.ExpectedStatusCode = *req.ExpectedStatusCode
		}
		if req.IsActive != nil {
			mon.IsActive = *req.IsActive
		}
		if req.IsPublic != nil {
			mon.IsPublic = *req.IsPublic
		}

		if err := db.Save(mon).Error; err != nil {
			http.Error(w, "Failed to update monitor", http.StatusInternalServerError)
			return
		}

		if sched != nil {
			if mon.IsActive {
				if err := sched.Schedule(mon.ID, mon.CheckInterval); err != nil {
					http.Error(w, "Failed to schedule monitor", http.StatusInternalServerError)
					return
				}
			} else {
				sched.Unschedule(mon.ID)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mon)
	}
}

// HandleDeleteMonitor unschedules and deletes a monitor
func HandleDeleteMonitor(db *gorm.DB, sched MonitorScheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)
		monitorID := chi.URLParam(r, "id")

		// Unschedule before removing the row; tolerates an already-gone job.
		if sched != nil {
			sched.Unschedule(monitorID)
		}

		result := db.Where("id = ? AND user_id = ?", monitorID, user.ID).
			Delete(&models.Monitor{})
		if result.Error != nil {
			http.Error(w, "Failed to delete monitor", http.StatusInternalServerError)
			return
		}
		if result.RowsAffected == 0 {
			http.Error(w, "Monitor not found", http.StatusNotFound)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleRunCheck triggers one check for a monitor right now
func HandleRunCheck(db *gorm.DB, runner CheckRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		mon, ok := loadOwnedMonitor(db, w, r, user)
		if !ok {
			return
		}

		if err := runner.PerformCheck(r.Context(), mon.ID); err != nil {
			http.Error(w, "Check failed", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusAccepted)
	}
}

// HandleGetCheckResults returns recent check results for a monitor, with
// the window clamped to the plan's retention horizon.
func HandleGetCheckResults(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		mon, ok := loadOwnedMonitor(db, w, r, user)
		if !ok {
			return
		}

		hours := 24
		if h, err := strconv.Atoi(r.URL.Query().Get("hours")); err == nil && h > 0 {
			hours = h
		}
		limit := 100
		if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 1000 {
			limit = l
		}

		limits := plans.ForPlan(user.Plan)
		if hours > limits.RetentionHours {
			hours = limits.RetentionHours
		}

		cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

		var results []models.CheckResult
		err := db.Where("monitor_id = ? AND checked_at >= ?", mon.ID, cutoff).
			Order("checked_at DESC").
			Limit(limit).
			Find(&results).Error
		if err != nil {
			http.Error(w, "Failed to fetch check results", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(results)
	}
}

// HandleGetUptime returns uptime percentages, average response time and
// recent incidents for a monitor.
func HandleGetUptime(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := r.Context().Value(userContextKey).(*models.User)

		mon, ok := loadOwnedMonitor(db, w, r, user)
		if !ok {
			return
		}

		now := time.Now().UTC()
		periods := map[string]time.Duration{
			"24h": 24 * time.Hour,
			"7d":  7 * 24 * time.Hour,
			"30d": 30 * 24 * time.Hour,
		}

		uptime := make(map[string]float64, len(periods))
		for label, window := range periods {
			uptime[label] = uptimePercentage(db, mon.ID, now.Add(-window))
		}

		var avgResponse *float64
		db.Model(&models.CheckResult{}).
			Where("monitor_id = ? AND checked_at >= ? AND response_time_ms IS NOT NULL", mon.ID, now.Add(-24*time.Hour)).
			Select("AVG(response_time_ms)").
			Scan(&avgResponse)

		var incidents []models.Incident
		db.Where("monitor_id = ?", mon.ID).
			Order("started_at DESC").
			Limit(10).
			Find(&incidents)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"monitor_id":           mon.ID,
			"uptime":               uptime,
			"avg_response_time_ms": avgResponse,
			"total_incidents":      len(incidents),
			"incidents":            incidents,
		})
	}
}

// loadOwnedMonitor fetches the monitor from the id URL param, enforcing
// ownership. Writes the error response itself when not found.
func loadOwnedMonitor(db *gorm.DB, w http.ResponseWriter, r *http.Request, user *models.User) (*models.Monitor, bool) {
	monitorID := chi.URLParam(r, "id")

	var mon models.Monitor
	err := db.Where("id = ? AND user_id = ?", monitorID, user.ID).First(&mon).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			http.Error(w, "Monitor not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to fetch monitor", http.StatusInternalServerError)
		}
		return nil, false
	}
	return &mon, true
}

// uptimePercentage computes the share of up checks since the cutoff,
// rounded to two decimals. No checks in the window yields 0.
func uptimePercentage(db *gorm.DB, monitorID string, cutoff time.Time) float64 {
	var total, up int64
	db.Model(&models.CheckResult{}).
		Where("monitor_id = ? AND checked_at >= ?", monitorID, cutoff).
		Count(&total)
	if total == 0 {
		return 0
	}
	db.Model(&models.CheckResult{}).
		Where("monitor_id = ? AND checked_at >= ? AND status = ?", monitorID, cutoff, models.StatusUp).
		Count(&up)

	return float64(int(float64(up)/float64(total)*100*100+0.5)) / 100
}
