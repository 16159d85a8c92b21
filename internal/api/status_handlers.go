package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"statusping/internal/checker"
	"statusping/internal/models"
)

// PublicMonitor is the status-page view of one monitor
type PublicMonitor struct {
	Name           string        `json:"name"`
	URL            string        `json:"url"`
	Status         models.Status `json:"status"`
	Uptime24h      float64       `json:"uptime_24h"`
	ResponseTimeMS *int          `json:"response_time_ms"`
}

// PublicIncident is the status-page view of one incident
type PublicIncident struct {
	MonitorName  string     `json:"monitor_name"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	Duration     *string    `json:"duration"`
	ErrorMessage *string    `json:"error_message"`
}

// PublicStatusPage is the full public status payload
type PublicStatusPage struct {
	Title         string           `json:"title"`
	Description   *string          `json:"description"`
	OverallStatus models.Status    `json:"overall_status"`
	Monitors      []PublicMonitor  `json:"monitors"`
	Incidents     []PublicIncident `json:"incidents"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// HandleGetPublicStatusPage serves the public status page for an account
// slug. Responds 404 when the slug is unknown or the page is private.
func HandleGetPublicStatusPage(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		var user models.User
		if err := db.Where("account_slug = ?", slug).First(&user).Error; err != nil {
			http.Error(w, "Status page not found", http.StatusNotFound)
			return
		}

		var page models.StatusPage
		err := db.Where("user_id = ?", user.ID).First(&page).Error
		if err != nil || !page.IsPublic {
			http.Error(w, "Status page not found", http.StatusNotFound)
			return
		}

		var monitors []models.Monitor
		err = db.Where("user_id = ? AND is_public = ?", user.ID, true).
			Order("name").
			Find(&monitors).Error
		if err != nil {
			http.Error(w, "Failed to fetch monitors", http.StatusInternalServerError)
			return
		}

		now := time.Now().UTC()
		publicMonitors := make([]PublicMonitor, 0, len(monitors))
		anyDown := false
		allUp := true
		monitorNames := make(map[string]string, len(monitors))
		monitorIDs := make([]string, 0, len(monitors))

		for _, mon := range monitors {
			monitorIDs = append(monitorIDs, mon.ID)
			monitorNames[mon.ID] = mon.Name

			if mon.CurrentStatus == models.StatusDown {
				anyDown = true
			}
			if mon.CurrentStatus != models.StatusUp {
				allUp = false
			}

			var latest models.CheckResult
			var responseTime *int
			err := db.Where("monitor_id = ? AND response_time_ms IS NOT NULL", mon.ID).
				Order("checked_at DESC").
				First(&latest).Error
			if err == nil {
				responseTime = latest.ResponseTimeMS
			}

			publicMonitors = append(publicMonitors, PublicMonitor{
				Name:           mon.Name,
				URL:            mon.URL,
				Status:         mon.CurrentStatus,
				Uptime24h:      uptimePercentage(db, mon.ID, now.Add(-24*time.Hour)),
				ResponseTimeMS: responseTime,
			})
		}

		overall := models.StatusUp
		switch {
		case anyDown:
			overall = models.StatusDown
		case !allUp && len(publicMonitors) > 0:
			overall = models.StatusUnknown
		}

		incidents := []PublicIncident{}
		if len(monitorIDs) > 0 {
			var recent []models.Incident
			db.Where("monitor_id IN ? AND started_at >= ?", monitorIDs, now.Add(-30*24*time.Hour)).
				Order("started_at DESC").
				Limit(20).
				Find(&recent)

			for _, inc := range recent {
				var duration *string
				if inc.ResolvedAt != nil {
					d := checker.FormatDuration(inc.ResolvedAt.Sub(inc.StartedAt))
					duration = &d
				}
				incidents = append(incidents, PublicIncident{
					MonitorName:  monitorNames[inc.MonitorID],
					Title:        inc.Title,
					Status:       inc.Status,
					StartedAt:    inc.StartedAt,
					ResolvedAt:   inc.ResolvedAt,
					Duration:     duration,
					ErrorMessage: inc.ErrorMessage,
				})
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(PublicStatusPage{
			Title:         page.Title,
			Description:   page.Description,
			OverallStatus: overall,
			Monitors:      publicMonitors,
			Incidents:     incidents,
			GeneratedAt:   now,
		})
	}
}

// HandleHealth is a liveness endpoint
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}
}
