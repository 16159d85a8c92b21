// Package checker implements the check pipeline: probe a monitor, record
// the result, apply the consecutive-failure state machine, detect status
// transitions and manage incidents.
package checker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"statusping/internal/models"
)

// AlertSink receives alert commands produced on status transitions. The
// checker never blocks on delivery; the sink is expected to queue.
type AlertSink interface {
	MonitorDown(m models.Monitor, errorMessage string)
	MonitorRecovered(m models.Monitor, downtime time.Duration)
}

type prober interface {
	Probe(ctx context.Context, m *models.Monitor) Outcome
}

// Checker runs checks for monitors and owns all mutations of monitor status
// fields, check results and incidents.
type Checker struct {
	db               *gorm.DB
	prober           prober
	alerts           AlertSink // optional, may be nil
	failureThreshold int
	logger           *zap.Logger
}

// New creates a new Checker. The alert sink may be nil, in which case
// transitions are only logged.
func New(db *gorm.DB, failureThreshold int, alerts AlertSink, logger *zap.Logger) *Checker {
	return &Checker{
		db:               db,
		prober:           NewProber(),
		alerts:           alerts,
		failureThreshold: failureThreshold,
		logger:           logger,
	}
}

// PerformCheck runs one check for a monitor right now. It is the single
// entry point used by scheduled ticks and manual triggers. Inactive or
// missing monitors are a complete no-op.
func (c *Checker) PerformCheck(ctx context.Context, monitorID string) error {
	var m models.Monitor
	err := c.db.WithContext(ctx).First(&m, "id = ?", monitorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load monitor: %w", err)
	}
	if !m.IsActive {
		return nil
	}

	outcome := c.prober.Probe(ctx, &m)

	now := time.Now().UTC()
	previous := m.CurrentStatus

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := models.CheckResult{
			MonitorID:      m.ID,
			StatusCode:     outcome.StatusCode,
			ResponseTimeMS: outcome.ResponseTimeMS,
			Status:         outcome.Status,
			ErrorMessage:   outcome.ErrorMessage,
			CheckedAt:      now,
		}
		if err := tx.Create(&result).Error; err != nil {
			return err
		}

		m.LastCheckedAt = &now
		if outcome.Status == models.StatusDown {
			m.ConsecutiveFailures++
			// Only mark down after threshold consecutive failures.
			if m.ConsecutiveFailures >= c.failureThreshold {
				m.CurrentStatus = models.StatusDown
			}
		} else {
			m.ConsecutiveFailures = 0
			m.CurrentStatus = models.StatusUp
		}

		return tx.Model(&models.Monitor{}).Where("id = ?", m.ID).
			Updates(map[string]interface{}{
				"current_status":       m.CurrentStatus,
				"consecutive_failures": m.ConsecutiveFailures,
				"last_checked_at":      m.LastCheckedAt,
			}).Error
	})
	if err != nil {
		return fmt.Errorf("record check result: %w", err)
	}

	c.logOutcome(&m, outcome)

	return c.handleTransition(ctx, &m, previous, m.CurrentStatus, outcome.ErrorMessage)
}

// handleTransition opens or resolves incidents when the monitor's status
// changed. Transitions from unknown fall through both cases and only update
// monitor state.
func (c *Checker) handleTransition(ctx context.Context, m *models.Monitor, previous, current models.Status, errorMessage *string) error {
	if previous == current {
		return nil
	}

	switch {
	case previous == models.StatusUp && current == models.StatusDown:
		incident := models.Incident{
			MonitorID:    m.ID,
			Title:        fmt.Sprintf("%s is down", m.Name),
			Status:       models.IncidentOngoing,
			StartedAt:    time.Now().UTC(),
			ErrorMessage: errorMessage,
		}
		if err := c.db.WithContext(ctx).Create(&incident).Error; err != nil {
			return fmt.Errorf("create incident: %w", err)
		}

		c.logger.Warn("incident opened",
			zap.String("monitor", m.Name),
			zap.String("url", m.URL),
			zap.Stringp("error", errorMessage))

		if c.alerts != nil {
			c.alerts.MonitorDown(*m, stringValue(errorMessage))
		}

	case previous == models.StatusDown && current == models.StatusUp:
		// Defensively plural: resolve every ongoing incident for the
		// monitor, measure downtime from the earliest.
		var ongoing []models.Incident
		err := c.db.WithContext(ctx).
			Where("monitor_id = ? AND status = ?", m.ID, models.IncidentOngoing).
			Find(&ongoing).Error
		if err != nil {
			return fmt.Errorf("load ongoing incidents: %w", err)
		}
		if len(ongoing) == 0 {
			return nil
		}

		now := time.Now().UTC()
		err = c.db.WithContext(ctx).Model(&models.Incident{}).
			Where("monitor_id = ? AND status = ?", m.ID, models.IncidentOngoing).
			Updates(map[string]interface{}{
				"status":      models.IncidentResolved,
				"resolved_at": now,
			}).Error
		if err != nil {
			return fmt.Errorf("resolve incidents: %w", err)
		}

		earliest := ongoing[0].StartedAt
		for _, inc := range ongoing[1:] {
			if inc.StartedAt.Before(earliest) {
				earliest = inc.StartedAt
			}
		}
		downtime := now.Sub(earliest)

		c.logger.Info("incident resolved",
			zap.String("monitor", m.Name),
			zap.String("url", m.URL),
			zap.String("downtime", FormatDuration(downtime)))

		if c.alerts != nil {
			c.alerts.MonitorRecovered(*m, downtime)
		}
	}

	return nil
}

func (c *Checker) logOutcome(m *models.Monitor, out Outcome) {
	fields := []zap.Field{
		zap.String("monitor", m.Name),
		zap.String("status", string(out.Status)),
	}
	if out.StatusCode != nil {
		fields = append(fields, zap.Int("status_code", *out.StatusCode))
	}
	if out.ResponseTimeMS != nil {
		fields = append(fields, zap.Int("response_time_ms", *out.ResponseTimeMS))
	}
	if out.ErrorMessage != nil {
		fields = append(fields, zap.String("error", *out.ErrorMessage))
	}

	if out.Status == models.StatusUp {
		c.logger.Debug("check complete", fields...)
	} else {
		c.logger.Warn("check failed", fields...)
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
