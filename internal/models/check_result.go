package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckResult is an immutable record of one probe attempt. Rows are only
// ever inserted by the checker and deleted by the retention pruner.
type CheckResult struct {
	ID             string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	MonitorID      string    `json:"monitor_id" gorm:"type:varchar(36);not null;index:ix_check_results_monitor_checked"`
	StatusCode     *int      `json:"status_code"`
	ResponseTimeMS *int      `json:"response_time_ms"`
	Status         Status    `json:"status" gorm:"type:varchar(20);not null"`
	ErrorMessage   *string   `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"index:ix_check_results_monitor_checked"`
}

// TableName specifies the table name for CheckResult
func (CheckResult) TableName() string {
	return "check_results"
}

// BeforeCreate assigns a UUID primary key
func (c *CheckResult) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
