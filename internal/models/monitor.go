package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the observed state of a monitor or a single check.
type Status string

// Status values
const (
	StatusUnknown Status = "unknown"
	StatusUp      Status = "up"
	StatusDown    Status = "down"
)

// Monitor is a user-configured HTTP endpoint under periodic observation.
//
// CurrentStatus, ConsecutiveFailures and LastCheckedAt are owned by the
// check pipeline; everything else is managed through the monitors API.
type Monitor struct {
	ID                  string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID              string     `json:"user_id" gorm:"type:varchar(36);not null;index"`
	Name                string     `json:"name" gorm:"not null"`
	URL                 string     `json:"url" gorm:"not null"`
	Method              string     `json:"method" gorm:"type:varchar(10);default:'GET'"`
	CheckInterval       int        `json:"check_interval" gorm:"default:300"` // seconds
	Timeout             int        `json:"timeout" gorm:"default:30"`         // seconds
	ExpectedStatusCode  int        `json:"expected_status_code" gorm:"default:200"`
	IsActive            bool       `json:"is_active" gorm:"default:true;index"`
	IsPublic            bool       `json:"is_public" gorm:"default:true"`
	CurrentStatus       Status     `json:"current_status" gorm:"type:varchar(20);default:'unknown'"`
	ConsecutiveFailures int        `json:"consecutive_failures" gorm:"default:0"`
	LastCheckedAt       *time.Time `json:"last_checked_at"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Monitor
func (Monitor) TableName() string {
	return "monitors"
}

// BeforeCreate assigns a UUID primary key
func (m *Monitor) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
