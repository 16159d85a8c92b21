package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Incident status values
const (
	IncidentOngoing  = "ongoing"
	IncidentResolved = "resolved"
)

// Incident represents one continuous down period for a monitor. At most one
// ongoing incident exists per monitor; incidents are resolved, never deleted.
type Incident struct {
	ID           string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	MonitorID    string     `json:"monitor_id" gorm:"type:varchar(36);not null;index"`
	Title        string     `json:"title" gorm:"not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;default:'ongoing'"`
	StartedAt    time.Time  `json:"started_at"`
	ResolvedAt   *time.Time `json:"resolved_at"`
	ErrorMessage *string    `json:"error_message"`
}

// TableName specifies the table name for Incident
func (Incident) TableName() string {
	return "incidents"
}

// BeforeCreate assigns a UUID primary key
func (i *Incident) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
