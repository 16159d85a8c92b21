package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusPage is the per-user public status page configuration.
type StatusPage struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string    `json:"user_id" gorm:"type:varchar(36);uniqueIndex;not null"`
	Title       string    `json:"title" gorm:"not null;default:'Service Status'"`
	Description *string   `json:"description"`
	IsPublic    bool      `json:"is_public" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for StatusPage
func (StatusPage) TableName() string {
	return "status_pages"
}

// BeforeCreate assigns a UUID primary key
func (s *StatusPage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
