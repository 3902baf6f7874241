package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Context is an organizational scope an invitation may be issued under
// (a journal or press in the editorial application).
type Context struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Path          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"path"`
	PrimaryLocale string         `gorm:"type:varchar(16)" json:"primary_locale"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Context) TableName() string { return "contexts" }
