package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserStatus int

const (
	UserStatusActive   UserStatus = 1
	UserStatusDisabled UserStatus = 2
)

type User struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	GivenName  string         `gorm:"type:varchar(255)" json:"given_name"`
	FamilyName string         `gorm:"type:varchar(255)" json:"family_name"`
	Email      string         `gorm:"type:varchar(255);not null" json:"email"`
	Locale     string         `gorm:"type:varchar(16)" json:"locale"`
	Status     UserStatus     `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// FullName joins given and family name, tolerating either being empty.
func (u *User) FullName() string {
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}
