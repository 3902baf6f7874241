package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationStatusInitialized InvitationStatus = "INITIALIZED"
	InvitationStatusPending     InvitationStatus = "PENDING"
	InvitationStatusAccepted    InvitationStatus = "ACCEPTED"
	InvitationStatusDeclined    InvitationStatus = "DECLINED"
)

// IsTerminal reports whether no further transition is permitted from s.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationStatusAccepted || s == InvitationStatusDeclined
}

// PayloadMap is the generic key/value payload blob stored as a JSON column.
// Keys are restricted to the invitation type's declared field names.
type PayloadMap map[string]any

func (p PayloadMap) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal invitation payload: %w", err)
	}
	return string(b), nil
}

func (p *PayloadMap) Scan(src any) error {
	if src == nil {
		*p = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported payload column type %T", src)
	}
	if len(b) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(b, p)
}

type Invitation struct {
	ID         int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Type       string           `gorm:"type:varchar(64);not null;index" json:"type"`
	Status     InvitationStatus `gorm:"type:varchar(16);not null;default:'INITIALIZED';index" json:"status"`
	UserID     *uuid.UUID       `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Email      *string          `gorm:"type:varchar(255);index" json:"email,omitempty"`
	ContextID  *uuid.UUID       `gorm:"type:uuid;index" json:"context_id,omitempty"`
	InviterID  *uuid.UUID       `gorm:"type:uuid" json:"inviter_id,omitempty"`
	KeyHash    *string          `gorm:"type:varchar(255)" json:"-"`
	ExpiryDate *time.Time       `json:"expiry_date,omitempty"`
	Payload    PayloadMap       `gorm:"type:jsonb" json:"payload,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	DeletedAt  gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
}

func (Invitation) TableName() string { return "invitations" }
