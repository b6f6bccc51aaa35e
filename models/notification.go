package models

import (
	"time"

	"gorm.io/datatypes"
)

// Severity classifies how a notification is rendered
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityDanger  Severity = "danger"
)

// Notification is an append-only alert shown to a user
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Severity  Severity       `gorm:"type:varchar(20);not null" json:"severity"`
	Data      datatypes.JSON `json:"data,omitempty"` // e.g. {"consultation_id": 12}
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
