package models

import (
	"time"
)

// Message represents a chat message in a consultation conversation
type Message struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ConsultationID uint                `gorm:"not null;index" json:"consultation_id"`
	Consultation   ConsultationRequest `gorm:"foreignKey:ConsultationID;constraint:OnDelete:CASCADE" json:"-"`
	SenderID       uint                `gorm:"not null;index" json:"sender_id"`
	Sender         User                `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE" json:"-"`
	Content        string              `gorm:"type:text" json:"content"`
	FileKey        *string             `json:"-"`
	FileURL        *string             `gorm:"-" json:"file_url"`     // computed field
	SenderEmail    string              `gorm:"-" json:"sender_email"` // computed field
	SenderName     string              `gorm:"-" json:"sender_name"`  // computed field, resolved at read time
	CreatedAt      time.Time           `gorm:"index" json:"timestamp"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
