package models

import (
	"time"
)

// MeetingSchedule is the single scheduled meeting of a consultation
type MeetingSchedule struct {
	ID             uint                `gorm:"primaryKey" json:"id"`
	ConsultationID uint                `gorm:"uniqueIndex;not null" json:"consultation_id"`
	Consultation   ConsultationRequest `gorm:"foreignKey:ConsultationID;constraint:OnDelete:CASCADE" json:"-"`
	ScheduledTime  time.Time           `gorm:"not null;index" json:"scheduled_time"`
	CreatedByID    uint                `gorm:"not null" json:"created_by"`
	CreatedBy      User                `gorm:"foreignKey:CreatedByID;constraint:OnDelete:CASCADE" json:"-"`
	ReminderSent   bool                `gorm:"not null;default:false;index" json:"reminder_sent"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TableName specifies the table name for the MeetingSchedule model
func (MeetingSchedule) TableName() string {
	return "meeting_schedules"
}
