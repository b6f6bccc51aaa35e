package models

import (
	"time"
)

// ConsultationStatus is a state of the consultation lifecycle
type ConsultationStatus string

const (
	StatusPending   ConsultationStatus = "pending"
	StatusAccepted  ConsultationStatus = "accepted"
	StatusRejected  ConsultationStatus = "rejected"
	StatusCompleted ConsultationStatus = "completed"
)

// legal edges of the lifecycle; rejected and completed are terminal
var consultationTransitions = map[ConsultationStatus][]ConsultationStatus{
	StatusPending:  {StatusAccepted, StatusRejected},
	StatusAccepted: {StatusCompleted},
}

// Valid reports whether s is a known status
func (s ConsultationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether to is a legal next state from s
func (s ConsultationStatus) CanTransitionTo(to ConsultationStatus) bool {
	for _, next := range consultationTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// ConsultationRequest is a client's booking of a lawyer
type ConsultationRequest struct {
	ID            uint               `gorm:"primaryKey" json:"id"`
	ClientID      uint               `gorm:"not null;index" json:"client_id"`
	Client        User               `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"-"`
	LawyerID      uint               `gorm:"not null;index" json:"lawyer_id"` // lawyer's user id
	Lawyer        User               `gorm:"foreignKey:LawyerID;constraint:OnDelete:CASCADE" json:"-"`
	Title         string             `gorm:"size:255;not null" json:"title"`
	CaseType      string             `gorm:"size:255;not null" json:"case_type"`
	Status        ConsultationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RequestedTime time.Time          `gorm:"not null" json:"requested_time"`
	AcceptedTime  *time.Time         `json:"accepted_time,omitempty"`
	ClientName    string             `gorm:"-" json:"client_name"`  // computed field
	ClientEmail   string             `gorm:"-" json:"client_email"` // computed field
	LawyerName    string             `gorm:"-" json:"lawyer_name"`  // computed field
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TableName specifies the table name for the ConsultationRequest model
func (ConsultationRequest) TableName() string {
	return "consultation_requests"
}

// IsParticipant reports whether userID is the client or the lawyer of the consultation
func (c *ConsultationRequest) IsParticipant(userID uint) bool {
	return c.ClientID == userID || c.LawyerID == userID
}
