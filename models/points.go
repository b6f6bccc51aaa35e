package models

// ConsultationPoint is the per-user balance of consultation points
type ConsultationPoint struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	UserID  uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	User    User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Balance int    `gorm:"not null;default:0;check:balance >= 0" json:"balance"`
	Email   string `gorm:"-" json:"email,omitempty"` // computed field
}

// TableName specifies the table name for the ConsultationPoint model
func (ConsultationPoint) TableName() string {
	return "consultation_points"
}
