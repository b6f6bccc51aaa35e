package models

import "gorm.io/gorm"

// AutoMigrate migrates every entity of the marketplace
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&ClientProfile{},
		&LawyerProfile{},
		&ConsultationRequest{},
		&ConsultationPoint{},
		&Notification{},
		&Message{},
		&MeetingSchedule{},
	)
}
