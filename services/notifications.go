package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationService appends to and reads the per-user notification log
type NotificationService struct {
	db        *gorm.DB
	publisher NotificationPublisher
}

// NewNotificationService creates a notification service using the process-wide publisher
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, publisher: GetNotificationPublisher()}
}

// Emit appends a notification using tx (pass the service's own DB or a transaction).
// data, when non-nil, is stored as the notification's JSON payload.
func (s *NotificationService) Emit(ctx context.Context, tx *gorm.DB, userID uint, message string, severity models.Severity, data map[string]any) (*models.Notification, error) {
	if tx == nil {
		tx = s.db
	}

	notification := models.Notification{
		UserID:   userID,
		Message:  message,
		Severity: severity,
	}
	if data != nil {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode notification data: %w", err)
		}
		notification.Data = datatypes.JSON(payload)
	}

	if err := tx.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return &notification, nil
}

// Publish counts committed notifications and forwards them to the publisher.
// Call it once per notification after the emitting transaction commits.
// Publisher failures are logged, not returned.
func (s *NotificationService) Publish(ctx context.Context, notifications ...*models.Notification) {
	for _, n := range notifications {
		if n == nil {
			continue
		}
		monitoring.NotificationsEmitted.WithLabelValues(string(n.Severity)).Inc()
		if s.publisher == nil {
			continue
		}
		if err := s.publisher.Publish(ctx, n); err != nil {
			log.Printf("warning: failed to publish notification %d for user %d: %v", n.ID, n.UserID, err)
		}
	}
}

// List returns a user's notifications, newest first
func (s *NotificationService) List(ctx context.Context, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	return notifications, nil
}
