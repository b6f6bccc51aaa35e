package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/legalconnect/legalconnect-api/models"
	"gorm.io/gorm"
)

// MeetingService keeps the single scheduled meeting of each consultation
type MeetingService struct {
	db *gorm.DB
}

// NewMeetingService creates a meeting service
func NewMeetingService(db *gorm.DB) *MeetingService {
	return &MeetingService{db: db}
}

// Schedule sets (or moves) the meeting of an accepted consultation.
// A meeting is reminded at most once, so moving it keeps reminder_sent as it was.
func (s *MeetingService) Schedule(ctx context.Context, actor *models.User, consultationID uint, at time.Time) (*models.MeetingSchedule, error) {
	if at.IsZero() {
		return nil, validationError("MISSING_MEETING_TIME", "No meeting_time provided")
	}

	consultation, err := participantConsultation(ctx, s.db, actor, consultationID)
	if err != nil {
		return nil, err
	}
	if consultation.Status != models.StatusAccepted {
		return nil, validationError("CONSULTATION_NOT_ACCEPTED", "Meetings can only be scheduled for accepted consultations")
	}

	at = at.UTC()
	var meeting models.MeetingSchedule
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("consultation_id = ?", consultationID).First(&meeting).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			meeting = models.MeetingSchedule{
				ConsultationID: consultationID,
				ScheduledTime:  at,
				CreatedByID:    actor.ID,
			}
			if err := tx.Omit("Consultation", "CreatedBy").Create(&meeting).Error; err != nil {
				return fmt.Errorf("failed to create meeting: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to fetch meeting: %w", err)
		}

		updates := map[string]any{"created_by_id": actor.ID, "scheduled_time": at}
		if err := tx.Model(&meeting).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update meeting: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.find(ctx, consultationID)
}

// Get returns the meeting of a consultation to one of its participants
func (s *MeetingService) Get(ctx context.Context, actor *models.User, consultationID uint) (*models.MeetingSchedule, error) {
	if _, err := participantConsultation(ctx, s.db, actor, consultationID); err != nil {
		return nil, err
	}
	return s.find(ctx, consultationID)
}

func (s *MeetingService) find(ctx context.Context, consultationID uint) (*models.MeetingSchedule, error) {
	var meeting models.MeetingSchedule
	err := s.db.WithContext(ctx).Where("consultation_id = ?", consultationID).First(&meeting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("MEETING_NOT_FOUND", "No meeting scheduled")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch meeting: %w", err)
	}
	return &meeting, nil
}
