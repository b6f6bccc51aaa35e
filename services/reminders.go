package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/legalconnect/legalconnect-api/config"
	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"gorm.io/gorm"
)

const (
	// ReminderLockKey guards the sweep across processes
	ReminderLockKey = "legalconnect:reminder-sweep"
	reminderLockTTL = 5 * time.Minute

	// ReminderTimeLayout renders the meeting time inside reminder messages
	ReminderTimeLayout = "03:04 PM"
)

// errAlreadyClaimed rolls back a reminder transaction another sweep won
var errAlreadyClaimed = errors.New("reminder already claimed")

// SweepResult summarises one reminder sweep
type SweepResult struct {
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Candidates  int       `json:"candidates"`
	Sent        int       `json:"sent"`
	Skipped     bool      `json:"skipped"` // another sweep held the lock
}

// ReminderService sends one reminder per scheduled meeting of an accepted consultation,
// to both participants, once the meeting enters the reminder window.
type ReminderService struct {
	db            *gorm.DB
	notifications *NotificationService
	locker        SweepLocker
	windowStart   time.Duration
	windowEnd     time.Duration
	location      *time.Location
	now           func() time.Time
}

// NewReminderService creates a sweep over [now+windowStart, now+windowEnd), rendering times in loc.
// A nil locker means sweeps are not serialised across processes.
func NewReminderService(db *gorm.DB, windowStart, windowEnd time.Duration, loc *time.Location, locker SweepLocker) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	if locker == nil {
		locker = NoopLocker{}
	}
	return &ReminderService{
		db:            db,
		notifications: NewNotificationService(db),
		locker:        locker,
		windowStart:   windowStart,
		windowEnd:     windowEnd,
		location:      loc,
		now:           time.Now,
	}
}

// NewReminderServiceFromConfig builds the configured sweep. With REDIS_URL set, sweeps are
// serialised through Redis and the returned func releases that connection.
func NewReminderServiceFromConfig(ctx context.Context, db *gorm.DB, cfg *config.Config) (*ReminderService, func(), error) {
	cleanup := func() {}
	var locker SweepLocker = NoopLocker{}

	if cfg.RedisURL != "" {
		redisLocker, err := NewRedisLocker(ctx, cfg.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		locker = redisLocker
		cleanup = func() {
			if err := redisLocker.Close(); err != nil {
				log.Printf("Error closing Redis connection: %v", err)
			}
		}
	}

	return NewReminderService(db, cfg.ReminderWindowStart, cfg.ReminderWindowEnd, cfg.ReminderLocation(), locker), cleanup, nil
}

// Sweep emits the reminders due now. Each meeting is claimed with a conditional update so
// overlapping sweeps never remind the same meeting twice; failures on one meeting do not
// stop the others and are returned joined.
func (s *ReminderService) Sweep(ctx context.Context) (*SweepResult, error) {
	now := s.now().UTC()
	result := &SweepResult{
		WindowStart: now.Add(s.windowStart),
		WindowEnd:   now.Add(s.windowEnd),
	}

	release, acquired, err := s.locker.TryLock(ctx, ReminderLockKey, reminderLockTTL)
	if err != nil {
		return nil, err
	}
	defer release()
	if !acquired {
		log.Println("Reminder sweep skipped: another sweep is running")
		result.Skipped = true
		return result, nil
	}

	accepted := s.db.Model(&models.ConsultationRequest{}).
		Select("id").
		Where("status = ?", models.StatusAccepted)

	var meetings []models.MeetingSchedule
	if err := s.db.WithContext(ctx).
		Where("scheduled_time >= ? AND scheduled_time < ?", result.WindowStart, result.WindowEnd).
		Where("reminder_sent = ?", false).
		Where("consultation_id IN (?)", accepted).
		Order("scheduled_time ASC").
		Order("id ASC").
		Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch upcoming meetings: %w", err)
	}
	result.Candidates = len(meetings)

	log.Printf("Checking for meetings between %s and %s: %d found",
		result.WindowStart.Format(time.RFC3339), result.WindowEnd.Format(time.RFC3339), len(meetings))

	var errs []error
	for _, meeting := range meetings {
		sent, err := s.remind(ctx, meeting)
		if err != nil {
			errs = append(errs, fmt.Errorf("meeting %d: %w", meeting.ID, err))
			continue
		}
		if sent {
			result.Sent++
		}
	}

	monitoring.RemindersSent.Add(float64(result.Sent))
	return result, errors.Join(errs...)
}

// remind claims one meeting and emits both reminders in the same transaction.
// It reports false when another sweep claimed the meeting first.
func (s *ReminderService) remind(ctx context.Context, meeting models.MeetingSchedule) (bool, error) {
	var emitted []*models.Notification

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim := tx.Model(&models.MeetingSchedule{}).
			Where("id = ? AND reminder_sent = ?", meeting.ID, false).
			Update("reminder_sent", true)
		if claim.Error != nil {
			return fmt.Errorf("failed to claim reminder: %w", claim.Error)
		}
		if claim.RowsAffected == 0 {
			return errAlreadyClaimed
		}

		var consultation models.ConsultationRequest
		if err := tx.First(&consultation, meeting.ConsultationID).Error; err != nil {
			return fmt.Errorf("failed to fetch consultation: %w", err)
		}

		names, err := DisplayNames(ctx, tx, []uint{consultation.ClientID, consultation.LawyerID})
		if err != nil {
			return err
		}

		at := meeting.ScheduledTime.In(s.location).Format(ReminderTimeLayout)
		data := map[string]any{
			"consultation_id": consultation.ID,
			"scheduled_time":  meeting.ScheduledTime.UTC(),
		}

		toClient, err := s.notifications.Emit(ctx, tx, consultation.ClientID,
			fmt.Sprintf("Reminder: Your consultation with %s is at %s.", names[consultation.LawyerID], at),
			models.SeverityInfo, data)
		if err != nil {
			return err
		}
		toLawyer, err := s.notifications.Emit(ctx, tx, consultation.LawyerID,
			fmt.Sprintf("Reminder: You have a consultation with %s at %s.", names[consultation.ClientID], at),
			models.SeverityInfo, data)
		if err != nil {
			return err
		}

		emitted = append(emitted, toClient, toLawyer)
		return nil
	})
	if errors.Is(err, errAlreadyClaimed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	s.notifications.Publish(ctx, emitted...)
	return true, nil
}
