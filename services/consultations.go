package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/monitoring"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateConsultationInput is a client's booking request
type CreateConsultationInput struct {
	LawyerProfileID uint
	Title           string
	CaseType        string
	RequestedTime   time.Time
}

// ConsultationService runs the consultation lifecycle: booking, status transitions and reads
type ConsultationService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewConsultationService creates a consultation service
func NewConsultationService(db *gorm.DB) *ConsultationService {
	return &ConsultationService{db: db, notifications: NewNotificationService(db)}
}

// Create books a consultation: the client is debited one point, the request is stored as
// pending and the lawyer is notified, all in one transaction.
func (s *ConsultationService) Create(ctx context.Context, client *models.User, in CreateConsultationInput) (*models.ConsultationRequest, error) {
	if client.Role != models.RoleClient {
		return nil, forbiddenError("Only clients can book consultations")
	}

	title := strings.TrimSpace(in.Title)
	caseType := strings.TrimSpace(in.CaseType)
	if title == "" || caseType == "" || in.RequestedTime.IsZero() {
		return nil, validationError("MISSING_FIELDS", "Title, case type and requested time are required")
	}

	var lawyer models.LawyerProfile
	err := s.db.WithContext(ctx).First(&lawyer, in.LawyerProfileID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, validationError("INVALID_LAWYER", "Invalid lawyer ID")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lawyer: %w", err)
	}

	consultation := models.ConsultationRequest{
		ClientID:      client.ID,
		LawyerID:      lawyer.UserID,
		Title:         title,
		CaseType:      caseType,
		Status:        models.StatusPending,
		RequestedTime: in.RequestedTime.UTC(),
	}

	var notification *models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := NewLedger(tx).Debit(ctx, client.ID, BookingCost); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(&consultation).Error; err != nil {
			return fmt.Errorf("failed to create consultation: %w", err)
		}

		names, err := DisplayNames(ctx, tx, []uint{client.ID})
		if err != nil {
			return err
		}
		notification, err = s.notifications.Emit(ctx, tx, lawyer.UserID,
			fmt.Sprintf("New consultation request from %s.", names[client.ID]),
			models.SeverityInfo,
			map[string]any{"consultation_id": consultation.ID, "status": consultation.Status})
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.PointsDebited.Add(BookingCost)
	s.notifications.Publish(ctx, notification)

	if err := s.annotate(ctx, []*models.ConsultationRequest{&consultation}); err != nil {
		return nil, err
	}
	return &consultation, nil
}

// Transition moves a consultation to status on behalf of actor (its lawyer or an admin).
// Only pending->accepted, pending->rejected and accepted->completed are legal; asking for
// the current status is a no-op. Rejection refunds the client's point, and accepting or
// rejecting notifies the client, in the same transaction as the status write.
func (s *ConsultationService) Transition(ctx context.Context, actor *models.User, id uint, status models.ConsultationStatus) (*models.ConsultationRequest, error) {
	current, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, validationError("INVALID_STATUS", "Unknown status %q", status)
	}
	if actor.Role != models.RoleAdmin && current.LawyerID != actor.ID {
		return nil, forbiddenError("Only the assigned lawyer can update this consultation")
	}

	if current.Status == status {
		return s.Get(ctx, actor, id)
	}
	if !current.Status.CanTransitionTo(status) {
		return nil, validationError("INVALID_TRANSITION", "Cannot change a %s consultation to %s", current.Status, status)
	}

	var notification *models.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]any{"status": status}
		if status == models.StatusAccepted {
			updates["accepted_time"] = time.Now().UTC()
		}

		// conditional on the status we validated against, so concurrent transitions cannot both apply
		result := tx.Model(&models.ConsultationRequest{}).
			Where("id = ? AND status = ?", id, current.Status).
			Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("failed to update consultation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conflictError("CONCURRENT_UPDATE", "Consultation was updated by another request")
		}

		if status == models.StatusRejected {
			if _, err := NewLedger(tx).Credit(ctx, current.ClientID, BookingCost); err != nil {
				return err
			}
		}

		var (
			verb     string
			severity models.Severity
		)
		switch status {
		case models.StatusAccepted:
			verb, severity = "accepted", models.SeveritySuccess
		case models.StatusRejected:
			verb, severity = "rejected", models.SeverityDanger
		default:
			return nil
		}

		names, err := DisplayNames(ctx, tx, []uint{current.LawyerID})
		if err != nil {
			return err
		}
		notification, err = s.notifications.Emit(ctx, tx, current.ClientID,
			fmt.Sprintf("Your consultation with %s was %s.", names[current.LawyerID], verb),
			severity,
			map[string]any{"consultation_id": id, "status": status})
		return err
	})
	if err != nil {
		return nil, err
	}

	if status == models.StatusRejected {
		monitoring.PointsCredited.Add(BookingCost)
	}
	s.notifications.Publish(ctx, notification)
	return s.Get(ctx, actor, id)
}

// Get returns one consultation to a participant or an admin
func (s *ConsultationService) Get(ctx context.Context, actor *models.User, id uint) (*models.ConsultationRequest, error) {
	consultation, err := s.find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdmin && !consultation.IsParticipant(actor.ID) {
		return nil, ErrNotParticipant
	}

	if err := s.annotate(ctx, []*models.ConsultationRequest{consultation}); err != nil {
		return nil, err
	}
	return consultation, nil
}

// ListForLawyer returns the consultations addressed to a lawyer, newest first
func (s *ConsultationService) ListForLawyer(ctx context.Context, lawyer *models.User) ([]models.ConsultationRequest, error) {
	return s.list(ctx, "lawyer_id = ?", lawyer.ID)
}

// ListForClient returns the consultations a client booked, newest first
func (s *ConsultationService) ListForClient(ctx context.Context, client *models.User) ([]models.ConsultationRequest, error) {
	return s.list(ctx, "client_id = ?", client.ID)
}

func (s *ConsultationService) list(ctx context.Context, where string, userID uint) ([]models.ConsultationRequest, error) {
	consultations := []models.ConsultationRequest{}
	if err := s.db.WithContext(ctx).
		Where(where, userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&consultations).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch consultations: %w", err)
	}

	ptrs := make([]*models.ConsultationRequest, len(consultations))
	for i := range consultations {
		ptrs[i] = &consultations[i]
	}
	if err := s.annotate(ctx, ptrs); err != nil {
		return nil, err
	}
	return consultations, nil
}

func (s *ConsultationService) find(ctx context.Context, db *gorm.DB, id uint) (*models.ConsultationRequest, error) {
	var consultation models.ConsultationRequest
	err := db.WithContext(ctx).First(&consultation, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("CONSULTATION_NOT_FOUND", "Consultation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consultation: %w", err)
	}
	return &consultation, nil
}

// annotate fills client_name, client_email and lawyer_name
func (s *ConsultationService) annotate(ctx context.Context, consultations []*models.ConsultationRequest) error {
	if len(consultations) == 0 {
		return nil
	}

	seen := map[uint]bool{}
	ids := []uint{}
	for _, c := range consultations {
		for _, id := range []uint{c.ClientID, c.LawyerID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to fetch participants: %w", err)
	}
	profiles, err := LoadProfiles(ctx, s.db, users)
	if err != nil {
		return err
	}

	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, c := range consultations {
		client, lawyer := byID[c.ClientID], byID[c.LawyerID]
		c.ClientName = models.DisplayName(client, profiles[client.ID])
		c.ClientEmail = client.Email
		c.LawyerName = models.DisplayName(lawyer, profiles[lawyer.ID])
	}
	return nil
}
