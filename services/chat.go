package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatService keeps the message log of each consultation
type ChatService struct {
	db      *gorm.DB
	storage FileStorage
}

// NewChatService creates a chat service using the process-wide file storage
func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{db: db, storage: GetFileStorage()}
}

// participantConsultation loads a consultation and checks user takes part in it
func participantConsultation(ctx context.Context, db *gorm.DB, user *models.User, consultationID uint) (*models.ConsultationRequest, error) {
	var consultation models.ConsultationRequest
	err := db.WithContext(ctx).First(&consultation, consultationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("CONSULTATION_NOT_FOUND", "Consultation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consultation: %w", err)
	}
	if !consultation.IsParticipant(user.ID) {
		return nil, ErrNotParticipant
	}
	return &consultation, nil
}

// Append posts a message from sender. A message needs text, a file, or both.
func (s *ChatService) Append(ctx context.Context, sender *models.User, consultationID uint, content string, file *multipart.FileHeader) (*models.Message, error) {
	if _, err := participantConsultation(ctx, s.db, sender, consultationID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" && file == nil {
		return nil, validationError("EMPTY_MESSAGE", "Message must contain text or a file.")
	}

	message := models.Message{
		ConsultationID: consultationID,
		SenderID:       sender.ID,
		Content:        content,
	}

	if file != nil {
		if s.storage == nil {
			return nil, fmt.Errorf("file storage is not configured")
		}
		key, err := s.storage.Upload(ctx, file, utils.KindChatAttachment)
		if err != nil {
			return nil, err
		}
		message.FileKey = &key
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&message).Error; err != nil {
		if message.FileKey != nil {
			if delErr := s.storage.Delete(ctx, *message.FileKey); delErr != nil {
				log.Printf("warning: failed to delete orphaned attachment %s: %v", *message.FileKey, delErr)
			}
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	messages := []models.Message{message}
	if err := s.decorate(ctx, messages); err != nil {
		return nil, err
	}
	return &messages[0], nil
}

// List returns a consultation's messages oldest first
func (s *ChatService) List(ctx context.Context, user *models.User, consultationID uint) ([]models.Message, error) {
	if _, err := participantConsultation(ctx, s.db, user, consultationID); err != nil {
		return nil, err
	}

	messages := []models.Message{}
	if err := s.db.WithContext(ctx).
		Where("consultation_id = ?", consultationID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	if err := s.decorate(ctx, messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PartnerName returns the display name of the other participant
func (s *ChatService) PartnerName(ctx context.Context, user *models.User, consultationID uint) (string, error) {
	consultation, err := participantConsultation(ctx, s.db, user, consultationID)
	if err != nil {
		return "", err
	}

	partnerID := consultation.LawyerID
	if user.ID == consultation.LawyerID {
		partnerID = consultation.ClientID
	}

	names, err := DisplayNames(ctx, s.db, []uint{partnerID})
	if err != nil {
		return "", err
	}
	return names[partnerID], nil
}

// decorate resolves sender_email, sender_name and file_url at read time
func (s *ChatService) decorate(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}

	seen := map[uint]bool{}
	senderIDs := []uint{}
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			senderIDs = append(senderIDs, m.SenderID)
		}
	}

	var senders []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", senderIDs).Find(&senders).Error; err != nil {
		return fmt.Errorf("failed to fetch senders: %w", err)
	}
	profiles, err := LoadProfiles(ctx, s.db, senders)
	if err != nil {
		return err
	}

	byID := make(map[uint]models.User, len(senders))
	for _, u := range senders {
		byID[u.ID] = u
	}
	for i := range messages {
		sender := byID[messages[i].SenderID]
		messages[i].SenderEmail = sender.Email
		messages[i].SenderName = models.DisplayName(sender, profiles[sender.ID])
		messages[i].FileURL = fileURL(ctx, s.storage, messages[i].FileKey)
	}
	return nil
}
