package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/legalconnect/legalconnect-api/models"
	"github.com/legalconnect/legalconnect-api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MinPasswordLength is the shortest password Register accepts
const MinPasswordLength = 8

// RegisterInput carries a new account and its profile details
type RegisterInput struct {
	Email          string
	Password       string
	Role           models.Role
	FullName       string
	PhoneNumber    string
	NICNumber      string
	Expertise      string // lawyers only
	Location       string // lawyers only
	Qualifications *multipart.FileHeader
	ProfilePicture *multipart.FileHeader
}

// ClientProfileUpdate holds the fields a client may change; nil leaves a field as is
type ClientProfileUpdate struct {
	FullName       *string
	PhoneNumber    *string
	NICNumber      *string
	ProfilePicture *multipart.FileHeader
}

// LawyerProfileUpdate holds the fields a lawyer may change; nil leaves a field as is
type LawyerProfileUpdate struct {
	FullName       *string
	PhoneNumber    *string
	NICNumber      *string
	Expertise      *string
	Location       *string
	Qualifications *multipart.FileHeader
	ProfilePicture *multipart.FileHeader
}

// AccountService owns users, their role-specific profiles and lawyer approval
type AccountService struct {
	db         *gorm.DB
	storage    FileStorage
	index      LawyerIndex
	bcryptCost int
}

// NewAccountService creates an account service using the process-wide storage and lawyer index
func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{
		db:         db,
		storage:    GetFileStorage(),
		index:      GetLawyerIndex(),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account with its profile (and, for clients, an empty points balance)
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, validationError("INVALID_EMAIL", "A valid email address is required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, validationError("WEAK_PASSWORD", "Password must be at least %d characters", MinPasswordLength)
	}
	if in.Role != models.RoleClient && in.Role != models.RoleLawyer {
		return nil, validationError("INVALID_ROLE", "Role must be 'client' or 'lawyer'")
	}

	var expertise models.Expertise
	if in.Role == models.RoleLawyer {
		var ok bool
		if expertise, ok = models.ParseExpertise(in.Expertise); !ok {
			return nil, validationError("INVALID_EXPERTISE", "Expertise must be one of criminal, civil, family, property, corporate")
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return nil, conflictError("USER_EXISTS", "A user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	pictureKey, err := s.upload(ctx, in.ProfilePicture, utils.KindProfilePicture)
	if err != nil {
		return nil, err
	}
	var qualificationsKey *string
	if in.Role == models.RoleLawyer {
		if qualificationsKey, err = s.upload(ctx, in.Qualifications, utils.KindQualifications); err != nil {
			s.discard(ctx, pictureKey)
			return nil, err
		}
	}

	user := models.User{Email: email, PasswordHash: string(hash), Role: in.Role, IsActive: true}
	var lawyerProfile *models.LawyerProfile

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		switch in.Role {
		case models.RoleClient:
			profile := models.ClientProfile{
				UserID:            user.ID,
				FullName:          strings.TrimSpace(in.FullName),
				PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
				NICNumber:         strings.TrimSpace(in.NICNumber),
				ProfilePictureKey: pictureKey,
			}
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to create client profile: %w", err)
			}
			if _, err := NewLedger(tx).GetOrCreate(ctx, user.ID); err != nil {
				return err
			}
		case models.RoleLawyer:
			lawyerProfile = &models.LawyerProfile{
				UserID:            user.ID,
				FullName:          strings.TrimSpace(in.FullName),
				PhoneNumber:       strings.TrimSpace(in.PhoneNumber),
				NICNumber:         strings.TrimSpace(in.NICNumber),
				Expertise:         expertise,
				Location:          strings.TrimSpace(in.Location),
				QualificationsKey: qualificationsKey,
				ProfilePictureKey: pictureKey,
			}
			if err := tx.Create(lawyerProfile).Error; err != nil {
				return fmt.Errorf("failed to create lawyer profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, pictureKey)
		s.discard(ctx, qualificationsKey)
		return nil, err
	}

	if lawyerProfile != nil {
		s.reindex(ctx, lawyerProfile)
	}
	return &user, nil
}

// Authenticate checks an email/password pair. Unknown, inactive and mismatching
// accounts all fail with ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is already taken
func (s *AccountService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("INVALID_ADMIN", "Admin email and password are required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role != models.RoleAdmin {
			log.Printf("warning: bootstrap admin email %s belongs to a %s account", email, existing.Role)
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := models.User{Email: email, PasswordHash: string(hash), Role: models.RoleAdmin, IsActive: true}
	if err := s.db.WithContext(ctx).Create(&admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	log.Printf("Created admin account %s", email)
	return &admin, nil
}

// LoadProfile resolves the role-specific profile of a user. A missing profile is ProfileNone.
func (s *AccountService) LoadProfile(ctx context.Context, user models.User) (models.Profile, error) {
	profiles, err := LoadProfiles(ctx, s.db, []models.User{user})
	if err != nil {
		return models.Profile{}, err
	}
	return profiles[user.ID], nil
}

// LoadProfiles resolves the profiles of many users with one query per role
func LoadProfiles(ctx context.Context, db *gorm.DB, users []models.User) (map[uint]models.Profile, error) {
	var clientIDs, lawyerIDs []uint
	for _, u := range users {
		switch u.Role {
		case models.RoleClient:
			clientIDs = append(clientIDs, u.ID)
		case models.RoleLawyer:
			lawyerIDs = append(lawyerIDs, u.ID)
		}
	}

	profiles := make(map[uint]models.Profile, len(users))

	if len(clientIDs) > 0 {
		var clients []models.ClientProfile
		if err := db.WithContext(ctx).Where("user_id IN ?", clientIDs).Find(&clients).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch client profiles: %w", err)
		}
		for i := range clients {
			profiles[clients[i].UserID] = models.ClientProfileOf(&clients[i])
		}
	}

	if len(lawyerIDs) > 0 {
		var lawyers []models.LawyerProfile
		if err := db.WithContext(ctx).Where("user_id IN ?", lawyerIDs).Find(&lawyers).Error; err != nil {
			return nil, fmt.Errorf("failed to fetch lawyer profiles: %w", err)
		}
		for i := range lawyers {
			profiles[lawyers[i].UserID] = models.LawyerProfileOf(&lawyers[i])
		}
	}

	return profiles, nil
}

// DisplayNames resolves the display name of every user with the given ids
func DisplayNames(ctx context.Context, db *gorm.DB, userIDs []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(userIDs))
	if len(userIDs) == 0 {
		return names, nil
	}

	var users []models.User
	if err := db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	profiles, err := LoadProfiles(ctx, db, users)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = models.DisplayName(u, profiles[u.ID])
	}
	return names, nil
}

// GetClientProfile returns the caller's client profile
func (s *AccountService) GetClientProfile(ctx context.Context, user *models.User) (*models.ClientProfile, error) {
	if user.Role != models.RoleClient {
		return nil, forbiddenError("Only clients have a client profile")
	}

	var profile models.ClientProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("PROFILE_NOT_FOUND", "Client profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch client profile: %w", err)
	}

	profile.Email = user.Email
	profile.ProfilePictureURL = fileURL(ctx, s.storage, profile.ProfilePictureKey)
	return &profile, nil
}

// UpdateClientProfile applies in to the caller's client profile
func (s *AccountService) UpdateClientProfile(ctx context.Context, user *models.User, in ClientProfileUpdate) (*models.ClientProfile, error) {
	profile, err := s.GetClientProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	setTrimmed(&profile.FullName, in.FullName)
	setTrimmed(&profile.PhoneNumber, in.PhoneNumber)
	setTrimmed(&profile.NICNumber, in.NICNumber)

	oldPicture := profile.ProfilePictureKey
	if in.ProfilePicture != nil {
		if profile.ProfilePictureKey, err = s.upload(ctx, in.ProfilePicture, utils.KindProfilePicture); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error; err != nil {
		if in.ProfilePicture != nil {
			s.discard(ctx, profile.ProfilePictureKey)
		}
		return nil, fmt.Errorf("failed to update client profile: %w", err)
	}
	if in.ProfilePicture != nil {
		s.discard(ctx, oldPicture)
	}

	return s.GetClientProfile(ctx, user)
}

// GetLawyerProfile returns the caller's lawyer profile
func (s *AccountService) GetLawyerProfile(ctx context.Context, user *models.User) (*models.LawyerProfile, error) {
	if user.Role != models.RoleLawyer {
		return nil, forbiddenError("Only lawyers have a lawyer profile")
	}

	var profile models.LawyerProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("PROFILE_NOT_FOUND", "Lawyer profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lawyer profile: %w", err)
	}

	profile.Email = user.Email
	s.attachLawyerURLs(ctx, &profile)
	return &profile, nil
}

// UpdateLawyerProfile applies in to the caller's lawyer profile and refreshes its index entry
func (s *AccountService) UpdateLawyerProfile(ctx context.Context, user *models.User, in LawyerProfileUpdate) (*models.LawyerProfile, error) {
	profile, err := s.GetLawyerProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	if in.Expertise != nil {
		expertise, ok := models.ParseExpertise(*in.Expertise)
		if !ok {
			return nil, validationError("INVALID_EXPERTISE", "Expertise must be one of criminal, civil, family, property, corporate")
		}
		profile.Expertise = expertise
	}
	setTrimmed(&profile.FullName, in.FullName)
	setTrimmed(&profile.PhoneNumber, in.PhoneNumber)
	setTrimmed(&profile.NICNumber, in.NICNumber)
	setTrimmed(&profile.Location, in.Location)

	oldPicture, oldQualifications := profile.ProfilePictureKey, profile.QualificationsKey
	if in.ProfilePicture != nil {
		if profile.ProfilePictureKey, err = s.upload(ctx, in.ProfilePicture, utils.KindProfilePicture); err != nil {
			return nil, err
		}
	}
	if in.Qualifications != nil {
		if profile.QualificationsKey, err = s.upload(ctx, in.Qualifications, utils.KindQualifications); err != nil {
			if in.ProfilePicture != nil {
				s.discard(ctx, profile.ProfilePictureKey)
			}
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update lawyer profile: %w", err)
	}
	if in.ProfilePicture != nil {
		s.discard(ctx, oldPicture)
	}
	if in.Qualifications != nil {
		s.discard(ctx, oldQualifications)
	}

	s.reindex(ctx, profile)
	return s.GetLawyerProfile(ctx, user)
}

// ListLawyers returns every lawyer profile with the given approval state (admin view)
func (s *AccountService) ListLawyers(ctx context.Context, approved bool) ([]models.LawyerProfile, error) {
	profiles := []models.LawyerProfile{}
	if err := s.db.WithContext(ctx).
		Where("approved = ?", approved).
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch lawyers: %w", err)
	}
	return profiles, s.attachLawyerDetails(ctx, profiles)
}

// ApproveLawyer marks the lawyer with the given user id approved
func (s *AccountService) ApproveLawyer(ctx context.Context, userID uint) (*models.LawyerProfile, error) {
	var profile models.LawyerProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("LAWYER_NOT_FOUND", "Lawyer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lawyer: %w", err)
	}

	if !profile.Approved {
		if err := s.db.WithContext(ctx).Model(&profile).Update("approved", true).Error; err != nil {
			return nil, fmt.Errorf("failed to approve lawyer: %w", err)
		}
		profile.Approved = true
	}

	profiles := []models.LawyerProfile{profile}
	if err := s.attachLawyerDetails(ctx, profiles); err != nil {
		return nil, err
	}
	s.reindex(ctx, &profiles[0])
	return &profiles[0], nil
}

// SearchLawyers lists approved lawyers whose full name contains search and whose expertise
// equals expertise, both case-insensitive. The search index is used when configured;
// if it fails the query falls back to SQL.
func (s *AccountService) SearchLawyers(ctx context.Context, search, expertise string) ([]models.LawyerProfile, error) {
	search = strings.ToLower(strings.TrimSpace(search))
	expertise = strings.ToLower(strings.TrimSpace(expertise))

	if s.index != nil {
		ids, err := s.index.SearchApproved(ctx, search, expertise)
		if err == nil {
			return s.lawyersByProfileIDs(ctx, ids)
		}
		log.Printf("warning: lawyer search index failed, falling back to database: %v", err)
	}

	query := s.db.WithContext(ctx).Where("approved = ?", true)
	if search != "" {
		query = query.Where("LOWER(full_name) LIKE ? ESCAPE '\\'", "%"+likeEscaper.Replace(search)+"%")
	}
	if expertise != "" {
		query = query.Where("LOWER(expertise) = ?", expertise)
	}

	profiles := []models.LawyerProfile{}
	if err := query.Order("id ASC").Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to search lawyers: %w", err)
	}
	return profiles, s.attachLawyerDetails(ctx, profiles)
}

// likeEscaper makes LIKE match the search text literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *AccountService) lawyersByProfileIDs(ctx context.Context, ids []uint) ([]models.LawyerProfile, error) {
	profiles := []models.LawyerProfile{}
	if len(ids) == 0 {
		return profiles, nil
	}
	// approval is re-checked so a stale index entry never exposes an unapproved lawyer
	if err := s.db.WithContext(ctx).
		Where("id IN ? AND approved = ?", ids, true).
		Order("id ASC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch lawyers: %w", err)
	}
	return profiles, s.attachLawyerDetails(ctx, profiles)
}

// attachLawyerDetails fills the computed email and file URL fields in place
func (s *AccountService) attachLawyerDetails(ctx context.Context, profiles []models.LawyerProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	userIDs := make([]uint, len(profiles))
	for i, p := range profiles {
		userIDs[i] = p.UserID
	}
	var users []models.User
	if err := s.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to fetch lawyer accounts: %w", err)
	}
	emails := make(map[uint]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	for i := range profiles {
		profiles[i].Email = emails[profiles[i].UserID]
		s.attachLawyerURLs(ctx, &profiles[i])
	}
	return nil
}

func (s *AccountService) attachLawyerURLs(ctx context.Context, p *models.LawyerProfile) {
	p.ProfilePictureURL = fileURL(ctx, s.storage, p.ProfilePictureKey)
	p.QualificationsURL = fileURL(ctx, s.storage, p.QualificationsKey)
}

func (s *AccountService) reindex(ctx context.Context, p *models.LawyerProfile) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexLawyer(ctx, LawyerDocumentOf(p)); err != nil {
		log.Printf("warning: failed to index lawyer profile %d: %v", p.ID, err)
	}
}

// upload stores an optional file, returning nil when none was given
func (s *AccountService) upload(ctx context.Context, fileHeader *multipart.FileHeader, kind utils.FileKind) (*string, error) {
	if fileHeader == nil {
		return nil, nil
	}
	if s.storage == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}
	key, err := s.storage.Upload(ctx, fileHeader, kind)
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *AccountService) discard(ctx context.Context, key *string) {
	if s.storage == nil || key == nil {
		return
	}
	if err := s.storage.Delete(ctx, *key); err != nil {
		log.Printf("warning: failed to delete stored file %s: %v", *key, err)
	}
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
