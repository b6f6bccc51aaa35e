package models

import (
	"strings"
	"time"
)

// Expertise is the practice area a lawyer registers under
type Expertise string

const (
	ExpertiseCriminal  Expertise = "criminal"
	ExpertiseCivil     Expertise = "civil"
	ExpertiseFamily    Expertise = "family"
	ExpertiseProperty  Expertise = "property"
	ExpertiseCorporate Expertise = "corporate"
)

// ParseExpertise normalises s and reports whether it names a known practice area
func ParseExpertise(s string) (Expertise, bool) {
	e := Expertise(strings.ToLower(strings.TrimSpace(s)))
	switch e {
	case ExpertiseCriminal, ExpertiseCivil, ExpertiseFamily, ExpertiseProperty, ExpertiseCorporate:
		return e, true
	}
	return "", false
}

// ClientProfile holds the personal details of a client account (1:1 with User)
type ClientProfile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FullName          string    `gorm:"size:100" json:"full_name"`
	PhoneNumber       string    `gorm:"size:20" json:"phone_number"`
	NICNumber         string    `gorm:"size:20" json:"nic_number"`
	ProfilePictureKey *string   `json:"-"`
	ProfilePictureURL *string   `gorm:"-" json:"profile_picture,omitempty"` // computed field
	Email             string    `gorm:"-" json:"email,omitempty"`           // computed field
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the ClientProfile model
func (ClientProfile) TableName() string {
	return "client_profiles"
}

// LawyerProfile holds the professional details of a lawyer account (1:1 with User)
type LawyerProfile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	UserID            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	User              User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	FullName          string    `gorm:"size:100" json:"full_name"`
	PhoneNumber       string    `gorm:"size:20" json:"phone_number"`
	NICNumber         string    `gorm:"size:20" json:"nic_number"`
	QualificationsKey *string   `json:"-"`
	QualificationsURL *string   `gorm:"-" json:"qualifications,omitempty"` // computed field
	Expertise         Expertise `gorm:"type:varchar(100);not null;index" json:"expertise"`
	Location          string    `gorm:"size:100" json:"location"`
	Approved          bool      `gorm:"not null;default:false;index" json:"approved"` // admin-gated
	ProfilePictureKey *string   `json:"-"`
	ProfilePictureURL *string   `gorm:"-" json:"profile_picture,omitempty"` // computed field
	Email             string    `gorm:"-" json:"email,omitempty"`           // computed field
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the LawyerProfile model
func (LawyerProfile) TableName() string {
	return "lawyer_profiles"
}

// ProfileKind tags which variant a Profile holds
type ProfileKind int

const (
	ProfileNone ProfileKind = iota
	ProfileClient
	ProfileLawyer
)

// Profile is the role-specific profile of a user: exactly one of Client or Lawyer is set
// when Kind is ProfileClient or ProfileLawyer, neither when Kind is ProfileNone.
type Profile struct {
	Kind   ProfileKind
	Client *ClientProfile
	Lawyer *LawyerProfile
}

// ClientProfileOf wraps a client profile
func ClientProfileOf(p *ClientProfile) Profile {
	if p == nil {
		return Profile{}
	}
	return Profile{Kind: ProfileClient, Client: p}
}

// LawyerProfileOf wraps a lawyer profile
func LawyerProfileOf(p *LawyerProfile) Profile {
	if p == nil {
		return Profile{}
	}
	return Profile{Kind: ProfileLawyer, Lawyer: p}
}

// FullName returns the profile's full name, or "" for ProfileNone
func (p Profile) FullName() string {
	switch p.Kind {
	case ProfileClient:
		return p.Client.FullName
	case ProfileLawyer:
		return p.Lawyer.FullName
	}
	return ""
}

// DisplayName resolves the name shown for a user: the profile's full name when present,
// otherwise the account email.
func DisplayName(user User, profile Profile) string {
	if name := strings.TrimSpace(profile.FullName()); name != "" {
		return name
	}
	return user.Email
}
