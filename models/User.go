package models

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleSeller   Role = "SELLER"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

type Address struct {
	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	Country      string `json:"country,omitempty"`
}

type NotificationPreferences struct {
	Email *bool `json:"email,omitempty"`
	SMS   *bool `json:"sms,omitempty"`
	Push  *bool `json:"push,omitempty"`
}

type Preferences struct {
	Language      string                   `json:"language,omitempty"`
	Notifications *NotificationPreferences `json:"notifications,omitempty"`
	Theme         string                   `json:"theme,omitempty"`
}

// PasswordHistoryEntry is a previous password hash and when it stopped being current.
type PasswordHistoryEntry struct {
	Hash      string    `json:"hash"`
	ChangedAt time.Time `json:"changedAt"`
}

type User struct {
	ID        string `gorm:"type:char(36);primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name      string     `gorm:"size:100;not null"`
	Email     string     `gorm:"size:191;uniqueIndex;not null"`
	CPF       *string    `gorm:"column:cpf;size:14;uniqueIndex"`
	Phone     *string    `gorm:"size:20"`
	BirthDate *time.Time `gorm:"type:date"`
	Gender    *Gender    `gorm:"size:10"`
	Role      Role       `gorm:"size:16;index;not null;default:CUSTOMER"`
	IsActive  bool       `gorm:"index;not null;default:true"`

	EmailVerified bool `gorm:"not null;default:false"`
	PhoneVerified bool `gorm:"not null;default:false"`
	LastLoginAt   *time.Time

	Address                *Address     `gorm:"serializer:json;type:text"`
	Preferences            *Preferences `gorm:"serializer:json;type:text"`
	MarketingConsent       bool         `gorm:"not null;default:false"`
	NewsletterSubscription bool         `gorm:"not null;default:false"`
	ExternalID             *string      `gorm:"size:191;index"`
	IntegrationSource      *string      `gorm:"size:64"`
	CreatedBy              *string      `gorm:"type:char(36)"`
	UpdatedBy              *string      `gorm:"type:char(36)"`

	PasswordHash         string                 `gorm:"size:255;not null"`
	FailedLoginAttempts  int                    `gorm:"not null;default:0"`
	LockedUntil          *time.Time
	ResetTokenHash       *string                `gorm:"size:64;index"`
	ResetTokenExpiresAt  *time.Time
	PasswordHistory      []PasswordHistoryEntry `gorm:"serializer:json;type:text"`
	LastPasswordChangeAt *time.Time
}

type RefreshToken struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UserID         string `gorm:"type:char(36);index;not null"`
	TokenHash      string `gorm:"size:64;uniqueIndex;not null"`
	TokenExpiresAt time.Time
}

type UserFilter struct {
	Page     int
	Limit    int
	IsActive *bool
	Role     *Role
	Search   string
}
