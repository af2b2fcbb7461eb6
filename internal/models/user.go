package models

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrInvalidEmail         = errors.New("invalid email format")
	ErrNameTooShort         = errors.New("name must be at least 2 characters")
	ErrEmailAlreadyVerified = errors.New("email is already verified")
)

type User struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"type:varchar(255);not null" json:"name"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash  string         `gorm:"type:varchar(255);not null" json:"-"`
	AvatarURL     string         `gorm:"type:varchar(512)" json:"avatar_url"`
	EmailVerified bool           `gorm:"not null;default:false" json:"email_verified"`
	ResetToken    *string        `gorm:"type:varchar(64);index" json:"-"`
	ResetExpires  *time.Time     `json:"-"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships   []OrganizationMember `gorm:"foreignKey:UserID" json:"-"`
	Notifications []Notification       `gorm:"foreignKey:UserID" json:"-"`
	RefreshTokens []RefreshToken       `gorm:"foreignKey:UserID" json:"-"`
}

// ValidateUserName checks the minimum name length invariant.
func ValidateUserName(name string) error {
	if len(strings.TrimSpace(name)) < 2 {
		return ErrNameTooShort
	}
	return nil
}

// ValidateEmail checks the email shape invariant.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// NewUser validates field invariants and constructs a user. Validation runs
// here rather than at the persistence boundary so every construction path goes
// through the same checks.
func NewUser(name, email, passwordHash string) (*User, error) {
	if err := ValidateUserName(name); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	return &User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: passwordHash,
	}, nil
}

// UpdateName re-validates and applies a new display name.
func (u *User) UpdateName(name string) error {
	if err := ValidateUserName(name); err != nil {
		return err
	}
	u.Name = strings.TrimSpace(name)
	return nil
}

// UpdateAvatar applies a new avatar URL.
func (u *User) UpdateAvatar(url string) {
	u.AvatarURL = url
}

// VerifyEmail marks the email as verified. Verifying twice is an error.
func (u *User) VerifyEmail() error {
	if u.EmailVerified {
		return ErrEmailAlreadyVerified
	}
	u.EmailVerified = true
	return nil
}
