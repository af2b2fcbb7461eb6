package models

import (
	"time"

	"gorm.io/gorm"
)

type APIKeyMode string

const (
	APIKeyModeLive APIKeyMode = "live"
	APIKeyModeTest APIKeyMode = "test"
)

type APIKey struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	Name           string         `gorm:"type:varchar(255)" json:"name"`
	Mode           APIKeyMode     `gorm:"type:varchar(10);not null;default:'live'" json:"mode"`
	KeyHash        string         `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	LastEight      string         `gorm:"type:char(8);not null" json:"-"`
	LastUsedAt     *time.Time     `json:"last_used_at"`
	CreatedByID    uint64         `gorm:"not null" json:"created_by_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}

// MaskedKey returns the only representation of the key that leaves the server
// after creation: asterisks plus the final eight characters.
func (k *APIKey) MaskedKey() string {
	return "****" + k.LastEight
}
