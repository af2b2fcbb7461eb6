package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "PENDING"
	InviteStatusAccepted InviteStatus = "ACCEPTED"
	InviteStatusRevoked  InviteStatus = "REVOKED"
	InviteStatusExpired  InviteStatus = "EXPIRED"
)

var (
	ErrInviteNotPending    = errors.New("invite is no longer pending")
	ErrInviteExpired       = errors.New("invite has expired")
	ErrInviteEmailMismatch = errors.New("invite was issued for a different email")
)

type Invite struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	OrganizationID uint64           `gorm:"not null;index" json:"organization_id"`
	Email          string           `gorm:"type:varchar(255);not null;index" json:"email"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null" json:"role"`
	Token          string           `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status         InviteStatus     `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	ExpiresAt      time.Time        `gorm:"not null;index" json:"expires_at"`
	InvitedByID    uint64           `gorm:"not null" json:"invited_by_id"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	InvitedBy    User         `gorm:"foreignKey:InvitedByID" json:"invited_by,omitempty"`
}

// IsExpired reports whether the invite is past its expiry but not yet marked.
func (i *Invite) IsExpired(now time.Time) bool {
	return i.Status == InviteStatusPending && now.After(i.ExpiresAt)
}

// MarkExpired transitions PENDING -> EXPIRED. EXPIRED is terminal, so marking
// an already-expired invite is a no-op.
func (i *Invite) MarkExpired() {
	if i.Status == InviteStatusPending {
		i.Status = InviteStatusExpired
	}
}

// Revoke transitions PENDING -> REVOKED.
func (i *Invite) Revoke() error {
	if i.Status != InviteStatusPending {
		return ErrInviteNotPending
	}
	i.Status = InviteStatusRevoked
	return nil
}

// Accept transitions PENDING -> ACCEPTED after checking the accepting email.
// The match is case-sensitive on purpose.
func (i *Invite) Accept(email string, now time.Time) error {
	if i.IsExpired(now) {
		i.MarkExpired()
		return ErrInviteExpired
	}
	if i.Status != InviteStatusPending {
		return ErrInviteNotPending
	}
	if i.Email != email {
		return ErrInviteEmailMismatch
	}
	i.Status = InviteStatusAccepted
	return nil
}
