package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "PENDING"
	SubmissionStatusReviewed SubmissionStatus = "REVIEWED"
	SubmissionStatusSpam     SubmissionStatus = "SPAM"
	SubmissionStatusArchived SubmissionStatus = "ARCHIVED"
)

// Valid reports whether the status is a known submission status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusReviewed, SubmissionStatusSpam, SubmissionStatusArchived:
		return true
	}
	return false
}

var ErrInvalidSubmissionStatus = errors.New("invalid submission status")

type Submission struct {
	ID             uint64           `gorm:"primarykey" json:"id"`
	OrganizationID uint64           `gorm:"not null;index" json:"organization_id"`
	Name           string           `gorm:"type:varchar(255);not null" json:"name"`
	Email          string           `gorm:"type:varchar(255);not null" json:"email"`
	Message        string           `gorm:"type:text" json:"message"`
	Metadata       string           `gorm:"type:text" json:"metadata"`
	Status         SubmissionStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ReviewedByID   *uint64          `json:"reviewed_by_id"`
	ReviewedAt     *time.Time       `json:"reviewed_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      gorm.DeletedAt   `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	ReviewedBy   *User        `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
}

// SetStatus applies a status change. The first transition away from PENDING
// stamps the reviewer; later changes keep the original review record.
func (s *Submission) SetStatus(status SubmissionStatus, reviewerID uint64, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidSubmissionStatus
	}
	if status != SubmissionStatusPending && s.ReviewedAt == nil {
		s.ReviewedByID = &reviewerID
		s.ReviewedAt = &now
	}
	s.Status = status
	return nil
}
