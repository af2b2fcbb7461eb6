package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "NEW"
	LeadStatusContacted   LeadStatus = "CONTACTED"
	LeadStatusQualified   LeadStatus = "QUALIFIED"
	LeadStatusProposal    LeadStatus = "PROPOSAL"
	LeadStatusNegotiation LeadStatus = "NEGOTIATION"
	LeadStatusWon         LeadStatus = "WON"
	LeadStatusLost        LeadStatus = "LOST"
)

// Valid reports whether the status is a known lead status.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusNegotiation, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

type LeadSource string

const (
	LeadSourceWebsite  LeadSource = "WEBSITE"
	LeadSourceReferral LeadSource = "REFERRAL"
	LeadSourceSocial   LeadSource = "SOCIAL"
	LeadSourceEmail    LeadSource = "EMAIL"
	LeadSourceOther    LeadSource = "OTHER"
)

// Valid reports whether the source is a known lead source.
func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceWebsite, LeadSourceReferral, LeadSourceSocial, LeadSourceEmail, LeadSourceOther:
		return true
	}
	return false
}

var (
	ErrInvalidLeadStatus = errors.New("invalid lead status")
	ErrInvalidLeadSource = errors.New("invalid lead source")
	ErrInvalidLeadScore  = errors.New("lead score must be between 0 and 100")
)

type Lead struct {
	ID             uint64         `gorm:"primarykey" json:"id"`
	OrganizationID uint64         `gorm:"not null;index" json:"organization_id"`
	Name           string         `gorm:"type:varchar(255);not null" json:"name"`
	Email          string         `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone          string         `gorm:"type:varchar(50)" json:"phone"`
	Company        string         `gorm:"type:varchar(255)" json:"company"`
	Status         LeadStatus     `gorm:"type:varchar(20);not null;default:'NEW';index" json:"status"`
	Source         LeadSource     `gorm:"type:varchar(20);not null;default:'WEBSITE'" json:"source"`
	Value          float64        `gorm:"not null;default:0" json:"value"`
	Score          int            `gorm:"not null;default:0" json:"score"`
	Tags           string         `gorm:"type:varchar(512)" json:"-"`
	Notes          string         `gorm:"type:text" json:"notes"`
	AssigneeID     *uint64        `gorm:"index" json:"assignee_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Assignee     *User        `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// NewLead validates invariants and constructs a lead with spec defaults
// (status NEW, source WEBSITE when unset).
func NewLead(organizationID uint64, name, email string, source LeadSource) (*Lead, error) {
	if err := ValidateUserName(name); err != nil {
		return nil, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if source == "" {
		source = LeadSourceWebsite
	}
	if !source.Valid() {
		return nil, ErrInvalidLeadSource
	}
	return &Lead{
		OrganizationID: organizationID,
		Name:           strings.TrimSpace(name),
		Email:          email,
		Status:         LeadStatusNew,
		Source:         source,
	}, nil
}

// SetStatus applies a status transition. Any known status is reachable from
// any other; the caller is responsible for emitting transition events.
func (l *Lead) SetStatus(status LeadStatus) error {
	if !status.Valid() {
		return ErrInvalidLeadStatus
	}
	l.Status = status
	return nil
}

// SetScore applies a lead score within the allowed range.
func (l *Lead) SetScore(score int) error {
	if score < 0 || score > 100 {
		return ErrInvalidLeadScore
	}
	l.Score = score
	return nil
}

// TagList returns the stored tag set as a slice.
func (l *Lead) TagList() []string {
	if l.Tags == "" {
		return nil
	}
	return strings.Split(l.Tags, ",")
}

// SetTags stores a tag set, dropping empties and surrounding whitespace.
func (l *Lead) SetTags(tags []string) {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	l.Tags = strings.Join(cleaned, ",")
}
