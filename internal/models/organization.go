package models

import (
	"time"

	"gorm.io/gorm"
)

type Organization struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug      string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members      []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Leads        []Lead               `gorm:"foreignKey:OrganizationID" json:"leads,omitempty"`
	Submissions  []Submission         `gorm:"foreignKey:OrganizationID" json:"submissions,omitempty"`
	APIKeys      []APIKey             `gorm:"foreignKey:OrganizationID" json:"api_keys,omitempty"`
	Subscription *Subscription        `gorm:"foreignKey:OrganizationID" json:"subscription,omitempty"`
}
