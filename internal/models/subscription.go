package models

import (
	"time"

	"gorm.io/gorm"
)

type BillingProvider string

const (
	ProviderPaddle BillingProvider = "paddle"
	ProviderStripe BillingProvider = "stripe"
)

type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionTrialing   SubscriptionStatus = "trialing"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

type Subscription struct {
	ID                     uint64             `gorm:"primarykey" json:"id"`
	OrganizationID         uint64             `gorm:"uniqueIndex;not null" json:"organization_id"`
	Provider               BillingProvider    `gorm:"type:varchar(20);not null" json:"provider"`
	ProviderCustomerID     string             `gorm:"type:varchar(255);index" json:"provider_customer_id"`
	ProviderSubscriptionID string             `gorm:"type:varchar(255);index" json:"provider_subscription_id"`
	Plan                   string             `gorm:"type:varchar(100)" json:"plan"`
	Status                 SubscriptionStatus `gorm:"type:varchar(20);not null" json:"status"`
	CurrentPeriodStart     *time.Time         `json:"current_period_start"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end"`
	CancelAtPeriodEnd      bool               `gorm:"not null;default:false" json:"cancel_at_period_end"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
	DeletedAt              gorm.DeletedAt     `gorm:"index" json:"-"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
