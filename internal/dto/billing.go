package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// SubscriptionDTO represents an organization's subscription in API responses
type SubscriptionDTO struct {
	ID                 uint64                    `json:"id"`
	Provider           models.BillingProvider    `json:"provider"`
	Plan               string                    `json:"plan"`
	Status             models.SubscriptionStatus `json:"status"`
	CurrentPeriodStart *time.Time                `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time                `json:"current_period_end"`
	CancelAtPeriodEnd  bool                      `json:"cancel_at_period_end"`
	CreatedAt          time.Time                 `json:"created_at"`
}

// ToSubscriptionDTO converts a Subscription model to SubscriptionDTO
func ToSubscriptionDTO(sub models.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:                 sub.ID,
		Provider:           sub.Provider,
		Plan:               sub.Plan,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		CreatedAt:          sub.CreatedAt,
	}
}
