package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrProviderMismatch     = errors.New("organization is already billed through another provider")
)

// BillingService applies payment-provider webhook events to the organization's
// subscription record. Checkout and signature verification happen outside.
type BillingService struct {
	subRepo repository.SubscriptionRepository
	orgRepo repository.OrganizationRepository
}

// NewBillingService creates a new BillingService.
func NewBillingService(subRepo repository.SubscriptionRepository, orgRepo repository.OrganizationRepository) *BillingService {
	return &BillingService{
		subRepo: subRepo,
		orgRepo: orgRepo,
	}
}

// GetSubscription returns an organization's subscription, or
// ErrSubscriptionNotFound when it has never been billed.
func (s *BillingService) GetSubscription(organizationID uint64) (*models.Subscription, error) {
	sub, err := s.subRepo.FindByOrganization(organizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

// SubscriptionEvent is a provider-neutral view of a webhook event after
// signature verification and payload parsing.
type SubscriptionEvent struct {
	OrganizationID         uint64
	Provider               models.BillingProvider
	ProviderCustomerID     string
	ProviderSubscriptionID string
	Plan                   string
	Status                 models.SubscriptionStatus
	CurrentPeriodStart     *time.Time
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
}

// ApplySubscriptionEvent upserts the organization's subscription. An
// organization is billed through exactly one provider; an event from a
// different provider is a conflict.
func (s *BillingService) ApplySubscriptionEvent(event SubscriptionEvent) (*models.Subscription, error) {
	if _, err := s.orgRepo.FindByID(event.OrganizationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	sub, err := s.subRepo.FindByOrganization(event.OrganizationID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find subscription: %w", err)
		}

		sub = &models.Subscription{
			OrganizationID:         event.OrganizationID,
			Provider:               event.Provider,
			ProviderCustomerID:     event.ProviderCustomerID,
			ProviderSubscriptionID: event.ProviderSubscriptionID,
			Plan:                   event.Plan,
			Status:                 event.Status,
			CurrentPeriodStart:     event.CurrentPeriodStart,
			CurrentPeriodEnd:       event.CurrentPeriodEnd,
			CancelAtPeriodEnd:      event.CancelAtPeriodEnd,
		}
		if err := s.subRepo.Create(sub); err != nil {
			return nil, fmt.Errorf("failed to create subscription: %w", err)
		}
		return sub, nil
	}

	if sub.Provider != event.Provider {
		return nil, ErrProviderMismatch
	}

	sub.ProviderCustomerID = event.ProviderCustomerID
	sub.ProviderSubscriptionID = event.ProviderSubscriptionID
	if event.Plan != "" {
		sub.Plan = event.Plan
	}
	sub.Status = event.Status
	if event.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = event.CurrentPeriodStart
	}
	if event.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = event.CurrentPeriodEnd
	}
	sub.CancelAtPeriodEnd = event.CancelAtPeriodEnd

	if err := s.subRepo.Update(sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	return sub, nil
}
