package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/events"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"gorm.io/gorm"
)

var ErrLeadNotFound = errors.New("lead not found")

// LeadService orchestrates the lead use cases: validate, load, mutate through
// the model, persist, publish.
type LeadService struct {
	leadRepo repository.LeadRepository
	orgRepo  repository.OrganizationRepository
	bus      *events.Bus
}

// NewLeadService creates a new LeadService.
func NewLeadService(leadRepo repository.LeadRepository, orgRepo repository.OrganizationRepository, bus *events.Bus) *LeadService {
	return &LeadService{
		leadRepo: leadRepo,
		orgRepo:  orgRepo,
		bus:      bus,
	}
}

// CreateLeadInput represents parameters to create a lead.
type CreateLeadInput struct {
	OrganizationID uint64
	Name           string
	Email          string
	Phone          string
	Company        string
	Source         models.LeadSource
	Value          float64
	Score          int
	Tags           []string
	Notes          string
	AssigneeID     *uint64
}

// CreateLead constructs and persists a lead, then publishes LeadCreated.
// Lead emails are not unique within an organization.
func (s *LeadService) CreateLead(input CreateLeadInput) (*models.Lead, error) {
	lead, err := models.NewLead(input.OrganizationID, input.Name, input.Email, input.Source)
	if err != nil {
		return nil, err
	}

	lead.Phone = input.Phone
	lead.Company = input.Company
	lead.Value = input.Value
	lead.Notes = input.Notes
	lead.SetTags(input.Tags)

	if err := lead.SetScore(input.Score); err != nil {
		return nil, err
	}

	if input.AssigneeID != nil {
		if err := s.ensureMember(input.OrganizationID, *input.AssigneeID); err != nil {
			return nil, err
		}
		lead.AssigneeID = input.AssigneeID
	}

	if err := s.leadRepo.Create(lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.bus.Publish(events.LeadCreated, events.LeadCreatedEvent{
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		Name:           lead.Name,
		Email:          lead.Email,
		OccurredAt:     time.Now(),
	})

	return lead, nil
}

// ListLeads translates a filter set into a repository query.
func (s *LeadService) ListLeads(filter repository.LeadFilter) ([]models.Lead, int64, error) {
	leads, total, err := s.leadRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, total, nil
}

// GetLead fetches a lead scoped to an organization.
func (s *LeadService) GetLead(organizationID, id uint64) (*models.Lead, error) {
	lead, err := s.leadRepo.FindByID(organizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to find lead: %w", err)
	}
	return lead, nil
}

// UpdateLeadInput carries optional field updates.
type UpdateLeadInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Company *string
	Value   *float64
	Score   *int
	Tags    []string
	Notes   *string
}

// UpdateLead applies field updates, re-validating changed fields.
func (s *LeadService) UpdateLead(organizationID, id uint64, input UpdateLeadInput) (*models.Lead, error) {
	lead, err := s.GetLead(organizationID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := models.ValidateUserName(*input.Name); err != nil {
			return nil, err
		}
		lead.Name = *input.Name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if err := models.ValidateEmail(email); err != nil {
			return nil, err
		}
		lead.Email = email
	}
	if input.Phone != nil {
		lead.Phone = *input.Phone
	}
	if input.Company != nil {
		lead.Company = *input.Company
	}
	if input.Value != nil {
		lead.Value = *input.Value
	}
	if input.Score != nil {
		if err := lead.SetScore(*input.Score); err != nil {
			return nil, err
		}
	}
	if input.Tags != nil {
		lead.SetTags(input.Tags)
	}
	if input.Notes != nil {
		lead.Notes = *input.Notes
	}

	if err := s.leadRepo.Update(lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	return lead, nil
}

// UpdateLeadStatus applies a status transition and publishes
// LeadStatusChanged. A transition into WON additionally publishes
// LeadConverted with the lead's value. The converted event fires on every
// transition into WON, re-transitions included.
func (s *LeadService) UpdateLeadStatus(organizationID, id uint64, status models.LeadStatus) (*models.Lead, error) {
	lead, err := s.GetLead(organizationID, id)
	if err != nil {
		return nil, err
	}

	previous := lead.Status
	if err := lead.SetStatus(status); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Update(lead); err != nil {
		return nil, fmt.Errorf("failed to update lead status: %w", err)
	}

	now := time.Now()
	s.bus.Publish(events.LeadStatusChanged, events.LeadStatusChangedEvent{
		LeadID:         lead.ID,
		OrganizationID: lead.OrganizationID,
		PreviousStatus: string(previous),
		NewStatus:      string(lead.Status),
		OccurredAt:     now,
	})

	if lead.Status == models.LeadStatusWon {
		s.bus.Publish(events.LeadConverted, events.LeadConvertedEvent{
			LeadID:         lead.ID,
			OrganizationID: lead.OrganizationID,
			Value:          lead.Value,
			OccurredAt:     now,
		})
	}

	return lead, nil
}

// AssignLead assigns a lead to an organization member.
func (s *LeadService) AssignLead(organizationID, id, assigneeID uint64) (*models.Lead, error) {
	lead, err := s.GetLead(organizationID, id)
	if err != nil {
		return nil, err
	}

	if err := s.ensureMember(organizationID, assigneeID); err != nil {
		return nil, err
	}

	lead.AssigneeID = &assigneeID
	if err := s.leadRepo.Update(lead); err != nil {
		return nil, fmt.Errorf("failed to assign lead: %w", err)
	}

	return lead, nil
}

// DeleteLead removes a lead.
func (s *LeadService) DeleteLead(organizationID, id uint64) error {
	if _, err := s.GetLead(organizationID, id); err != nil {
		return err
	}

	if err := s.leadRepo.Delete(organizationID, id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}

	return nil
}

func (s *LeadService) ensureMember(organizationID, userID uint64) error {
	if _, err := s.orgRepo.FindMember(organizationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to verify membership: %w", err)
	}
	return nil
}
