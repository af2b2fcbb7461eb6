package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound       = errors.New("organization not found")
	ErrInvalidOrganizationName    = errors.New("organization name cannot be empty")
	ErrSlugGenerationFailed       = errors.New("failed to generate organization slug")
	ErrOrganizationMemberNotFound = errors.New("organization member not found")
	ErrLastAdmin                  = errors.New("organization must retain at least one admin")
	ErrInvalidRole                = errors.New("invalid member role")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo repository.OrganizationRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo: orgRepo,
	}
}

// CreateOrganizationInput represents parameters to create a new organization.
type CreateOrganizationInput struct {
	Name    string
	OwnerID uint64
}

// CreateOrganization creates an organization and its first ADMIN member
// atomically.
func (s *OrganizationService) CreateOrganization(input CreateOrganizationInput) (*models.Organization, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidOrganizationName
	}

	slug := utils.Slugify(name)
	taken, err := s.orgRepo.SlugExists(slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		slug, err = utils.SlugWithSuffix(slug)
		if err != nil {
			return nil, ErrSlugGenerationFailed
		}
	}

	org := &models.Organization{
		Name: name,
		Slug: slug,
	}

	member := &models.OrganizationMember{
		UserID:   input.OwnerID,
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}

	if err := s.orgRepo.CreateWithAdmin(org, member); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return org, nil
}

// ListOrganizationsForUser returns organizations the user belongs to.
func (s *OrganizationService) ListOrganizationsForUser(userID uint64) ([]models.OrganizationMember, error) {
	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return memberships, nil
}

// GetOrganizationWithMembers returns an organization and all of its members.
func (s *OrganizationService) GetOrganizationWithMembers(orgID uint64) (*models.Organization, []models.OrganizationMember, error) {
	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrganizationNotFound
		}
		return nil, nil, fmt.Errorf("failed to find organization: %w", err)
	}

	members, err := s.orgRepo.ListMembers(orgID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list organization members: %w", err)
	}

	return org, members, nil
}

// UpdateOrganizationName updates an organization's name. The slug is stable
// and does not follow renames.
func (s *OrganizationService) UpdateOrganizationName(orgID uint64, name string) (*models.Organization, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidOrganizationName
	}

	org, err := s.orgRepo.FindByID(orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	org.Name = strings.TrimSpace(name)
	if err := s.orgRepo.Update(org); err != nil {
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return org, nil
}

// DeleteOrganization removes an organization and its dependents.
func (s *OrganizationService) DeleteOrganization(orgID uint64) error {
	if _, err := s.orgRepo.FindByID(orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to find organization: %w", err)
	}

	if err := s.orgRepo.Delete(orgID); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	return nil
}

// RemoveMember removes a member. Removing the last ADMIN is rejected so the
// organization always retains at least one admin.
func (s *OrganizationService) RemoveMember(orgID, targetID uint64) error {
	member, err := s.orgRepo.FindMember(orgID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationMemberNotFound
		}
		return fmt.Errorf("failed to find organization member: %w", err)
	}

	if member.Role == models.RoleAdmin {
		admins, err := s.orgRepo.CountAdmins(orgID)
		if err != nil {
			return fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.orgRepo.RemoveMember(orgID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// ChangeMemberRole changes a member's role, holding the last-admin invariant:
// demoting the only ADMIN is rejected.
func (s *OrganizationService) ChangeMemberRole(orgID, targetID uint64, role models.OrganizationRole) (*models.OrganizationMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	member, err := s.orgRepo.FindMember(orgID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationMemberNotFound
		}
		return nil, fmt.Errorf("failed to find organization member: %w", err)
	}

	if member.Role == models.RoleAdmin && role != models.RoleAdmin {
		admins, err := s.orgRepo.CountAdmins(orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to count admins: %w", err)
		}
		if admins <= 1 {
			return nil, ErrLastAdmin
		}
	}

	if err := s.orgRepo.UpdateMemberRole(orgID, targetID, role); err != nil {
		return nil, fmt.Errorf("failed to update member role: %w", err)
	}

	member.Role = role
	return member, nil
}
