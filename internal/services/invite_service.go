package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

var ErrInviteNotFound = errors.New("invite not found")

// InviteService handles the invite lifecycle.
type InviteService struct {
	inviteRepo repository.InviteRepository
	orgRepo    repository.OrganizationRepository
	mailer     Mailer
}

// NewInviteService creates a new InviteService.
func NewInviteService(inviteRepo repository.InviteRepository, orgRepo repository.OrganizationRepository, mailer Mailer) *InviteService {
	return &InviteService{
		inviteRepo: inviteRepo,
		orgRepo:    orgRepo,
		mailer:     mailer,
	}
}

// CreateInviteInput represents parameters to invite someone to an organization.
type CreateInviteInput struct {
	OrganizationID uint64
	InvitedByID    uint64
	Email          string
	Role           models.OrganizationRole
}

// CreateInvite creates a PENDING invite with a unique token and mails it
// best-effort.
func (s *InviteService) CreateInvite(input CreateInviteInput) (*models.Invite, error) {
	email := strings.TrimSpace(input.Email)
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	org, err := s.orgRepo.FindByID(input.OrganizationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	invite := &models.Invite{
		OrganizationID: input.OrganizationID,
		Email:          email,
		Role:           input.Role,
		Token:          utils.GenerateOpaqueToken(),
		Status:         models.InviteStatusPending,
		ExpiresAt:      time.Now().Add(constants.InviteTTL),
		InvitedByID:    input.InvitedByID,
	}

	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	sendAsync(s.mailer, email, fmt.Sprintf("You're invited to %s", org.Name),
		fmt.Sprintf("Accept with token: %s", invite.Token))

	return invite, nil
}

// ListInvites lists an organization's invites, lazily marking expired ones.
func (s *InviteService) ListInvites(organizationID uint64) ([]models.Invite, error) {
	invites, err := s.inviteRepo.ListByOrganization(organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}

	now := time.Now()
	for i := range invites {
		if invites[i].IsExpired(now) {
			invites[i].MarkExpired()
			if err := s.inviteRepo.Update(&invites[i]); err != nil {
				return nil, fmt.Errorf("failed to expire invite: %w", err)
			}
		}
	}

	return invites, nil
}

// VerifyInvite loads an invite by token, applying lazy expiry. A PENDING
// invite past its expiry flips to EXPIRED on this read; EXPIRED is terminal,
// so repeated reads return the same error without another transition.
func (s *InviteService) VerifyInvite(token string) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if invite.IsExpired(time.Now()) {
		invite.MarkExpired()
		if err := s.inviteRepo.Update(invite); err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		return nil, models.ErrInviteExpired
	}

	switch invite.Status {
	case models.InviteStatusPending:
		return invite, nil
	case models.InviteStatusExpired:
		return nil, models.ErrInviteExpired
	default:
		return nil, models.ErrInviteNotPending
	}
}

// AcceptInvite accepts an invite on behalf of the authenticated user. The
// invite email must equal the user's email exactly. A user who is already a
// member still flips the invite to ACCEPTED without a duplicate member row;
// otherwise the member row and the status change commit in one transaction.
func (s *InviteService) AcceptInvite(token string, user *models.User) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if err := invite.Accept(user.Email, time.Now()); err != nil {
		if errors.Is(err, models.ErrInviteExpired) {
			if updateErr := s.inviteRepo.Update(invite); updateErr != nil {
				return nil, fmt.Errorf("failed to expire invite: %w", updateErr)
			}
		}
		return nil, err
	}

	var member *models.OrganizationMember
	if _, err := s.orgRepo.FindMember(invite.OrganizationID, user.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to verify membership: %w", err)
		}
		member = &models.OrganizationMember{
			OrganizationID: invite.OrganizationID,
			UserID:         user.ID,
			Role:           invite.Role,
			JoinedAt:       time.Now(),
		}
	}

	if err := s.inviteRepo.AcceptWithMember(invite, member); err != nil {
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	return invite, nil
}

// RevokeInvite revokes a PENDING invite.
func (s *InviteService) RevokeInvite(organizationID, inviteID uint64) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByID(organizationID, inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if invite.IsExpired(time.Now()) {
		invite.MarkExpired()
		if err := s.inviteRepo.Update(invite); err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		return nil, models.ErrInviteExpired
	}

	if err := invite.Revoke(); err != nil {
		return nil, err
	}

	if err := s.inviteRepo.Update(invite); err != nil {
		return nil, fmt.Errorf("failed to revoke invite: %w", err)
	}

	return invite, nil
}
