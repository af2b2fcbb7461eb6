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

var ErrSubmissionNotFound = errors.New("submission not found")

// SubmissionService handles inbound form captures and their review flow.
type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	orgRepo        repository.OrganizationRepository
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(submissionRepo repository.SubmissionRepository, orgRepo repository.OrganizationRepository) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		orgRepo:        orgRepo,
	}
}

// CreateSubmissionInput represents an inbound form capture addressed to an
// organization by slug.
type CreateSubmissionInput struct {
	OrganizationSlug string
	Name             string
	Email            string
	Message          string
	Metadata         string

	// APIKeyOrganizationID, when set, must match the organization the slug
	// resolves to. It comes from an authenticated X-API-Key header.
	APIKeyOrganizationID *uint64
}

// CreateSubmission captures a form submission for the organization.
func (s *SubmissionService) CreateSubmission(input CreateSubmissionInput) (*models.Submission, error) {
	if err := models.ValidateUserName(input.Name); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := models.ValidateEmail(email); err != nil {
		return nil, err
	}

	org, err := s.orgRepo.FindBySlug(input.OrganizationSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}

	if input.APIKeyOrganizationID != nil && *input.APIKeyOrganizationID != org.ID {
		return nil, ErrInvalidAPIKey
	}

	submission := &models.Submission{
		OrganizationID: org.ID,
		Name:           strings.TrimSpace(input.Name),
		Email:          email,
		Message:        input.Message,
		Metadata:       input.Metadata,
		Status:         models.SubmissionStatusPending,
	}

	if err := s.submissionRepo.Create(submission); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return submission, nil
}

// ListSubmissions lists an organization's submissions.
func (s *SubmissionService) ListSubmissions(organizationID uint64, status *models.SubmissionStatus, page utils.PaginationParams) ([]models.Submission, int64, error) {
	submissions, total, err := s.submissionRepo.List(organizationID, status, page)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list submissions: %w", err)
	}
	return submissions, total, nil
}

// UpdateSubmissionStatus applies a status change; the first move away from
// PENDING stamps the reviewer.
func (s *SubmissionService) UpdateSubmissionStatus(organizationID, id, reviewerID uint64, status models.SubmissionStatus) (*models.Submission, error) {
	submission, err := s.submissionRepo.FindByID(organizationID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission: %w", err)
	}

	if err := submission.SetStatus(status, reviewerID, time.Now()); err != nil {
		return nil, err
	}

	if err := s.submissionRepo.Update(submission); err != nil {
		return nil, fmt.Errorf("failed to update submission: %w", err)
	}

	return submission, nil
}
