package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrAPIKeyNotFound = errors.New("api key not found")
	ErrInvalidAPIKey  = errors.New("invalid api key")
)

// APIKeyService manages organization API credentials. The raw key leaves the
// server exactly once, at creation; only its SHA-256 digest is stored.
type APIKeyService struct {
	keyRepo repository.APIKeyRepository
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(keyRepo repository.APIKeyRepository) *APIKeyService {
	return &APIKeyService{
		keyRepo: keyRepo,
	}
}

// CreateAPIKeyInput represents parameters to mint a key.
type CreateAPIKeyInput struct {
	OrganizationID uint64
	CreatedByID    uint64
	Name           string
	Mode           models.APIKeyMode
}

// CreateAPIKey mints a key and returns the stored record together with the
// raw key string.
func (s *APIKeyService) CreateAPIKey(input CreateAPIKeyInput) (*models.APIKey, string, error) {
	mode := input.Mode
	if mode == "" {
		mode = models.APIKeyModeLive
	}
	if mode != models.APIKeyModeLive && mode != models.APIKeyModeTest {
		return nil, "", ErrInvalidAPIKey
	}

	raw, digest, err := utils.GenerateAPIKey(string(mode))
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate api key: %w", err)
	}

	key := &models.APIKey{
		OrganizationID: input.OrganizationID,
		Name:           input.Name,
		Mode:           mode,
		KeyHash:        digest,
		LastEight:      utils.LastN(raw, constants.APIKeyMaskSuffix),
		CreatedByID:    input.CreatedByID,
	}

	if err := s.keyRepo.Create(key); err != nil {
		return nil, "", fmt.Errorf("failed to store api key: %w", err)
	}

	return key, raw, nil
}

// ListAPIKeys lists an organization's keys; callers must only ever expose the
// masked form.
func (s *APIKeyService) ListAPIKeys(organizationID uint64) ([]models.APIKey, error) {
	keys, err := s.keyRepo.ListByOrganization(organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// RevokeAPIKey deletes a key.
func (s *APIKeyService) RevokeAPIKey(organizationID, id uint64) error {
	if _, err := s.keyRepo.FindByID(organizationID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAPIKeyNotFound
		}
		return fmt.Errorf("failed to find api key: %w", err)
	}

	if err := s.keyRepo.Delete(organizationID, id); err != nil {
		return fmt.Errorf("failed to revoke api key: %w", err)
	}

	return nil
}

// Authenticate resolves a raw key to its record by digest and stamps the
// last-used time.
func (s *APIKeyService) Authenticate(raw string) (*models.APIKey, error) {
	key, err := s.keyRepo.FindByHash(utils.HashAPIKey(raw))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidAPIKey
		}
		return nil, fmt.Errorf("failed to look up api key: %w", err)
	}

	if err := s.keyRepo.TouchLastUsed(key.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("failed to stamp api key use: %w", err)
	}

	return key, nil
}
