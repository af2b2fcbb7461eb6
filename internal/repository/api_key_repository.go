package repository

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
	"gorm.io/gorm"
)

// GormAPIKeyRepository is a GORM implementation of APIKeyRepository
type GormAPIKeyRepository struct {
	db *gorm.DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &GormAPIKeyRepository{db: db}
}

// Create creates a new API key record
func (r *GormAPIKeyRepository) Create(key *models.APIKey) error {
	return r.db.Create(key).Error
}

// FindByID finds a key scoped to an organization
func (r *GormAPIKeyRepository) FindByID(organizationID, id uint64) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.Where("organization_id = ?", organizationID).First(&key, id).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// FindByHash finds a key by its SHA-256 digest
func (r *GormAPIKeyRepository) FindByHash(hash string) (*models.APIKey, error) {
	var key models.APIKey
	if err := r.db.Where("key_hash = ?", hash).First(&key).Error; err != nil {
		return nil, err
	}
	return &key, nil
}

// ListByOrganization lists keys for an organization
func (r *GormAPIKeyRepository) ListByOrganization(organizationID uint64) ([]models.APIKey, error) {
	var keys []models.APIKey
	if err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&keys).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// TouchLastUsed stamps the last-used time
func (r *GormAPIKeyRepository) TouchLastUsed(id uint64, at time.Time) error {
	return r.db.Model(&models.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", at).Error
}

// Delete removes a key
func (r *GormAPIKeyRepository) Delete(organizationID, id uint64) error {
	return r.db.Where("organization_id = ?", organizationID).
		Delete(&models.APIKey{}, id).Error
}
