package repository

import (
	"github.com/flamekit/flame-api/internal/models"
	"gorm.io/gorm"
)

// GormRefreshTokenRepository is a GORM implementation of RefreshTokenRepository
type GormRefreshTokenRepository struct {
	db *gorm.DB
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository
func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

// Create persists a refresh token row
func (r *GormRefreshTokenRepository) Create(token *models.RefreshToken) error {
	return r.db.Create(token).Error
}

// FindByToken finds a token row by its value
func (r *GormRefreshTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.db.Where("token = ?", token).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteByToken deletes a token row. Invalidation is always deletion.
func (r *GormRefreshTokenRepository) DeleteByToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&models.RefreshToken{}).Error
}

// DeleteAllForUser deletes every token owned by a user, used on password reset.
func (r *GormRefreshTokenRepository) DeleteAllForUser(userID uint64) error {
	return r.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}
