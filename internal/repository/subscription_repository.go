package repository

import (
	"github.com/flamekit/flame-api/internal/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository is a GORM implementation of SubscriptionRepository
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindByOrganization finds an organization's subscription
func (r *GormSubscriptionRepository) FindByOrganization(organizationID uint64) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.Where("organization_id = ?", organizationID).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// Create creates a subscription
func (r *GormSubscriptionRepository) Create(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

// Update updates a subscription
func (r *GormSubscriptionRepository) Update(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}
