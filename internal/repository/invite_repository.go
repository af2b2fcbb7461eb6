package repository

import (
	"github.com/flamekit/flame-api/internal/models"
	"gorm.io/gorm"
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates a new invite
func (r *GormInviteRepository) Create(invite *models.Invite) error {
	return r.db.Create(invite).Error
}

// FindByToken finds an invite by its token
func (r *GormInviteRepository) FindByToken(token string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Preload("Organization").Where("token = ?", token).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByID finds an invite scoped to an organization
func (r *GormInviteRepository) FindByID(organizationID, id uint64) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Where("organization_id = ?", organizationID).First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// Update persists invite changes
func (r *GormInviteRepository) Update(invite *models.Invite) error {
	return r.db.Save(invite).Error
}

// ListByOrganization lists invites for an organization
func (r *GormInviteRepository) ListByOrganization(organizationID uint64) ([]models.Invite, error) {
	var invites []models.Invite
	if err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// AcceptWithMember persists the ACCEPTED status and the new member row in a
// single transaction so both commit or neither does.
func (r *GormInviteRepository) AcceptWithMember(invite *models.Invite, member *models.OrganizationMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if member != nil {
			if err := tx.Create(member).Error; err != nil {
				return err
			}
		}

		return tx.Save(invite).Error
	})
}
