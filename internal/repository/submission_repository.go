package repository

import (
	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

// GormSubmissionRepository is a GORM implementation of SubmissionRepository
type GormSubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &GormSubmissionRepository{db: db}
}

// Create creates a new submission
func (r *GormSubmissionRepository) Create(submission *models.Submission) error {
	return r.db.Create(submission).Error
}

// FindByID finds a submission scoped to an organization
func (r *GormSubmissionRepository) FindByID(organizationID, id uint64) (*models.Submission, error) {
	var submission models.Submission
	if err := r.db.Where("organization_id = ?", organizationID).First(&submission, id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// List retrieves submissions for an organization, newest first
func (r *GormSubmissionRepository) List(organizationID uint64, status *models.SubmissionStatus, page utils.PaginationParams) ([]models.Submission, int64, error) {
	var submissions []models.Submission

	query := r.db.Model(&models.Submission{}).Where("organization_id = ?", organizationID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Scopes(database.Paginate(page)).
		Preload("ReviewedBy").
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

// Update updates a submission
func (r *GormSubmissionRepository) Update(submission *models.Submission) error {
	return r.db.Save(submission).Error
}
