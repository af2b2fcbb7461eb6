package repository

import (
	"fmt"
	"strings"

	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/utils"
	"gorm.io/gorm"
)

// Sortable columns for lead listing. Anything else falls back to created_at.
var leadSortColumns = map[string]string{
	"created_at": "leads.created_at",
	"updated_at": "leads.updated_at",
	"name":       "leads.name",
	"value":      "leads.value",
	"score":      "leads.score",
}

// GormLeadRepository is a GORM implementation of LeadRepository
type GormLeadRepository struct {
	db *gorm.DB
}

// NewLeadRepository creates a new LeadRepository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &GormLeadRepository{db: db}
}

// Create creates a new lead
func (r *GormLeadRepository) Create(lead *models.Lead) error {
	return r.db.Create(lead).Error
}

// FindByID finds a lead scoped to an organization
func (r *GormLeadRepository) FindByID(organizationID, id uint64) (*models.Lead, error) {
	var lead models.Lead
	if err := r.db.Where("organization_id = ?", organizationID).First(&lead, id).Error; err != nil {
		return nil, err
	}
	return &lead, nil
}

// List retrieves leads with filtering and pagination
func (r *GormLeadRepository) List(filter LeadFilter) ([]models.Lead, int64, error) {
	var leads []models.Lead

	query := r.db.Model(&models.Lead{}).Where("leads.organization_id = ?", filter.OrganizationID)

	// Apply filters
	if filter.Status != nil {
		query = query.Where("leads.status = ?", *filter.Status)
	}
	if filter.Source != nil {
		query = query.Where("leads.source = ?", *filter.Source)
	}
	if filter.AssigneeID != nil {
		query = query.Where("leads.assignee_id = ?", *filter.AssigneeID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.TrimSpace(filter.Search) + "%"
		query = query.Where(
			"leads.name LIKE ? OR leads.email LIKE ? OR leads.company LIKE ?",
			pattern, pattern, pattern,
		)
	}
	for _, tag := range filter.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		// Tags are stored as a comma-joined set. Match whole entries only,
		// phrased portably across the supported drivers.
		query = query.Where(
			"(leads.tags = ? OR leads.tags LIKE ? OR leads.tags LIKE ? OR leads.tags LIKE ?)",
			tag, tag+",%", "%,"+tag, "%,"+tag+",%",
		)
	}
	if filter.MinValue != nil {
		query = query.Where("leads.value >= ?", *filter.MinValue)
	}
	if filter.MaxValue != nil {
		query = query.Where("leads.value <= ?", *filter.MaxValue)
	}
	if filter.MinScore != nil {
		query = query.Where("leads.score >= ?", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		query = query.Where("leads.score <= ?", *filter.MaxScore)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("leads.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("leads.created_at < ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := leadSortColumns[filter.SortBy]
	if !ok {
		column = leadSortColumns["created_at"]
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		direction = "ASC"
	}

	listQuery := query.Order(fmt.Sprintf("%s %s", column, direction))

	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Offset: (filter.Page - 1) * filter.PageSize,
			Limit:  filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Assignee").Find(&leads).Error; err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// Update updates a lead
func (r *GormLeadRepository) Update(lead *models.Lead) error {
	return r.db.Save(lead).Error
}

// Delete soft deletes a lead
func (r *GormLeadRepository) Delete(organizationID, id uint64) error {
	return r.db.Where("organization_id = ?", organizationID).
		Delete(&models.Lead{}, id).Error
}
