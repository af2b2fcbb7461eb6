package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// LeadDTO represents a lead in API responses
type LeadDTO struct {
	ID             uint64            `json:"id"`
	OrganizationID uint64            `json:"organization_id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	Phone          string            `json:"phone,omitempty"`
	Company        string            `json:"company,omitempty"`
	Status         models.LeadStatus `json:"status"`
	Source         models.LeadSource `json:"source"`
	Value          float64           `json:"value"`
	Score          int               `json:"score"`
	Tags           []string          `json:"tags"`
	Notes          string            `json:"notes,omitempty"`
	AssigneeID     *uint64           `json:"assignee_id"`
	Assignee       *UserDTO          `json:"assignee,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// LeadListResponse represents a paginated list of leads
type LeadListResponse struct {
	Leads      []LeadDTO `json:"leads"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// ToLeadDTO converts a Lead model to LeadDTO
func ToLeadDTO(lead models.Lead) LeadDTO {
	tags := lead.TagList()
	if tags == nil {
		tags = []string{}
	}
	d := LeadDTO{
		ID:             lead.ID,
		OrganizationID: lead.OrganizationID,
		Name:           lead.Name,
		Email:          lead.Email,
		Phone:          lead.Phone,
		Company:        lead.Company,
		Status:         lead.Status,
		Source:         lead.Source,
		Value:          lead.Value,
		Score:          lead.Score,
		Tags:           tags,
		Notes:          lead.Notes,
		AssigneeID:     lead.AssigneeID,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
	if lead.Assignee != nil {
		assignee := ToUserDTO(*lead.Assignee)
		d.Assignee = &assignee
	}
	return d
}

// ToLeadListResponse converts leads and pagination info to a list response
func ToLeadListResponse(leads []models.Lead, page, pageSize int, totalCount int64) LeadListResponse {
	items := make([]LeadDTO, 0, len(leads))
	for _, lead := range leads {
		items = append(items, ToLeadDTO(lead))
	}

	totalPages := int(totalCount) / pageSize
	if int(totalCount)%pageSize > 0 {
		totalPages++
	}

	return LeadListResponse{
		Leads:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}
