package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/dto"
	apierrors "github.com/flamekit/flame-api/internal/errors"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/flamekit/flame-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// LeadHandler handles lead requests
type LeadHandler struct {
	leadService *services.LeadService
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService *services.LeadService) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
	}
}

// CreateLeadRequest represents the lead creation request body
type CreateLeadRequest struct {
	Name       string            `json:"name" binding:"required"`
	Email      string            `json:"email" binding:"required"`
	Phone      string            `json:"phone"`
	Company    string            `json:"company"`
	Source     models.LeadSource `json:"source"`
	Value      float64           `json:"value"`
	Score      int               `json:"score"`
	Tags       []string          `json:"tags"`
	Notes      string            `json:"notes"`
	AssigneeID *uint64           `json:"assignee_id"`
}

// UpdateLeadRequest represents the lead update request body
type UpdateLeadRequest struct {
	Name    *string  `json:"name"`
	Email   *string  `json:"email"`
	Phone   *string  `json:"phone"`
	Company *string  `json:"company"`
	Value   *float64 `json:"value"`
	Score   *int     `json:"score"`
	Tags    []string `json:"tags"`
	Notes   *string  `json:"notes"`
}

// UpdateLeadStatusRequest represents the status transition request body
type UpdateLeadStatusRequest struct {
	Status models.LeadStatus `json:"status" binding:"required"`
}

// AssignLeadRequest represents the assignment request body
type AssignLeadRequest struct {
	AssigneeID uint64 `json:"assignee_id" binding:"required"`
}

func respondLeadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrLeadNotFound):
		apierrors.NotFound(c, "Lead not found")
	case errors.Is(err, services.ErrOrganizationMemberNotFound):
		apierrors.BadRequest(c, "Assignee is not a member of this organization")
	case errors.Is(err, models.ErrNameTooShort):
		apierrors.BadRequest(c, "Name must be at least 2 characters")
	case errors.Is(err, models.ErrInvalidEmail):
		apierrors.BadRequest(c, "Invalid email format")
	case errors.Is(err, models.ErrInvalidLeadStatus):
		apierrors.BadRequest(c, "Invalid lead status")
	case errors.Is(err, models.ErrInvalidLeadSource):
		apierrors.BadRequest(c, "Invalid lead source")
	case errors.Is(err, models.ErrInvalidLeadScore):
		apierrors.BadRequest(c, "Score must be between 0 and 100")
	default:
		apierrors.InternalError(c, "Lead operation failed")
	}
}

// Create handles POST /api/organizations/:id/leads
func (h *LeadHandler) Create(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	lead, err := h.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Source:         req.Source,
		Value:          req.Value,
		Score:          req.Score,
		Tags:           req.Tags,
		Notes:          req.Notes,
		AssigneeID:     req.AssigneeID,
	})
	if err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"lead": dto.ToLeadDTO(*lead),
	})
}

// List handles GET /api/organizations/:id/leads with filtering, sorting, and
// pagination query parameters.
func (h *LeadHandler) List(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	pagination := utils.GetPaginationParams(c)
	filter := repository.LeadFilter{
		OrganizationID: org.ID,
		Search:         c.Query("search"),
		SortBy:         c.Query("sort_by"),
		SortOrder:      c.Query("sort_order"),
		Page:           pagination.Page,
		PageSize:       pagination.Limit,
	}

	if v := c.Query("status"); v != "" {
		status := models.LeadStatus(v)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid lead status")
			return
		}
		filter.Status = &status
	}
	if v := c.Query("source"); v != "" {
		source := models.LeadSource(v)
		if !source.Valid() {
			apierrors.BadRequest(c, "Invalid lead source")
			return
		}
		filter.Source = &source
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee ID")
			return
		}
		filter.AssigneeID = &id
	}
	if v := c.Query("tags"); v != "" {
		filter.Tags = strings.Split(v, ",")
	}
	if v := c.Query("min_value"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid min_value")
			return
		}
		filter.MinValue = &f
	}
	if v := c.Query("max_value"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid max_value")
			return
		}
		filter.MaxValue = &f
	}
	if v := c.Query("min_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid min_score")
			return
		}
		filter.MinScore = &n
	}
	if v := c.Query("max_score"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			apierrors.BadRequest(c, "Invalid max_score")
			return
		}
		filter.MaxScore = &n
	}
	if v := c.Query("created_from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.BadRequest(c, "created_from must be RFC3339")
			return
		}
		filter.CreatedFrom = &t
	}
	if v := c.Query("created_to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			apierrors.BadRequest(c, "created_to must be RFC3339")
			return
		}
		filter.CreatedTo = &t
	}

	leads, total, err := h.leadService.ListLeads(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to list leads")
		return
	}

	c.JSON(http.StatusOK, dto.ToLeadListResponse(leads, filter.Page, filter.PageSize, total))
}

// Get handles GET /api/organizations/:id/leads/:leadId
func (h *LeadHandler) Get(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid lead ID")
		return
	}

	lead, err := h.leadService.GetLead(org.ID, leadID)
	if err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead": dto.ToLeadDTO(*lead),
	})
}

// Update handles PATCH /api/organizations/:id/leads/:leadId
func (h *LeadHandler) Update(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid lead ID")
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	lead, err := h.leadService.UpdateLead(org.ID, leadID, services.UpdateLeadInput{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Value:   req.Value,
		Score:   req.Score,
		Tags:    req.Tags,
		Notes:   req.Notes,
	})
	if err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead": dto.ToLeadDTO(*lead),
	})
}

// UpdateStatus handles PATCH /api/organizations/:id/leads/:leadId/status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid lead ID")
		return
	}

	var req UpdateLeadStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	lead, err := h.leadService.UpdateLeadStatus(org.ID, leadID, req.Status)
	if err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead": dto.ToLeadDTO(*lead),
	})
}

// Assign handles POST /api/organizations/:id/leads/:leadId/assign
func (h *LeadHandler) Assign(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid lead ID")
		return
	}

	var req AssignLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	lead, err := h.leadService.AssignLead(org.ID, leadID, req.AssigneeID)
	if err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"lead": dto.ToLeadDTO(*lead),
	})
}

// Delete handles DELETE /api/organizations/:id/leads/:leadId
func (h *LeadHandler) Delete(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	leadID, err := strconv.ParseUint(c.Param("leadId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid lead ID")
		return
	}

	if err := h.leadService.DeleteLead(org.ID, leadID); err != nil {
		respondLeadError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Lead deleted",
	})
}
