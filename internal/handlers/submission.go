package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/flamekit/flame-api/internal/dto"
	apierrors "github.com/flamekit/flame-api/internal/errors"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/flamekit/flame-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler handles form submission requests
type SubmissionHandler struct {
	submissionService *services.SubmissionService
	apiKeyService     *services.APIKeyService
}

// NewSubmissionHandler creates a new SubmissionHandler
func NewSubmissionHandler(submissionService *services.SubmissionService, apiKeyService *services.APIKeyService) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		apiKeyService:     apiKeyService,
	}
}

// CreateSubmissionRequest represents the public capture request body
type CreateSubmissionRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Message  string `json:"message"`
	Metadata string `json:"metadata"`
}

// UpdateSubmissionStatusRequest represents the review request body
type UpdateSubmissionStatusRequest struct {
	Status models.SubmissionStatus `json:"status" binding:"required"`
}

// PublicCreate handles POST /api/public/:slug/submissions — the unauthenticated
// capture endpoint. An X-API-Key header, when present, must resolve to a key
// belonging to the addressed organization.
func (h *SubmissionHandler) PublicCreate(c *gin.Context) {
	slug := c.Param("slug")

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	input := services.CreateSubmissionInput{
		OrganizationSlug: slug,
		Name:             req.Name,
		Email:            req.Email,
		Message:          req.Message,
		Metadata:         req.Metadata,
	}

	if rawKey := c.GetHeader("X-API-Key"); rawKey != "" {
		key, err := h.apiKeyService.Authenticate(rawKey)
		if err != nil {
			apierrors.Unauthorized(c, "Invalid API key")
			return
		}
		input.APIKeyOrganizationID = &key.OrganizationID
	}

	submission, err := h.submissionService.CreateSubmission(input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			apierrors.NotFound(c, "Organization not found")
		case errors.Is(err, services.ErrInvalidAPIKey):
			apierrors.Unauthorized(c, "Invalid API key")
		case errors.Is(err, models.ErrNameTooShort):
			apierrors.BadRequest(c, "Name must be at least 2 characters")
		case errors.Is(err, models.ErrInvalidEmail):
			apierrors.BadRequest(c, "Invalid email format")
		default:
			apierrors.InternalError(c, "Failed to capture submission")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"submission": dto.ToSubmissionDTO(*submission),
	})
}

// List handles GET /api/organizations/:id/submissions
func (h *SubmissionHandler) List(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	pagination := utils.GetPaginationParams(c)

	var status *models.SubmissionStatus
	if v := c.Query("status"); v != "" {
		s := models.SubmissionStatus(v)
		if !s.Valid() {
			apierrors.BadRequest(c, "Invalid submission status")
			return
		}
		status = &s
	}

	submissions, total, err := h.submissionService.ListSubmissions(org.ID, status, pagination)
	if err != nil {
		apierrors.InternalError(c, "Failed to list submissions")
		return
	}

	c.JSON(http.StatusOK, dto.ToSubmissionListResponse(submissions, pagination.Page, pagination.Limit, total))
}

// UpdateStatus handles PATCH /api/organizations/:id/submissions/:submissionId
func (h *SubmissionHandler) UpdateStatus(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	submissionID, err := strconv.ParseUint(c.Param("submissionId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid submission ID")
		return
	}

	var req UpdateSubmissionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	submission, err := h.submissionService.UpdateSubmissionStatus(org.ID, submissionID, userID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSubmissionNotFound):
			apierrors.NotFound(c, "Submission not found")
		case errors.Is(err, models.ErrInvalidSubmissionStatus):
			apierrors.BadRequest(c, "Invalid submission status")
		default:
			apierrors.InternalError(c, "Failed to update submission")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submission": dto.ToSubmissionDTO(*submission),
	})
}
