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
	"github.com/gin-gonic/gin"
)

// OrganizationHandler handles organization requests
type OrganizationHandler struct {
	orgService *services.OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{
		orgService: orgService,
	}
}

// CreateOrganizationRequest represents the create request body
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateOrganizationRequest represents the update request body
type UpdateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
}

// ChangeMemberRoleRequest represents the role change request body
type ChangeMemberRoleRequest struct {
	Role models.OrganizationRole `json:"role" binding:"required"`
}

// Create handles POST /api/organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidOrganizationName) {
			apierrors.BadRequest(c, "Organization name cannot be empty")
			return
		}
		apierrors.InternalError(c, "Failed to create organization")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"organization": dto.ToOrganizationDTO(*org),
	})
}

// List handles GET /api/organizations — the caller's organizations with their
// role in each.
func (h *OrganizationHandler) List(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.orgService.ListOrganizationsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list organizations")
		return
	}

	orgs := make([]dto.OrganizationWithRoleDTO, 0, len(memberships))
	for _, m := range memberships {
		orgs = append(orgs, dto.OrganizationWithRoleDTO{
			OrganizationDTO: dto.ToOrganizationDTO(m.Organization),
			Role:            m.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": orgs,
	})
}

// Get handles GET /api/organizations/:id
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	full, members, err := h.orgService.GetOrganizationWithMembers(org.ID)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "Failed to load organization")
		return
	}

	memberDTOs := make([]dto.MemberDTO, 0, len(members))
	for _, m := range members {
		memberDTOs = append(memberDTOs, dto.ToMemberDTO(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"organization": dto.OrganizationDetailDTO{
			OrganizationDTO: dto.ToOrganizationDTO(*full),
			Members:         memberDTOs,
		},
	})
}

// Update handles PATCH /api/organizations/:id
func (h *OrganizationHandler) Update(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	var req UpdateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	updated, err := h.orgService.UpdateOrganizationName(org.ID, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationNotFound):
			apierrors.NotFound(c, "Organization not found")
		case errors.Is(err, services.ErrInvalidOrganizationName):
			apierrors.BadRequest(c, "Organization name cannot be empty")
		default:
			apierrors.InternalError(c, "Failed to update organization")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organization": dto.ToOrganizationDTO(*updated),
	})
}

// Delete handles DELETE /api/organizations/:id
func (h *OrganizationHandler) Delete(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	if err := h.orgService.DeleteOrganization(org.ID); err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "Failed to delete organization")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Organization deleted",
	})
}

// ListMembers handles GET /api/organizations/:id/members
func (h *OrganizationHandler) ListMembers(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	_, members, err := h.orgService.GetOrganizationWithMembers(org.ID)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, "Organization not found")
			return
		}
		apierrors.InternalError(c, "Failed to list members")
		return
	}

	memberDTOs := make([]dto.MemberDTO, 0, len(members))
	for _, m := range members {
		memberDTOs = append(memberDTOs, dto.ToMemberDTO(m))
	}

	c.JSON(http.StatusOK, gin.H{
		"members": memberDTOs,
	})
}

// RemoveMember handles DELETE /api/organizations/:id/members/:userId
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.orgService.RemoveMember(org.ID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationMemberNotFound):
			apierrors.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrLastAdmin):
			apierrors.BadRequest(c, "Organization must retain at least one admin")
		default:
			apierrors.InternalError(c, "Failed to remove member")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed",
	})
}

// ChangeMemberRole handles PATCH /api/organizations/:id/members/:userId
func (h *OrganizationHandler) ChangeMemberRole(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req ChangeMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	member, err := h.orgService.ChangeMemberRole(org.ID, targetID, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrOrganizationMemberNotFound):
			apierrors.NotFound(c, "Member not found")
		case errors.Is(err, services.ErrInvalidRole):
			apierrors.BadRequest(c, "Role must be ADMIN or MEMBER")
		case errors.Is(err, services.ErrLastAdmin):
			apierrors.BadRequest(c, "Organization must retain at least one admin")
		default:
			apierrors.InternalError(c, "Failed to change member role")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member": gin.H{
			"user_id": member.UserID,
			"role":    member.Role,
		},
	})
}
