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

// InviteHandler handles invite requests
type InviteHandler struct {
	inviteService *services.InviteService
	authService   *services.AuthService
}

// NewInviteHandler creates a new InviteHandler
func NewInviteHandler(inviteService *services.InviteService, authService *services.AuthService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		authService:   authService,
	}
}

// CreateInviteRequest represents the invite creation request body
type CreateInviteRequest struct {
	Email string                  `json:"email" binding:"required"`
	Role  models.OrganizationRole `json:"role" binding:"required"`
}

// Create handles POST /api/organizations/:id/invites
func (h *InviteHandler) Create(c *gin.Context) {
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

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	invite, err := h.inviteService.CreateInvite(services.CreateInviteInput{
		OrganizationID: org.ID,
		InvitedByID:    userID,
		Email:          req.Email,
		Role:           req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidEmail):
			apierrors.BadRequest(c, "Invalid email format")
		case errors.Is(err, services.ErrInvalidRole):
			apierrors.BadRequest(c, "Role must be ADMIN or MEMBER")
		case errors.Is(err, services.ErrOrganizationNotFound):
			apierrors.NotFound(c, "Organization not found")
		default:
			apierrors.InternalError(c, "Failed to create invite")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invite": dto.ToInviteDTO(*invite),
	})
}

// List handles GET /api/organizations/:id/invites
func (h *InviteHandler) List(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	invites, err := h.inviteService.ListInvites(org.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list invites")
		return
	}

	items := make([]dto.InviteDTO, 0, len(invites))
	for _, inv := range invites {
		items = append(items, dto.ToInviteDTO(inv))
	}

	c.JSON(http.StatusOK, gin.H{
		"invites": items,
	})
}

// Revoke handles DELETE /api/organizations/:id/invites/:inviteId
func (h *InviteHandler) Revoke(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	inviteID, err := strconv.ParseUint(c.Param("inviteId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invite ID")
		return
	}

	invite, err := h.inviteService.RevokeInvite(org.ID, inviteID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			apierrors.NotFound(c, "Invite not found")
		case errors.Is(err, models.ErrInviteExpired):
			apierrors.Conflict(c, "Invite has expired")
		case errors.Is(err, models.ErrInviteNotPending):
			apierrors.Conflict(c, "Invite is no longer pending")
		default:
			apierrors.InternalError(c, "Failed to revoke invite")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite": dto.ToInviteDTO(*invite),
	})
}

// Verify handles GET /api/invites/:token — a public check used by the accept
// page before the user authenticates.
func (h *InviteHandler) Verify(c *gin.Context) {
	invite, err := h.inviteService.VerifyInvite(c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			apierrors.NotFound(c, "Invite not found")
		case errors.Is(err, models.ErrInviteExpired):
			apierrors.BadRequest(c, "Invite has expired")
		case errors.Is(err, models.ErrInviteNotPending):
			apierrors.Conflict(c, "Invite is no longer pending")
		default:
			apierrors.InternalError(c, "Failed to verify invite")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite":       dto.ToInviteDTO(*invite),
		"organization": dto.ToOrganizationDTO(invite.Organization),
	})
}

// Accept handles POST /api/invites/:token/accept
func (h *InviteHandler) Accept(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		apierrors.Unauthorized(c, "")
		return
	}

	invite, err := h.inviteService.AcceptInvite(c.Param("token"), user)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			apierrors.NotFound(c, "Invite not found")
		case errors.Is(err, models.ErrInviteExpired):
			apierrors.Conflict(c, "Invite has expired")
		case errors.Is(err, models.ErrInviteNotPending):
			apierrors.Conflict(c, "Invite is no longer pending")
		case errors.Is(err, models.ErrInviteEmailMismatch):
			apierrors.Forbidden(c, "Invite was issued for a different email")
		default:
			apierrors.InternalError(c, "Failed to accept invite")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite": dto.ToInviteDTO(*invite),
	})
}
