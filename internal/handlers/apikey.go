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

// APIKeyHandler handles API key requests
type APIKeyHandler struct {
	apiKeyService *services.APIKeyService
}

// NewAPIKeyHandler creates a new APIKeyHandler
func NewAPIKeyHandler(apiKeyService *services.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{
		apiKeyService: apiKeyService,
	}
}

// CreateAPIKeyRequest represents the key creation request body
type CreateAPIKeyRequest struct {
	Name string            `json:"name" binding:"required"`
	Mode models.APIKeyMode `json:"mode"`
}

// Create handles POST /api/organizations/:id/api-keys. The response carries
// the raw key; it is never retrievable again.
func (h *APIKeyHandler) Create(c *gin.Context) {
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

	var req CreateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	key, raw, err := h.apiKeyService.CreateAPIKey(services.CreateAPIKeyInput{
		OrganizationID: org.ID,
		CreatedByID:    userID,
		Name:           req.Name,
		Mode:           req.Mode,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidAPIKey) {
			apierrors.BadRequest(c, "Mode must be live or test")
			return
		}
		apierrors.InternalError(c, "Failed to create API key")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"api_key": dto.ToAPIKeyCreatedDTO(*key, raw),
	})
}

// List handles GET /api/organizations/:id/api-keys
func (h *APIKeyHandler) List(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	keys, err := h.apiKeyService.ListAPIKeys(org.ID)
	if err != nil {
		apierrors.InternalError(c, "Failed to list API keys")
		return
	}

	items := make([]dto.APIKeyDTO, 0, len(keys))
	for _, k := range keys {
		items = append(items, dto.ToAPIKeyDTO(k))
	}

	c.JSON(http.StatusOK, gin.H{
		"api_keys": items,
	})
}

// Revoke handles DELETE /api/organizations/:id/api-keys/:keyId
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	keyID, err := strconv.ParseUint(c.Param("keyId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid API key ID")
		return
	}

	if err := h.apiKeyService.RevokeAPIKey(org.ID, keyID); err != nil {
		if errors.Is(err, services.ErrAPIKeyNotFound) {
			apierrors.NotFound(c, "API key not found")
			return
		}
		apierrors.InternalError(c, "Failed to revoke API key")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "API key revoked",
	})
}
