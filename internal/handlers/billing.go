package handlers

import (
	"errors"
	"net/http"

	"github.com/flamekit/flame-api/internal/dto"
	apierrors "github.com/flamekit/flame-api/internal/errors"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
)

// BillingHandler handles subscription read requests
type BillingHandler struct {
	billingService *services.BillingService
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billingService *services.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

// GetSubscription handles GET /api/organizations/:id/subscription
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	org, ok := middleware.GetOrganization(c)
	if !ok {
		apierrors.InternalError(c, "Organization not loaded")
		return
	}

	sub, err := h.billingService.GetSubscription(org.ID)
	if err != nil {
		if errors.Is(err, services.ErrSubscriptionNotFound) {
			apierrors.NotFound(c, "No subscription for this organization")
			return
		}
		apierrors.InternalError(c, "Failed to load subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscription": dto.ToSubscriptionDTO(*sub),
	})
}
