package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives billing provider webhooks. Each provider endpoint
// verifies the request signature against a shared secret, translates the
// payload into a provider-neutral subscription event, and applies it.
type WebhookHandler struct {
	billingService *services.BillingService
	paddleSecret   string
	stripeSecret   string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(billingService *services.BillingService, paddleSecret, stripeSecret string) *WebhookHandler {
	return &WebhookHandler{
		billingService: billingService,
		paddleSecret:   paddleSecret,
		stripeSecret:   stripeSecret,
	}
}

type paddleWebhookEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       struct {
		ID         string `json:"id"`
		Status     string `json:"status"`
		CustomerID string `json:"customer_id"`
		Items      []struct {
			Price struct {
				ProductID string `json:"product_id"`
				Name      string `json:"name"`
			} `json:"price"`
		} `json:"items"`
		CustomData struct {
			OrganizationID string `json:"organization_id"`
		} `json:"custom_data"`
		CurrentBillingPeriod struct {
			StartsAt *time.Time `json:"starts_at"`
			EndsAt   *time.Time `json:"ends_at"`
		} `json:"current_billing_period"`
		ScheduledChange *struct {
			Action string `json:"action"`
		} `json:"scheduled_change"`
	} `json:"data"`
}

type stripeWebhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                 string `json:"id"`
			Customer           string `json:"customer"`
			Status             string `json:"status"`
			CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
			CurrentPeriodStart int64  `json:"current_period_start"`
			CurrentPeriodEnd   int64  `json:"current_period_end"`
			Metadata           struct {
				OrganizationID string `json:"organization_id"`
			} `json:"metadata"`
			Items struct {
				Data []struct {
					Price struct {
						Nickname string `json:"nickname"`
						Product  string `json:"product"`
					} `json:"price"`
				} `json:"data"`
			} `json:"items"`
		} `json:"object"`
	} `json:"data"`
}

// verifyPaddleSignature checks the Paddle-Signature header: "ts=...;h1=..."
// where h1 is the hex HMAC-SHA256 of "ts:body".
func (h *WebhookHandler) verifyPaddleSignature(signature string, body []byte) bool {
	var ts, h1 string
	for _, part := range strings.Split(signature, ";") {
		if strings.HasPrefix(part, "ts=") {
			ts = strings.TrimPrefix(part, "ts=")
		} else if strings.HasPrefix(part, "h1=") {
			h1 = strings.TrimPrefix(part, "h1=")
		}
	}
	if ts == "" || h1 == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.paddleSecret))
	mac.Write([]byte(ts + ":" + string(body)))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(h1), []byte(expected))
}

// verifyStripeSignature checks the Stripe-Signature header: "t=...,v1=..."
// where v1 is the hex HMAC-SHA256 of "t.body".
func (h *WebhookHandler) verifyStripeSignature(signature string, body []byte) bool {
	var t, v1 string
	for _, part := range strings.Split(signature, ",") {
		if strings.HasPrefix(part, "t=") {
			t = strings.TrimPrefix(part, "t=")
		} else if strings.HasPrefix(part, "v1=") {
			v1 = strings.TrimPrefix(part, "v1=")
		}
	}
	if t == "" || v1 == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.stripeSecret))
	mac.Write([]byte(t + "." + string(body)))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(v1), []byte(expected))
}

func mapPaddleStatus(status string) models.SubscriptionStatus {
	switch status {
	case "active":
		return models.SubscriptionActive
	case "trialing":
		return models.SubscriptionTrialing
	case "past_due":
		return models.SubscriptionPastDue
	case "canceled", "paused":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionIncomplete
	}
}

func mapStripeStatus(status string) models.SubscriptionStatus {
	switch status {
	case "active":
		return models.SubscriptionActive
	case "trialing":
		return models.SubscriptionTrialing
	case "past_due", "unpaid":
		return models.SubscriptionPastDue
	case "canceled":
		return models.SubscriptionCanceled
	default:
		return models.SubscriptionIncomplete
	}
}

func (h *WebhookHandler) applyEvent(c *gin.Context, event services.SubscriptionEvent) {
	if _, err := h.billingService.ApplySubscriptionEvent(event); err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) || errors.Is(err, services.ErrProviderMismatch) {
			// The provider sent something we cannot attribute; acknowledge so
			// it stops retrying.
			c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// HandlePaddle handles POST /api/webhooks/paddle
func (h *WebhookHandler) HandlePaddle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if !h.verifyPaddleSignature(c.GetHeader("Paddle-Signature"), body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var event paddleWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	switch event.EventType {
	case "subscription.created", "subscription.activated", "subscription.updated", "subscription.canceled":
	case "transaction.completed":
		// Payment receipts carry no subscription state change, acknowledge only
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	orgID, err := strconv.ParseUint(event.Data.CustomData.OrganizationID, 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	plan := ""
	if len(event.Data.Items) > 0 {
		plan = event.Data.Items[0].Price.Name
	}

	status := mapPaddleStatus(event.Data.Status)
	if event.EventType == "subscription.canceled" {
		status = models.SubscriptionCanceled
	}

	h.applyEvent(c, services.SubscriptionEvent{
		OrganizationID:         orgID,
		Provider:               models.ProviderPaddle,
		ProviderCustomerID:     event.Data.CustomerID,
		ProviderSubscriptionID: event.Data.ID,
		Plan:                   plan,
		Status:                 status,
		CurrentPeriodStart:     event.Data.CurrentBillingPeriod.StartsAt,
		CurrentPeriodEnd:       event.Data.CurrentBillingPeriod.EndsAt,
		CancelAtPeriodEnd:      event.Data.ScheduledChange != nil && event.Data.ScheduledChange.Action == "cancel",
	})
}

// HandleStripe handles POST /api/webhooks/stripe
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if !h.verifyStripeSignature(c.GetHeader("Stripe-Signature"), body) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var event stripeWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook payload"})
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	obj := event.Data.Object
	orgID, err := strconv.ParseUint(obj.Metadata.OrganizationID, 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": true})
		return
	}

	plan := ""
	if len(obj.Items.Data) > 0 {
		plan = obj.Items.Data[0].Price.Nickname
	}

	status := mapStripeStatus(obj.Status)
	if event.Type == "customer.subscription.deleted" {
		status = models.SubscriptionCanceled
	}

	var periodStart, periodEnd *time.Time
	if obj.CurrentPeriodStart > 0 {
		t := time.Unix(obj.CurrentPeriodStart, 0).UTC()
		periodStart = &t
	}
	if obj.CurrentPeriodEnd > 0 {
		t := time.Unix(obj.CurrentPeriodEnd, 0).UTC()
		periodEnd = &t
	}

	h.applyEvent(c, services.SubscriptionEvent{
		OrganizationID:         orgID,
		Provider:               models.ProviderStripe,
		ProviderCustomerID:     obj.Customer,
		ProviderSubscriptionID: obj.ID,
		Plan:                   plan,
		Status:                 status,
		CurrentPeriodStart:     periodStart,
		CurrentPeriodEnd:       periodEnd,
		CancelAtPeriodEnd:      obj.CancelAtPeriodEnd,
	})
}
