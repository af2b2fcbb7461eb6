package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testPaddleSecret = "paddle-test-secret"
	testStripeSecret = "stripe-test-secret"
)

type webhookTestEnv struct {
	db             *gorm.DB
	handler        *WebhookHandler
	billingService *services.BillingService
	org            *models.Organization
}

func setupWebhookTestEnv(t *testing.T) webhookTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Subscription{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	orgRepo := repository.NewOrganizationRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	billingService := services.NewBillingService(subscriptionRepo, orgRepo)
	handler := NewWebhookHandler(billingService, testPaddleSecret, testStripeSecret)

	org := &models.Organization{Name: "Acme Inc", Slug: "acme-inc"}
	require.NoError(t, db.Create(org).Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return webhookTestEnv{
		db:             db,
		handler:        handler,
		billingService: billingService,
		org:            org,
	}
}

func (env webhookTestEnv) router() *gin.Engine {
	r := gin.New()
	r.POST("/api/webhooks/paddle", env.handler.HandlePaddle)
	r.POST("/api/webhooks/stripe", env.handler.HandleStripe)
	return r
}

func paddleSign(body []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testPaddleSecret))
	mac.Write([]byte(ts + ":" + string(body)))
	return "ts=" + ts + ";h1=" + hex.EncodeToString(mac.Sum(nil))
}

func stripeSign(body []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(testStripeSecret))
	mac.Write([]byte(ts + "." + string(body)))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func paddleSubscriptionPayload(orgID uint64, eventType, status string) []byte {
	payload := map[string]interface{}{
		"event_id":   "evt_123",
		"event_type": eventType,
		"data": map[string]interface{}{
			"id":          "sub_abc",
			"status":      status,
			"customer_id": "ctm_xyz",
			"items": []map[string]interface{}{
				{"price": map[string]interface{}{"product_id": "pro_1", "name": "Pro"}},
			},
			"custom_data": map[string]interface{}{
				"organization_id": fmt.Sprintf("%d", orgID),
			},
		},
	}
	body, _ := json.Marshal(payload)
	return body
}

func TestWebhookHandler_Paddle_BadSignature(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	body := paddleSubscriptionPayload(env.org.ID, "subscription.created", "active")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", "ts=1;h1=deadbeef")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	// No subscription was written
	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestWebhookHandler_Paddle_MissingSignature(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	body := paddleSubscriptionPayload(env.org.ID, "subscription.created", "active")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookHandler_Paddle_CreatesAndUpdatesSubscription(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	body := paddleSubscriptionPayload(env.org.ID, "subscription.created", "active")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ack struct {
		Received bool `json:"received"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	require.True(t, ack.Received)

	sub, err := env.billingService.GetSubscription(env.org.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProviderPaddle, sub.Provider)
	require.Equal(t, models.SubscriptionActive, sub.Status)
	require.Equal(t, "Pro", sub.Plan)

	// A cancellation event updates the same row
	body = paddleSubscriptionPayload(env.org.ID, "subscription.canceled", "canceled")

	req = httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign(body))
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	sub, err = env.billingService.GetSubscription(env.org.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCanceled, sub.Status)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestWebhookHandler_Paddle_UnknownEventAcknowledged(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	body := paddleSubscriptionPayload(env.org.ID, "adjustment.created", "approved")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestWebhookHandler_Paddle_TransactionCompletedAcknowledged(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	body := paddleSubscriptionPayload(env.org.ID, "transaction.completed", "completed")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"received":true`)

	var count int64
	require.NoError(t, env.db.Model(&models.Subscription{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestWebhookHandler_Stripe_CreatesSubscription(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	now := time.Now().Unix()
	payload := map[string]interface{}{
		"id":   "evt_456",
		"type": "customer.subscription.created",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                   "sub_stripe",
				"customer":             "cus_123",
				"status":               "trialing",
				"cancel_at_period_end": false,
				"current_period_start": now,
				"current_period_end":   now + 30*24*3600,
				"metadata": map[string]interface{}{
					"organization_id": fmt.Sprintf("%d", env.org.ID),
				},
				"items": map[string]interface{}{
					"data": []map[string]interface{}{
						{"price": map[string]interface{}{"nickname": "Starter", "product": "prod_1"}},
					},
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", stripeSign(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	sub, err := env.billingService.GetSubscription(env.org.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProviderStripe, sub.Provider)
	require.Equal(t, models.SubscriptionTrialing, sub.Status)
	require.Equal(t, "Starter", sub.Plan)
	require.NotNil(t, sub.CurrentPeriodEnd)
}

func TestWebhookHandler_ProviderMismatchAcknowledged(t *testing.T) {
	env := setupWebhookTestEnv(t)
	r := env.router()

	// Organization is already billed through Stripe
	_, err := env.billingService.ApplySubscriptionEvent(services.SubscriptionEvent{
		OrganizationID:         env.org.ID,
		Provider:               models.ProviderStripe,
		ProviderSubscriptionID: "sub_stripe",
		Status:                 models.SubscriptionActive,
	})
	require.NoError(t, err)

	body := paddleSubscriptionPayload(env.org.ID, "subscription.created", "active")

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/paddle", bytes.NewReader(body))
	req.Header.Set("Paddle-Signature", paddleSign(body))
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	// Acknowledged so the provider stops retrying, but the record is untouched
	require.Equal(t, http.StatusOK, w.Code)

	sub, err := env.billingService.GetSubscription(env.org.ID)
	require.NoError(t, err)
	require.Equal(t, models.ProviderStripe, sub.Provider)
}
