package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type apiKeyTestEnv struct {
	db            *gorm.DB
	handler       *APIKeyHandler
	authService   *services.AuthService
	apiKeyService *services.APIKeyService
}

func setupAPIKeyTestEnv(t *testing.T) apiKeyTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.RefreshToken{},
		&models.APIKey{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	mailer := services.NewLogMailer("test@flamekit.dev")
	authService := services.NewAuthService(userRepo, orgRepo, refreshRepo, mailer, "test-secret")
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	handler := NewAPIKeyHandler(apiKeyService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return apiKeyTestEnv{
		db:            db,
		handler:       handler,
		authService:   authService,
		apiKeyService: apiKeyService,
	}
}

func (env apiKeyTestEnv) signupUser(t *testing.T, name, email string) (*models.User, *models.Organization, *http.Cookie) {
	t.Helper()

	user, org, err := env.authService.Signup(services.SignupInput{
		Name:     name,
		Email:    email,
		Password: "supersecret",
	})
	require.NoError(t, err)

	pair, err := env.authService.IssueTokenPair(user)
	require.NoError(t, err)

	return user, org, &http.Cookie{Name: constants.AccessTokenCookie, Value: pair.AccessToken}
}

func (env apiKeyTestEnv) router() *gin.Engine {
	r := gin.New()
	scoped := r.Group("/api/organizations/:id")
	scoped.Use(middleware.RequireAuth(env.authService), middleware.RequireOrganizationAccess())
	scoped.POST("/api-keys", middleware.RequirePermission(middleware.PermAPIKeysManage), env.handler.Create)
	scoped.GET("/api-keys", middleware.RequirePermission(middleware.PermAPIKeysManage), env.handler.List)
	scoped.DELETE("/api-keys/:keyId", middleware.RequirePermission(middleware.PermAPIKeysManage), env.handler.Revoke)
	return r
}

var apiKeyPattern = regexp.MustCompile(`^flame_(live|test)_[A-Za-z0-9_-]{43}$`)

func TestAPIKeyHandler_Create_RawKeyShownOnce(t *testing.T) {
	env := setupAPIKeyTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	r := env.router()

	body, err := json.Marshal(map[string]string{
		"name": "CI key",
		"mode": "test",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/organizations/%d/api-keys", org.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var createResponse struct {
		APIKey struct {
			Key       string `json:"key"`
			MaskedKey string `json:"masked_key"`
			Mode      string `json:"mode"`
		} `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResponse))

	rawKey := createResponse.APIKey.Key
	require.Regexp(t, apiKeyPattern, rawKey)
	require.Equal(t, "test", createResponse.APIKey.Mode)
	require.Equal(t, "****"+rawKey[len(rawKey)-8:], createResponse.APIKey.MaskedKey)

	// The raw key is never stored
	var stored models.APIKey
	require.NoError(t, env.db.First(&stored).Error)
	require.NotEqual(t, rawKey, stored.KeyHash)
	require.Len(t, stored.KeyHash, 64)

	// Listing only ever exposes the masked form
	req = httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/organizations/%d/api-keys", org.ID), nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), rawKey)
	require.Contains(t, w.Body.String(), "****"+rawKey[len(rawKey)-8:])
}

func TestAPIKeyHandler_Create_DefaultsToLive(t *testing.T) {
	env := setupAPIKeyTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	r := env.router()

	body, err := json.Marshal(map[string]string{"name": "Production"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/organizations/%d/api-keys", org.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		APIKey struct {
			Key string `json:"key"`
		} `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.True(t, strings.HasPrefix(response.APIKey.Key, "flame_live_"))
}

func TestAPIKeyService_Authenticate(t *testing.T) {
	env := setupAPIKeyTestEnv(t)
	alice, org, _ := env.signupUser(t, "Alice Example", "alice@example.com")

	key, raw, err := env.apiKeyService.CreateAPIKey(services.CreateAPIKeyInput{
		OrganizationID: org.ID,
		CreatedByID:    alice.ID,
		Name:           "Integration",
		Mode:           models.APIKeyModeLive,
	})
	require.NoError(t, err)
	require.Nil(t, key.LastUsedAt)

	resolved, err := env.apiKeyService.Authenticate(raw)
	require.NoError(t, err)
	require.Equal(t, key.ID, resolved.ID)

	// Authentication stamps last use
	var stored models.APIKey
	require.NoError(t, env.db.First(&stored, key.ID).Error)
	require.NotNil(t, stored.LastUsedAt)

	_, err = env.apiKeyService.Authenticate("flame_live_notarealkeynotarealkeynotarealkeynotareal")
	require.ErrorIs(t, err, services.ErrInvalidAPIKey)
}

func TestAPIKeyHandler_Revoke(t *testing.T) {
	env := setupAPIKeyTestEnv(t)
	alice, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	key, raw, err := env.apiKeyService.CreateAPIKey(services.CreateAPIKeyInput{
		OrganizationID: org.ID,
		CreatedByID:    alice.ID,
		Name:           "Doomed",
		Mode:           models.APIKeyModeLive,
	})
	require.NoError(t, err)

	r := env.router()

	req := httptest.NewRequest(http.MethodDelete,
		fmt.Sprintf("/api/organizations/%d/api-keys/%d", org.ID, key.ID), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// A revoked key no longer authenticates
	_, err = env.apiKeyService.Authenticate(raw)
	require.ErrorIs(t, err, services.ErrInvalidAPIKey)
}
