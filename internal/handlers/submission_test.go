package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
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

type submissionTestEnv struct {
	db                *gorm.DB
	handler           *SubmissionHandler
	authService       *services.AuthService
	apiKeyService     *services.APIKeyService
	submissionService *services.SubmissionService
}

func setupSubmissionTestEnv(t *testing.T) submissionTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.RefreshToken{},
		&models.Submission{},
		&models.APIKey{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	mailer := services.NewLogMailer("test@flamekit.dev")
	authService := services.NewAuthService(userRepo, orgRepo, refreshRepo, mailer, "test-secret")
	submissionService := services.NewSubmissionService(submissionRepo, orgRepo)
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	handler := NewSubmissionHandler(submissionService, apiKeyService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return submissionTestEnv{
		db:                db,
		handler:           handler,
		authService:       authService,
		apiKeyService:     apiKeyService,
		submissionService: submissionService,
	}
}

func (env submissionTestEnv) signupUser(t *testing.T, name, email string) (*models.User, *models.Organization, *http.Cookie) {
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

func (env submissionTestEnv) router() *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	api.POST("/public/:slug/submissions", env.handler.PublicCreate)

	scoped := api.Group("/organizations/:id")
	scoped.Use(middleware.RequireAuth(env.authService), middleware.RequireOrganizationAccess())
	scoped.GET("/submissions", middleware.RequirePermission(middleware.PermSubmissionsRead), env.handler.List)
	scoped.PATCH("/submissions/:submissionId", middleware.RequirePermission(middleware.PermSubmissionsWrite), env.handler.UpdateStatus)
	return r
}

func TestSubmissionHandler_PublicCreate(t *testing.T) {
	env := setupSubmissionTestEnv(t)
	_, org, _ := env.signupUser(t, "Alice Example", "alice@example.com")

	r := env.router()

	body, err := json.Marshal(map[string]string{
		"name":    "Visitor Person",
		"email":   "visitor@example.com",
		"message": "I want a demo",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/public/"+org.Slug+"/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Submission struct {
			Status string `json:"status"`
		} `json:"submission"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "PENDING", response.Submission.Status)
}

func TestSubmissionHandler_PublicCreate_UnknownSlug(t *testing.T) {
	env := setupSubmissionTestEnv(t)

	r := env.router()

	body, err := json.Marshal(map[string]string{
		"name":  "Visitor Person",
		"email": "visitor@example.com",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/public/no-such-org/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmissionHandler_PublicCreate_APIKeyScoping(t *testing.T) {
	env := setupSubmissionTestEnv(t)
	alice, aliceOrg, _ := env.signupUser(t, "Alice Example", "alice@example.com")
	_, bobOrg, _ := env.signupUser(t, "Bob Example", "bob@example.com")

	_, rawKey, err := env.apiKeyService.CreateAPIKey(services.CreateAPIKeyInput{
		OrganizationID: aliceOrg.ID,
		CreatedByID:    alice.ID,
		Name:           "Form key",
		Mode:           models.APIKeyModeLive,
	})
	require.NoError(t, err)

	r := env.router()

	body, err := json.Marshal(map[string]string{
		"name":  "Visitor Person",
		"email": "visitor@example.com",
	})
	require.NoError(t, err)

	// The key matches the addressed organization
	req := httptest.NewRequest(http.MethodPost, "/api/public/"+aliceOrg.Slug+"/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	// Alice's key cannot post to Bob's organization
	req = httptest.NewRequest(http.MethodPost, "/api/public/"+bobOrg.Slug+"/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", rawKey)
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)

	// A garbage key is rejected outright
	req = httptest.NewRequest(http.MethodPost, "/api/public/"+aliceOrg.Slug+"/submissions", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "flame_live_bogus")
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmissionHandler_UpdateStatus_StampsReviewer(t *testing.T) {
	env := setupSubmissionTestEnv(t)
	alice, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	submission, err := env.submissionService.CreateSubmission(services.CreateSubmissionInput{
		OrganizationSlug: org.Slug,
		Name:             "Visitor Person",
		Email:            "visitor@example.com",
		Message:          "I want a demo",
	})
	require.NoError(t, err)

	r := env.router()

	body, err := json.Marshal(map[string]string{"status": "REVIEWED"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/organizations/%d/submissions/%d", org.ID, submission.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Submission
	require.NoError(t, env.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusReviewed, stored.Status)
	require.NotNil(t, stored.ReviewedByID)
	require.Equal(t, alice.ID, *stored.ReviewedByID)
	require.NotNil(t, stored.ReviewedAt)
	firstReviewedAt := *stored.ReviewedAt

	// A later status change keeps the original review stamp
	body, err = json.Marshal(map[string]string{"status": "ARCHIVED"})
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/organizations/%d/submissions/%d", org.ID, submission.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, env.db.First(&stored, submission.ID).Error)
	require.Equal(t, models.SubmissionStatusArchived, stored.Status)
	require.Equal(t, firstReviewedAt.Unix(), stored.ReviewedAt.Unix())
}

func TestSubmissionHandler_List_StatusFilter(t *testing.T) {
	env := setupSubmissionTestEnv(t)
	alice, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := env.submissionService.CreateSubmission(services.CreateSubmissionInput{
			OrganizationSlug: org.Slug,
			Name:             "Visitor Person",
			Email:            fmt.Sprintf("visitor%d@example.com", i),
		})
		require.NoError(t, err)
	}

	// Mark one as spam
	var first models.Submission
	require.NoError(t, env.db.First(&first).Error)
	_, err := env.submissionService.UpdateSubmissionStatus(org.ID, first.ID, alice.ID, models.SubmissionStatusSpam)
	require.NoError(t, err)

	r := env.router()

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/organizations/%d/submissions?status=PENDING", org.ID), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Submissions []struct {
			Status string `json:"status"`
		} `json:"submissions"`
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.EqualValues(t, 2, response.TotalCount)
	for _, s := range response.Submissions {
		require.Equal(t, "PENDING", s.Status)
	}
}

func TestSubmissionHandler_List_Pagination(t *testing.T) {
	env := setupSubmissionTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := env.submissionService.CreateSubmission(services.CreateSubmissionInput{
			OrganizationSlug: org.Slug,
			Name:             "Visitor Person",
			Email:            fmt.Sprintf("visitor%d@example.com", i),
		})
		require.NoError(t, err)
	}

	r := env.router()

	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/organizations/%d/submissions?page=2&limit=2", org.ID), nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Submissions []struct {
			Email string `json:"email"`
		} `json:"submissions"`
		TotalCount int64 `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.EqualValues(t, 3, response.TotalCount)
	require.Len(t, response.Submissions, 1)
}
