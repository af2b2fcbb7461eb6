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
	"github.com/flamekit/flame-api/internal/events"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type leadTestEnv struct {
	db          *gorm.DB
	handler     *LeadHandler
	authService *services.AuthService
	leadService *services.LeadService
	bus         *events.Bus
}

func setupLeadTestEnv(t *testing.T) leadTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.RefreshToken{},
		&models.Lead{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	mailer := services.NewLogMailer("test@flamekit.dev")
	bus := events.NewBus()
	authService := services.NewAuthService(userRepo, orgRepo, refreshRepo, mailer, "test-secret")
	leadService := services.NewLeadService(leadRepo, orgRepo, bus)
	handler := NewLeadHandler(leadService)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return leadTestEnv{
		db:          db,
		handler:     handler,
		authService: authService,
		leadService: leadService,
		bus:         bus,
	}
}

func (env leadTestEnv) signupUser(t *testing.T, name, email string) (*models.User, *models.Organization, *http.Cookie) {
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

func (env leadTestEnv) router() *gin.Engine {
	r := gin.New()
	scoped := r.Group("/api/organizations/:id")
	scoped.Use(middleware.RequireAuth(env.authService), middleware.RequireOrganizationAccess())
	scoped.POST("/leads", middleware.RequirePermission(middleware.PermLeadsWrite), env.handler.Create)
	scoped.GET("/leads", middleware.RequirePermission(middleware.PermLeadsRead), env.handler.List)
	scoped.GET("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsRead), env.handler.Get)
	scoped.PATCH("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsWrite), env.handler.Update)
	scoped.PATCH("/leads/:leadId/status", middleware.RequirePermission(middleware.PermLeadsWrite), env.handler.UpdateStatus)
	scoped.POST("/leads/:leadId/assign", middleware.RequirePermission(middleware.PermLeadsWrite), env.handler.Assign)
	scoped.DELETE("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsDelete), env.handler.Delete)
	return r
}

func TestLeadHandler_Create_Defaults(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	r := env.router()

	body, err := json.Marshal(map[string]interface{}{
		"name":  "Dana Prospect",
		"email": "dana@prospect.example",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/organizations/%d/leads", org.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Lead struct {
			Status string   `json:"status"`
			Source string   `json:"source"`
			Score  int      `json:"score"`
			Tags   []string `json:"tags"`
		} `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "NEW", response.Lead.Status)
	require.Equal(t, "WEBSITE", response.Lead.Source)
	require.Equal(t, 0, response.Lead.Score)
	require.Empty(t, response.Lead.Tags)
}

func TestLeadHandler_UpdateStatus_WonPublishesConversion(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	var statusEvents []events.LeadStatusChangedEvent
	var conversions []events.LeadConvertedEvent
	env.bus.Subscribe(events.LeadStatusChanged, func(payload interface{}) {
		statusEvents = append(statusEvents, payload.(events.LeadStatusChangedEvent))
	})
	env.bus.Subscribe(events.LeadConverted, func(payload interface{}) {
		conversions = append(conversions, payload.(events.LeadConvertedEvent))
	})

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
		Value:          1200,
	})
	require.NoError(t, err)

	r := env.router()

	setStatus := func(status string) *httptest.ResponseRecorder {
		body, err := json.Marshal(map[string]string{"status": status})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPatch,
			fmt.Sprintf("/api/organizations/%d/leads/%d/status", org.ID, lead.ID), bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, setStatus("QUALIFIED").Code)
	require.Equal(t, http.StatusOK, setStatus("WON").Code)

	require.Len(t, statusEvents, 2)
	require.Equal(t, "NEW", statusEvents[0].PreviousStatus)
	require.Equal(t, "QUALIFIED", statusEvents[0].NewStatus)
	require.Equal(t, "QUALIFIED", statusEvents[1].PreviousStatus)
	require.Equal(t, "WON", statusEvents[1].NewStatus)

	require.Len(t, conversions, 1)
	require.Equal(t, 1200.0, conversions[0].Value)

	// Leaving WON and re-entering publishes another conversion
	require.Equal(t, http.StatusOK, setStatus("LOST").Code)
	require.Equal(t, http.StatusOK, setStatus("WON").Code)
	require.Len(t, conversions, 2)
}

func TestLeadHandler_UpdateStatus_Invalid(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
	})
	require.NoError(t, err)

	r := env.router()

	body, err := json.Marshal(map[string]string{"status": "FROZEN"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/organizations/%d/leads/%d/status", org.ID, lead.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_Assign_NonMemberRejected(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")
	bob, _, _ := env.signupUser(t, "Bob Example", "bob@example.com")

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
	})
	require.NoError(t, err)

	r := env.router()

	// Bob belongs to his own organization, not Alice's
	body, err := json.Marshal(map[string]uint64{"assignee_id": bob.ID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/organizations/%d/leads/%d/assign", org.ID, lead.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLeadHandler_List_FiltersAndPagination(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	seed := []struct {
		name   string
		email  string
		value  float64
		score  int
		tags   []string
		status models.LeadStatus
	}{
		{"Dana Prospect", "dana@prospect.example", 500, 10, []string{"enterprise"}, models.LeadStatusNew},
		{"Eve Customer", "eve@customer.example", 2500, 80, []string{"enterprise", "priority"}, models.LeadStatusQualified},
		{"Frank Cold", "frank@cold.example", 100, 5, nil, models.LeadStatusLost},
	}
	for _, s := range seed {
		lead, err := env.leadService.CreateLead(services.CreateLeadInput{
			OrganizationID: org.ID,
			Name:           s.name,
			Email:          s.email,
			Value:          s.value,
			Score:          s.score,
			Tags:           s.tags,
		})
		require.NoError(t, err)
		if s.status != models.LeadStatusNew {
			_, err = env.leadService.UpdateLeadStatus(org.ID, lead.ID, s.status)
			require.NoError(t, err)
		}
	}

	r := env.router()

	list := func(query string) struct {
		Leads []struct {
			Name string `json:"name"`
		} `json:"leads"`
		TotalCount int64 `json:"total_count"`
	} {
		req := httptest.NewRequest(http.MethodGet,
			fmt.Sprintf("/api/organizations/%d/leads%s", org.ID, query), nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Leads []struct {
				Name string `json:"name"`
			} `json:"leads"`
			TotalCount int64 `json:"total_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		return response
	}

	require.EqualValues(t, 3, list("").TotalCount)
	require.EqualValues(t, 1, list("?status=QUALIFIED").TotalCount)
	require.EqualValues(t, 2, list("?tags=enterprise").TotalCount)
	require.EqualValues(t, 1, list("?tags=priority").TotalCount)
	require.EqualValues(t, 2, list("?min_value=400").TotalCount)
	require.EqualValues(t, 1, list("?min_score=50").TotalCount)
	require.EqualValues(t, 1, list("?search=frank").TotalCount)

	paged := list("?page=1&limit=2&sort_by=value&sort_order=desc")
	require.Len(t, paged.Leads, 2)
	require.EqualValues(t, 3, paged.TotalCount)
	require.Equal(t, "Eve Customer", paged.Leads[0].Name)
}

func TestLeadHandler_Get_OtherOrganizationLeadHidden(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, aliceOrg, _ := env.signupUser(t, "Alice Example", "alice@example.com")
	_, bobOrg, bobCookie := env.signupUser(t, "Bob Example", "bob@example.com")

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: aliceOrg.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
	})
	require.NoError(t, err)

	r := env.router()

	// Bob queries his own organization for Alice's lead: scoping hides it
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/api/organizations/%d/leads/%d", bobOrg.ID, lead.ID), nil)
	req.AddCookie(bobCookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestLeadHandler_Update_Fields(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
	})
	require.NoError(t, err)

	r := env.router()

	body, err := json.Marshal(map[string]interface{}{
		"company": "Prospect Co",
		"score":   65,
		"tags":    []string{"warm", "q3"},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/organizations/%d/leads/%d", org.ID, lead.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Lead struct {
			Company string   `json:"company"`
			Score   int      `json:"score"`
			Tags    []string `json:"tags"`
			Status  string   `json:"status"`
		} `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Prospect Co", response.Lead.Company)
	require.Equal(t, 65, response.Lead.Score)
	require.Equal(t, []string{"warm", "q3"}, response.Lead.Tags)
	require.Equal(t, "NEW", response.Lead.Status)
}

func TestLeadHandler_Update_NormalizesEmail(t *testing.T) {
	env := setupLeadTestEnv(t)
	_, org, cookie := env.signupUser(t, "Alice Example", "alice@example.com")

	lead, err := env.leadService.CreateLead(services.CreateLeadInput{
		OrganizationID: org.ID,
		Name:           "Dana Prospect",
		Email:          "dana@prospect.example",
	})
	require.NoError(t, err)

	r := env.router()

	body, err := json.Marshal(map[string]interface{}{
		"email": "  Dana.New@Prospect.EXAMPLE ",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch,
		fmt.Sprintf("/api/organizations/%d/leads/%d", org.ID, lead.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	stored, err := env.leadService.GetLead(org.ID, lead.ID)
	require.NoError(t, err)
	require.Equal(t, "dana.new@prospect.example", stored.Email)
}
