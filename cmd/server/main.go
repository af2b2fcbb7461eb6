package main

import (
	"log"
	"net/http"

	"github.com/flamekit/flame-api/internal/config"
	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/events"
	"github.com/flamekit/flame-api/internal/handlers"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	leadRepo := repository.NewLeadRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)

	// Event bus
	bus := events.NewBus()

	// Services
	mailer := services.NewLogMailer(cfg.MailFrom)
	authService := services.NewAuthService(userRepo, orgRepo, refreshRepo, mailer, cfg.JWTSecret)
	orgService := services.NewOrganizationService(orgRepo)
	inviteService := services.NewInviteService(inviteRepo, orgRepo, mailer)
	leadService := services.NewLeadService(leadRepo, orgRepo, bus)
	submissionService := services.NewSubmissionService(submissionRepo, orgRepo)
	apiKeyService := services.NewAPIKeyService(apiKeyRepo)
	notificationService := services.NewNotificationService(notificationRepo, leadRepo)
	billingService := services.NewBillingService(subscriptionRepo, orgRepo)

	notificationService.RegisterLeadSubscribers(bus)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	inviteHandler := handlers.NewInviteHandler(inviteService, authService)
	leadHandler := handlers.NewLeadHandler(leadService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, apiKeyService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	billingHandler := handlers.NewBillingHandler(billingService)
	webhookHandler := handlers.NewWebhookHandler(billingService, cfg.PaddleWebhookSecret, cfg.StripeWebhookSecret)

	// Initialize Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Flame API is running",
		})
	})

	// Server-rendered pages
	r.GET("/login", middleware.RedirectAuthenticated(authService), func(c *gin.Context) {
		c.String(http.StatusOK, "login")
	})
	r.GET("/signup", middleware.RedirectAuthenticated(authService), func(c *gin.Context) {
		c.String(http.StatusOK, "signup")
	})
	app := r.Group("/app")
	app.Use(middleware.RequirePageAuth(authService))
	{
		app.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "dashboard")
		})
		app.GET("/*page", func(c *gin.Context) {
			c.String(http.StatusOK, "dashboard")
		})
	}

	// API routes
	api := r.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
			auth.GET("/me", middleware.RequireAuth(authService), authHandler.Me)
			auth.PATCH("/me", middleware.RequireAuth(authService), authHandler.UpdateMe)
			auth.POST("/verify-email", middleware.RequireAuth(authService), authHandler.VerifyEmail)
		}

		// Public form capture and invite verification
		api.POST("/public/:slug/submissions", submissionHandler.PublicCreate)
		api.GET("/invites/:token", inviteHandler.Verify)
		api.POST("/invites/:token/accept", middleware.RequireAuth(authService), inviteHandler.Accept)

		// Billing webhooks (authenticated by signature, not session)
		webhooks := api.Group("/webhooks")
		{
			webhooks.POST("/paddle", webhookHandler.HandlePaddle)
			webhooks.POST("/stripe", webhookHandler.HandleStripe)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth(authService))
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
			notifications.DELETE("/:notificationId", notificationHandler.Delete)
		}

		// Organization routes
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth(authService))
		{
			orgs.POST("", orgHandler.Create)
			orgs.GET("", orgHandler.List)

			scoped := orgs.Group("/:id")
			scoped.Use(middleware.RequireOrganizationAccess())
			{
				scoped.GET("", orgHandler.Get)
				scoped.PATCH("", middleware.RequirePermission(middleware.PermOrgManage), orgHandler.Update)
				scoped.DELETE("", middleware.RequirePermission(middleware.PermOrgManage), orgHandler.Delete)
				scoped.GET("/members", orgHandler.ListMembers)
				scoped.DELETE("/members/:userId", middleware.RequirePermission(middleware.PermMembersManage), orgHandler.RemoveMember)
				scoped.PATCH("/members/:userId", middleware.RequirePermission(middleware.PermMembersManage), orgHandler.ChangeMemberRole)

				scoped.POST("/invites", middleware.RequirePermission(middleware.PermInvitesManage), inviteHandler.Create)
				scoped.GET("/invites", middleware.RequirePermission(middleware.PermInvitesManage), inviteHandler.List)
				scoped.DELETE("/invites/:inviteId", middleware.RequirePermission(middleware.PermInvitesManage), inviteHandler.Revoke)

				scoped.POST("/leads", middleware.RequirePermission(middleware.PermLeadsWrite), leadHandler.Create)
				scoped.GET("/leads", middleware.RequirePermission(middleware.PermLeadsRead), leadHandler.List)
				scoped.GET("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsRead), leadHandler.Get)
				scoped.PATCH("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsWrite), leadHandler.Update)
				scoped.PATCH("/leads/:leadId/status", middleware.RequirePermission(middleware.PermLeadsWrite), leadHandler.UpdateStatus)
				scoped.POST("/leads/:leadId/assign", middleware.RequirePermission(middleware.PermLeadsWrite), leadHandler.Assign)
				scoped.DELETE("/leads/:leadId", middleware.RequirePermission(middleware.PermLeadsDelete), leadHandler.Delete)

				scoped.GET("/submissions", middleware.RequirePermission(middleware.PermSubmissionsRead), submissionHandler.List)
				scoped.PATCH("/submissions/:submissionId", middleware.RequirePermission(middleware.PermSubmissionsWrite), submissionHandler.UpdateStatus)

				scoped.POST("/api-keys", middleware.RequirePermission(middleware.PermAPIKeysManage), apiKeyHandler.Create)
				scoped.GET("/api-keys", middleware.RequirePermission(middleware.PermAPIKeysManage), apiKeyHandler.List)
				scoped.DELETE("/api-keys/:keyId", middleware.RequirePermission(middleware.PermAPIKeysManage), apiKeyHandler.Revoke)

				scoped.GET("/subscription", middleware.RequirePermission(middleware.PermBillingRead), billingHandler.GetSubscription)
			}
		}
	}

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
