package handlers

import (
	"errors"
	"net/http"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/dto"
	apierrors "github.com/flamekit/flame-api/internal/errors"
	"github.com/flamekit/flame-api/internal/middleware"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/services"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required"`
	Password         string `json:"password" binding:"required"`
	OrganizationName string `json:"organization_name"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the profile update request body
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	AvatarURL *string `json:"avatar_url"`
}

// ForgotPasswordRequest represents the forgot-password request body
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetPasswordRequest represents the reset-password request body
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, pair *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AccessTokenCookie, pair.AccessToken,
		int(constants.AccessTokenTTL.Seconds()), "/", "", false, true)
	c.SetCookie(constants.RefreshTokenCookie, pair.RefreshToken,
		int(constants.RefreshTokenTTL.Seconds()), "/", "", false, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.AccessTokenCookie, "", -1, "/", "", false, true)
	c.SetCookie(constants.RefreshTokenCookie, "", -1, "/", "", false, true)
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	user, org, err := h.authService.Signup(services.SignupInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			apierrors.Conflict(c, "Email is already registered")
		case errors.Is(err, services.ErrPasswordTooShort):
			apierrors.BadRequest(c, "Password must be at least 8 characters")
		case errors.Is(err, models.ErrInvalidEmail):
			apierrors.BadRequest(c, "Invalid email format")
		case errors.Is(err, models.ErrNameTooShort):
			apierrors.BadRequest(c, "Name must be at least 2 characters")
		default:
			apierrors.InternalError(c, "Failed to create account")
		}
		return
	}

	pair, err := h.authService.IssueTokenPair(user)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue session")
		return
	}
	h.setAuthCookies(c, pair)

	c.JSON(http.StatusCreated, gin.H{
		"user":         dto.ToUserDTO(*user),
		"organization": dto.ToOrganizationDTO(*org),
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.authService.Login(services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			apierrors.Unauthorized(c, "Invalid email or password")
			return
		}
		apierrors.InternalError(c, "Failed to log in")
		return
	}

	pair, err := h.authService.IssueTokenPair(user)
	if err != nil {
		apierrors.InternalError(c, "Failed to issue session")
		return
	}
	h.setAuthCookies(c, pair)

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(constants.RefreshTokenCookie)
	if err != nil || refreshToken == "" {
		apierrors.Unauthorized(c, "Refresh token required")
		return
	}

	user, pair, err := h.authService.Refresh(refreshToken)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRefreshToken) {
			h.clearAuthCookies(c)
			apierrors.Unauthorized(c, "Invalid or expired refresh token")
			return
		}
		apierrors.InternalError(c, "Failed to refresh session")
		return
	}
	h.setAuthCookies(c, pair)

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(constants.RefreshTokenCookie)
	if err := h.authService.Logout(refreshToken); err != nil {
		apierrors.InternalError(c, "Failed to log out")
		return
	}
	h.clearAuthCookies(c)

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			apierrors.NotFound(c, "User not found")
			return
		}
		apierrors.InternalError(c, "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// UpdateMe handles PATCH /api/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	user, err := h.authService.UpdateProfile(userID, services.UpdateProfileInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, "User not found")
		case errors.Is(err, models.ErrNameTooShort):
			apierrors.BadRequest(c, "Name must be at least 2 characters")
		default:
			apierrors.InternalError(c, "Failed to update profile")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.VerifyEmail(userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			apierrors.NotFound(c, "User not found")
		case errors.Is(err, models.ErrEmailAlreadyVerified):
			apierrors.Conflict(c, "Email is already verified")
		default:
			apierrors.InternalError(c, "Failed to verify email")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": dto.ToUserDTO(*user),
	})
}

// ForgotPassword handles POST /api/auth/forgot-password. The response is the
// same whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	if err := h.authService.ForgotPassword(req.Email); err != nil {
		apierrors.InternalError(c, "Failed to process request")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If that email is registered, a reset link has been sent",
	})
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequestWithDetails(c, "Invalid request body", err.Error())
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidResetToken):
			apierrors.BadRequest(c, "Invalid or expired reset token")
		case errors.Is(err, services.ErrPasswordTooShort):
			apierrors.BadRequest(c, "Password must be at least 8 characters")
		default:
			apierrors.InternalError(c, "Failed to reset password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset",
	})
}
