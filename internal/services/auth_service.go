package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flamekit/flame-api/internal/constants"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/repository"
	"github.com/flamekit/flame-api/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrInvalidResetToken    = errors.New("invalid or expired reset token")
	ErrFailedToHashPassword = errors.New("failed to hash password")
	ErrFailedToCreateUser   = errors.New("failed to create user")
	ErrFailedToCreateOrg    = errors.New("failed to create organization")
	ErrFailedToAddMember    = errors.New("failed to add user to organization")
)

// TokenClaims is the JWT payload for both access and refresh tokens.
type TokenClaims struct {
	UserID    uint64 `json:"uid"`
	Email     string `json:"email"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair bundles the cookie-bound credentials issued on login and refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService handles registration, credentials, and token lifecycles.
type AuthService struct {
	userRepo    repository.UserRepository
	orgRepo     repository.OrganizationRepository
	refreshRepo repository.RefreshTokenRepository
	mailer      Mailer
	secret      []byte
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	refreshRepo repository.RefreshTokenRepository,
	mailer Mailer,
	secret string,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		orgRepo:     orgRepo,
		refreshRepo: refreshRepo,
		mailer:      mailer,
		secret:      []byte(secret),
	}
}

// SignupInput represents the required information to register.
type SignupInput struct {
	Name             string
	Email            string
	Password         string
	OrganizationName string
}

// Signup creates a user, their organization, and the ADMIN membership in a
// single transaction, then dispatches a welcome email best-effort.
func (s *AuthService) Signup(input SignupInput) (*models.User, *models.Organization, error) {
	if len(input.Password) < constants.MinPasswordLength {
		return nil, nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, ErrFailedToHashPassword
	}

	user, err := models.NewUser(input.Name, input.Email, string(hashedPassword))
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.userRepo.FindByEmail(user.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}

	orgName := strings.TrimSpace(input.OrganizationName)
	if orgName == "" {
		orgName = fmt.Sprintf("%s's Organization", user.Name)
	}

	slug, err := s.uniqueSlug(orgName)
	if err != nil {
		return nil, nil, ErrFailedToCreateOrg
	}

	org := &models.Organization{
		Name: orgName,
		Slug: slug,
	}

	member := &models.OrganizationMember{
		Role:     models.RoleAdmin,
		JoinedAt: time.Now(),
	}

	if err := s.userRepo.CreateWithOrganization(user, org, member); err != nil {
		switch {
		case errors.Is(err, repository.ErrCreateUser):
			return nil, nil, ErrFailedToCreateUser
		case errors.Is(err, repository.ErrCreateOrganization):
			return nil, nil, ErrFailedToCreateOrg
		case errors.Is(err, repository.ErrCreateOrganizationMember):
			return nil, nil, ErrFailedToAddMember
		default:
			return nil, nil, fmt.Errorf("failed to complete signup: %w", err)
		}
	}

	sendAsync(s.mailer, user.Email, "Welcome to Flame",
		fmt.Sprintf("Hi %s, your organization %q is ready.", user.Name, org.Name))

	return user, org, nil
}

func (s *AuthService) uniqueSlug(name string) (string, error) {
	slug := utils.Slugify(name)

	taken, err := s.orgRepo.SlugExists(slug)
	if err != nil {
		return "", err
	}
	if !taken {
		return slug, nil
	}

	return utils.SlugWithSuffix(slug)
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueTokenPair signs an access and refresh token for the user and persists
// the refresh token row.
func (s *AuthService) IssueTokenPair(user *models.User) (*TokenPair, error) {
	now := time.Now()

	access, err := s.signToken(user, "access", now, constants.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := s.signToken(user, "refresh", now, constants.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	row := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: now.Add(constants.RefreshTokenTTL),
	}
	if err := s.refreshRepo.Create(row); err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *AuthService) signToken(user *models.User, tokenType string, now time.Time, ttl time.Duration) (string, error) {
	claims := &TokenClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyAccessToken checks signature, expiry, and token type. Any failure is
// reported the same way so callers treat it uniformly as unauthenticated.
func (s *AuthService) VerifyAccessToken(tokenString string) (*TokenClaims, error) {
	return s.verifyToken(tokenString, "access")
}

func (s *AuthService) verifyToken(tokenString, expectedType string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || claims.TokenType != expectedType {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}

// Refresh rotates a refresh token: the presented token must verify and still
// exist as a row; the old row is deleted and a fresh pair issued.
func (s *AuthService) Refresh(refreshToken string) (*models.User, *TokenPair, error) {
	claims, err := s.verifyToken(refreshToken, "refresh")
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	row, err := s.refreshRepo.FindByToken(refreshToken)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}
	if time.Now().After(row.ExpiresAt) {
		_ = s.refreshRepo.DeleteByToken(refreshToken)
		return nil, nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, nil, ErrInvalidRefreshToken
	}

	if err := s.refreshRepo.DeleteByToken(refreshToken); err != nil {
		return nil, nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	pair, err := s.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Logout invalidates the presented refresh token by deleting its row.
func (s *AuthService) Logout(refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.refreshRepo.DeleteByToken(refreshToken)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput carries optional profile changes.
type UpdateProfileInput struct {
	Name      *string
	AvatarURL *string
}

// UpdateProfile applies profile changes, re-validating affected fields.
func (s *AuthService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if err := user.UpdateName(*input.Name); err != nil {
			return nil, err
		}
	}
	if input.AvatarURL != nil {
		user.UpdateAvatar(*input.AvatarURL)
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// VerifyEmail marks the user's email verified; verifying twice is an error.
func (s *AuthService) VerifyEmail(userID uint64) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if err := user.VerifyEmail(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to verify email: %w", err)
	}

	return user, nil
}

// ForgotPassword stores a single-use reset token on the user row and mails it.
// Unknown emails are ignored so the endpoint cannot enumerate accounts.
func (s *AuthService) ForgotPassword(email string) error {
	user, err := s.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token := utils.GenerateOpaqueToken()
	expires := time.Now().Add(constants.PasswordResetTokenTTL)
	user.ResetToken = &token
	user.ResetExpires = &expires

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	sendAsync(s.mailer, user.Email, "Reset your password",
		fmt.Sprintf("Use this token to reset your password: %s", token))

	return nil
}

// ResetPassword consumes a reset token: sets the new password, clears the
// token, and deletes every refresh token the user holds.
func (s *AuthService) ResetPassword(token, newPassword string) error {
	if len(newPassword) < constants.MinPasswordLength {
		return ErrPasswordTooShort
	}

	user, err := s.userRepo.FindByResetToken(token)
	if err != nil {
		return ErrInvalidResetToken
	}
	if user.ResetExpires == nil || time.Now().After(*user.ResetExpires) {
		return ErrInvalidResetToken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetToken = nil
	user.ResetExpires = nil

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	if err := s.refreshRepo.DeleteAllForUser(user.ID); err != nil {
		return fmt.Errorf("failed to invalidate sessions: %w", err)
	}

	return nil
}
