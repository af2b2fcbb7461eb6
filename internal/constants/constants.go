package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
)

// Auth cookies
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Token lifetimes
const (
	AccessTokenTTL        = 15 * time.Minute
	RefreshTokenTTL       = 7 * 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
	InviteTTL             = 7 * 24 * time.Hour
)

// Validation limits
const (
	MinPasswordLength = 8
	MinNameLength     = 2
)

// Pagination
const (
	MinPage         = 1
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// API key format
const (
	APIKeyPrefix     = "flame"
	APIKeySecretLen  = 32 // 32 random bytes -> 43 chars base64url without padding
	APIKeyMaskSuffix = 8
)
