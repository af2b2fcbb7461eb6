package repository

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
	"github.com/flamekit/flame-api/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithOrganization creates a user, their organization, and the ADMIN
	// membership within a single transaction.
	CreateWithOrganization(user *models.User, org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByResetToken finds a user holding the given password-reset token
	FindByResetToken(token string) (*models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// CreateWithAdmin creates an organization and its first ADMIN member atomically
	CreateWithAdmin(org *models.Organization, member *models.OrganizationMember) error

	// FindByID finds an organization by ID
	FindByID(id uint64) (*models.Organization, error)

	// FindBySlug finds an organization by slug
	FindBySlug(slug string) (*models.Organization, error)

	// SlugExists reports whether a slug is already taken
	SlugExists(slug string) (bool, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(id uint64) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID uint64) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID uint64) (*models.OrganizationMember, error)

	// UpdateMemberRole changes a member's role
	UpdateMemberRole(organizationID, userID uint64, role models.OrganizationRole) error

	// CountAdmins counts ADMIN members of an organization
	CountAdmins(organizationID uint64) (int64, error)

	// ListMembersByUserID lists all organizations a user is a member of
	ListMembersByUserID(userID uint64) ([]models.OrganizationMember, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID uint64) ([]models.OrganizationMember, error)
}

// InviteRepository defines the interface for invite data access
type InviteRepository interface {
	// Create creates a new invite
	Create(invite *models.Invite) error

	// FindByToken finds an invite by its token
	FindByToken(token string) (*models.Invite, error)

	// FindByID finds an invite scoped to an organization
	FindByID(organizationID, id uint64) (*models.Invite, error)

	// Update persists invite changes
	Update(invite *models.Invite) error

	// ListByOrganization lists invites for an organization
	ListByOrganization(organizationID uint64) ([]models.Invite, error)

	// AcceptWithMember persists the ACCEPTED status and the new member row in a
	// single transaction; member may be nil when the user is already a member.
	AcceptWithMember(invite *models.Invite, member *models.OrganizationMember) error
}

// LeadFilter holds filtering and pagination options for listing leads
type LeadFilter struct {
	OrganizationID uint64
	Status         *models.LeadStatus
	Source         *models.LeadSource
	AssigneeID     *uint64
	Search         string
	Tags           []string
	MinValue       *float64
	MaxValue       *float64
	MinScore       *int
	MaxScore       *int
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	SortBy         string
	SortOrder      string
	Page           int
	PageSize       int
}

// LeadRepository defines the interface for lead data access
type LeadRepository interface {
	// Create creates a new lead
	Create(lead *models.Lead) error

	// FindByID finds a lead scoped to an organization
	FindByID(organizationID, id uint64) (*models.Lead, error)

	// List retrieves leads with filtering and pagination, returning the total count
	List(filter LeadFilter) ([]models.Lead, int64, error)

	// Update updates a lead
	Update(lead *models.Lead) error

	// Delete soft deletes a lead
	Delete(organizationID, id uint64) error
}

// SubmissionRepository defines the interface for submission data access
type SubmissionRepository interface {
	// Create creates a new submission
	Create(submission *models.Submission) error

	// FindByID finds a submission scoped to an organization
	FindByID(organizationID, id uint64) (*models.Submission, error)

	// List retrieves submissions for an organization, optionally by status
	List(organizationID uint64, status *models.SubmissionStatus, page utils.PaginationParams) ([]models.Submission, int64, error)

	// Update updates a submission
	Update(submission *models.Submission) error
}

// APIKeyRepository defines the interface for API key data access
type APIKeyRepository interface {
	// Create creates a new API key record
	Create(key *models.APIKey) error

	// FindByID finds a key scoped to an organization
	FindByID(organizationID, id uint64) (*models.APIKey, error)

	// FindByHash finds a key by its SHA-256 digest
	FindByHash(hash string) (*models.APIKey, error)

	// ListByOrganization lists keys for an organization
	ListByOrganization(organizationID uint64) ([]models.APIKey, error)

	// TouchLastUsed stamps the last-used time
	TouchLastUsed(id uint64, at time.Time) error

	// Delete removes a key
	Delete(organizationID, id uint64) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a notification
	Create(n *models.Notification) error

	// FindByID finds a notification owned by the user
	FindByID(userID, id uint64) (*models.Notification, error)

	// ListByUser lists a user's notifications, optionally unread only
	ListByUser(userID uint64, unreadOnly bool, page utils.PaginationParams) ([]models.Notification, int64, error)

	// MarkRead marks a single notification read
	MarkRead(userID, id uint64) error

	// MarkAllRead marks all of a user's notifications read
	MarkAllRead(userID uint64) error

	// Delete removes a notification
	Delete(userID, id uint64) error
}

// RefreshTokenRepository defines the interface for refresh token data access
type RefreshTokenRepository interface {
	// Create persists a refresh token row
	Create(token *models.RefreshToken) error

	// FindByToken finds a token row by its value
	FindByToken(token string) (*models.RefreshToken, error)

	// DeleteByToken deletes a token row, invalidating it
	DeleteByToken(token string) error

	// DeleteAllForUser deletes every token owned by a user
	DeleteAllForUser(userID uint64) error
}

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	// FindByOrganization finds an organization's subscription
	FindByOrganization(organizationID uint64) (*models.Subscription, error)

	// Create creates a subscription
	Create(sub *models.Subscription) error

	// Update updates a subscription
	Update(sub *models.Subscription) error
}
