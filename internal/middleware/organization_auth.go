package middleware

import (
	"net/http"
	"strconv"

	"github.com/flamekit/flame-api/internal/database"
	"github.com/flamekit/flame-api/internal/models"
	"github.com/gin-gonic/gin"
)

// Permission names consulted by the guard.
const (
	PermOrgManage         = "org:manage"
	PermMembersManage     = "members:manage"
	PermInvitesManage     = "invites:manage"
	PermLeadsRead         = "leads:read"
	PermLeadsWrite        = "leads:write"
	PermLeadsDelete       = "leads:delete"
	PermSubmissionsRead   = "submissions:read"
	PermSubmissionsWrite  = "submissions:write"
	PermAPIKeysManage     = "apikeys:manage"
	PermBillingRead       = "billing:read"
	PermNotificationsRead = "notifications:read"
)

var rolePermissions = map[models.OrganizationRole]map[string]bool{
	models.RoleAdmin: {
		PermOrgManage:         true,
		PermMembersManage:     true,
		PermInvitesManage:     true,
		PermLeadsRead:         true,
		PermLeadsWrite:        true,
		PermLeadsDelete:       true,
		PermSubmissionsRead:   true,
		PermSubmissionsWrite:  true,
		PermAPIKeysManage:     true,
		PermBillingRead:       true,
		PermNotificationsRead: true,
	},
	models.RoleMember: {
		PermLeadsRead:         true,
		PermLeadsWrite:        true,
		PermSubmissionsRead:   true,
		PermSubmissionsWrite:  true,
		PermNotificationsRead: true,
	},
}

// HasPermission reports whether a role grants a permission.
func HasPermission(role models.OrganizationRole, permission string) bool {
	return rolePermissions[role][permission]
}

// RequireOrganizationAccess checks that the authenticated user is a member of
// the organization in the URL and loads organization and membership into the
// request context.
func RequireOrganizationAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgIDStr := c.Param("id")
		orgID, err := strconv.ParseUint(orgIDStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid organization ID",
			})
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		var org models.Organization
		if err := database.GetDB().First(&org, orgID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			c.Abort()
			return
		}

		var member models.OrganizationMember
		err = database.GetDB().Where("organization_id = ? AND user_id = ?", orgID, userID).First(&member).Error
		if err != nil {
			// Return 404 instead of 403 to avoid leaking organization existence
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Organization not found",
			})
			c.Abort()
			return
		}

		c.Set("organization", org)
		c.Set("organization_member", member)
		c.Next()
	}
}

// RequirePermission checks the membership loaded by RequireOrganizationAccess
// against a permission name, denying with 403 when the role lacks it.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get("organization_member")
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Organization access required",
			})
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.OrganizationMember)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Invalid organization member data",
			})
			c.Abort()
			return
		}

		if !HasPermission(member.Role, permission) {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions for this action",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetOrganization retrieves the organization loaded by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	orgInterface, exists := c.Get("organization")
	if !exists {
		return models.Organization{}, false
	}
	org, ok := orgInterface.(models.Organization)
	return org, ok
}

// GetOrganizationMember retrieves the membership loaded by RequireOrganizationAccess.
func GetOrganizationMember(c *gin.Context) (models.OrganizationMember, bool) {
	memberInterface, exists := c.Get("organization_member")
	if !exists {
		return models.OrganizationMember{}, false
	}
	member, ok := memberInterface.(models.OrganizationMember)
	return member, ok
}
