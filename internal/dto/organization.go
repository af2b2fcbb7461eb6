package dto

import (
	"time"

	"github.com/flamekit/flame-api/internal/models"
)

// OrganizationDTO represents an organization in API responses
type OrganizationDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

// OrganizationWithRoleDTO is an organization annotated with the caller's role,
// used when listing the organizations a user belongs to.
type OrganizationWithRoleDTO struct {
	OrganizationDTO
	Role models.OrganizationRole `json:"role"`
}

// MemberDTO represents an organization member in API responses
type MemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.OrganizationRole `json:"role"`
	JoinedAt time.Time               `json:"joined_at"`
}

// OrganizationDetailDTO is an organization with its member list
type OrganizationDetailDTO struct {
	OrganizationDTO
	Members []MemberDTO `json:"members"`
}

// InviteDTO represents an invite in API responses. The token never appears
// here; it travels only in the invite email.
type InviteDTO struct {
	ID        uint64                  `json:"id"`
	Email     string                  `json:"email"`
	Role      models.OrganizationRole `json:"role"`
	Status    models.InviteStatus     `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
	InvitedBy *UserDTO                `json:"invited_by,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
}

// Conversion functions

// ToOrganizationDTO converts an Organization model to OrganizationDTO
func ToOrganizationDTO(org models.Organization) OrganizationDTO {
	return OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}
}

// ToMemberDTO converts an OrganizationMember with a preloaded User
func ToMemberDTO(member models.OrganizationMember) MemberDTO {
	return MemberDTO{
		User:     ToUserDTO(member.User),
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
}

// ToOrganizationDetailDTO converts an Organization with preloaded members
func ToOrganizationDetailDTO(org models.Organization) OrganizationDetailDTO {
	members := make([]MemberDTO, 0, len(org.Members))
	for _, m := range org.Members {
		members = append(members, ToMemberDTO(m))
	}
	return OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org),
		Members:         members,
	}
}

// ToInviteDTO converts an Invite model to InviteDTO
func ToInviteDTO(invite models.Invite) InviteDTO {
	d := InviteDTO{
		ID:        invite.ID,
		Email:     invite.Email,
		Role:      invite.Role,
		Status:    invite.Status,
		ExpiresAt: invite.ExpiresAt,
		CreatedAt: invite.CreatedAt,
	}
	if invite.InvitedBy.ID != 0 {
		inviter := ToUserDTO(invite.InvitedBy)
		d.InvitedBy = &inviter
	}
	return d
}
