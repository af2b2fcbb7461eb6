package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pendingInvite(expiresAt time.Time) *Invite {
	return &Invite{
		Email:     "bob@example.com",
		Role:      RoleMember,
		Status:    InviteStatusPending,
		ExpiresAt: expiresAt,
	}
}

func TestInvite_Accept(t *testing.T) {
	now := time.Now()

	invite := pendingInvite(now.Add(time.Hour))
	require.NoError(t, invite.Accept("bob@example.com", now))
	require.Equal(t, InviteStatusAccepted, invite.Status)
}

func TestInvite_Accept_EmailMismatch(t *testing.T) {
	now := time.Now()

	invite := pendingInvite(now.Add(time.Hour))
	err := invite.Accept("mallory@example.com", now)
	require.ErrorIs(t, err, ErrInviteEmailMismatch)
	require.Equal(t, InviteStatusPending, invite.Status)

	// The match is case-sensitive
	err = invite.Accept("Bob@example.com", now)
	require.ErrorIs(t, err, ErrInviteEmailMismatch)
}

func TestInvite_Accept_Expired(t *testing.T) {
	now := time.Now()

	invite := pendingInvite(now.Add(-time.Minute))
	err := invite.Accept("bob@example.com", now)
	require.ErrorIs(t, err, ErrInviteExpired)
	require.Equal(t, InviteStatusExpired, invite.Status)

	// EXPIRED is terminal: the same call now reports not-pending
	err = invite.Accept("bob@example.com", now)
	require.ErrorIs(t, err, ErrInviteNotPending)
	require.Equal(t, InviteStatusExpired, invite.Status)
}

func TestInvite_Revoke(t *testing.T) {
	now := time.Now()

	invite := pendingInvite(now.Add(time.Hour))
	require.NoError(t, invite.Revoke())
	require.Equal(t, InviteStatusRevoked, invite.Status)

	// Revoked invites cannot be accepted or revoked again
	require.ErrorIs(t, invite.Accept("bob@example.com", now), ErrInviteNotPending)
	require.ErrorIs(t, invite.Revoke(), ErrInviteNotPending)
}

func TestInvite_MarkExpired_TerminalStates(t *testing.T) {
	invite := pendingInvite(time.Now())
	invite.Status = InviteStatusAccepted

	// Expiry only applies to PENDING invites
	require.False(t, invite.IsExpired(time.Now().Add(24*time.Hour)))
	invite.MarkExpired()
	require.Equal(t, InviteStatusAccepted, invite.Status)
}
