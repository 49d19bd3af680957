package business

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invitationInput() InvitationInput {
	return InvitationInput{
		BusinessID:  "biz-1",
		Email:       "  New.Hire@Example.COM ",
		RoleID:      "role-member",
		InvitedBy:   "user-1",
		Permissions: []Permission{PermBusinessRead, PermMemberView},
	}
}

func newInvite(t *testing.T, clock *fakeClock) *Invitation {
	t.Helper()
	inv, err := NewInvitation(invitationInput(), WithClock(clock.Now))
	require.NoError(t, err)
	return inv
}

func TestNewInvitation(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	assert.Equal(t, "new.hire@example.com", inv.Email())
	assert.Equal(t, InvitationPending, inv.Status())
	assert.Equal(t, InvitationEmail, inv.Type())
	assert.Equal(t, clock.Now().AddDate(0, 0, 7), inv.ExpiresAt())
	assert.True(t, strings.Contains(inv.Token(), "-"))
	assert.Equal(t, "EMAIL", inv.Metadata()["createdVia"])
	assert.Equal(t, DeliveryNone, inv.LastNotificationStatus())
	assert.Equal(t, 7, inv.DaysUntilExpiration())

	other := newInvite(t, clock)
	assert.NotEqual(t, inv.Token(), other.Token())
}

func TestNewInvitationValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*InvitationInput)
		want   string
	}{
		{"bad email", func(in *InvitationInput) { in.Email = "nope" }, "valid email"},
		{"missing business", func(in *InvitationInput) { in.BusinessID = "" }, "business ID is required"},
		{"missing role", func(in *InvitationInput) { in.RoleID = "" }, "role ID is required"},
		{"missing inviter", func(in *InvitationInput) { in.InvitedBy = "" }, "invited by is required"},
		{"no permissions", func(in *InvitationInput) { in.Permissions = nil }, "at least one permission"},
		{"negative ttl", func(in *InvitationInput) { in.ExpirationDays = -1 }, "expiration days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := invitationInput()
			tt.mutate(&in)
			_, err := NewInvitation(in, WithClock(newFakeClock().Now))
			requireKind(t, err, KindValidation)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewBulkInvitation(t *testing.T) {
	clock := newFakeClock()
	inv, err := NewBulkInvitation(invitationInput(), "batch-9", WithClock(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, InvitationBulk, inv.Type())
	assert.Equal(t, "batch-9", inv.BatchID())
	assert.Equal(t, true, inv.Metadata()["bulkInvitation"])

	_, err = NewBulkInvitation(invitationInput(), "", WithClock(clock.Now))
	requireKind(t, err, KindValidation)
}

func TestAcceptInvitation(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	clock.Advance(time.Hour)
	require.NoError(t, inv.Accept("user-2"))
	assert.Equal(t, InvitationAccepted, inv.Status())
	require.NotNil(t, inv.AcceptedAt())
	assert.Equal(t, clock.Now(), *inv.AcceptedAt())
	assert.Equal(t, "user-2", inv.AcceptedBy())

	err := inv.Accept("user-2")
	requireKind(t, err, KindInvalidTransition)
	assert.Contains(t, err.Error(), "only pending invitations can be accepted")
}

func TestAcceptExpiredInvitation(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	clock.Advance(8 * 24 * time.Hour)
	err := inv.Accept("")
	requireKind(t, err, KindInvalidTransition)
	assert.Contains(t, err.Error(), "expired")
	assert.Equal(t, InvitationPending, inv.Status())
}

func TestTerminalTransitions(t *testing.T) {
	clock := newFakeClock()

	fresh := newInvite(t, clock)
	requireKind(t, fresh.Accept("user-2"), KindInvalidTransition)
	requireKind(t, fresh.Reject(), KindInvalidTransition)
	requireKind(t, fresh.Cancel(), KindInvalidTransition)
	assert.Equal(t, InvitationPending, fresh.Status())
	assert.Nil(t, fresh.AcceptedAt())

	rejected := newInvite(t, clock)
	clock.Advance(time.Second)
	require.NoError(t, rejected.Reject())
	assert.NotNil(t, rejected.RejectedAt())
	requireKind(t, rejected.Reject(), KindInvalidTransition)
	requireKind(t, rejected.Cancel(), KindInvalidTransition)
	requireKind(t, rejected.UpdateMessage("hi"), KindInvalidTransition)
	requireKind(t, rejected.UpdateRole("r", []Permission{PermBusinessRead}), KindInvalidTransition)

	cancelled := newInvite(t, clock)
	clock.Advance(time.Second)
	require.NoError(t, cancelled.Cancel())
	assert.Equal(t, InvitationCancelled, cancelled.Status())
	assert.NotNil(t, cancelled.CancelledAt())
	requireKind(t, cancelled.Resend(nil), KindInvalidTransition)
}

func TestResendLimits(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	require.NoError(t, inv.Resend(nil))
	err := inv.Resend(nil)
	assert.True(t, errors.Is(err, ErrRateLimit))
	assert.Equal(t, 1, inv.ResendCount())

	for i := 0; i < MaxResends-1; i++ {
		clock.Advance(ResendInterval)
		require.NoError(t, inv.Resend(nil))
	}
	assert.Equal(t, MaxResends, inv.ResendCount())
	assert.False(t, inv.CanBeResent())

	clock.Advance(ResendInterval)
	err = inv.Resend(nil)
	assert.True(t, errors.Is(err, ErrCapacity))
	assert.Contains(t, err.Error(), "maximum resend limit (5) reached")
}

func TestResendExtendsExpiry(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	past := clock.Now().Add(-time.Hour)
	requireKind(t, inv.Resend(&past), KindValidation)
	assert.Zero(t, inv.ResendCount())

	later := clock.Now().AddDate(0, 0, 14)
	require.NoError(t, inv.Resend(&later))
	assert.Equal(t, later, inv.ExpiresAt())
	assert.Equal(t, clock.Now(), *inv.LastResendAt())
}

func TestExtendExpiration(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	err := inv.ExtendExpiration(clock.Now().Add(-time.Minute))
	assert.Contains(t, err.Error(), "must be in the future")

	err = inv.ExtendExpiration(clock.Now().Add(time.Hour))
	assert.Contains(t, err.Error(), "later than current expiration")

	next := inv.ExpiresAt().Add(48 * time.Hour)
	require.NoError(t, inv.ExtendExpiration(next))
	assert.Equal(t, next, inv.ExpiresAt())
}

func TestMarkAsExpired(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	assert.False(t, inv.MarkAsExpired())
	assert.Equal(t, InvitationPending, inv.Status())

	clock.Advance(7*24*time.Hour + time.Second)
	assert.True(t, inv.MarkAsExpired())
	assert.Equal(t, InvitationExpired, inv.Status())
	assert.False(t, inv.MarkAsExpired())
}

func TestExpirationStatus(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	assert.Equal(t, ExpirationValid, inv.ExpirationStatus())

	clock.Advance(6*24*time.Hour + time.Hour)
	assert.Equal(t, ExpirationExpiringSoon, inv.ExpirationStatus())
	assert.Equal(t, 1, inv.DaysUntilExpiration())

	clock.Advance(24 * time.Hour)
	assert.Equal(t, ExpirationExpired, inv.ExpirationStatus())
	assert.Equal(t, 0, inv.DaysUntilExpiration())
	assert.False(t, inv.CanBeResent())
}

func TestNotificationsAreCapped(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)

	for i := 0; i < MaxNotifications+5; i++ {
		inv.AddNotification(Notification{Type: "email"})
	}
	inv.AddNotification(Notification{Type: "email", DeliveryStatus: DeliveryFailed, ErrorMessage: "bounced"})

	assert.Len(t, inv.Notifications(), MaxNotifications)
	assert.Equal(t, DeliveryFailed, inv.LastNotificationStatus())
	assert.Equal(t, DeliverySent, inv.Notifications()[0].DeliveryStatus)
}

func TestRestoreInvitation(t *testing.T) {
	clock := newFakeClock()
	inv := newInvite(t, clock)
	inv.AddNotification(Notification{Type: "email"})
	clock.Advance(time.Minute)
	require.NoError(t, inv.Accept("user-2"))

	restored, err := RestoreInvitation(inv.Props(), WithClock(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, inv.Props(), restored.Props())

	p := inv.Props()
	p.ExpiresAt = p.CreatedAt
	_, err = RestoreInvitation(p, WithClock(clock.Now))
	requireKind(t, err, KindValidation)

	p = inv.Props()
	p.ResendCount = MaxResends + 1
	_, err = RestoreInvitation(p, WithClock(clock.Now))
	assert.Contains(t, err.Error(), "resend count")

	p = inv.Props()
	at := p.CreatedAt
	p.AcceptedAt = &at
	_, err = RestoreInvitation(p, WithClock(clock.Now))
	assert.Contains(t, err.Error(), "after creation date")
}
