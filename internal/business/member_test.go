package business

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOwner(t *testing.T, clock *fakeClock) *Member {
	t.Helper()
	m, err := NewOwner("biz-1", "user-1", "role-owner", WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func newInvitedMember(t *testing.T, clock *fakeClock, userID string, perms ...Permission) *Member {
	t.Helper()
	if len(perms) == 0 {
		perms = []Permission{PermBusinessRead}
	}
	m, err := NewMemberFromInvitation("biz-1", userID, "role-member", perms, "user-1", WithClock(clock.Now))
	require.NoError(t, err)
	return m
}

func TestNewOwner(t *testing.T) {
	clock := newFakeClock()
	m := newOwner(t, clock)

	assert.True(t, m.IsOwner())
	assert.Equal(t, MemberActive, m.Status())
	assert.Equal(t, []Permission{PermAdminFullAccess}, m.Permissions())
	assert.Equal(t, true, m.Metadata()["isFounder"])
	require.Len(t, m.ActivityHistory(), 1)
	assert.Equal(t, ActivityBusinessCreated, m.ActivityHistory()[0].Action)
	assert.Equal(t, clock.Now(), *m.LastActivityAt())
}

func TestNewMemberValidation(t *testing.T) {
	clock := newFakeClock()
	_, err := NewMemberFromInvitation("", "u", "r", []Permission{PermBusinessRead}, "x", WithClock(clock.Now))
	assert.Contains(t, err.Error(), "business ID is required")

	_, err = NewMemberFromInvitation("b", "u", "r", nil, "x", WithClock(clock.Now))
	assert.Contains(t, err.Error(), "at least one permission")

	_, err = NewMemberFromInvitation("b", "u", "r", []Permission{PermBusinessRead, PermBusinessRead}, "x", WithClock(clock.Now))
	requireKind(t, err, KindValidation)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestOwnerCannotBeDeactivatedOrSuspended(t *testing.T) {
	clock := newFakeClock()
	m := newOwner(t, clock)

	requireKind(t, m.Deactivate(), KindInvalidTransition)
	assert.Equal(t, MemberActive, m.Status())

	requireKind(t, m.Suspend("fraud"), KindInvalidTransition)
	assert.Equal(t, MemberActive, m.Status())

	assert.True(t, errors.Is(m.ChangeRole("role-admin", []Permission{PermBusinessRead}), ErrPermissionDenied))
	assert.True(t, errors.Is(m.UpdatePermissions([]Permission{PermBusinessRead}), ErrPermissionDenied))
}

func TestMemberStatusTransitions(t *testing.T) {
	clock := newFakeClock()
	m := newInvitedMember(t, clock, "user-2")

	requireKind(t, m.Activate(), KindInvalidTransition)
	requireKind(t, m.Unsuspend(), KindInvalidTransition)

	joined := m.JoinedAt()
	clock.Advance(time.Minute)
	require.NoError(t, m.AcceptInvitation())
	assert.Equal(t, MemberActive, m.Status())
	assert.Equal(t, joined, m.JoinedAt())
	requireKind(t, m.AcceptInvitation(), KindInvalidTransition)

	require.NoError(t, m.Activate(), "activating an active member is a no-op")

	require.NoError(t, m.Suspend("policy"))
	assert.True(t, m.IsSuspended())
	require.NoError(t, m.Suspend("again"))
	require.NoError(t, m.Unsuspend())

	require.NoError(t, m.Deactivate())
	require.NoError(t, m.Deactivate())
	assert.Equal(t, MemberInactive, m.Status())
	require.NoError(t, m.Activate())
	assert.True(t, m.IsActive())

	var actions []string
	for _, a := range m.ActivityHistory() {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{
		ActivityInvitationCreated,
		ActivityInvitationAccepted,
		ActivityMemberSuspended,
		ActivityMemberUnsuspended,
		ActivityMemberDeactivated,
		ActivityMemberActivated,
	}, actions)
	assert.Equal(t, "policy", m.ActivityHistory()[2].Details["reason"])
}

// Ownership moves in two calls that the caller must pair and persist
// together: TransferOwnership on the current owner, then ReceiveOwnership on
// the recipient.
func TestOwnershipTransferPairing(t *testing.T) {
	clock := newFakeClock()
	owner := newOwner(t, clock)
	next := newInvitedMember(t, clock, "user-2")

	assert.True(t, errors.Is(next.TransferOwnership("user-3"), ErrPermissionDenied))
	requireKind(t, owner.TransferOwnership("user-1"), KindValidation)

	require.NoError(t, owner.TransferOwnership(next.UserID()))
	assert.False(t, owner.IsOwner())
	assert.False(t, next.IsOwner(), "transfer does not touch the recipient")

	require.NoError(t, next.ReceiveOwnership(owner.UserID()))
	assert.True(t, next.IsOwner())
	assert.Equal(t, MemberActive, next.Status())
	requireKind(t, next.ReceiveOwnership("user-1"), KindInvalidTransition)

	require.NoError(t, owner.Deactivate())
}

func TestMemberPermissions(t *testing.T) {
	clock := newFakeClock()
	owner := newOwner(t, clock)
	m := newInvitedMember(t, clock, "user-2", PermBusinessRead, PermMemberView)

	assert.True(t, owner.HasPermission(PermFinancialApprove))
	assert.True(t, m.HasPermission(PermMemberView))
	assert.False(t, m.HasPermission(PermMemberManage))
	assert.True(t, m.HasAllPermissions([]Permission{PermBusinessRead, PermMemberView}))
	assert.False(t, m.HasAllPermissions([]Permission{PermBusinessRead, PermMemberManage}))
	assert.True(t, m.HasAnyPermission([]Permission{PermMemberManage, PermMemberView}))

	require.NoError(t, m.UpdatePermissions([]Permission{PermAdminFullAccess}))
	assert.True(t, m.HasPermission(PermMemberManage))
}

func TestCanManageAndRemoveMember(t *testing.T) {
	clock := newFakeClock()
	owner := newOwner(t, clock)
	manager := newInvitedMember(t, clock, "user-2", PermMemberManage)
	remover := newInvitedMember(t, clock, "user-3", PermMemberRemove)
	plain := newInvitedMember(t, clock, "user-4")

	assert.True(t, owner.CanManageMember(plain))
	assert.True(t, owner.CanRemoveMember(plain))
	assert.False(t, owner.CanRemoveMember(owner))

	assert.True(t, manager.CanManageMember(plain))
	assert.False(t, manager.CanManageMember(owner))
	assert.False(t, manager.CanManageMember(manager))
	assert.False(t, manager.CanRemoveMember(plain))

	assert.True(t, remover.CanRemoveMember(plain))
	assert.False(t, remover.CanRemoveMember(owner))
	assert.False(t, remover.CanRemoveMember(remover))

	assert.False(t, plain.CanManageMember(manager))
}

func TestActivityHistoryIsCapped(t *testing.T) {
	clock := newFakeClock()
	m := newInvitedMember(t, clock, "user-2")

	for i := 0; i < MaxActivityHistory+10; i++ {
		require.NoError(t, m.RecordActivity("PING", map[string]string{"n": fmt.Sprint(i)}))
	}
	history := m.ActivityHistory()
	require.Len(t, history, MaxActivityHistory)
	assert.Equal(t, "10", history[0].Details["n"])
	assert.Equal(t, fmt.Sprint(MaxActivityHistory+9), history[len(history)-1].Details["n"])

	requireKind(t, m.RecordActivity(" ", nil), KindValidation)
}

func TestRecentActivityAndDaysSince(t *testing.T) {
	clock := newFakeClock()
	m := newInvitedMember(t, clock, "user-2")

	clock.Advance(40 * 24 * time.Hour)
	require.NoError(t, m.RecordActivity("LOGIN", nil))
	clock.Advance(24 * time.Hour)
	require.NoError(t, m.RecordActivity("EXPORT", nil))

	recent := m.RecentActivity(30)
	require.Len(t, recent, 2)
	assert.Equal(t, "EXPORT", recent[0].Action)
	assert.Equal(t, "LOGIN", recent[1].Action)

	clock.Advance(36 * time.Hour)
	days, ok := m.DaysSinceLastActivity()
	require.True(t, ok)
	assert.Equal(t, 2, days)
}

func TestRestoreMemberRoundTrip(t *testing.T) {
	clock := newFakeClock()
	m := newInvitedMember(t, clock, "user-2")
	clock.Advance(time.Minute)
	require.NoError(t, m.AcceptInvitation())
	m.UpdateMetadata(map[string]any{"team": "ops"})

	restored, err := RestoreMember(m.Props(), WithClock(clock.Now))
	require.NoError(t, err)
	assert.Equal(t, m.Props(), restored.Props())

	p := m.Props()
	p.IsOwner = true
	p.Status = MemberSuspended
	_, err = RestoreMember(p, WithClock(clock.Now))
	assert.Contains(t, err.Error(), "owner must have ACTIVE status")

	p = m.Props()
	p.JoinedAt = clock.Now().Add(time.Hour)
	_, err = RestoreMember(p, WithClock(clock.Now))
	assert.Contains(t, err.Error(), "join date cannot be in the future")
}
