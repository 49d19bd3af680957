package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"business-svc/internal/business"
)

func TestChangeMemberRole(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleMember)
	addMember(t, svc, clock, root.ID, "user-3", business.RoleMember)

	managerID := systemRoleID(t, svc, business.RoleManager)
	view, err := svc.ChangeMemberRole(ctx, root.ID, ownerID, "user-2", managerID)
	require.NoError(t, err)
	assert.Equal(t, managerID, view.RoleID)
	assert.Contains(t, view.Permissions, business.PermMemberInvite)

	_, err = svc.ChangeMemberRole(ctx, root.ID, ownerID, "user-2", systemRoleID(t, svc, business.RoleOwner))
	requireKind(t, err, business.KindPermissionDenied)

	// MANAGER holds ROLE_ASSIGN but not MEMBER_MANAGE.
	_, err = svc.ChangeMemberRole(ctx, root.ID, "user-2", "user-3", systemRoleID(t, svc, business.RoleViewer))
	requireKind(t, err, business.KindPermissionDenied)

	_, err = svc.ChangeMemberRole(ctx, root.ID, "user-2", ownerID, systemRoleID(t, svc, business.RoleViewer))
	requireKind(t, err, business.KindPermissionDenied)

	_, err = svc.ChangeMemberRole(ctx, root.ID, ownerID, "user-3", "missing-role")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAdminAssignsRoles(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "admin-1", business.RoleAdmin)
	addMember(t, svc, clock, root.ID, "user-3", business.RoleMember)

	managerID := systemRoleID(t, svc, business.RoleManager)
	view, err := svc.ChangeMemberRole(ctx, root.ID, "admin-1", "user-3", managerID)
	require.NoError(t, err)
	assert.Equal(t, managerID, view.RoleID)
}

func TestChangeMemberRoleRejectsForeignCustomRole(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleMember)

	in := rootInput()
	in.Name = "Other"
	other, _, err := svc.CreateRootOrganization(ctx, in)
	require.NoError(t, err)
	foreign, err := svc.CreateCustomRole(ctx, ownerID, RoleInput{
		BusinessID:  other.ID,
		Name:        "Auditor",
		Permissions: []business.Permission{business.PermAuditView},
		Hierarchy:   3,
	})
	require.NoError(t, err)

	_, err = svc.ChangeMemberRole(ctx, root.ID, ownerID, "user-2", foreign.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChangeMemberStatus(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleManager)
	addMember(t, svc, clock, root.ID, "user-3", business.RoleMember)
	clock.Advance(time.Hour)

	view, err := svc.ChangeMemberStatus(ctx, root.ID, ownerID, "user-2", MemberSuspend, "policy review")
	require.NoError(t, err)
	assert.Equal(t, business.MemberSuspended, view.Status)
	require.NotEmpty(t, view.RecentActivity)
	assert.Equal(t, "policy review", view.RecentActivity[0].Details["reason"])

	// Suspended members lose their permissions.
	_, err = svc.CreateInvitation(ctx, InvitationRequest{
		BusinessID: root.ID,
		Email:      "new@acme.test",
		RoleID:     systemRoleID(t, svc, business.RoleViewer),
		InvitedBy:  "user-2",
	})
	requireKind(t, err, business.KindPermissionDenied)

	view, err = svc.ChangeMemberStatus(ctx, root.ID, ownerID, "user-2", MemberUnsuspend, "")
	require.NoError(t, err)
	assert.Equal(t, business.MemberActive, view.Status)

	_, err = svc.ChangeMemberStatus(ctx, root.ID, ownerID, ownerID, MemberSuspend, "")
	requireKind(t, err, business.KindInvalidTransition)

	_, err = svc.ChangeMemberStatus(ctx, root.ID, "user-3", "user-2", MemberDeactivate, "")
	requireKind(t, err, business.KindPermissionDenied)

	_, err = svc.ChangeMemberStatus(ctx, root.ID, ownerID, "user-2", MemberAction("promote"), "")
	requireKind(t, err, business.KindValidation)
}

func TestRemoveMember(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleMember)

	err := svc.RemoveMember(ctx, root.ID, "user-2", ownerID)
	requireKind(t, err, business.KindPermissionDenied)

	require.NoError(t, svc.RemoveMember(ctx, root.ID, ownerID, "user-2"))
	_, err = svc.GetMember(ctx, root.ID, "user-2")
	assert.True(t, errors.Is(err, ErrNotFound))

	members, err := svc.ListMembers(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestTransferOwnership(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleMember)

	from, to, err := svc.TransferOwnership(ctx, root.ID, ownerID, "user-2")
	require.NoError(t, err)
	assert.False(t, from.IsOwner)
	assert.Equal(t, systemRoleID(t, svc, business.RoleAdmin), from.RoleID)
	assert.True(t, to.IsOwner)
	assert.Equal(t, systemRoleID(t, svc, business.RoleOwner), to.RoleID)
	assert.Equal(t, []business.Permission{business.PermAdminFullAccess}, to.Permissions)

	view, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "user-2", view.OwnerID)

	// The new owner can now manage the previous one.
	_, err = svc.ChangeMemberStatus(ctx, root.ID, "user-2", ownerID, MemberSuspend, "")
	require.NoError(t, err)
}

func TestTransferOwnershipRollsBack(t *testing.T) {
	svc, clock := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	addMember(t, svc, clock, root.ID, "user-2", business.RoleMember)
	addMember(t, svc, clock, root.ID, "user-3", business.RoleMember)

	_, _, err := svc.TransferOwnership(ctx, root.ID, "user-2", "user-3")
	requireKind(t, err, business.KindPermissionDenied)

	_, _, err = svc.TransferOwnership(ctx, root.ID, ownerID, ownerID)
	requireKind(t, err, business.KindValidation)

	owner, err := svc.GetMember(ctx, root.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)
	view, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, view.OwnerID)
}
