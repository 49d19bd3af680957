package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"business-svc/internal/business"
)

func TestCreateRootOrganizationCreatesOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, owner, err := svc.CreateRootOrganization(ctx, rootInput())
	require.NoError(t, err)

	assert.Equal(t, business.StatusActive, view.Status)
	assert.Equal(t, business.TypeRootOrganization, view.Type)
	assert.Equal(t, ownerID, view.OwnerID)
	assert.True(t, owner.IsOwner)
	assert.Equal(t, business.MemberActive, owner.Status)
	assert.Equal(t, systemRoleID(t, svc, business.RoleOwner), owner.RoleID)

	members, err := svc.ListMembers(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, ownerID, members[0].UserID)
}

func TestCreateRootOrganizationRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	in := rootInput()
	in.Name = ""
	_, _, err := svc.CreateRootOrganization(ctx, in)
	requireKind(t, err, business.KindValidation)

	all, err := svc.ListBusinesses(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateSubBusiness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	child, err := svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme EU", business.TypeSubsidiary)
	require.NoError(t, err)
	assert.Equal(t, root.ID, child.ParentBusinessID)
	assert.Equal(t, root.ID, child.RootBusinessID)
	assert.Equal(t, 1, child.Hierarchy.Level)

	parent, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{child.ID}, parent.ChildBusinessIDs)

	owner, err := svc.GetMember(ctx, child.ID, ownerID)
	require.NoError(t, err)
	assert.True(t, owner.IsOwner)

	children, err := svc.ListBusinesses(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)
}

func TestCreateSubBusinessRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	_, err := svc.CreateSubBusiness(ctx, "stranger", root.ID, "Acme EU", business.TypeSubsidiary)
	requireKind(t, err, business.KindPermissionDenied)

	_, err = svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme Team", business.TypeTeam)
	requireKind(t, err, business.KindValidation)

	_, err = svc.CreateSubBusiness(ctx, ownerID, "missing", "Acme EU", business.TypeSubsidiary)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme EU", business.TypeSubsidiary)
	require.NoError(t, err)

	// The FREE tier allows a single sub-business.
	_, err = svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme US", business.TypeSubsidiary)
	requireKind(t, err, business.KindCapacity)

	parent, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, parent.ChildBusinessIDs, 1)
	all, err := svc.ListBusinesses(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateBusiness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	view, err := svc.UpdateBusiness(ctx, root.ID, BusinessUpdate{
		Description: strPtr("Legal services"),
		TaxID:       strPtr("12-3456789"),
		Settings:    &business.SettingsUpdate{Timezone: strPtr("Europe/Paris")},
		Metadata:    map[string]any{"segment": "smb"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Legal services", view.Description)
	assert.Equal(t, "12-3456789", view.TaxID)
	assert.Equal(t, "Europe/Paris", view.Settings.Timezone)
	assert.Equal(t, "smb", view.Metadata["segment"])

	bad := business.Address{City: "Springfield"}
	_, err = svc.UpdateBusiness(ctx, root.ID, BusinessUpdate{Description: strPtr("ignored"), Address: &bad})
	requireKind(t, err, business.KindValidation)

	got, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, "Legal services", got.Description)
}

func TestChangeBusinessStatusCascades(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	_, err := svc.UpdateBusiness(ctx, root.ID, BusinessUpdate{
		Settings: &business.SettingsUpdate{CascadeStatusChanges: boolPtr(true)},
	})
	require.NoError(t, err)
	child, err := svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme EU", business.TypeSubsidiary)
	require.NoError(t, err)

	view, cascaded, err := svc.ChangeBusinessStatus(ctx, root.ID, ActionSuspend)
	require.NoError(t, err)
	assert.Equal(t, business.StatusSuspended, view.Status)
	assert.Equal(t, []string{child.ID}, cascaded)

	got, err := svc.GetBusiness(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, business.StatusSuspended, got.Status)

	_, _, err = svc.ChangeBusinessStatus(ctx, root.ID, StatusAction("explode"))
	requireKind(t, err, business.KindValidation)
}

func TestChangeBusinessStatusWithoutCascade(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	child, err := svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme EU", business.TypeSubsidiary)
	require.NoError(t, err)

	_, cascaded, err := svc.ChangeBusinessStatus(ctx, root.ID, ActionDeactivate)
	require.NoError(t, err)
	assert.Empty(t, cascaded)

	got, err := svc.GetBusiness(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, business.StatusActive, got.Status)
}

func TestCloseBusinessDetachesFromParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)
	child, err := svc.CreateSubBusiness(ctx, ownerID, root.ID, "Acme EU", business.TypeSubsidiary)
	require.NoError(t, err)

	closed, err := svc.CloseBusiness(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, business.StatusClosed, closed.Status)
	assert.NotNil(t, closed.ClosedAt)

	parent, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Empty(t, parent.ChildBusinessIDs)

	_, _, err = svc.ChangeBusinessStatus(ctx, child.ID, ActionActivate)
	assert.True(t, errors.Is(err, ErrNotFound))

	again, err := svc.CloseBusiness(ctx, child.ID)
	require.NoError(t, err)
	assert.Equal(t, business.StatusClosed, again.Status)
}

func TestChangeVerification(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	_, err := svc.ChangeVerification(ctx, root.ID, VerificationVerify)
	requireKind(t, err, business.KindInvalidTransition)

	view, err := svc.ChangeVerification(ctx, root.ID, VerificationSubmit)
	require.NoError(t, err)
	assert.Equal(t, business.VerificationPending, view.VerificationStatus)

	view, err = svc.ChangeVerification(ctx, root.ID, VerificationVerify)
	require.NoError(t, err)
	assert.Equal(t, business.VerificationVerified, view.VerificationStatus)
}

func TestAPIKeyLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	key, err := svc.CreateAPIKey(ctx, root.ID, business.APIKeyRequest{Environment: business.EnvSandbox, Name: "ci"})
	require.NoError(t, err)
	require.NotEmpty(t, key.Key)

	got, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, got.APIKeys, 1)
	assert.Equal(t, key.ID, got.APIKeys[0].ID)
	assert.NotEqual(t, key.Key, got.APIKeys[0].Prefix)

	view, ok, err := svc.ValidateAPIKey(ctx, root.ID, key.Key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, key.ID, view.ID)

	_, ok, err = svc.ValidateAPIKey(ctx, root.ID, "sk_sandbox_bogus")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.RevokeAPIKey(ctx, root.ID, key.ID, business.EnvSandbox))
	_, ok, err = svc.ValidateAPIKey(ctx, root.ID, key.Key)
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.RevokeAPIKey(ctx, root.ID, "missing", business.EnvSandbox)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestProductionAccessRequiresVerificationAndContract(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	_, err := svc.CreateAPIKey(ctx, root.ID, business.APIKeyRequest{Environment: business.EnvProduction, Name: "live"})
	requireKind(t, err, business.KindInvalidTransition)
	_, err = svc.EnableProductionEnvironment(ctx, root.ID)
	requireKind(t, err, business.KindInvalidTransition)

	_, err = svc.ChangeVerification(ctx, root.ID, VerificationSubmit)
	require.NoError(t, err)
	_, err = svc.ChangeVerification(ctx, root.ID, VerificationVerify)
	require.NoError(t, err)
	_, err = svc.UpdateCompliance(ctx, root.ID, business.ComplianceUpdate{ContractSigned: boolPtr(true)})
	require.NoError(t, err)

	view, err := svc.EnableProductionEnvironment(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, view.ProductionEnabled)

	key, err := svc.CreateAPIKey(ctx, root.ID, business.APIKeyRequest{Environment: business.EnvProduction, Name: "live"})
	require.NoError(t, err)
	assert.Equal(t, business.EnvProduction, key.Environment)
}

func TestTrackUsagePersistsCountersOverLimit(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	usage, err := svc.TrackUsage(ctx, root.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, 600, usage.APICallsToday)

	usage, err = svc.TrackUsage(ctx, root.ID, 500)
	requireKind(t, err, business.KindCapacity)
	require.NotNil(t, usage)
	assert.Equal(t, 1100, usage.APICallsToday)

	got, err := svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 1100, got.Billing.Usage.APICallsToday)

	_, err = svc.TrackUsage(ctx, root.ID, 0)
	requireKind(t, err, business.KindValidation)

	n, err := svc.ResetDailyUsage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = svc.GetBusiness(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Billing.Usage.APICallsToday)
	assert.Equal(t, 1100, got.Billing.Usage.APICallsMonth)
}

func TestUpdateBillingTier(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	root := createRoot(t, svc)

	view, err := svc.UpdateBillingTier(ctx, root.ID, business.TierStartup)
	require.NoError(t, err)
	assert.Equal(t, business.TierStartup, view.Billing.Tier)
	assert.Equal(t, 10000, view.Billing.Limits.APICallsPerDay)

	_, err = svc.UpdateBillingTier(ctx, root.ID, business.Tier("PLATINUM"))
	requireKind(t, err, business.KindValidation)
}
