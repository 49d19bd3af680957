package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
)

const ownerID = "owner-1"

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T, opts ...Option) (*Service, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	ds, err := datastore.NewDataStore(datastore.Config{Type: datastore.MockStore, Clock: clock.Now})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })
	return NewService(ds, append([]Option{WithClock(clock.Now)}, opts...)...), clock
}

func rootInput() business.RootOrganizationInput {
	return business.RootOrganizationInput{
		Name:           "Acme",
		LegalName:      "Acme Holdings LLC",
		LegalStructure: business.LLC,
		OwnerID:        ownerID,
		IndustryCode:   "5411",
		Address: business.Address{
			Street:  "1 Main St",
			City:    "Springfield",
			State:   "IL",
			ZipCode: "62701",
			Country: "US",
		},
		ContactInfo: business.ContactInfo{Email: "ops@acme.test"},
	}
}

func createRoot(t *testing.T, svc *Service) *BusinessView {
	t.Helper()
	view, _, err := svc.CreateRootOrganization(context.Background(), rootInput())
	require.NoError(t, err)
	return view
}

func systemRoleID(t *testing.T, svc *Service, name string) string {
	t.Helper()
	roles, err := svc.ListRoles(context.Background(), "")
	require.NoError(t, err)
	for _, r := range roles {
		if r.Name == name {
			return r.ID
		}
	}
	t.Fatalf("system role %s not found", name)
	return ""
}

// addMember invites userID with the named system role and accepts the
// invitation a minute later.
func addMember(t *testing.T, svc *Service, clock *fakeClock, businessID, userID, roleName string) *MemberView {
	t.Helper()
	ctx := context.Background()
	inv, err := svc.CreateInvitation(ctx, InvitationRequest{
		BusinessID: businessID,
		Email:      userID + "@acme.test",
		RoleID:     systemRoleID(t, svc, roleName),
		InvitedBy:  ownerID,
	})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	m, err := svc.AcceptInvitation(ctx, inv.Token, userID)
	require.NoError(t, err)
	return m
}

func requireKind(t *testing.T, err error, kind business.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, business.KindOf(err), "unexpected error: %v", err)
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
