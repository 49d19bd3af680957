package business

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func rootInput() RootOrganizationInput {
	return RootOrganizationInput{
		Name:           "Acme",
		LegalName:      "Acme Holdings LLC",
		LegalStructure: LLC,
		OwnerID:        "user-1",
		IndustryCode:   "5411",
		Address: Address{
			Street:  "1 Main St",
			City:    "Springfield",
			State:   "IL",
			ZipCode: "62701",
			Country: "US",
		},
		ContactInfo: ContactInfo{Email: "ops@acme.test"},
	}
}

func newRoot(t *testing.T, clock *fakeClock) *Entity {
	t.Helper()
	e, err := NewRootOrganization(rootInput(), WithClock(clock.Now))
	require.NoError(t, err)
	return e
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
