package datastore

import (
	"context"

	"business-svc/internal/business"
	"business-svc/internal/mocks"
)

// mockAdapter adapts the mock store to the DataStore interface
type mockAdapter struct {
	store *mocks.MockStore
	clock business.Clock
}

func (m *mockAdapter) Close() error {
	return m.store.Close()
}

func (m *mockAdapter) InitDB(ctx context.Context) error {
	return m.store.InitDB(ctx)
}

func (m *mockAdapter) Businesses() BusinessRepository {
	return m.store.Businesses()
}

func (m *mockAdapter) Members() MemberRepository {
	return m.store.Members()
}

func (m *mockAdapter) Roles() RoleRepository {
	return m.store.Roles()
}

func (m *mockAdapter) Invitations() InvitationRepository {
	return m.store.Invitations()
}

func (m *mockAdapter) WithinTx(ctx context.Context, fn func(tx DataStore) error) error {
	return m.store.WithTx(ctx, func(tx *mocks.MockStore) error {
		return fn(&mockAdapter{store: tx, clock: m.clock})
	})
}

func (m *mockAdapter) SeedSystemRoles(ctx context.Context) (int, error) {
	created := 0
	err := m.WithinTx(ctx, func(tx DataStore) error {
		n, err := seedSystemRoles(ctx, tx.Roles(), m.clock)
		created = n
		return err
	})
	return created, err
}
