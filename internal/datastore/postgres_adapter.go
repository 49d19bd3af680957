package datastore

import (
	"context"

	"business-svc/internal/business"
	"business-svc/internal/store"
)

// postgresAdapter adapts the sqlx store to the DataStore interface
type postgresAdapter struct {
	store *store.Store
	clock business.Clock
}

func (p *postgresAdapter) Close() error {
	return p.store.Close()
}

func (p *postgresAdapter) InitDB(ctx context.Context) error {
	return p.store.InitDB(ctx)
}

func (p *postgresAdapter) Businesses() BusinessRepository {
	return p.store.Businesses()
}

func (p *postgresAdapter) Members() MemberRepository {
	return p.store.Members()
}

func (p *postgresAdapter) Roles() RoleRepository {
	return p.store.Roles()
}

func (p *postgresAdapter) Invitations() InvitationRepository {
	return p.store.Invitations()
}

func (p *postgresAdapter) WithinTx(ctx context.Context, fn func(tx DataStore) error) error {
	return p.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(&postgresAdapter{store: tx, clock: p.clock})
	})
}

func (p *postgresAdapter) SeedSystemRoles(ctx context.Context) (int, error) {
	created := 0
	err := p.WithinTx(ctx, func(tx DataStore) error {
		n, err := seedSystemRoles(ctx, tx.Roles(), p.clock)
		created = n
		return err
	})
	return created, err
}
