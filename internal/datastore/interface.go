package datastore

import (
	"context"
	"time"

	"business-svc/internal/business"
	"business-svc/internal/mocks"
	"business-svc/internal/store"
)

// BusinessRepository persists business entities.
type BusinessRepository interface {
	Create(ctx context.Context, e *business.Entity) (*business.Entity, error)
	FindByID(ctx context.Context, id string) (*business.Entity, error)
	FindAll(ctx context.Context) ([]*business.Entity, error)
	FindChildren(ctx context.Context, parentID string) ([]*business.Entity, error)
	Update(ctx context.Context, id string, e *business.Entity) (*business.Entity, error)
	Delete(ctx context.Context, id string) error
}

// MemberRepository persists business members.
type MemberRepository interface {
	Create(ctx context.Context, m *business.Member) (*business.Member, error)
	FindByID(ctx context.Context, id string) (*business.Member, error)
	FindAll(ctx context.Context) ([]*business.Member, error)
	FindByBusiness(ctx context.Context, businessID string) ([]*business.Member, error)
	FindByBusinessAndUser(ctx context.Context, businessID, userID string) (*business.Member, error)
	Update(ctx context.Context, id string, m *business.Member) (*business.Member, error)
	Delete(ctx context.Context, id string) error
}

// RoleRepository persists system and custom roles.
type RoleRepository interface {
	Create(ctx context.Context, r *business.Role) (*business.Role, error)
	FindByID(ctx context.Context, id string) (*business.Role, error)
	FindAll(ctx context.Context) ([]*business.Role, error)
	FindByBusiness(ctx context.Context, businessID string) ([]*business.Role, error)
	FindByName(ctx context.Context, businessID, name string) (*business.Role, error)
	Update(ctx context.Context, id string, r *business.Role) (*business.Role, error)
	Delete(ctx context.Context, id string) error
}

// InvitationRepository persists invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *business.Invitation) (*business.Invitation, error)
	FindByID(ctx context.Context, id string) (*business.Invitation, error)
	FindAll(ctx context.Context) ([]*business.Invitation, error)
	FindByBusiness(ctx context.Context, businessID string) ([]*business.Invitation, error)
	FindByToken(ctx context.Context, token string) (*business.Invitation, error)
	FindPending(ctx context.Context) ([]*business.Invitation, error)
	FindPendingByEmail(ctx context.Context, businessID, email string) (*business.Invitation, error)
	Update(ctx context.Context, id string, inv *business.Invitation) (*business.Invitation, error)
	Delete(ctx context.Context, id string) error
}

// DataStore defines the interface for all data access operations.
// It is implemented by both the PostgreSQL store and the mock store.
type DataStore interface {
	// Lifecycle
	Close() error
	InitDB(ctx context.Context) error

	// Repositories
	Businesses() BusinessRepository
	Members() MemberRepository
	Roles() RoleRepository
	Invitations() InvitationRepository

	// WithinTx runs fn against a DataStore bound to one transaction. fn's
	// error rolls every write back.
	WithinTx(ctx context.Context, fn func(tx DataStore) error) error

	// SeedSystemRoles inserts any missing system role and returns the
	// number created.
	SeedSystemRoles(ctx context.Context) (int, error)
}

// Type represents the type of data store to use
type Type string

const (
	// PostgreSQLStore uses real PostgreSQL database
	PostgreSQLStore Type = "postgresql"
	// MockStore uses in-memory tables seeded from JSON
	MockStore Type = "mock"
)

// Config holds configuration for data store creation
type Config struct {
	Type             Type
	ConnectionString string
	MockDataPath     string
	// Clock overrides time.Now for aggregates rebuilt from storage.
	Clock business.Clock
}

// NewDataStore creates a new data store based on configuration
func NewDataStore(config Config) (DataStore, error) {
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	switch config.Type {
	case PostgreSQLStore:
		return newPostgreSQLStore(config.ConnectionString, clock)
	case MockStore:
		return newMockStore(config.MockDataPath, clock)
	default:
		return nil, &UnsupportedStoreTypeError{Type: string(config.Type)}
	}
}

// newPostgreSQLStore creates a new PostgreSQL store adapter
func newPostgreSQLStore(connectionString string, clock business.Clock) (DataStore, error) {
	s, err := store.NewStore(connectionString, store.WithClock(clock))
	if err != nil {
		return nil, err
	}
	return &postgresAdapter{store: s, clock: clock}, nil
}

// newMockStore creates a new mock store adapter
func newMockStore(mockDataPath string, clock business.Clock) (DataStore, error) {
	m, err := mocks.NewMockStore(mockDataPath, mocks.WithClock(clock))
	if err != nil {
		return nil, err
	}
	return &mockAdapter{store: m, clock: clock}, nil
}

// UnsupportedStoreTypeError is returned when an unsupported store type is requested
type UnsupportedStoreTypeError struct {
	Type string
}

func (e *UnsupportedStoreTypeError) Error() string {
	return "unsupported store type: " + e.Type
}

// seedSystemRoles creates each system role whose name is not yet stored.
func seedSystemRoles(ctx context.Context, roles RoleRepository, clock business.Clock) (int, error) {
	created := 0
	for _, role := range business.SystemRoles(business.WithClock(clock)) {
		existing, err := roles.FindByName(ctx, "", role.Name())
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if _, err := roles.Create(ctx, role); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
