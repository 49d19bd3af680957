// Package mocks provides an in-memory stand-in for the Postgres store. It keeps
// the same row records the SQL store persists, so aggregates are always
// rebuilt through the same mapper and never share state with callers.
package mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"business-svc/internal/business"
	"business-svc/internal/store"
)

// Seed files read from the mock data directory.
const (
	BusinessesFile  = "businesses.json"
	MembersFile     = "members.json"
	RolesFile       = "roles.json"
	InvitationsFile = "invitations.json"
)

type row[R any] struct {
	rec R
	seq int
}

// table keeps rows in insertion order.
type table[R any] struct {
	rows map[string]row[R]
	seq  int
}

func newTable[R any]() *table[R] {
	return &table[R]{rows: make(map[string]row[R])}
}

func (t *table[R]) get(id string) (R, bool) {
	r, ok := t.rows[id]
	return r.rec, ok
}

func (t *table[R]) put(id string, rec R) {
	if existing, ok := t.rows[id]; ok {
		t.rows[id] = row[R]{rec: rec, seq: existing.seq}
		return
	}
	t.seq++
	t.rows[id] = row[R]{rec: rec, seq: t.seq}
}

func (t *table[R]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *table[R]) list(keep func(R) bool) []R {
	rows := make([]row[R], 0, len(t.rows))
	for _, r := range t.rows {
		if keep == nil || keep(r.rec) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })
	out := make([]R, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out
}

func (t *table[R]) clone() *table[R] {
	c := &table[R]{rows: make(map[string]row[R], len(t.rows)), seq: t.seq}
	for id, r := range t.rows {
		c.rows[id] = r
	}
	return c
}

type state struct {
	mu          sync.RWMutex
	writeMu     sync.Mutex
	businesses  *table[store.BusinessRecord]
	members     *table[store.MemberRecord]
	roles       *table[store.RoleRecord]
	invitations *table[store.InvitationRecord]
}

// MockStore is an in-memory store with transactional semantics. Writes and
// transactions are serialised; a failed transaction restores the tables as
// they were when it began.
type MockStore struct {
	st    *state
	inTx  bool
	clock business.Clock
}

// Option configures a MockStore.
type Option func(*MockStore)

// WithClock sets the clock handed to aggregates rebuilt from records.
func WithClock(c business.Clock) Option {
	return func(m *MockStore) {
		if c != nil {
			m.clock = c
		}
	}
}

// NewMockStore creates a store seeded from the JSON files in dataPath. A
// missing directory or file yields empty tables.
func NewMockStore(dataPath string, opts ...Option) (*MockStore, error) {
	m := &MockStore{
		st: &state{
			businesses:  newTable[store.BusinessRecord](),
			members:     newTable[store.MemberRecord](),
			roles:       newTable[store.RoleRecord](),
			invitations: newTable[store.InvitationRecord](),
		},
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if dataPath == "" {
		return m, nil
	}

	var businesses []store.BusinessRecord
	if err := loadJSON(filepath.Join(dataPath, BusinessesFile), &businesses); err != nil {
		return nil, err
	}
	for _, r := range businesses {
		m.st.businesses.put(r.ID, r)
	}
	var roles []store.RoleRecord
	if err := loadJSON(filepath.Join(dataPath, RolesFile), &roles); err != nil {
		return nil, err
	}
	for _, r := range roles {
		m.st.roles.put(r.ID, r)
	}
	var members []store.MemberRecord
	if err := loadJSON(filepath.Join(dataPath, MembersFile), &members); err != nil {
		return nil, err
	}
	for _, r := range members {
		m.st.members.put(r.ID, r)
	}
	var invitations []store.InvitationRecord
	if err := loadJSON(filepath.Join(dataPath, InvitationsFile), &invitations); err != nil {
		return nil, err
	}
	for _, r := range invitations {
		m.st.invitations.put(r.ID, r)
	}
	return m, nil
}

func loadJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read mock data %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to parse mock data %s: %w", path, err)
	}
	return nil
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// InitDB is a no-op; tables exist from construction.
func (m *MockStore) InitDB(ctx context.Context) error {
	return nil
}

// WithTx runs fn against a transaction-bound view of the store. Nested calls
// join the open transaction.
func (m *MockStore) WithTx(ctx context.Context, fn func(tx *MockStore) error) error {
	if m.inTx {
		return fn(m)
	}
	m.st.writeMu.Lock()
	defer m.st.writeMu.Unlock()

	m.st.mu.RLock()
	businesses := m.st.businesses.clone()
	members := m.st.members.clone()
	roles := m.st.roles.clone()
	invitations := m.st.invitations.clone()
	m.st.mu.RUnlock()

	if err := fn(&MockStore{st: m.st, inTx: true, clock: m.clock}); err != nil {
		m.st.mu.Lock()
		m.st.businesses = businesses
		m.st.members = members
		m.st.roles = roles
		m.st.invitations = invitations
		m.st.mu.Unlock()
		return err
	}
	return nil
}

// write runs fn holding the write locks. Inside a transaction the
// transaction already owns writeMu.
func (m *MockStore) write(fn func(st *state) error) error {
	if !m.inTx {
		m.st.writeMu.Lock()
		defer m.st.writeMu.Unlock()
	}
	m.st.mu.Lock()
	defer m.st.mu.Unlock()
	return fn(m.st)
}

func (m *MockStore) read(fn func(st *state)) {
	m.st.mu.RLock()
	defer m.st.mu.RUnlock()
	fn(m.st)
}

func (m *MockStore) aggregateOptions() []business.Option {
	return []business.Option{business.WithClock(m.clock)}
}

// Businesses returns the business entity repository.
func (m *MockStore) Businesses() *BusinessRepository { return &BusinessRepository{m: m} }

// Members returns the member repository.
func (m *MockStore) Members() *MemberRepository { return &MemberRepository{m: m} }

// Roles returns the role repository.
func (m *MockStore) Roles() *RoleRepository { return &RoleRepository{m: m} }

// Invitations returns the invitation repository.
func (m *MockStore) Invitations() *InvitationRepository { return &InvitationRepository{m: m} }

func notFound(op, id string) error {
	return fmt.Errorf("failed to %s %s: %w", op, id, store.ErrNotFound)
}

func duplicate(op, constraint string) error {
	return fmt.Errorf("failed to %s: %w (%s)", op, store.ErrDuplicate, constraint)
}

func mismatch(kind, id, aggID string) error {
	return fmt.Errorf("failed to update %s %s: aggregate id is %s", kind, id, aggID)
}
