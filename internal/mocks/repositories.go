package mocks

import (
	"context"
	"sort"

	"business-svc/internal/business"
	"business-svc/internal/store"
)

// BusinessRepository is the in-memory business entity repository.
type BusinessRepository struct {
	m *MockStore
}

func (r *BusinessRepository) Create(ctx context.Context, e *business.Entity) (*business.Entity, error) {
	rec := store.BusinessToRecord(e)
	err := r.m.write(func(st *state) error {
		if _, ok := st.businesses.get(rec.ID); ok {
			return duplicate("create business", "business_entities_pkey")
		}
		st.businesses.put(rec.ID, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*business.Entity, error) {
	var (
		rec store.BusinessRecord
		ok  bool
	)
	r.m.read(func(st *state) { rec, ok = st.businesses.get(id) })
	if !ok {
		return nil, nil
	}
	return rec.ToEntity(r.m.aggregateOptions()...)
}

func (r *BusinessRepository) FindAll(ctx context.Context) ([]*business.Entity, error) {
	return r.list(func(rec store.BusinessRecord) bool { return rec.DeletedAt == nil })
}

func (r *BusinessRepository) FindChildren(ctx context.Context, parentID string) ([]*business.Entity, error) {
	return r.list(func(rec store.BusinessRecord) bool {
		return rec.DeletedAt == nil && rec.ParentBusinessID != nil && *rec.ParentBusinessID == parentID
	})
}

func (r *BusinessRepository) list(keep func(store.BusinessRecord) bool) ([]*business.Entity, error) {
	var recs []store.BusinessRecord
	r.m.read(func(st *state) { recs = st.businesses.list(keep) })
	out := make([]*business.Entity, 0, len(recs))
	for _, rec := range recs {
		e, err := rec.ToEntity(r.m.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *BusinessRepository) Update(ctx context.Context, id string, e *business.Entity) (*business.Entity, error) {
	if id != e.ID() {
		return nil, mismatch("business", id, e.ID())
	}
	rec := store.BusinessToRecord(e)
	err := r.m.write(func(st *state) error {
		if _, ok := st.businesses.get(id); !ok {
			return notFound("update business", id)
		}
		st.businesses.put(id, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *BusinessRepository) Delete(ctx context.Context, id string) error {
	return r.m.write(func(st *state) error {
		if !st.businesses.remove(id) {
			return notFound("delete business", id)
		}
		return nil
	})
}

// MemberRepository is the in-memory member repository.
type MemberRepository struct {
	m *MockStore
}

func (r *MemberRepository) Create(ctx context.Context, mem *business.Member) (*business.Member, error) {
	rec := store.MemberToRecord(mem)
	err := r.m.write(func(st *state) error {
		if _, ok := st.members.get(rec.ID); ok {
			return duplicate("create member", "business_members_pkey")
		}
		if len(st.members.list(sameMembership(rec.BusinessID, rec.UserID))) > 0 {
			return duplicate("create member", "business_members_business_id_user_id_key")
		}
		st.members.put(rec.ID, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mem, nil
}

func sameMembership(businessID, userID string) func(store.MemberRecord) bool {
	return func(rec store.MemberRecord) bool {
		return rec.BusinessID == businessID && rec.UserID == userID
	}
}

func (r *MemberRepository) FindByID(ctx context.Context, id string) (*business.Member, error) {
	var (
		rec store.MemberRecord
		ok  bool
	)
	r.m.read(func(st *state) { rec, ok = st.members.get(id) })
	if !ok {
		return nil, nil
	}
	return rec.ToMember(r.m.aggregateOptions()...)
}

func (r *MemberRepository) FindByBusinessAndUser(ctx context.Context, businessID, userID string) (*business.Member, error) {
	members, err := r.list(sameMembership(businessID, userID))
	if err != nil || len(members) == 0 {
		return nil, err
	}
	return members[0], nil
}

func (r *MemberRepository) FindAll(ctx context.Context) ([]*business.Member, error) {
	return r.list(nil)
}

func (r *MemberRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Member, error) {
	return r.list(func(rec store.MemberRecord) bool { return rec.BusinessID == businessID })
}

func (r *MemberRepository) list(keep func(store.MemberRecord) bool) ([]*business.Member, error) {
	var recs []store.MemberRecord
	r.m.read(func(st *state) { recs = st.members.list(keep) })
	out := make([]*business.Member, 0, len(recs))
	for _, rec := range recs {
		mem, err := rec.ToMember(r.m.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, mem)
	}
	return out, nil
}

func (r *MemberRepository) Update(ctx context.Context, id string, mem *business.Member) (*business.Member, error) {
	if id != mem.ID() {
		return nil, mismatch("member", id, mem.ID())
	}
	rec := store.MemberToRecord(mem)
	err := r.m.write(func(st *state) error {
		if _, ok := st.members.get(id); !ok {
			return notFound("update member", id)
		}
		st.members.put(id, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mem, nil
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	return r.m.write(func(st *state) error {
		if !st.members.remove(id) {
			return notFound("delete member", id)
		}
		return nil
	})
}

// RoleRepository is the in-memory role repository.
type RoleRepository struct {
	m *MockStore
}

func roleScope(rec store.RoleRecord) string {
	if rec.BusinessID == nil {
		return ""
	}
	return *rec.BusinessID
}

func sameRoleName(businessID, name string) func(store.RoleRecord) bool {
	return func(rec store.RoleRecord) bool {
		return rec.DeletedAt == nil && rec.Name == name && roleScope(rec) == businessID
	}
}

func (r *RoleRepository) Create(ctx context.Context, role *business.Role) (*business.Role, error) {
	rec := store.RoleToRecord(role)
	err := r.m.write(func(st *state) error {
		if _, ok := st.roles.get(rec.ID); ok {
			return duplicate("create role", "business_roles_pkey")
		}
		if len(st.roles.list(sameRoleName(roleScope(rec), rec.Name))) > 0 {
			return duplicate("create role", "business_roles_name_idx")
		}
		st.roles.put(rec.ID, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*business.Role, error) {
	var (
		rec store.RoleRecord
		ok  bool
	)
	r.m.read(func(st *state) { rec, ok = st.roles.get(id) })
	if !ok {
		return nil, nil
	}
	return rec.ToRole(r.m.aggregateOptions()...)
}

// FindByName looks a role up by name within businessID. An empty businessID
// searches system roles.
func (r *RoleRepository) FindByName(ctx context.Context, businessID, name string) (*business.Role, error) {
	roles, err := r.list(sameRoleName(businessID, name))
	if err != nil || len(roles) == 0 {
		return nil, err
	}
	return roles[0], nil
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]*business.Role, error) {
	return r.list(func(rec store.RoleRecord) bool { return rec.DeletedAt == nil })
}

func (r *RoleRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Role, error) {
	return r.list(func(rec store.RoleRecord) bool {
		scope := roleScope(rec)
		return rec.DeletedAt == nil && (scope == "" || scope == businessID)
	})
}

// list orders roles by hierarchy then name, matching the SQL store.
func (r *RoleRepository) list(keep func(store.RoleRecord) bool) ([]*business.Role, error) {
	var recs []store.RoleRecord
	r.m.read(func(st *state) { recs = st.roles.list(keep) })
	out := make([]*business.Role, 0, len(recs))
	for _, rec := range recs {
		role, err := rec.ToRole(r.m.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	sortRoles(out)
	return out, nil
}

func (r *RoleRepository) Update(ctx context.Context, id string, role *business.Role) (*business.Role, error) {
	if id != role.ID() {
		return nil, mismatch("role", id, role.ID())
	}
	rec := store.RoleToRecord(role)
	err := r.m.write(func(st *state) error {
		if _, ok := st.roles.get(id); !ok {
			return notFound("update role", id)
		}
		for _, other := range st.roles.list(sameRoleName(roleScope(rec), rec.Name)) {
			if other.ID != id {
				return duplicate("update role", "business_roles_name_idx")
			}
		}
		st.roles.put(id, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	return r.m.write(func(st *state) error {
		if !st.roles.remove(id) {
			return notFound("delete role", id)
		}
		return nil
	})
}

// InvitationRepository is the in-memory invitation repository.
type InvitationRepository struct {
	m *MockStore
}

func (r *InvitationRepository) Create(ctx context.Context, inv *business.Invitation) (*business.Invitation, error) {
	rec := store.InvitationToRecord(inv)
	err := r.m.write(func(st *state) error {
		if _, ok := st.invitations.get(rec.ID); ok {
			return duplicate("create invitation", "business_invitations_pkey")
		}
		if len(st.invitations.list(withToken(rec.Token))) > 0 {
			return duplicate("create invitation", "business_invitations_token_key")
		}
		st.invitations.put(rec.ID, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func withToken(token string) func(store.InvitationRecord) bool {
	return func(rec store.InvitationRecord) bool { return rec.Token == token }
}

func isPending(rec store.InvitationRecord) bool {
	return rec.Status == string(business.InvitationPending)
}

func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*business.Invitation, error) {
	var (
		rec store.InvitationRecord
		ok  bool
	)
	r.m.read(func(st *state) { rec, ok = st.invitations.get(id) })
	if !ok {
		return nil, nil
	}
	return rec.ToInvitation(r.m.aggregateOptions()...)
}

func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*business.Invitation, error) {
	return r.first(withToken(token))
}

func (r *InvitationRepository) FindPendingByEmail(ctx context.Context, businessID, email string) (*business.Invitation, error) {
	return r.first(func(rec store.InvitationRecord) bool {
		return isPending(rec) && rec.BusinessID == businessID && rec.Email == email
	})
}

func (r *InvitationRepository) first(keep func(store.InvitationRecord) bool) (*business.Invitation, error) {
	invs, err := r.list(keep)
	if err != nil || len(invs) == 0 {
		return nil, err
	}
	return invs[0], nil
}

func (r *InvitationRepository) FindAll(ctx context.Context) ([]*business.Invitation, error) {
	return r.list(nil)
}

func (r *InvitationRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Invitation, error) {
	return r.list(func(rec store.InvitationRecord) bool { return rec.BusinessID == businessID })
}

func (r *InvitationRepository) FindPending(ctx context.Context) ([]*business.Invitation, error) {
	return r.list(isPending)
}

func (r *InvitationRepository) list(keep func(store.InvitationRecord) bool) ([]*business.Invitation, error) {
	var recs []store.InvitationRecord
	r.m.read(func(st *state) { recs = st.invitations.list(keep) })
	out := make([]*business.Invitation, 0, len(recs))
	for _, rec := range recs {
		inv, err := rec.ToInvitation(r.m.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *InvitationRepository) Update(ctx context.Context, id string, inv *business.Invitation) (*business.Invitation, error) {
	if id != inv.ID() {
		return nil, mismatch("invitation", id, inv.ID())
	}
	rec := store.InvitationToRecord(inv)
	err := r.m.write(func(st *state) error {
		if _, ok := st.invitations.get(id); !ok {
			return notFound("update invitation", id)
		}
		st.invitations.put(id, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvitationRepository) Delete(ctx context.Context, id string) error {
	return r.m.write(func(st *state) error {
		if !st.invitations.remove(id) {
			return notFound("delete invitation", id)
		}
		return nil
	})
}

func sortRoles(roles []*business.Role) {
	sort.SliceStable(roles, func(i, j int) bool {
		if roles[i].Hierarchy() != roles[j].Hierarchy() {
			return roles[i].Hierarchy() < roles[j].Hierarchy()
		}
		return roles[i].Name() < roles[j].Name()
	})
}
