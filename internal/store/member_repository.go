package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"business-svc/internal/business"
)

const memberTable = "business.business_members"

var memberColumns = []string{
	"id", "business_id", "user_id", "role_id", "status", "joined_at", "invited_by",
	"permissions", "is_owner", "metadata", "last_activity_at", "activity_history",
	"created_at", "updated_at", "deleted_at",
}

var (
	selectMemberSQL = selectSQL(memberTable, memberColumns)
	insertMemberSQL = insertSQL(memberTable, memberColumns)
	updateMemberSQL = updateSQL(memberTable, memberColumns)
)

// MemberRepository persists business members.
type MemberRepository struct {
	s *Store
}

func (r *MemberRepository) Create(ctx context.Context, m *business.Member) (*business.Member, error) {
	if _, err := r.s.namedExecContext(ctx, insertMemberSQL, MemberToRecord(m)); err != nil {
		return nil, translate(err, "create member")
	}
	return m, nil
}

// FindByID returns the member or nil when no row matches.
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*business.Member, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.get(ctx, selectMemberSQL+" WHERE id = $1"+r.s.lockClause(), id)
}

// FindByBusinessAndUser returns the membership of userID in businessID, or nil.
func (r *MemberRepository) FindByBusinessAndUser(ctx context.Context, businessID, userID string) (*business.Member, error) {
	if !isUUID(businessID) {
		return nil, nil
	}
	return r.get(ctx, selectMemberSQL+" WHERE business_id = $1 AND user_id = $2"+r.s.lockClause(), businessID, userID)
}

func (r *MemberRepository) get(ctx context.Context, query string, args ...interface{}) (*business.Member, error) {
	var rec MemberRecord
	err := r.s.getContext(ctx, &rec, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return rec.ToMember(r.s.aggregateOptions()...)
}

func (r *MemberRepository) FindAll(ctx context.Context) ([]*business.Member, error) {
	return r.list(ctx, selectMemberSQL+" ORDER BY created_at")
}

// FindByBusiness returns the members of businessID, oldest first.
func (r *MemberRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Member, error) {
	if !isUUID(businessID) {
		return []*business.Member{}, nil
	}
	return r.list(ctx, selectMemberSQL+" WHERE business_id = $1 ORDER BY created_at", businessID)
}

func (r *MemberRepository) list(ctx context.Context, query string, args ...interface{}) ([]*business.Member, error) {
	var recs []MemberRecord
	if err := r.s.selectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	out := make([]*business.Member, 0, len(recs))
	for _, rec := range recs {
		m, err := rec.ToMember(r.s.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MemberRepository) Update(ctx context.Context, id string, m *business.Member) (*business.Member, error) {
	if id != m.ID() {
		return nil, fmt.Errorf("failed to update member %s: aggregate id is %s", id, m.ID())
	}
	res, err := r.s.namedExecContext(ctx, updateMemberSQL, MemberToRecord(m))
	if err != nil {
		return nil, translate(err, "update member")
	}
	if err := requireAffected(res, "update member", id); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return fmt.Errorf("failed to delete member %s: %w", id, ErrNotFound)
	}
	res, err := r.s.execContext(ctx, "DELETE FROM "+memberTable+" WHERE id = $1", id)
	if err != nil {
		return translate(err, "delete member")
	}
	return requireAffected(res, "delete member", id)
}
