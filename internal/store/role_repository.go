package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"business-svc/internal/business"
)

const roleTable = "business.business_roles"

var roleColumns = []string{
	"id", "business_id", "name", "description", "permissions", "is_system_role",
	"is_customizable", "hierarchy", "metadata", "created_at", "updated_at", "deleted_at",
}

var (
	selectRoleSQL = selectSQL(roleTable, roleColumns)
	insertRoleSQL = insertSQL(roleTable, roleColumns)
	updateRoleSQL = updateSQL(roleTable, roleColumns)
)

// RoleRepository persists system and custom roles.
type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) Create(ctx context.Context, role *business.Role) (*business.Role, error) {
	if _, err := r.s.namedExecContext(ctx, insertRoleSQL, RoleToRecord(role)); err != nil {
		return nil, translate(err, "create role")
	}
	return role, nil
}

// FindByID returns the role or nil when no row matches.
func (r *RoleRepository) FindByID(ctx context.Context, id string) (*business.Role, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.get(ctx, selectRoleSQL+" WHERE id = $1"+r.s.lockClause(), id)
}

// FindByName looks a role up by name within businessID. An empty businessID
// searches system roles.
func (r *RoleRepository) FindByName(ctx context.Context, businessID, name string) (*business.Role, error) {
	return r.get(ctx, selectRoleSQL+" WHERE name = $1 AND COALESCE(business_id::text, '') = $2 AND deleted_at IS NULL", name, businessID)
}

func (r *RoleRepository) get(ctx context.Context, query string, args ...interface{}) (*business.Role, error) {
	var rec RoleRecord
	err := r.s.getContext(ctx, &rec, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return rec.ToRole(r.s.aggregateOptions()...)
}

func (r *RoleRepository) FindAll(ctx context.Context) ([]*business.Role, error) {
	return r.list(ctx, selectRoleSQL+" WHERE deleted_at IS NULL ORDER BY hierarchy, name")
}

// FindByBusiness returns the system roles plus the custom roles of
// businessID, most senior first.
func (r *RoleRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Role, error) {
	return r.list(ctx, selectRoleSQL+" WHERE (business_id IS NULL OR business_id::text = $1) AND deleted_at IS NULL ORDER BY hierarchy, name", businessID)
}

func (r *RoleRepository) list(ctx context.Context, query string, args ...interface{}) ([]*business.Role, error) {
	var recs []RoleRecord
	if err := r.s.selectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	out := make([]*business.Role, 0, len(recs))
	for _, rec := range recs {
		role, err := rec.ToRole(r.s.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, nil
}

func (r *RoleRepository) Update(ctx context.Context, id string, role *business.Role) (*business.Role, error) {
	if id != role.ID() {
		return nil, fmt.Errorf("failed to update role %s: aggregate id is %s", id, role.ID())
	}
	res, err := r.s.namedExecContext(ctx, updateRoleSQL, RoleToRecord(role))
	if err != nil {
		return nil, translate(err, "update role")
	}
	if err := requireAffected(res, "update role", id); err != nil {
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return fmt.Errorf("failed to delete role %s: %w", id, ErrNotFound)
	}
	res, err := r.s.execContext(ctx, "DELETE FROM "+roleTable+" WHERE id = $1", id)
	if err != nil {
		return translate(err, "delete role")
	}
	return requireAffected(res, "delete role", id)
}
