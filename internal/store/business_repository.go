package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"business-svc/internal/business"
)

const businessTable = "business.business_entities"

var businessColumns = []string{
	"id", "name", "legal_name", "legal_structure", "business_type", "industry_code",
	"description", "tax_id", "registration_number", "incorporation_date",
	"address", "contact_info", "status", "verification_status", "owner_id",
	"parent_business_id", "root_business_id", "child_business_ids",
	"hierarchy_level", "hierarchy_path", "max_depth", "allowed_child_types",
	"settings", "environments", "billing", "compliance", "metadata",
	"created_at", "updated_at", "deleted_at",
}

var (
	selectBusinessSQL = selectSQL(businessTable, businessColumns)
	insertBusinessSQL = insertSQL(businessTable, businessColumns)
	updateBusinessSQL = updateSQL(businessTable, businessColumns)
)

// BusinessRepository persists business entities.
type BusinessRepository struct {
	s *Store
}

// Create inserts a new business entity.
func (r *BusinessRepository) Create(ctx context.Context, e *business.Entity) (*business.Entity, error) {
	if _, err := r.s.namedExecContext(ctx, insertBusinessSQL, BusinessToRecord(e)); err != nil {
		return nil, translate(err, "create business")
	}
	return e, nil
}

// FindByID returns the business or nil when no row matches.
func (r *BusinessRepository) FindByID(ctx context.Context, id string) (*business.Entity, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var rec BusinessRecord
	query := selectBusinessSQL + " WHERE id = $1" + r.s.lockClause()
	err := r.s.getContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business: %w", err)
	}
	return rec.ToEntity(r.s.aggregateOptions()...)
}

// FindAll returns live businesses, oldest first.
func (r *BusinessRepository) FindAll(ctx context.Context) ([]*business.Entity, error) {
	return r.list(ctx, selectBusinessSQL+" WHERE deleted_at IS NULL ORDER BY created_at")
}

// FindChildren returns live direct children of parentID.
func (r *BusinessRepository) FindChildren(ctx context.Context, parentID string) ([]*business.Entity, error) {
	if !isUUID(parentID) {
		return []*business.Entity{}, nil
	}
	return r.list(ctx, selectBusinessSQL+" WHERE parent_business_id = $1 AND deleted_at IS NULL ORDER BY created_at", parentID)
}

func (r *BusinessRepository) list(ctx context.Context, query string, args ...interface{}) ([]*business.Entity, error) {
	var recs []BusinessRecord
	if err := r.s.selectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	out := make([]*business.Entity, 0, len(recs))
	for _, rec := range recs {
		e, err := rec.ToEntity(r.s.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Update overwrites the row for id with the entity state.
func (r *BusinessRepository) Update(ctx context.Context, id string, e *business.Entity) (*business.Entity, error) {
	if id != e.ID() {
		return nil, fmt.Errorf("failed to update business %s: aggregate id is %s", id, e.ID())
	}
	res, err := r.s.namedExecContext(ctx, updateBusinessSQL, BusinessToRecord(e))
	if err != nil {
		return nil, translate(err, "update business")
	}
	if err := requireAffected(res, "update business", id); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes the row for id.
func (r *BusinessRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return fmt.Errorf("failed to delete business %s: %w", id, ErrNotFound)
	}
	res, err := r.s.execContext(ctx, "DELETE FROM "+businessTable+" WHERE id = $1", id)
	if err != nil {
		return translate(err, "delete business")
	}
	return requireAffected(res, "delete business", id)
}
