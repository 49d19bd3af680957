package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"business-svc/internal/business"
)

const invitationTable = "business.business_invitations"

var invitationColumns = []string{
	"id", "business_id", "email", "role_id", "status", "invited_by", "message", "token",
	"expires_at", "accepted_at", "rejected_at", "cancelled_at", "accepted_by",
	"invitation_type", "permissions", "metadata", "notifications", "resend_count",
	"last_resend_at", "created_at", "updated_at", "deleted_at",
}

var (
	selectInvitationSQL = selectSQL(invitationTable, invitationColumns)
	insertInvitationSQL = insertSQL(invitationTable, invitationColumns)
	updateInvitationSQL = updateSQL(invitationTable, invitationColumns)
)

// InvitationRepository persists invitations.
type InvitationRepository struct {
	s *Store
}

func (r *InvitationRepository) Create(ctx context.Context, inv *business.Invitation) (*business.Invitation, error) {
	if _, err := r.s.namedExecContext(ctx, insertInvitationSQL, InvitationToRecord(inv)); err != nil {
		return nil, translate(err, "create invitation")
	}
	return inv, nil
}

// FindByID returns the invitation or nil when no row matches.
func (r *InvitationRepository) FindByID(ctx context.Context, id string) (*business.Invitation, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.get(ctx, selectInvitationSQL+" WHERE id = $1"+r.s.lockClause(), id)
}

// FindByToken returns the invitation carrying token, or nil.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*business.Invitation, error) {
	return r.get(ctx, selectInvitationSQL+" WHERE token = $1"+r.s.lockClause(), token)
}

// FindPendingByEmail returns the pending invitation for email in
// businessID, or nil.
func (r *InvitationRepository) FindPendingByEmail(ctx context.Context, businessID, email string) (*business.Invitation, error) {
	if !isUUID(businessID) {
		return nil, nil
	}
	return r.get(ctx, selectInvitationSQL+" WHERE business_id = $1 AND email = $2 AND status = 'PENDING' LIMIT 1", businessID, email)
}

func (r *InvitationRepository) get(ctx context.Context, query string, args ...interface{}) (*business.Invitation, error) {
	var rec InvitationRecord
	err := r.s.getContext(ctx, &rec, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}
	return rec.ToInvitation(r.s.aggregateOptions()...)
}

func (r *InvitationRepository) FindAll(ctx context.Context) ([]*business.Invitation, error) {
	return r.list(ctx, selectInvitationSQL+" ORDER BY created_at")
}

// FindByBusiness returns the invitations of businessID, oldest first.
func (r *InvitationRepository) FindByBusiness(ctx context.Context, businessID string) ([]*business.Invitation, error) {
	if !isUUID(businessID) {
		return []*business.Invitation{}, nil
	}
	return r.list(ctx, selectInvitationSQL+" WHERE business_id = $1 ORDER BY created_at", businessID)
}

// FindPending returns every PENDING invitation across businesses.
func (r *InvitationRepository) FindPending(ctx context.Context) ([]*business.Invitation, error) {
	return r.list(ctx, selectInvitationSQL+" WHERE status = 'PENDING' ORDER BY expires_at")
}

func (r *InvitationRepository) list(ctx context.Context, query string, args ...interface{}) ([]*business.Invitation, error) {
	var recs []InvitationRecord
	if err := r.s.selectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	out := make([]*business.Invitation, 0, len(recs))
	for _, rec := range recs {
		inv, err := rec.ToInvitation(r.s.aggregateOptions()...)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func (r *InvitationRepository) Update(ctx context.Context, id string, inv *business.Invitation) (*business.Invitation, error) {
	if id != inv.ID() {
		return nil, fmt.Errorf("failed to update invitation %s: aggregate id is %s", id, inv.ID())
	}
	res, err := r.s.namedExecContext(ctx, updateInvitationSQL, InvitationToRecord(inv))
	if err != nil {
		return nil, translate(err, "update invitation")
	}
	if err := requireAffected(res, "update invitation", id); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *InvitationRepository) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return fmt.Errorf("failed to delete invitation %s: %w", id, ErrNotFound)
	}
	res, err := r.s.execContext(ctx, "DELETE FROM "+invitationTable+" WHERE id = $1", id)
	if err != nil {
		return translate(err, "delete invitation")
	}
	return requireAffected(res, "delete invitation", id)
}
