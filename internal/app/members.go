package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
)

// MemberAction names a member status transition.
type MemberAction string

const (
	MemberActivate   MemberAction = "activate"
	MemberDeactivate MemberAction = "deactivate"
	MemberSuspend    MemberAction = "suspend"
	MemberUnsuspend  MemberAction = "unsuspend"
)

func (s *Service) ListMembers(ctx context.Context, businessID string) (views []*MemberView, err error) {
	ctx, span := s.start(ctx, "app.ListMembers", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	if _, err := loadBusiness(ctx, s.ds, businessID); err != nil {
		return nil, err
	}
	members, err := s.ds.Members().FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	views = make([]*MemberView, len(members))
	for i, m := range members {
		views[i] = newMemberView(m)
	}
	return views, nil
}

func (s *Service) GetMember(ctx context.Context, businessID, userID string) (view *MemberView, err error) {
	ctx, span := s.start(ctx, "app.GetMember",
		attribute.String("business.id", businessID), attribute.String("member.user_id", userID))
	defer func() { finish(span, err) }()

	m, err := loadMember(ctx, s.ds, businessID, userID)
	if err != nil {
		return nil, err
	}
	return newMemberView(m), nil
}

// loadManaged loads the actor and target members of businessID and checks
// the actor may manage the target.
func loadManaged(ctx context.Context, tx datastore.DataStore, businessID, actorUserID, targetUserID string) (actor, target *business.Member, err error) {
	actor, err = loadMember(ctx, tx, businessID, actorUserID)
	if err != nil {
		if business.KindOf(err) == business.KindNotFound {
			return nil, nil, denied("user %s is not a member of business %s", actorUserID, businessID)
		}
		return nil, nil, err
	}
	if !actor.IsActive() {
		return nil, nil, denied("member %s is not active", actorUserID)
	}
	target, err = loadMember(ctx, tx, businessID, targetUserID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.CanManageMember(target) {
		return nil, nil, denied("member %s cannot manage member %s", actorUserID, targetUserID)
	}
	return actor, target, nil
}

// ChangeMemberRole assigns roleID to the target member. The OWNER role only
// moves through TransferOwnership, and a non-owner actor may only assign
// roles its own role can manage.
func (s *Service) ChangeMemberRole(ctx context.Context, businessID, actorUserID, targetUserID, roleID string) (view *MemberView, err error) {
	ctx, span := s.start(ctx, "app.ChangeMemberRole",
		attribute.String("business.id", businessID), attribute.String("role.id", roleID))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		actor, target, err := loadManaged(ctx, tx, businessID, actorUserID, targetUserID)
		if err != nil {
			return err
		}
		role, err := loadAssignableRole(ctx, tx, businessID, roleID)
		if err != nil {
			return err
		}
		if role.IsOwnerRole() {
			return denied("the owner role is assigned by transferring ownership")
		}
		if !actor.IsOwner() {
			actorRole, err := loadRole(ctx, tx, actor.RoleID())
			if err != nil {
				return err
			}
			if !actorRole.CanManageRole(role) {
				return denied("role %s cannot assign role %s", actorRole.Name(), role.Name())
			}
		}
		if err := target.ChangeRole(role.ID(), role.Permissions()); err != nil {
			return err
		}
		if _, err := tx.Members().Update(ctx, target.ID(), target); err != nil {
			return err
		}
		view = newMemberView(target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("member role changed", "business_id", businessID, "member_id", view.ID, "role_id", roleID)
	return view, nil
}

// ChangeMemberStatus applies a status action to the target member. reason
// is recorded for suspensions.
func (s *Service) ChangeMemberStatus(ctx context.Context, businessID, actorUserID, targetUserID string, action MemberAction, reason string) (view *MemberView, err error) {
	ctx, span := s.start(ctx, "app.ChangeMemberStatus",
		attribute.String("business.id", businessID), attribute.String("member.action", string(action)))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		_, target, err := loadManaged(ctx, tx, businessID, actorUserID, targetUserID)
		if err != nil {
			return err
		}
		switch action {
		case MemberActivate:
			err = target.Activate()
		case MemberDeactivate:
			err = target.Deactivate()
		case MemberSuspend:
			err = target.Suspend(reason)
		case MemberUnsuspend:
			err = target.Unsuspend()
		default:
			return invalid("unknown member action %q", string(action))
		}
		if err != nil {
			return err
		}
		if _, err := tx.Members().Update(ctx, target.ID(), target); err != nil {
			return err
		}
		view = newMemberView(target)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("member status changed", "business_id", businessID, "member_id", view.ID, "status", view.Status)
	return view, nil
}

// RemoveMember deletes the target membership.
func (s *Service) RemoveMember(ctx context.Context, businessID, actorUserID, targetUserID string) (err error) {
	ctx, span := s.start(ctx, "app.RemoveMember", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	var memberID string
	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		actor, err := authorize(ctx, tx, businessID, actorUserID, business.PermMemberRemove)
		if err != nil {
			return err
		}
		target, err := loadMember(ctx, tx, businessID, targetUserID)
		if err != nil {
			return err
		}
		if !actor.CanRemoveMember(target) {
			return denied("member %s cannot remove member %s", actorUserID, targetUserID)
		}
		memberID = target.ID()
		return tx.Members().Delete(ctx, memberID)
	})
	if err != nil {
		return err
	}
	s.log.Info("member removed", "business_id", businessID, "member_id", memberID, "removed_by", actorUserID)
	return nil
}

// TransferOwnership moves ownership of businessID from fromUserID to
// toUserID. The previous owner keeps the ADMIN role, the recipient takes the
// OWNER role and the business records the new owner, all in one
// transaction.
func (s *Service) TransferOwnership(ctx context.Context, businessID, fromUserID, toUserID string) (from, to *MemberView, err error) {
	ctx, span := s.start(ctx, "app.TransferOwnership", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		e, err := loadLiveBusiness(ctx, tx, businessID)
		if err != nil {
			return err
		}
		prev, err := loadMember(ctx, tx, businessID, fromUserID)
		if err != nil {
			return err
		}
		next, err := loadMember(ctx, tx, businessID, toUserID)
		if err != nil {
			return err
		}
		if !next.IsActive() {
			return business.NewError(business.KindInvalidTransition, "member %s is not active", toUserID)
		}
		ownerRole, err := loadSystemRole(ctx, tx, business.RoleOwner)
		if err != nil {
			return err
		}
		adminRole, err := loadSystemRole(ctx, tx, business.RoleAdmin)
		if err != nil {
			return err
		}

		if err := prev.TransferOwnership(toUserID); err != nil {
			return err
		}
		if err := prev.ChangeRole(adminRole.ID(), adminRole.Permissions()); err != nil {
			return err
		}
		if err := next.ChangeRole(ownerRole.ID(), ownerRole.Permissions()); err != nil {
			return err
		}
		if err := next.ReceiveOwnership(fromUserID); err != nil {
			return err
		}
		if err := e.ChangeOwner(toUserID); err != nil {
			return err
		}

		if _, err := tx.Members().Update(ctx, prev.ID(), prev); err != nil {
			return err
		}
		if _, err := tx.Members().Update(ctx, next.ID(), next); err != nil {
			return err
		}
		if _, err := tx.Businesses().Update(ctx, e.ID(), e); err != nil {
			return err
		}
		from, to = newMemberView(prev), newMemberView(next)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("ownership transferred", "business_id", businessID, "from", fromUserID, "to", toUserID)
	return from, to, nil
}
