package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
)

// InvitationRequest carries one invitation to create.
type InvitationRequest struct {
	BusinessID     string
	Email          string
	RoleID         string
	InvitedBy      string
	Message        string
	ExpirationDays int
}

// BulkResult reports a bulk invitation batch. Failed maps each rejected
// email to the reason.
type BulkResult struct {
	BatchID string            `json:"batchId"`
	Created []*InvitationView `json:"created"`
	Failed  map[string]string `json:"failed"`
}

// notificationEmail is the channel recorded for invitation deliveries.
const notificationEmail = "EMAIL"

// CreateInvitation invites an email address into a business with the
// permissions of roleID.
func (s *Service) CreateInvitation(ctx context.Context, req InvitationRequest) (view *InvitationView, err error) {
	ctx, span := s.start(ctx, "app.CreateInvitation",
		attribute.String("business.id", req.BusinessID), attribute.String("role.id", req.RoleID))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		inv, err := s.invite(ctx, tx, req, func(in business.InvitationInput) (*business.Invitation, error) {
			return business.NewInvitation(in, s.opts()...)
		})
		if err != nil {
			return err
		}
		view = newInvitationView(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation created", "business_id", req.BusinessID, "invitation_id", view.ID, "email", view.Email)
	return view, nil
}

// invite runs the checks shared by single and bulk invitations and stores
// the invitation built by build.
func (s *Service) invite(ctx context.Context, tx datastore.DataStore, req InvitationRequest, build func(business.InvitationInput) (*business.Invitation, error)) (*business.Invitation, error) {
	e, err := loadLiveBusiness(ctx, tx, req.BusinessID)
	if err != nil {
		return nil, err
	}
	if !e.IsBusinessActive() {
		return nil, business.NewError(business.KindInvalidTransition, "business %s is not active", e.ID())
	}
	if _, err := authorize(ctx, tx, req.BusinessID, req.InvitedBy, business.PermMemberInvite); err != nil {
		return nil, err
	}
	role, err := loadAssignableRole(ctx, tx, req.BusinessID, req.RoleID)
	if err != nil {
		return nil, err
	}
	if role.IsOwnerRole() {
		return nil, denied("the owner role cannot be offered by invitation")
	}
	email := business.NormalizeEmail(req.Email)
	pending, err := tx.Invitations().FindPendingByEmail(ctx, req.BusinessID, email)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		if !pending.MarkAsExpired() {
			return nil, invalid("a pending invitation for %s already exists", email)
		}
		if _, err := tx.Invitations().Update(ctx, pending.ID(), pending); err != nil {
			return nil, err
		}
	}
	days := req.ExpirationDays
	if days == 0 {
		days = s.invitationTTL
	}
	inv, err := build(business.InvitationInput{
		BusinessID:     req.BusinessID,
		Email:          email,
		RoleID:         role.ID(),
		InvitedBy:      req.InvitedBy,
		Permissions:    role.Permissions(),
		Message:        req.Message,
		ExpirationDays: days,
	})
	if err != nil {
		return nil, err
	}
	inv.AddNotification(business.Notification{Type: notificationEmail, DeliveryStatus: business.DeliverySent})
	if _, err := tx.Invitations().Create(ctx, inv); err != nil {
		return nil, duplicateAs(err, "invitation token collision for %s", email)
	}
	return inv, nil
}

// CreateBulkInvitations invites every email with the same role under one
// batch id. Each email is stored on its own; a rejected email does not stop
// the rest.
func (s *Service) CreateBulkInvitations(ctx context.Context, req InvitationRequest, emails []string) (res *BulkResult, err error) {
	ctx, span := s.start(ctx, "app.CreateBulkInvitations",
		attribute.String("business.id", req.BusinessID), attribute.Int("invitation.count", len(emails)))
	defer func() { finish(span, err) }()

	if len(emails) == 0 {
		return nil, invalid("at least one email is required")
	}
	res = &BulkResult{BatchID: uuid.NewString(), Failed: map[string]string{}}
	for _, email := range emails {
		email = strings.TrimSpace(email)
		if email == "" {
			continue
		}
		one := req
		one.Email = email
		var inv *business.Invitation
		err := s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
			var err error
			inv, err = s.invite(ctx, tx, one, func(in business.InvitationInput) (*business.Invitation, error) {
				return business.NewBulkInvitation(in, res.BatchID, s.opts()...)
			})
			return err
		})
		if err != nil {
			if business.KindOf(err) == "" {
				return nil, err
			}
			res.Failed[email] = err.Error()
			continue
		}
		res.Created = append(res.Created, newInvitationView(inv))
	}
	s.log.Info("bulk invitations created", "business_id", req.BusinessID, "batch_id", res.BatchID,
		"created", len(res.Created), "failed", len(res.Failed))
	return res, nil
}

func loadInvitationByToken(ctx context.Context, ds datastore.DataStore, token string) (*business.Invitation, error) {
	inv, err := ds.Invitations().FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, notFound("invitation", "for token")
	}
	return inv, nil
}

// AcceptInvitation turns the invitation behind token into an ACTIVE member
// for userID.
func (s *Service) AcceptInvitation(ctx context.Context, token, userID string) (view *MemberView, err error) {
	ctx, span := s.start(ctx, "app.AcceptInvitation", attribute.String("member.user_id", userID))
	defer func() { finish(span, err) }()

	var invitationID string
	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		inv, err := loadInvitationByToken(ctx, tx, token)
		if err != nil {
			return err
		}
		invitationID = inv.ID()
		e, err := loadLiveBusiness(ctx, tx, inv.BusinessID())
		if err != nil {
			return err
		}
		existing, err := tx.Members().FindByBusinessAndUser(ctx, e.ID(), userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return invalid("user %s is already a member of business %s", userID, e.ID())
		}
		members, err := tx.Members().FindByBusiness(ctx, e.ID())
		if err != nil {
			return err
		}
		if !e.CanAddMembers(len(members)) {
			return business.NewError(business.KindCapacity, "business %s has reached its member limit", e.ID())
		}
		if err := inv.Accept(userID); err != nil {
			return err
		}
		m, err := business.NewMemberFromInvitation(e.ID(), userID, inv.RoleID(), inv.Permissions(), inv.InvitedBy(), s.opts()...)
		if err != nil {
			return err
		}
		if err := m.AcceptInvitation(); err != nil {
			return err
		}
		if _, err := tx.Members().Create(ctx, m); err != nil {
			return duplicateAs(err, "user %s is already a member of business %s", userID, e.ID())
		}
		if _, err := tx.Invitations().Update(ctx, inv.ID(), inv); err != nil {
			return err
		}
		view = newMemberView(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation accepted", "business_id", view.BusinessID, "invitation_id", invitationID, "member_id", view.ID)
	return view, nil
}

// mutateInvitation loads an invitation by id inside a transaction, applies
// fn and persists the result. A non-empty actorUserID must hold
// MEMBER_INVITE in the invitation's business.
func (s *Service) mutateInvitation(ctx context.Context, actorUserID, id string, fn func(inv *business.Invitation) error) (*business.Invitation, error) {
	var out *business.Invitation
	err := s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		inv, err := loadInvitation(ctx, tx, id)
		if err != nil {
			return err
		}
		if actorUserID != "" {
			if _, err := authorize(ctx, tx, inv.BusinessID(), actorUserID, business.PermMemberInvite); err != nil {
				return err
			}
		}
		if err := fn(inv); err != nil {
			return err
		}
		if _, err := tx.Invitations().Update(ctx, id, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	return out, err
}

// RejectInvitation declines the invitation behind token.
func (s *Service) RejectInvitation(ctx context.Context, token string) (view *InvitationView, err error) {
	ctx, span := s.start(ctx, "app.RejectInvitation")
	defer func() { finish(span, err) }()

	inv, err := loadInvitationByToken(ctx, s.ds, token)
	if err != nil {
		return nil, err
	}
	inv, err = s.mutateInvitation(ctx, "", inv.ID(), (*business.Invitation).Reject)
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation rejected", "business_id", inv.BusinessID(), "invitation_id", inv.ID())
	return newInvitationView(inv), nil
}

func (s *Service) CancelInvitation(ctx context.Context, actorUserID, id string) (view *InvitationView, err error) {
	ctx, span := s.start(ctx, "app.CancelInvitation", attribute.String("invitation.id", id))
	defer func() { finish(span, err) }()

	inv, err := s.mutateInvitation(ctx, actorUserID, id, (*business.Invitation).Cancel)
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation cancelled", "business_id", inv.BusinessID(), "invitation_id", id, "cancelled_by", actorUserID)
	return newInvitationView(inv), nil
}

// ResendInvitation records another delivery. A positive extendDays also
// moves the expiry to that many days from now.
func (s *Service) ResendInvitation(ctx context.Context, actorUserID, id string, extendDays int) (view *InvitationView, err error) {
	ctx, span := s.start(ctx, "app.ResendInvitation", attribute.String("invitation.id", id))
	defer func() { finish(span, err) }()

	if extendDays < 0 {
		return nil, invalid("extension days must not be negative")
	}
	inv, err := s.mutateInvitation(ctx, actorUserID, id, func(inv *business.Invitation) error {
		var expiry *time.Time
		if extendDays > 0 {
			t := s.clock().AddDate(0, 0, extendDays)
			expiry = &t
		}
		if err := inv.Resend(expiry); err != nil {
			return err
		}
		inv.AddNotification(business.Notification{Type: notificationEmail, DeliveryStatus: business.DeliverySent})
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation resent", "business_id", inv.BusinessID(), "invitation_id", id, "resend_count", inv.ResendCount())
	return newInvitationView(inv), nil
}

// ExtendInvitation pushes the expiry of a pending invitation days further
// out.
func (s *Service) ExtendInvitation(ctx context.Context, actorUserID, id string, days int) (view *InvitationView, err error) {
	ctx, span := s.start(ctx, "app.ExtendInvitation",
		attribute.String("invitation.id", id), attribute.Int("invitation.extend_days", days))
	defer func() { finish(span, err) }()

	if days < 1 {
		return nil, invalid("extension days must be positive")
	}
	inv, err := s.mutateInvitation(ctx, actorUserID, id, func(inv *business.Invitation) error {
		from := inv.ExpiresAt()
		if now := s.clock(); now.After(from) {
			from = now
		}
		return inv.ExtendExpiration(from.AddDate(0, 0, days))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("invitation extended", "business_id", inv.BusinessID(), "invitation_id", id, "expires_at", inv.ExpiresAt())
	return newInvitationView(inv), nil
}

// ExpireInvitations marks every pending invitation past its expiry as
// EXPIRED and returns how many changed.
func (s *Service) ExpireInvitations(ctx context.Context) (n int, err error) {
	ctx, span := s.start(ctx, "app.ExpireInvitations")
	defer func() {
		span.SetAttributes(attribute.Int("invitation.expired", n))
		finish(span, err)
	}()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		pending, err := tx.Invitations().FindPending(ctx)
		if err != nil {
			return err
		}
		for _, inv := range pending {
			if !inv.MarkAsExpired() {
				continue
			}
			if _, err := tx.Invitations().Update(ctx, inv.ID(), inv); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("expired invitations swept", "expired", n)
	return n, nil
}

// ListInvitations returns the invitations of businessID, optionally only
// those in status.
func (s *Service) ListInvitations(ctx context.Context, businessID string, status business.InvitationStatus) (views []*InvitationView, err error) {
	ctx, span := s.start(ctx, "app.ListInvitations", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	invs, err := s.ds.Invitations().FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	views = make([]*InvitationView, 0, len(invs))
	for _, inv := range invs {
		if status != "" && inv.Status() != status {
			continue
		}
		views = append(views, newInvitationView(inv))
	}
	return views, nil
}
