package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
)

// StatusAction names a business lifecycle transition.
type StatusAction string

const (
	ActionActivate   StatusAction = "activate"
	ActionSuspend    StatusAction = "suspend"
	ActionReactivate StatusAction = "reactivate"
	ActionDeactivate StatusAction = "deactivate"
)

// VerificationAction names a verification transition.
type VerificationAction string

const (
	VerificationSubmit VerificationAction = "submit"
	VerificationVerify VerificationAction = "verify"
	VerificationReject VerificationAction = "reject"
	VerificationReset  VerificationAction = "reset"
)

// BusinessUpdate is a partial change to a business; nil fields are kept.
type BusinessUpdate struct {
	Description        *string
	TaxID              *string
	RegistrationNumber *string
	Address            *business.Address
	ContactInfo        *business.ContactInfo
	Settings           *business.SettingsUpdate
	Metadata           map[string]any
}

// CreateRootOrganization creates a root organisation and its owner member
// holding the OWNER system role.
func (s *Service) CreateRootOrganization(ctx context.Context, in business.RootOrganizationInput) (view *BusinessView, owner *MemberView, err error) {
	ctx, span := s.start(ctx, "app.CreateRootOrganization", attribute.String("owner.id", in.OwnerID))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		e, err := business.NewRootOrganization(in, s.opts()...)
		if err != nil {
			return err
		}
		m, err := s.addOwner(ctx, tx, e)
		if err != nil {
			return err
		}
		view, owner = newBusinessView(e), newMemberView(m)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("business created", "business_id", view.ID, "owner_id", in.OwnerID, "type", view.Type)
	return view, owner, nil
}

// addOwner persists e and its owner member.
func (s *Service) addOwner(ctx context.Context, tx datastore.DataStore, e *business.Entity) (*business.Member, error) {
	ownerRole, err := loadSystemRole(ctx, tx, business.RoleOwner)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Businesses().Create(ctx, e); err != nil {
		return nil, err
	}
	m, err := business.NewOwner(e.ID(), e.OwnerID(), ownerRole.ID(), s.opts()...)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Members().Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateSubBusiness creates a child of parentID owned by actorUserID, who
// must hold BUSINESS_UPDATE on the parent.
func (s *Service) CreateSubBusiness(ctx context.Context, actorUserID, parentID, name string, childType business.EntityType) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.CreateSubBusiness",
		attribute.String("business.parent_id", parentID), attribute.String("business.type", string(childType)))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		parent, err := loadLiveBusiness(ctx, tx, parentID)
		if err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, parentID, actorUserID, business.PermBusinessUpdate); err != nil {
			return err
		}
		child, err := business.NewSubBusiness(name, childType, parent, actorUserID, s.opts()...)
		if err != nil {
			return err
		}
		if err := parent.AddChildBusiness(child.ID()); err != nil {
			return err
		}
		if _, err := s.addOwner(ctx, tx, child); err != nil {
			return err
		}
		if _, err := tx.Businesses().Update(ctx, parent.ID(), parent); err != nil {
			return err
		}
		view = newBusinessView(child)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("sub-business created", "business_id", view.ID, "parent_id", parentID, "type", childType)
	return view, nil
}

func (s *Service) GetBusiness(ctx context.Context, id string) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.GetBusiness", attribute.String("business.id", id))
	defer func() { finish(span, err) }()

	e, err := loadBusiness(ctx, s.ds, id)
	if err != nil {
		return nil, err
	}
	return newBusinessView(e), nil
}

// ListBusinesses returns live businesses, or the live children of parentID
// when it is set.
func (s *Service) ListBusinesses(ctx context.Context, parentID string) (views []*BusinessView, err error) {
	ctx, span := s.start(ctx, "app.ListBusinesses", attribute.String("business.parent_id", parentID))
	defer func() { finish(span, err) }()

	var entities []*business.Entity
	if parentID == "" {
		entities, err = s.ds.Businesses().FindAll(ctx)
	} else {
		entities, err = s.ds.Businesses().FindChildren(ctx, parentID)
	}
	if err != nil {
		return nil, err
	}
	views = make([]*BusinessView, len(entities))
	for i, e := range entities {
		views[i] = newBusinessView(e)
	}
	return views, nil
}

// mutateBusiness loads a live business inside a transaction, applies fn and
// persists the result.
func (s *Service) mutateBusiness(ctx context.Context, id string, fn func(tx datastore.DataStore, e *business.Entity) error) (*business.Entity, error) {
	var out *business.Entity
	err := s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		e, err := loadLiveBusiness(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(tx, e); err != nil {
			return err
		}
		if _, err := tx.Businesses().Update(ctx, id, e); err != nil {
			return err
		}
		out = e
		return nil
	})
	return out, err
}

func (s *Service) UpdateBusiness(ctx context.Context, id string, u BusinessUpdate) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.UpdateBusiness", attribute.String("business.id", id))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, id, func(_ datastore.DataStore, e *business.Entity) error {
		if u.Description != nil {
			e.UpdateDescription(*u.Description)
		}
		if u.TaxID != nil {
			e.UpdateTaxID(*u.TaxID)
		}
		if u.RegistrationNumber != nil {
			e.UpdateRegistrationNumber(*u.RegistrationNumber)
		}
		if u.Address != nil {
			if err := e.UpdateAddress(*u.Address); err != nil {
				return err
			}
		}
		if u.ContactInfo != nil {
			if err := e.UpdateContactInfo(*u.ContactInfo); err != nil {
				return err
			}
		}
		if u.Settings != nil {
			if err := e.UpdateSettings(*u.Settings); err != nil {
				return err
			}
		}
		if len(u.Metadata) > 0 {
			e.UpdateMetadata(u.Metadata)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("business updated", "business_id", id)
	return newBusinessView(e), nil
}

// ChangeBusinessStatus applies a lifecycle action, then pushes the new
// status down to descendants that opted into cascading. It returns the ids
// of the descendants that changed.
func (s *Service) ChangeBusinessStatus(ctx context.Context, id string, action StatusAction) (view *BusinessView, cascaded []string, err error) {
	ctx, span := s.start(ctx, "app.ChangeBusinessStatus",
		attribute.String("business.id", id), attribute.String("business.action", string(action)))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, id, func(tx datastore.DataStore, e *business.Entity) error {
		var err error
		switch action {
		case ActionActivate:
			err = e.Activate()
		case ActionSuspend:
			err = e.Suspend()
		case ActionReactivate:
			err = e.Reactivate()
		case ActionDeactivate:
			err = e.Deactivate()
		default:
			return invalid("unknown status action %q", string(action))
		}
		if err != nil {
			return err
		}
		cascaded, err = s.cascade(ctx, tx, e, e.Status())
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("business status changed", "business_id", id, "status", e.Status(), "cascaded", len(cascaded))
	return newBusinessView(e), cascaded, nil
}

// cascade offers status to every live descendant of e. A descendant that
// declines stops the walk below it.
func (s *Service) cascade(ctx context.Context, tx datastore.DataStore, e *business.Entity, status business.EntityStatus) ([]string, error) {
	children, err := tx.Businesses().FindChildren(ctx, e.ID())
	if err != nil {
		return nil, err
	}
	var changed []string
	for _, child := range children {
		ok, err := child.CascadeStatusChange(status)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if _, err := tx.Businesses().Update(ctx, child.ID(), child); err != nil {
			return nil, err
		}
		changed = append(changed, child.ID())
		below, err := s.cascade(ctx, tx, child, status)
		if err != nil {
			return nil, err
		}
		changed = append(changed, below...)
	}
	return changed, nil
}

func (s *Service) ChangeVerification(ctx context.Context, id string, action VerificationAction) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.ChangeVerification",
		attribute.String("business.id", id), attribute.String("verification.action", string(action)))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, id, func(_ datastore.DataStore, e *business.Entity) error {
		switch action {
		case VerificationSubmit:
			return e.SubmitForVerification()
		case VerificationVerify:
			return e.MarkAsVerified()
		case VerificationReject:
			return e.RejectVerification()
		case VerificationReset:
			return e.ResetVerification()
		default:
			return invalid("unknown verification action %q", string(action))
		}
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("verification changed", "business_id", id, "verification_status", e.VerificationStatus())
	return newBusinessView(e), nil
}

// CloseBusiness closes and soft-deletes a business, detaches it from its
// parent and cascades the closure to opted-in descendants.
func (s *Service) CloseBusiness(ctx context.Context, id string) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.CloseBusiness", attribute.String("business.id", id))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		e, err := loadBusiness(ctx, tx, id)
		if err != nil {
			return err
		}
		if e.IsDeleted() {
			view = newBusinessView(e)
			return nil
		}
		if _, err := s.cascade(ctx, tx, e, business.StatusClosed); err != nil {
			return err
		}
		e.Close()
		if _, err := tx.Businesses().Update(ctx, id, e); err != nil {
			return err
		}
		if parentID := e.ParentBusinessID(); parentID != "" {
			parent, err := tx.Businesses().FindByID(ctx, parentID)
			if err != nil {
				return err
			}
			if parent != nil {
				parent.RemoveChildBusiness(id)
				if _, err := tx.Businesses().Update(ctx, parentID, parent); err != nil {
					return err
				}
			}
		}
		view = newBusinessView(e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("business closed", "business_id", id)
	return view, nil
}

// CreateAPIKey issues a key. The returned key carries its secret value,
// which is not shown again.
func (s *Service) CreateAPIKey(ctx context.Context, businessID string, req business.APIKeyRequest) (key business.APIKey, err error) {
	ctx, span := s.start(ctx, "app.CreateAPIKey",
		attribute.String("business.id", businessID), attribute.String("apikey.environment", string(req.Environment)))
	defer func() { finish(span, err) }()

	_, err = s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		var err error
		key, err = e.CreateAPIKey(req)
		return err
	})
	if err != nil {
		return business.APIKey{}, err
	}
	s.log.Info("api key created", "business_id", businessID, "key_id", key.ID, "environment", key.Environment)
	return key, nil
}

func (s *Service) RevokeAPIKey(ctx context.Context, businessID, keyID string, env business.Environment) (err error) {
	ctx, span := s.start(ctx, "app.RevokeAPIKey", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	_, err = s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		ok, err := e.RevokeAPIKey(keyID, env)
		if err != nil {
			return err
		}
		if !ok {
			return notFound("api key", keyID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("api key revoked", "business_id", businessID, "key_id", keyID)
	return nil
}

// ValidateAPIKey reports whether value is an active, unexpired key of an
// active business.
func (s *Service) ValidateAPIKey(ctx context.Context, businessID, value string) (view *APIKeyView, ok bool, err error) {
	ctx, span := s.start(ctx, "app.ValidateAPIKey", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	e, err := loadLiveBusiness(ctx, s.ds, businessID)
	if err != nil {
		return nil, false, err
	}
	if !e.IsBusinessActive() {
		return nil, false, nil
	}
	key, ok := e.ValidateAPIKey(value)
	if !ok {
		return nil, false, nil
	}
	v := newAPIKeyView(key)
	return &v, true, nil
}

// TrackUsage counts API calls. Counters are stored even when the call
// pushes usage over a limit; the capacity error is returned afterwards.
func (s *Service) TrackUsage(ctx context.Context, businessID string, count int) (view *UsageView, err error) {
	ctx, span := s.start(ctx, "app.TrackUsage",
		attribute.String("business.id", businessID), attribute.Int("usage.count", count))
	defer func() { finish(span, err) }()

	var limitErr error
	e, err := s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		limitErr = e.TrackUsage(count)
		if limitErr != nil && business.KindOf(limitErr) != business.KindCapacity {
			return limitErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	view = newUsageView(e)
	if limitErr != nil {
		s.log.Warn("api usage limit exceeded", "business_id", businessID,
			"today", view.APICallsToday, "month", view.APICallsMonth)
		return view, limitErr
	}
	return view, nil
}

// ResetDailyUsage zeroes the daily counters of every live business and
// returns how many were reset.
func (s *Service) ResetDailyUsage(ctx context.Context) (n int, err error) {
	ctx, span := s.start(ctx, "app.ResetDailyUsage")
	defer func() {
		span.SetAttributes(attribute.Int("usage.reset", n))
		finish(span, err)
	}()

	entities, err := s.ds.Businesses().FindAll(ctx)
	if err != nil {
		return 0, err
	}
	for _, e := range entities {
		if _, err := s.mutateBusiness(ctx, e.ID(), func(_ datastore.DataStore, e *business.Entity) error {
			e.ResetDailyUsage()
			return nil
		}); err != nil {
			return n, err
		}
		n++
	}
	s.log.Info("daily usage reset", "businesses", n)
	return n, nil
}

func (s *Service) UpdateBillingTier(ctx context.Context, businessID string, tier business.Tier) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.UpdateBillingTier",
		attribute.String("business.id", businessID), attribute.String("billing.tier", string(tier)))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		return e.UpdateBillingTier(tier)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("billing tier updated", "business_id", businessID, "tier", tier)
	return newBusinessView(e), nil
}

func (s *Service) UpdateCompliance(ctx context.Context, businessID string, u business.ComplianceUpdate) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.UpdateCompliance", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		return e.UpdateCompliance(u)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("compliance updated", "business_id", businessID)
	return newBusinessView(e), nil
}

func (s *Service) EnableProductionEnvironment(ctx context.Context, businessID string) (view *BusinessView, err error) {
	ctx, span := s.start(ctx, "app.EnableProductionEnvironment", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	e, err := s.mutateBusiness(ctx, businessID, func(_ datastore.DataStore, e *business.Entity) error {
		return e.EnableProductionEnvironment()
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("production environment enabled", "business_id", businessID)
	return newBusinessView(e), nil
}
