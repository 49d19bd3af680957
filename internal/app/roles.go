package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
)

// RoleInput describes a custom role.
type RoleInput struct {
	BusinessID  string
	Name        string
	Description string
	Permissions []business.Permission
	Hierarchy   int
}

// RoleUpdate is a partial change to a custom role; nil fields are kept.
type RoleUpdate struct {
	Name        *string
	Description *string
	Permissions []business.Permission
}

// SeedSystemRoles stores any missing system role and returns how many were
// created.
func (s *Service) SeedSystemRoles(ctx context.Context) (n int, err error) {
	ctx, span := s.start(ctx, "app.SeedSystemRoles")
	defer func() { finish(span, err) }()

	n, err = s.ds.SeedSystemRoles(ctx)
	if err != nil {
		return n, err
	}
	s.log.Info("system roles seeded", "created", n)
	return n, nil
}

// CreateCustomRole adds a role scoped to in.BusinessID. System role names
// are reserved and the OWNER rank is never available.
func (s *Service) CreateCustomRole(ctx context.Context, actorUserID string, in RoleInput) (view *RoleView, err error) {
	ctx, span := s.start(ctx, "app.CreateCustomRole",
		attribute.String("business.id", in.BusinessID), attribute.String("role.name", in.Name))
	defer func() { finish(span, err) }()

	if business.IsSystemRoleName(in.Name) {
		return nil, invalid("role name %s is reserved", in.Name)
	}
	if in.Hierarchy < 1 {
		return nil, invalid("custom role hierarchy must be at least 1")
	}
	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		if _, err := loadLiveBusiness(ctx, tx, in.BusinessID); err != nil {
			return err
		}
		if _, err := authorize(ctx, tx, in.BusinessID, actorUserID, business.PermRoleCreate); err != nil {
			return err
		}
		r, err := business.NewCustomRole(in.BusinessID, in.Name, in.Description, in.Permissions, in.Hierarchy, s.opts()...)
		if err != nil {
			return err
		}
		if _, err := tx.Roles().Create(ctx, r); err != nil {
			return duplicateAs(err, "role %s already exists in business %s", r.Name(), in.BusinessID)
		}
		view = newRoleView(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("custom role created", "business_id", in.BusinessID, "role_id", view.ID, "name", view.Name)
	return view, nil
}

// UpdateRole changes a custom role. System roles are not customizable.
func (s *Service) UpdateRole(ctx context.Context, actorUserID, roleID string, u RoleUpdate) (view *RoleView, err error) {
	ctx, span := s.start(ctx, "app.UpdateRole", attribute.String("role.id", roleID))
	defer func() { finish(span, err) }()

	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		r, err := loadRole(ctx, tx, roleID)
		if err != nil {
			return err
		}
		if r.IsSystemRole() {
			return business.NewError(business.KindInvalidTransition, "role %s is not customizable", r.Name())
		}
		if _, err := authorize(ctx, tx, r.BusinessID(), actorUserID, business.PermRoleUpdate); err != nil {
			return err
		}
		if u.Name != nil {
			if business.IsSystemRoleName(*u.Name) {
				return invalid("role name %s is reserved", *u.Name)
			}
			if err := r.UpdateName(*u.Name); err != nil {
				return err
			}
		}
		if u.Description != nil {
			if err := r.UpdateDescription(*u.Description); err != nil {
				return err
			}
		}
		if u.Permissions != nil {
			if err := r.SetPermissions(u.Permissions); err != nil {
				return err
			}
		}
		if _, err := tx.Roles().Update(ctx, r.ID(), r); err != nil {
			return duplicateAs(err, "role %s already exists in business %s", r.Name(), r.BusinessID())
		}
		view = newRoleView(r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("role updated", "business_id", view.BusinessID, "role_id", roleID)
	return view, nil
}

// DeleteRole removes a custom role that no member of its business holds.
func (s *Service) DeleteRole(ctx context.Context, actorUserID, roleID string) (err error) {
	ctx, span := s.start(ctx, "app.DeleteRole", attribute.String("role.id", roleID))
	defer func() { finish(span, err) }()

	var businessID string
	err = s.ds.WithinTx(ctx, func(tx datastore.DataStore) error {
		r, err := loadRole(ctx, tx, roleID)
		if err != nil {
			return err
		}
		if r.IsSystemRole() {
			return business.NewError(business.KindInvalidTransition, "system role %s cannot be deleted", r.Name())
		}
		businessID = r.BusinessID()
		if _, err := authorize(ctx, tx, businessID, actorUserID, business.PermRoleDelete); err != nil {
			return err
		}
		members, err := tx.Members().FindByBusiness(ctx, businessID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.RoleID() == roleID {
				return business.NewError(business.KindInvalidTransition, "role %s is assigned to member %s", r.Name(), m.UserID())
			}
		}
		return tx.Roles().Delete(ctx, roleID)
	})
	if err != nil {
		return err
	}
	s.log.Info("role deleted", "business_id", businessID, "role_id", roleID)
	return nil
}

// ListRoles returns the system roles plus the custom roles of businessID,
// most senior first. An empty businessID lists system roles only.
func (s *Service) ListRoles(ctx context.Context, businessID string) (views []*RoleView, err error) {
	ctx, span := s.start(ctx, "app.ListRoles", attribute.String("business.id", businessID))
	defer func() { finish(span, err) }()

	roles, err := s.ds.Roles().FindByBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	views = make([]*RoleView, len(roles))
	for i, r := range roles {
		views[i] = newRoleView(r)
	}
	return views, nil
}

func (s *Service) GetRole(ctx context.Context, id string) (view *RoleView, err error) {
	ctx, span := s.start(ctx, "app.GetRole", attribute.String("role.id", id))
	defer func() { finish(span, err) }()

	r, err := loadRole(ctx, s.ds, id)
	if err != nil {
		return nil, err
	}
	return newRoleView(r), nil
}
