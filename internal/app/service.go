// Package app holds the business use cases. Each method loads aggregates
// through the datastore, applies one domain operation and persists the
// result, inside a transaction when more than one aggregate changes.
package app

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"business-svc/internal/business"
	"business-svc/internal/datastore"
	"business-svc/internal/logger"
	"business-svc/internal/store"
)

const tracerName = "business-svc/internal/app"

// ErrNotFound matches every lookup miss reported by the service.
var ErrNotFound = business.ErrNotFound

// Service runs the business, member, invitation and role use cases.
type Service struct {
	ds            datastore.DataStore
	log           *logger.Logger
	clock         business.Clock
	invitationTTL int
	tracer        trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock sets the clock used for new aggregates and expiry math.
func WithClock(c business.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithInvitationTTL sets the default invitation lifetime in days.
func WithInvitationTTL(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.invitationTTL = days
		}
	}
}

// NewService builds a Service over ds.
func NewService(ds datastore.DataStore, opts ...Option) *Service {
	s := &Service{
		ds:            ds,
		log:           logger.Nop(),
		clock:         time.Now,
		invitationTTL: business.DefaultInvitationTTLDays,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) opts() []business.Option {
	return []business.Option{business.WithClock(s.clock)}
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if kind := business.KindOf(err); kind != "" {
			span.SetAttributes(attribute.String("error.kind", string(kind)))
		}
	}
	span.End()
}

func notFound(what, id string) error {
	return business.NotFoundError("%s %s not found", what, id)
}

func denied(format string, args ...any) error {
	return business.NewError(business.KindPermissionDenied, format, args...)
}

func invalid(format string, args ...any) error {
	return business.NewError(business.KindValidation, format, args...)
}

// duplicateAs turns a store uniqueness violation into a validation error.
func duplicateAs(err error, format string, args ...any) error {
	if errors.Is(err, store.ErrDuplicate) {
		return invalid(format, args...)
	}
	return err
}

func loadBusiness(ctx context.Context, ds datastore.DataStore, id string) (*business.Entity, error) {
	e, err := ds.Businesses().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, notFound("business", id)
	}
	return e, nil
}

// loadLiveBusiness rejects closed businesses.
func loadLiveBusiness(ctx context.Context, ds datastore.DataStore, id string) (*business.Entity, error) {
	e, err := loadBusiness(ctx, ds, id)
	if err != nil {
		return nil, err
	}
	if e.IsDeleted() {
		return nil, notFound("business", id)
	}
	return e, nil
}

func loadMember(ctx context.Context, ds datastore.DataStore, businessID, userID string) (*business.Member, error) {
	m, err := ds.Members().FindByBusinessAndUser(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, notFound("member", userID)
	}
	return m, nil
}

func loadRole(ctx context.Context, ds datastore.DataStore, id string) (*business.Role, error) {
	r, err := ds.Roles().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil || r.IsDeleted() {
		return nil, notFound("role", id)
	}
	return r, nil
}

// loadAssignableRole loads a role visible to businessID.
func loadAssignableRole(ctx context.Context, ds datastore.DataStore, businessID, roleID string) (*business.Role, error) {
	r, err := loadRole(ctx, ds, roleID)
	if err != nil {
		return nil, err
	}
	if !r.IsSystemRole() && r.BusinessID() != businessID {
		return nil, notFound("role", roleID)
	}
	return r, nil
}

func loadSystemRole(ctx context.Context, ds datastore.DataStore, name string) (*business.Role, error) {
	r, err := ds.Roles().FindByName(ctx, "", name)
	if err != nil {
		return nil, err
	}
	if r == nil {
		if _, err := ds.SeedSystemRoles(ctx); err != nil {
			return nil, err
		}
		if r, err = ds.Roles().FindByName(ctx, "", name); err != nil {
			return nil, err
		}
	}
	if r == nil {
		return nil, notFound("system role", name)
	}
	return r, nil
}

func loadInvitation(ctx context.Context, ds datastore.DataStore, id string) (*business.Invitation, error) {
	inv, err := ds.Invitations().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, notFound("invitation", id)
	}
	return inv, nil
}

// authorize loads the acting member of businessID and checks it is active
// and holds perm.
func authorize(ctx context.Context, ds datastore.DataStore, businessID, userID string, perm business.Permission) (*business.Member, error) {
	actor, err := ds.Members().FindByBusinessAndUser(ctx, businessID, userID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, denied("user %s is not a member of business %s", userID, businessID)
	}
	if !actor.IsActive() {
		return nil, denied("member %s is not active", userID)
	}
	if !actor.HasPermission(perm) {
		return nil, denied("member %s lacks %s", userID, perm)
	}
	return actor, nil
}
