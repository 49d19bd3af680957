package business

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies wall-clock time to aggregates.
type Clock func() time.Time

// Option configures aggregate construction and restoration.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock overrides the wall clock used for timestamps, expiry and
// throttling decisions.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base carries identity and audit timestamps shared by every aggregate.
type base struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
	clock     Clock
}

func newBase(o options) base {
	now := o.clock()
	return base{
		id:        uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		clock:     o.clock,
	}
}

func restoreBase(id string, createdAt, updatedAt time.Time, deletedAt *time.Time, o options) base {
	if id == "" {
		id = uuid.NewString()
	}
	return base{
		id:        id,
		createdAt: createdAt,
		updatedAt: updatedAt,
		deletedAt: cloneTime(deletedAt),
		clock:     o.clock,
	}
}

func (b *base) now() time.Time {
	return b.clock()
}

func (b *base) touch() {
	b.updatedAt = b.clock()
}

func (b *base) markDeleted() {
	now := b.clock()
	b.deletedAt = &now
	b.updatedAt = now
}

// ID returns the aggregate identifier.
func (b *base) ID() string { return b.id }

// CreatedAt returns the creation timestamp.
func (b *base) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last mutation timestamp.
func (b *base) UpdatedAt() time.Time { return b.updatedAt }

// DeletedAt returns the soft-delete timestamp, nil while live.
func (b *base) DeletedAt() *time.Time { return cloneTime(b.deletedAt) }

// IsDeleted reports whether the aggregate has been soft-deleted.
func (b *base) IsDeleted() bool { return b.deletedAt != nil }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeMetadata(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = normalizeValue(v)
	}
	return dst
}
