package business

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InvitationStatus is the status of an invitation.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "PENDING"
	InvitationAccepted  InvitationStatus = "ACCEPTED"
	InvitationRejected  InvitationStatus = "REJECTED"
	InvitationExpired   InvitationStatus = "EXPIRED"
	InvitationCancelled InvitationStatus = "CANCELLED"
)

func (s InvitationStatus) Valid() bool {
	switch s {
	case InvitationPending, InvitationAccepted, InvitationRejected, InvitationExpired, InvitationCancelled:
		return true
	}
	return false
}

// InvitationType records how an invitation was issued.
type InvitationType string

const (
	InvitationEmail  InvitationType = "EMAIL"
	InvitationDirect InvitationType = "DIRECT"
	InvitationBulk   InvitationType = "BULK"
)

func (t InvitationType) Valid() bool {
	return t == InvitationEmail || t == InvitationDirect || t == InvitationBulk
}

// DeliveryStatus is the outcome of one notification attempt.
type DeliveryStatus string

const (
	DeliverySent      DeliveryStatus = "SENT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "FAILED"

	// DeliveryNone is reported when nothing was sent yet.
	DeliveryNone DeliveryStatus = "NONE"
)

// ExpirationStatus classifies time left on an invitation.
type ExpirationStatus string

const (
	ExpirationValid        ExpirationStatus = "VALID"
	ExpirationExpiringSoon ExpirationStatus = "EXPIRING_SOON"
	ExpirationExpired      ExpirationStatus = "EXPIRED"
)

const (
	MaxResends               = 5
	ResendInterval           = time.Minute
	MaxNotifications         = 50
	DefaultInvitationTTLDays = 7
	expiringSoonWindow       = 24 * time.Hour
)

// Notification is one delivery attempt for an invitation.
type Notification struct {
	Type           string         `json:"type"`
	SentAt         time.Time      `json:"sentAt"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
}

// Invitation is a pending offer for an email address to join a business.
type Invitation struct {
	base
	businessID     string
	email          string
	roleID         string
	status         InvitationStatus
	invitedBy      string
	message        string
	token          string
	expiresAt      time.Time
	acceptedAt     *time.Time
	rejectedAt     *time.Time
	cancelledAt    *time.Time
	acceptedBy     string
	invitationType InvitationType
	permissions    []Permission
	metadata       map[string]any
	notifications  boundedLog[Notification]
	resendCount    int
	lastResendAt   *time.Time
}

// InvitationProps is the full persisted state of an Invitation.
type InvitationProps struct {
	ID            string
	BusinessID    string
	Email         string
	RoleID        string
	Status        InvitationStatus
	InvitedBy     string
	Message       string
	Token         string
	ExpiresAt     time.Time
	AcceptedAt    *time.Time
	RejectedAt    *time.Time
	CancelledAt   *time.Time
	AcceptedBy    string
	Type          InvitationType
	Permissions   []Permission
	Metadata      map[string]any
	Notifications []Notification
	ResendCount   int
	LastResendAt  *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     *time.Time
}

// InvitationInput carries the caller-supplied fields of a new invitation.
// ExpirationDays defaults to DefaultInvitationTTLDays and Type to EMAIL.
type InvitationInput struct {
	BusinessID     string
	Email          string
	RoleID         string
	InvitedBy      string
	Permissions    []Permission
	Message        string
	ExpirationDays int
	Type           InvitationType
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewInvitation creates a PENDING invitation with a fresh token.
func NewInvitation(in InvitationInput, opts ...Option) (*Invitation, error) {
	days := in.ExpirationDays
	if days == 0 {
		days = DefaultInvitationTTLDays
	}
	if days < 0 {
		return nil, validationError("expiration days must be positive")
	}
	kind := in.Type
	if kind == "" {
		kind = InvitationEmail
	}
	b := newBase(buildOptions(opts))
	inv := &Invitation{
		base:           b,
		businessID:     in.BusinessID,
		email:          NormalizeEmail(in.Email),
		roleID:         in.RoleID,
		status:         InvitationPending,
		invitedBy:      in.InvitedBy,
		message:        in.Message,
		token:          newInvitationToken(b.createdAt),
		expiresAt:      b.createdAt.AddDate(0, 0, days),
		invitationType: kind,
		permissions:    slices.Clone(in.Permissions),
		metadata:       map[string]any{"createdVia": string(kind)},
		notifications:  newBoundedLog[Notification](MaxNotifications, nil),
	}
	if err := inv.validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// NewBulkInvitation creates a BULK invitation tagged with batchID.
func NewBulkInvitation(in InvitationInput, batchID string, opts ...Option) (*Invitation, error) {
	if strings.TrimSpace(batchID) == "" {
		return nil, validationError("batch ID is required")
	}
	in.Type = InvitationBulk
	inv, err := NewInvitation(in, opts...)
	if err != nil {
		return nil, err
	}
	inv.metadata["batchId"] = batchID
	inv.metadata["bulkInvitation"] = true
	return inv, nil
}

func newInvitationToken(now time.Time) string {
	return uuid.NewString() + "-" + strconv.FormatInt(now.UnixMilli(), 36)
}

// RestoreInvitation rebuilds an Invitation from persisted state, re-checking
// invariants.
func RestoreInvitation(p InvitationProps, opts ...Option) (*Invitation, error) {
	o := buildOptions(opts)
	inv := &Invitation{
		base:           restoreBase(p.ID, p.CreatedAt, p.UpdatedAt, p.DeletedAt, o),
		businessID:     p.BusinessID,
		email:          NormalizeEmail(p.Email),
		roleID:         p.RoleID,
		status:         p.Status,
		invitedBy:      p.InvitedBy,
		message:        p.Message,
		token:          p.Token,
		expiresAt:      p.ExpiresAt,
		acceptedAt:     cloneTime(p.AcceptedAt),
		rejectedAt:     cloneTime(p.RejectedAt),
		cancelledAt:    cloneTime(p.CancelledAt),
		acceptedBy:     p.AcceptedBy,
		invitationType: p.Type,
		permissions:    slices.Clone(p.Permissions),
		metadata:       normalizeMetadata(p.Metadata),
		notifications:  newBoundedLog(MaxNotifications, p.Notifications),
		resendCount:    p.ResendCount,
		lastResendAt:   cloneTime(p.LastResendAt),
	}
	if err := inv.validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

func (i *Invitation) validate() error {
	if strings.TrimSpace(i.businessID) == "" {
		return validationError("business ID is required")
	}
	if i.email == "" {
		return validationError("email is required")
	}
	if !ValidEmail(i.email) {
		return validationError("valid email address is required")
	}
	if strings.TrimSpace(i.roleID) == "" {
		return validationError("role ID is required")
	}
	if strings.TrimSpace(i.invitedBy) == "" {
		return validationError("invited by is required")
	}
	if strings.TrimSpace(i.token) == "" {
		return validationError("invitation token is required")
	}
	if !i.status.Valid() {
		return validationError("invalid invitation status %q", string(i.status))
	}
	if !i.invitationType.Valid() {
		return validationError("invalid invitation type %q", string(i.invitationType))
	}
	if !i.expiresAt.After(i.createdAt) {
		return validationError("expiration date must be after creation date")
	}
	if err := checkPermissionSet(i.permissions, "invitation"); err != nil {
		return err
	}
	if i.resendCount < 0 || i.resendCount > MaxResends {
		return validationError("resend count must be between 0 and %d", MaxResends)
	}
	for _, ts := range []*time.Time{i.acceptedAt, i.rejectedAt, i.cancelledAt} {
		if ts != nil && !ts.After(i.createdAt) {
			return validationError("invitation timestamps must be after creation date")
		}
	}
	return nil
}

// Props returns a deep copy of the invitation state.
func (i *Invitation) Props() InvitationProps {
	return InvitationProps{
		ID:            i.id,
		BusinessID:    i.businessID,
		Email:         i.email,
		RoleID:        i.roleID,
		Status:        i.status,
		InvitedBy:     i.invitedBy,
		Message:       i.message,
		Token:         i.token,
		ExpiresAt:     i.expiresAt,
		AcceptedAt:    cloneTime(i.acceptedAt),
		RejectedAt:    cloneTime(i.rejectedAt),
		CancelledAt:   cloneTime(i.cancelledAt),
		AcceptedBy:    i.acceptedBy,
		Type:          i.invitationType,
		Permissions:   slices.Clone(i.permissions),
		Metadata:      cloneMetadata(i.metadata),
		Notifications: i.notifications.snapshot(),
		ResendCount:   i.resendCount,
		LastResendAt:  cloneTime(i.lastResendAt),
		CreatedAt:     i.createdAt,
		UpdatedAt:     i.updatedAt,
		DeletedAt:     cloneTime(i.deletedAt),
	}
}

func (i *Invitation) BusinessID() string { return i.businessID }
func (i *Invitation) Email() string { return i.email }
func (i *Invitation) RoleID() string { return i.roleID }
func (i *Invitation) Status() InvitationStatus { return i.status }
func (i *Invitation) InvitedBy() string { return i.invitedBy }
func (i *Invitation) Message() string { return i.message }
func (i *Invitation) Token() string { return i.token }
func (i *Invitation) ExpiresAt() time.Time { return i.expiresAt }
func (i *Invitation) AcceptedAt() *time.Time { return cloneTime(i.acceptedAt) }
func (i *Invitation) RejectedAt() *time.Time { return cloneTime(i.rejectedAt) }
func (i *Invitation) CancelledAt() *time.Time { return cloneTime(i.cancelledAt) }
func (i *Invitation) AcceptedBy() string { return i.acceptedBy }
func (i *Invitation) Type() InvitationType { return i.invitationType }
func (i *Invitation) Permissions() []Permission { return slices.Clone(i.permissions) }
func (i *Invitation) Metadata() map[string]any { return cloneMetadata(i.metadata) }
func (i *Invitation) Notifications() []Notification { return i.notifications.snapshot() }
func (i *Invitation) ResendCount() int { return i.resendCount }
func (i *Invitation) LastResendAt() *time.Time { return cloneTime(i.lastResendAt) }
func (i *Invitation) IsPending() bool { return i.status == InvitationPending }

// BatchID returns the bulk batch id, or "" for single invitations.
func (i *Invitation) BatchID() string {
	id, _ := i.metadata["batchId"].(string)
	return id
}

func (i *Invitation) requirePending(msg string) error {
	if i.status != InvitationPending {
		return transitionError("%s", msg)
	}
	return nil
}

// UpdateRole swaps the offered role and permissions.
func (i *Invitation) UpdateRole(roleID string, perms []Permission) error {
	if err := i.requirePending("can only update role for pending invitations"); err != nil {
		return err
	}
	if strings.TrimSpace(roleID) == "" {
		return validationError("role ID is required")
	}
	if err := checkPermissionSet(perms, "invitation"); err != nil {
		return err
	}
	i.roleID = roleID
	i.permissions = slices.Clone(perms)
	i.touch()
	return nil
}

func (i *Invitation) UpdateMessage(message string) error {
	if err := i.requirePending("can only update message for pending invitations"); err != nil {
		return err
	}
	i.message = message
	i.touch()
	return nil
}

// ExtendExpiration moves expiry to a later future instant.
func (i *Invitation) ExtendExpiration(newExpiry time.Time) error {
	if err := i.requirePending("can only extend expiration for pending invitations"); err != nil {
		return err
	}
	if !newExpiry.After(i.now()) {
		return validationError("new expiration date must be in the future")
	}
	if !newExpiry.After(i.expiresAt) {
		return validationError("new expiration date must be later than current expiration")
	}
	i.expiresAt = newExpiry
	i.touch()
	return nil
}

// settledAt returns the instant for a terminal transition, which must come
// strictly after creation.
func (i *Invitation) settledAt() (time.Time, error) {
	now := i.now()
	if !now.After(i.createdAt) {
		return time.Time{}, transitionError("invitation cannot be settled at its creation instant")
	}
	return now, nil
}

// Accept marks a pending, unexpired invitation ACCEPTED. acceptedBy may be
// empty.
func (i *Invitation) Accept(acceptedBy string) error {
	if err := i.requirePending("only pending invitations can be accepted"); err != nil {
		return err
	}
	if i.IsExpired() {
		return transitionError("cannot accept expired invitation")
	}
	now, err := i.settledAt()
	if err != nil {
		return err
	}
	i.status = InvitationAccepted
	i.acceptedAt = &now
	i.acceptedBy = acceptedBy
	i.touch()
	return nil
}

func (i *Invitation) Reject() error {
	if err := i.requirePending("only pending invitations can be rejected"); err != nil {
		return err
	}
	now, err := i.settledAt()
	if err != nil {
		return err
	}
	i.status = InvitationRejected
	i.rejectedAt = &now
	i.touch()
	return nil
}

func (i *Invitation) Cancel() error {
	if err := i.requirePending("only pending invitations can be cancelled"); err != nil {
		return err
	}
	now, err := i.settledAt()
	if err != nil {
		return err
	}
	i.status = InvitationCancelled
	i.cancelledAt = &now
	i.touch()
	return nil
}

// Resend counts another delivery. At most MaxResends are allowed, at least
// ResendInterval apart. A non-nil newExpiry must lie in the future and
// replaces the expiry.
func (i *Invitation) Resend(newExpiry *time.Time) error {
	if err := i.requirePending("can only resend pending invitations"); err != nil {
		return err
	}
	if i.resendCount >= MaxResends {
		return capacityError("maximum resend limit (%d) reached", MaxResends)
	}
	now := i.now()
	if i.lastResendAt != nil && now.Sub(*i.lastResendAt) < ResendInterval {
		return rateLimitError("must wait at least 1 minute between resends")
	}
	if newExpiry != nil && !newExpiry.After(now) {
		return validationError("new expiration date must be in the future")
	}
	i.resendCount++
	i.lastResendAt = &now
	if newExpiry != nil {
		i.expiresAt = *newExpiry
	}
	i.touch()
	return nil
}

// MarkAsExpired moves a pending invitation past its expiry to EXPIRED and
// reports whether it did.
func (i *Invitation) MarkAsExpired() bool {
	if i.status != InvitationPending || !i.IsExpired() {
		return false
	}
	i.status = InvitationExpired
	i.touch()
	return true
}

// AddNotification logs a delivery attempt, keeping the newest
// MaxNotifications entries.
func (i *Invitation) AddNotification(n Notification) {
	if n.SentAt.IsZero() {
		n.SentAt = i.now()
	}
	if n.DeliveryStatus == "" {
		n.DeliveryStatus = DeliverySent
	}
	i.notifications.add(n)
	i.touch()
}

// UpdateMetadata merges entries into the invitation metadata.
func (i *Invitation) UpdateMetadata(m map[string]any) {
	i.metadata = mergeMetadata(i.metadata, m)
	i.touch()
}

func (i *Invitation) IsExpired() bool {
	return i.now().After(i.expiresAt)
}

func (i *Invitation) CanBeResent() bool {
	return i.status == InvitationPending && i.resendCount < MaxResends && !i.IsExpired()
}

func (i *Invitation) ExpirationStatus() ExpirationStatus {
	now := i.now()
	if now.After(i.expiresAt) {
		return ExpirationExpired
	}
	if i.expiresAt.Sub(now) <= expiringSoonWindow {
		return ExpirationExpiringSoon
	}
	return ExpirationValid
}

// DaysUntilExpiration rounds the remaining time up to whole days; 0 once
// expired.
func (i *Invitation) DaysUntilExpiration() int {
	remaining := i.expiresAt.Sub(i.now())
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}

func (i *Invitation) LastNotificationStatus() DeliveryStatus {
	n, ok := i.notifications.last()
	if !ok {
		return DeliveryNone
	}
	return n.DeliveryStatus
}
