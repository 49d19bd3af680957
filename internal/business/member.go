package business

import (
	"math"
	"slices"
	"sort"
	"strings"
	"time"
)

// MemberStatus is the status of a membership.
type MemberStatus string

const (
	MemberActive    MemberStatus = "ACTIVE"
	MemberInactive  MemberStatus = "INACTIVE"
	MemberSuspended MemberStatus = "SUSPENDED"
	MemberPending   MemberStatus = "PENDING"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberActive, MemberInactive, MemberSuspended, MemberPending:
		return true
	}
	return false
}

// Member activity actions.
const (
	ActivityBusinessCreated      = "BUSINESS_CREATED"
	ActivityInvitationCreated    = "INVITATION_CREATED"
	ActivityRoleChanged          = "ROLE_CHANGED"
	ActivityPermissionsUpdated   = "PERMISSIONS_UPDATED"
	ActivityMemberActivated      = "MEMBER_ACTIVATED"
	ActivityMemberDeactivated    = "MEMBER_DEACTIVATED"
	ActivityMemberSuspended      = "MEMBER_SUSPENDED"
	ActivityMemberUnsuspended    = "MEMBER_UNSUSPENDED"
	ActivityInvitationAccepted   = "INVITATION_ACCEPTED"
	ActivityOwnershipTransferred = "OWNERSHIP_TRANSFERRED"
	ActivityOwnershipReceived    = "OWNERSHIP_RECEIVED"
	ActivityMetadataUpdated      = "METADATA_UPDATED"
)

// MaxActivityHistory caps the per-member activity log.
const MaxActivityHistory = 1000

// Activity is one entry in a member's activity log.
type Activity struct {
	Action    string            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

func (a Activity) clone() Activity {
	if a.Details != nil {
		d := make(map[string]string, len(a.Details))
		for k, v := range a.Details {
			d[k] = v
		}
		a.Details = d
	}
	return a
}

// Member is a user's membership in a business.
type Member struct {
	base
	businessID     string
	userID         string
	roleID         string
	status         MemberStatus
	joinedAt       time.Time
	invitedBy      string
	permissions    []Permission
	isOwner        bool
	metadata       map[string]any
	lastActivityAt *time.Time
	history        boundedLog[Activity]
}

// MemberProps is the full persisted state of a Member.
type MemberProps struct {
	ID              string
	BusinessID      string
	UserID          string
	RoleID          string
	Status          MemberStatus
	JoinedAt        time.Time
	InvitedBy       string
	Permissions     []Permission
	IsOwner         bool
	Metadata        map[string]any
	LastActivityAt  *time.Time
	ActivityHistory []Activity
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// NewOwner creates the ACTIVE founding owner of a business.
func NewOwner(businessID, userID, ownerRoleID string, opts ...Option) (*Member, error) {
	b := newBase(buildOptions(opts))
	m := &Member{
		base:        b,
		businessID:  businessID,
		userID:      userID,
		roleID:      ownerRoleID,
		status:      MemberActive,
		joinedAt:    b.createdAt,
		permissions: []Permission{PermAdminFullAccess},
		isOwner:     true,
		metadata:    map[string]any{"isFounder": true},
		history:     newBoundedLog[Activity](MaxActivityHistory, nil),
	}
	m.record(ActivityBusinessCreated, map[string]string{"role": RoleOwner})
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMemberFromInvitation creates a PENDING member carrying the invited
// permissions. The member still has to AcceptInvitation.
func NewMemberFromInvitation(businessID, userID, roleID string, perms []Permission, invitedBy string, opts ...Option) (*Member, error) {
	b := newBase(buildOptions(opts))
	m := &Member{
		base:        b,
		businessID:  businessID,
		userID:      userID,
		roleID:      roleID,
		status:      MemberPending,
		joinedAt:    b.createdAt,
		invitedBy:   invitedBy,
		permissions: slices.Clone(perms),
		metadata:    map[string]any{"source": "invitation"},
		history:     newBoundedLog[Activity](MaxActivityHistory, nil),
	}
	m.record(ActivityInvitationCreated, map[string]string{"invitedBy": invitedBy})
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// RestoreMember rebuilds a Member from persisted state, re-checking
// invariants.
func RestoreMember(p MemberProps, opts ...Option) (*Member, error) {
	o := buildOptions(opts)
	seed := make([]Activity, len(p.ActivityHistory))
	for i, a := range p.ActivityHistory {
		seed[i] = a.clone()
	}
	m := &Member{
		base:           restoreBase(p.ID, p.CreatedAt, p.UpdatedAt, p.DeletedAt, o),
		businessID:     p.BusinessID,
		userID:         p.UserID,
		roleID:         p.RoleID,
		status:         p.Status,
		joinedAt:       p.JoinedAt,
		invitedBy:      p.InvitedBy,
		permissions:    slices.Clone(p.Permissions),
		isOwner:        p.IsOwner,
		metadata:       normalizeMetadata(p.Metadata),
		lastActivityAt: cloneTime(p.LastActivityAt),
		history:        newBoundedLog(MaxActivityHistory, seed),
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Member) validate() error {
	if strings.TrimSpace(m.businessID) == "" {
		return validationError("business ID is required")
	}
	if strings.TrimSpace(m.userID) == "" {
		return validationError("user ID is required")
	}
	if strings.TrimSpace(m.roleID) == "" {
		return validationError("role ID is required")
	}
	if !m.status.Valid() {
		return validationError("invalid member status %q", string(m.status))
	}
	if m.joinedAt.After(m.now()) {
		return validationError("join date cannot be in the future")
	}
	if err := checkPermissionSet(m.permissions, "member"); err != nil {
		return err
	}
	if m.isOwner && m.status != MemberActive {
		return validationError("business owner must have ACTIVE status")
	}
	return nil
}

func (m *Member) record(action string, details map[string]string) {
	now := m.now()
	m.history.add(Activity{Action: action, Timestamp: now, Details: details})
	m.lastActivityAt = &now
}

// Props returns a deep copy of the member state.
func (m *Member) Props() MemberProps {
	return MemberProps{
		ID:              m.id,
		BusinessID:      m.businessID,
		UserID:          m.userID,
		RoleID:          m.roleID,
		Status:          m.status,
		JoinedAt:        m.joinedAt,
		InvitedBy:       m.invitedBy,
		Permissions:     slices.Clone(m.permissions),
		IsOwner:         m.isOwner,
		Metadata:        cloneMetadata(m.metadata),
		LastActivityAt:  cloneTime(m.lastActivityAt),
		ActivityHistory: m.ActivityHistory(),
		CreatedAt:       m.createdAt,
		UpdatedAt:       m.updatedAt,
		DeletedAt:       cloneTime(m.deletedAt),
	}
}

func (m *Member) BusinessID() string { return m.businessID }
func (m *Member) UserID() string { return m.userID }
func (m *Member) RoleID() string { return m.roleID }
func (m *Member) Status() MemberStatus { return m.status }
func (m *Member) JoinedAt() time.Time { return m.joinedAt }
func (m *Member) InvitedBy() string { return m.invitedBy }
func (m *Member) Permissions() []Permission { return slices.Clone(m.permissions) }
func (m *Member) IsOwner() bool { return m.isOwner }
func (m *Member) Metadata() map[string]any { return cloneMetadata(m.metadata) }
func (m *Member) LastActivityAt() *time.Time { return cloneTime(m.lastActivityAt) }
func (m *Member) IsActive() bool { return m.status == MemberActive }
func (m *Member) IsPending() bool { return m.status == MemberPending }
func (m *Member) IsSuspended() bool { return m.status == MemberSuspended }

// ActivityHistory returns the activity log, oldest first.
func (m *Member) ActivityHistory() []Activity {
	entries := m.history.snapshot()
	for i := range entries {
		entries[i] = entries[i].clone()
	}
	return entries
}

// ChangeRole assigns a new role and its permission set.
func (m *Member) ChangeRole(roleID string, perms []Permission) error {
	if m.isOwner {
		return deniedError("owner role cannot be changed")
	}
	if strings.TrimSpace(roleID) == "" {
		return validationError("role ID is required")
	}
	if err := checkPermissionSet(perms, "member"); err != nil {
		return err
	}
	old := m.roleID
	m.roleID = roleID
	m.permissions = slices.Clone(perms)
	m.record(ActivityRoleChanged, map[string]string{
		"oldRoleId":   old,
		"newRoleId":   roleID,
		"permissions": strings.Join(PermissionStrings(perms), ","),
	})
	m.touch()
	return nil
}

// UpdatePermissions replaces the member's direct permission set.
func (m *Member) UpdatePermissions(perms []Permission) error {
	if m.isOwner {
		return deniedError("owner permissions cannot be modified")
	}
	if err := checkPermissionSet(perms, "member"); err != nil {
		return err
	}
	old := m.permissions
	m.permissions = slices.Clone(perms)
	m.record(ActivityPermissionsUpdated, map[string]string{
		"oldPermissions": strings.Join(PermissionStrings(old), ","),
		"newPermissions": strings.Join(PermissionStrings(perms), ","),
	})
	m.touch()
	return nil
}

// Activate returns an INACTIVE or SUSPENDED member to ACTIVE. Activating an
// active member is a no-op; pending members must accept their invitation.
func (m *Member) Activate() error {
	switch m.status {
	case MemberActive:
		return nil
	case MemberPending:
		return transitionError("pending members must be accepted first")
	}
	m.status = MemberActive
	m.record(ActivityMemberActivated, nil)
	m.touch()
	return nil
}

// Deactivate marks a non-owner member INACTIVE.
func (m *Member) Deactivate() error {
	if m.isOwner {
		return transitionError("business owner cannot be deactivated")
	}
	if m.status == MemberInactive {
		return nil
	}
	m.status = MemberInactive
	m.record(ActivityMemberDeactivated, nil)
	m.touch()
	return nil
}

// Suspend marks a non-owner member SUSPENDED.
func (m *Member) Suspend(reason string) error {
	if m.isOwner {
		return transitionError("business owner cannot be suspended")
	}
	if m.status == MemberSuspended {
		return nil
	}
	m.status = MemberSuspended
	var details map[string]string
	if reason != "" {
		details = map[string]string{"reason": reason}
	}
	m.record(ActivityMemberSuspended, details)
	m.touch()
	return nil
}

func (m *Member) Unsuspend() error {
	if m.status != MemberSuspended {
		return transitionError("only suspended members can be unsuspended")
	}
	m.status = MemberActive
	m.record(ActivityMemberUnsuspended, nil)
	m.touch()
	return nil
}

// AcceptInvitation activates a pending member. The join date stays the one
// set when the member was created.
func (m *Member) AcceptInvitation() error {
	if m.status != MemberPending {
		return transitionError("only pending members can accept invitation")
	}
	m.status = MemberActive
	m.record(ActivityInvitationAccepted, nil)
	m.touch()
	return nil
}

// TransferOwnership clears the owner flag on this member. It does not touch
// the recipient: the caller must call ReceiveOwnership on the new owner and
// persist both members together.
func (m *Member) TransferOwnership(newOwnerUserID string) error {
	if !m.isOwner {
		return deniedError("only the current owner can transfer ownership")
	}
	if m.userID == newOwnerUserID {
		return validationError("cannot transfer ownership to the same user")
	}
	m.isOwner = false
	m.record(ActivityOwnershipTransferred, map[string]string{
		"newOwnerId":    newOwnerUserID,
		"previousOwner": m.userID,
	})
	m.touch()
	return nil
}

// ReceiveOwnership makes this member the owner and forces it ACTIVE. It is
// the second half of TransferOwnership.
func (m *Member) ReceiveOwnership(fromUserID string) error {
	if m.isOwner {
		return transitionError("user is already an owner")
	}
	m.isOwner = true
	m.status = MemberActive
	m.record(ActivityOwnershipReceived, map[string]string{
		"fromUserId": fromUserID,
		"newOwner":   m.userID,
	})
	m.touch()
	return nil
}

// HasPermission reports whether the member holds p. Owners and full-access
// holders hold everything.
func (m *Member) HasPermission(p Permission) bool {
	return m.fullAccess() || slices.Contains(m.permissions, p)
}

func (m *Member) HasAllPermissions(perms []Permission) bool {
	return m.fullAccess() || hasAll(m.permissions, perms)
}

func (m *Member) HasAnyPermission(perms []Permission) bool {
	return m.fullAccess() || hasAny(m.permissions, perms)
}

func (m *Member) fullAccess() bool {
	return m.isOwner || slices.Contains(m.permissions, PermAdminFullAccess)
}

// CanManageMember reports whether m may change target's role or status.
func (m *Member) CanManageMember(target *Member) bool {
	if m.isOwner {
		return !target.isOwner || target.id == m.id
	}
	if target.isOwner || target.userID == m.userID {
		return false
	}
	return m.HasPermission(PermMemberManage)
}

// CanRemoveMember reports whether m may remove target from the business.
func (m *Member) CanRemoveMember(target *Member) bool {
	if m.isOwner {
		return !target.isOwner
	}
	if target.isOwner || target.userID == m.userID {
		return false
	}
	return m.HasPermission(PermMemberRemove)
}

// UpdateMetadata merges entries into the member metadata.
func (m *Member) UpdateMetadata(md map[string]any) {
	m.metadata = mergeMetadata(m.metadata, md)
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m.record(ActivityMetadataUpdated, map[string]string{"keys": strings.Join(keys, ",")})
	m.touch()
}

// RecordActivity appends a caller-defined activity.
func (m *Member) RecordActivity(action string, details map[string]string) error {
	if strings.TrimSpace(action) == "" {
		return validationError("activity action is required")
	}
	d := Activity{Details: details}.clone().Details
	m.record(action, d)
	m.touch()
	return nil
}

// RecentActivity returns activities from the last days days, newest first.
func (m *Member) RecentActivity(days int) []Activity {
	cutoff := m.now().AddDate(0, 0, -days)
	var out []Activity
	for _, a := range m.history.snapshot() {
		if !a.Timestamp.Before(cutoff) {
			out = append(out, a.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out
}

// DaysSinceLastActivity returns whole days, rounded up, since the last
// activity. ok is false when the member never had any.
func (m *Member) DaysSinceLastActivity() (days int, ok bool) {
	if m.lastActivityAt == nil {
		return 0, false
	}
	elapsed := m.now().Sub(*m.lastActivityAt)
	return int(math.Ceil(elapsed.Hours() / 24)), true
}
