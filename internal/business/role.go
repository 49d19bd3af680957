package business

import (
	"slices"
	"strings"
	"time"
)

// System role names.
const (
	RoleOwner   = "OWNER"
	RoleAdmin   = "ADMIN"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
	RoleViewer  = "VIEWER"
)

// Role is a named permission bundle with a hierarchy level; lower levels
// outrank higher ones.
type Role struct {
	base
	businessID     string
	name           string
	description    string
	permissions    []Permission
	isSystemRole   bool
	isCustomizable bool
	hierarchy      int
	metadata       map[string]any
}

// RoleProps is the full persisted state of a Role.
type RoleProps struct {
	ID             string
	BusinessID     string
	Name           string
	Description    string
	Permissions    []Permission
	IsSystemRole   bool
	IsCustomizable bool
	Hierarchy      int
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      *time.Time
}

type systemRoleDef struct {
	name        string
	description string
	permissions []Permission
	hierarchy   int
}

var systemRoleDefs = []systemRoleDef{
	{
		name:        RoleOwner,
		description: "Business Owner with full administrative privileges",
		permissions: []Permission{PermAdminFullAccess},
		hierarchy:   0,
	},
	{
		name:        RoleAdmin,
		description: "Administrator with comprehensive management capabilities",
		permissions: []Permission{
			PermBusinessRead, PermBusinessUpdate, PermBusinessSettings,
			PermMemberInvite, PermMemberManage, PermMemberRemove, PermMemberView,
			PermRoleCreate, PermRoleUpdate, PermRoleDelete, PermRoleAssign,
			PermFinancialRead, PermFinancialWrite,
			PermComplianceRead, PermComplianceManage,
			PermReportsView, PermReportsExport,
			PermAuditView, PermSettingsManage,
		},
		hierarchy: 1,
	},
	{
		name:        RoleManager,
		description: "Manager with operational oversight capabilities",
		permissions: []Permission{
			PermBusinessRead, PermMemberInvite, PermMemberView, PermRoleAssign,
			PermFinancialRead, PermFinancialWrite, PermComplianceRead,
			PermReportsView, PermReportsExport,
		},
		hierarchy: 2,
	},
	{
		name:        RoleMember,
		description: "Standard member with basic operational access",
		permissions: []Permission{PermBusinessRead, PermMemberView, PermFinancialRead, PermReportsView},
		hierarchy:   3,
	},
	{
		name:        RoleViewer,
		description: "Read-only access to business information",
		permissions: []Permission{PermBusinessRead, PermMemberView, PermReportsView},
		hierarchy:   4,
	},
}

func newSystemRole(def systemRoleDef, opts []Option) *Role {
	return &Role{
		base:         newBase(buildOptions(opts)),
		name:         def.name,
		description:  def.description,
		permissions:  slices.Clone(def.permissions),
		isSystemRole: true,
		hierarchy:    def.hierarchy,
		metadata:     map[string]any{"systemRole": true},
	}
}

func systemRole(name string, opts []Option) *Role {
	for _, def := range systemRoleDefs {
		if def.name == name {
			return newSystemRole(def, opts)
		}
	}
	return nil
}

// NewOwnerRole builds the OWNER system role.
func NewOwnerRole(opts ...Option) *Role { return systemRole(RoleOwner, opts) }

// NewAdminRole builds the ADMIN system role.
func NewAdminRole(opts ...Option) *Role { return systemRole(RoleAdmin, opts) }

// NewManagerRole builds the MANAGER system role.
func NewManagerRole(opts ...Option) *Role { return systemRole(RoleManager, opts) }

// NewMemberRole builds the MEMBER system role.
func NewMemberRole(opts ...Option) *Role { return systemRole(RoleMember, opts) }

// NewViewerRole builds the VIEWER system role.
func NewViewerRole(opts ...Option) *Role { return systemRole(RoleViewer, opts) }

// SystemRoles builds all five system roles, highest authority first.
func SystemRoles(opts ...Option) []*Role {
	roles := make([]*Role, 0, len(systemRoleDefs))
	for _, def := range systemRoleDefs {
		roles = append(roles, newSystemRole(def, opts))
	}
	return roles
}

// IsSystemRoleName reports whether name belongs to a system role.
func IsSystemRoleName(name string) bool {
	for _, def := range systemRoleDefs {
		if def.name == name {
			return true
		}
	}
	return false
}

// NewCustomRole creates a customizable role scoped to one business.
func NewCustomRole(businessID, name, description string, perms []Permission, hierarchy int, opts ...Option) (*Role, error) {
	r := &Role{
		base:           newBase(buildOptions(opts)),
		businessID:     businessID,
		name:           strings.TrimSpace(name),
		description:    description,
		permissions:    slices.Clone(perms),
		isCustomizable: true,
		hierarchy:      hierarchy,
		metadata:       map[string]any{},
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// RestoreRole rebuilds a Role from persisted state, re-checking invariants.
func RestoreRole(p RoleProps, opts ...Option) (*Role, error) {
	o := buildOptions(opts)
	r := &Role{
		base:           restoreBase(p.ID, p.CreatedAt, p.UpdatedAt, p.DeletedAt, o),
		businessID:     p.BusinessID,
		name:           p.Name,
		description:    p.Description,
		permissions:    slices.Clone(p.Permissions),
		isSystemRole:   p.IsSystemRole,
		isCustomizable: p.IsCustomizable,
		hierarchy:      p.Hierarchy,
		metadata:       normalizeMetadata(p.Metadata),
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Role) validate() error {
	if strings.TrimSpace(r.name) == "" {
		return validationError("role name is required")
	}
	if r.hierarchy < 0 {
		return validationError("role hierarchy must be non-negative")
	}
	if err := checkPermissionSet(r.permissions, "role"); err != nil {
		return err
	}
	if r.isSystemRole && r.businessID != "" {
		return validationError("system roles cannot be associated with a specific business")
	}
	if !r.isSystemRole && r.businessID == "" {
		return validationError("custom roles must be associated with a business")
	}
	if r.name == RoleOwner {
		if r.hierarchy != 0 {
			return validationError("owner role must have hierarchy level 0")
		}
		if !slices.Contains(r.permissions, PermAdminFullAccess) {
			return validationError("owner role must have full admin access")
		}
	}
	return nil
}

// Props returns a deep copy of the role state.
func (r *Role) Props() RoleProps {
	return RoleProps{
		ID:             r.id,
		BusinessID:     r.businessID,
		Name:           r.name,
		Description:    r.description,
		Permissions:    slices.Clone(r.permissions),
		IsSystemRole:   r.isSystemRole,
		IsCustomizable: r.isCustomizable,
		Hierarchy:      r.hierarchy,
		Metadata:       cloneMetadata(r.metadata),
		CreatedAt:      r.createdAt,
		UpdatedAt:      r.updatedAt,
		DeletedAt:      cloneTime(r.deletedAt),
	}
}

func (r *Role) BusinessID() string { return r.businessID }
func (r *Role) Name() string { return r.name }
func (r *Role) Description() string { return r.description }
func (r *Role) Permissions() []Permission { return slices.Clone(r.permissions) }
func (r *Role) IsSystemRole() bool { return r.isSystemRole }
func (r *Role) IsCustomizable() bool { return r.isCustomizable }
func (r *Role) Hierarchy() int { return r.hierarchy }
func (r *Role) Metadata() map[string]any { return cloneMetadata(r.metadata) }

func (r *Role) guardCustomizable() error {
	if !r.isCustomizable {
		return transitionError("role %s is not customizable", r.name)
	}
	return nil
}

// UpdateName renames a custom role.
func (r *Role) UpdateName(name string) error {
	if err := r.guardCustomizable(); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return validationError("role name is required")
	}
	if name == RoleOwner && (r.hierarchy != 0 || !slices.Contains(r.permissions, PermAdminFullAccess)) {
		return validationError("owner role must have hierarchy level 0 and full admin access")
	}
	r.name = name
	r.touch()
	return nil
}

// UpdateDescription changes a custom role's description.
func (r *Role) UpdateDescription(description string) error {
	if err := r.guardCustomizable(); err != nil {
		return err
	}
	r.description = description
	r.touch()
	return nil
}

// AddPermission grants p; granting an existing permission is a no-op.
func (r *Role) AddPermission(p Permission) error {
	if err := r.guardCustomizable(); err != nil {
		return err
	}
	if !p.Valid() {
		return validationError("unknown permission %q", string(p))
	}
	if slices.Contains(r.permissions, p) {
		return nil
	}
	r.permissions = append(r.permissions, p)
	r.touch()
	return nil
}

// RemovePermission revokes p. The last remaining permission cannot be removed.
func (r *Role) RemovePermission(p Permission) error {
	if err := r.guardCustomizable(); err != nil {
		return err
	}
	idx := slices.Index(r.permissions, p)
	if idx < 0 {
		return nil
	}
	if len(r.permissions) == 1 {
		return validationError("role must have at least one permission")
	}
	r.permissions = slices.Delete(slices.Clone(r.permissions), idx, idx+1)
	r.touch()
	return nil
}

// SetPermissions replaces the whole permission set.
func (r *Role) SetPermissions(perms []Permission) error {
	if err := r.guardCustomizable(); err != nil {
		return err
	}
	if err := checkPermissionSet(perms, "role"); err != nil {
		return err
	}
	if r.name == RoleOwner && !slices.Contains(perms, PermAdminFullAccess) {
		return validationError("owner role must have full admin access")
	}
	r.permissions = slices.Clone(perms)
	r.touch()
	return nil
}

// UpdateMetadata merges entries into the role metadata.
func (r *Role) UpdateMetadata(m map[string]any) {
	r.metadata = mergeMetadata(r.metadata, m)
	r.touch()
}

// HasPermission reports whether the role grants p, directly or through full
// admin access.
func (r *Role) HasPermission(p Permission) bool {
	return slices.Contains(r.permissions, PermAdminFullAccess) || slices.Contains(r.permissions, p)
}

func (r *Role) HasAllPermissions(perms []Permission) bool {
	return slices.Contains(r.permissions, PermAdminFullAccess) || hasAll(r.permissions, perms)
}

func (r *Role) HasAnyPermission(perms []Permission) bool {
	return slices.Contains(r.permissions, PermAdminFullAccess) || hasAny(r.permissions, perms)
}

// CanManageRole reports whether holders of r may assign other: r needs
// ROLE_ASSIGN and a rank at least as senior as other's.
func (r *Role) CanManageRole(other *Role) bool {
	return r.HasPermission(PermRoleAssign) && r.hierarchy <= other.hierarchy
}

// IsHigherThan reports whether r outranks other.
func (r *Role) IsHigherThan(other *Role) bool {
	return r.hierarchy < other.hierarchy
}

func (r *Role) IsOwnerRole() bool {
	return r.name == RoleOwner
}

func (r *Role) IsAdminRole() bool {
	return r.name == RoleAdmin || slices.Contains(r.permissions, PermAdminFullAccess)
}
