package business

import (
	"slices"
	"strings"
)

// Permission is a named capability granted through roles and member grants.
type Permission string

const (
	PermBusinessRead     Permission = "BUSINESS_READ"
	PermBusinessUpdate   Permission = "BUSINESS_UPDATE"
	PermBusinessDelete   Permission = "BUSINESS_DELETE"
	PermBusinessSettings Permission = "BUSINESS_SETTINGS"

	PermMemberInvite Permission = "MEMBER_INVITE"
	PermMemberManage Permission = "MEMBER_MANAGE"
	PermMemberRemove Permission = "MEMBER_REMOVE"
	PermMemberView   Permission = "MEMBER_VIEW"

	PermRoleCreate Permission = "ROLE_CREATE"
	PermRoleUpdate Permission = "ROLE_UPDATE"
	PermRoleDelete Permission = "ROLE_DELETE"
	PermRoleAssign Permission = "ROLE_ASSIGN"

	PermFinancialRead    Permission = "FINANCIAL_READ"
	PermFinancialWrite   Permission = "FINANCIAL_WRITE"
	PermFinancialApprove Permission = "FINANCIAL_APPROVE"

	PermComplianceRead   Permission = "COMPLIANCE_READ"
	PermComplianceManage Permission = "COMPLIANCE_MANAGE"

	PermReportsView   Permission = "REPORTS_VIEW"
	PermReportsExport Permission = "REPORTS_EXPORT"

	PermAdminFullAccess Permission = "ADMIN_FULL_ACCESS"
	PermAuditView       Permission = "AUDIT_VIEW"
	PermSettingsManage  Permission = "SETTINGS_MANAGE"
)

var allPermissions = []Permission{
	PermBusinessRead, PermBusinessUpdate, PermBusinessDelete, PermBusinessSettings,
	PermMemberInvite, PermMemberManage, PermMemberRemove, PermMemberView,
	PermRoleCreate, PermRoleUpdate, PermRoleDelete, PermRoleAssign,
	PermFinancialRead, PermFinancialWrite, PermFinancialApprove,
	PermComplianceRead, PermComplianceManage,
	PermReportsView, PermReportsExport,
	PermAdminFullAccess, PermAuditView, PermSettingsManage,
}

// AllPermissions lists every known permission.
func AllPermissions() []Permission {
	return slices.Clone(allPermissions)
}

// Valid reports whether p is a known permission.
func (p Permission) Valid() bool {
	return slices.Contains(allPermissions, p)
}

// ParsePermission converts a case-insensitive name into a Permission.
func ParsePermission(s string) (Permission, error) {
	p := Permission(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", validationError("unknown permission %q", s)
	}
	return p, nil
}

// ParsePermissions converts a list of names, failing on the first unknown one.
func ParsePermissions(names []string) ([]Permission, error) {
	out := make([]Permission, 0, len(names))
	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// PermissionStrings renders permissions for storage and display.
func PermissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func hasDuplicatePermissions(perms []Permission) bool {
	seen := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			return true
		}
		seen[p] = struct{}{}
	}
	return false
}

// checkPermissionSet enforces the shared rule for role and member grants:
// non-empty, known values, no duplicates.
func checkPermissionSet(perms []Permission, subject string) error {
	if len(perms) == 0 {
		return validationError("%s must have at least one permission", subject)
	}
	for _, p := range perms {
		if !p.Valid() {
			return validationError("unknown permission %q", string(p))
		}
	}
	if hasDuplicatePermissions(perms) {
		return validationError("duplicate permissions are not allowed")
	}
	return nil
}

func hasAll(have []Permission, want []Permission) bool {
	for _, p := range want {
		if !slices.Contains(have, p) {
			return false
		}
	}
	return true
}

func hasAny(have []Permission, want []Permission) bool {
	for _, p := range want {
		if slices.Contains(have, p) {
			return true
		}
	}
	return false
}
