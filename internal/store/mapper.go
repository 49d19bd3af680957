package store

import (
	"fmt"

	"github.com/lib/pq"

	"business-svc/internal/business"
)

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// stringArray never yields NULL, so NOT NULL array columns accept empty slices.
func stringArray(s []string) pq.StringArray {
	if s == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(s)
}

func permissionsFromArray(a pq.StringArray) []business.Permission {
	out := make([]business.Permission, len(a))
	for i, p := range a {
		out[i] = business.Permission(p)
	}
	return out
}

func entityTypesFromArray(a pq.StringArray) []business.EntityType {
	out := make([]business.EntityType, len(a))
	for i, t := range a {
		out[i] = business.EntityType(t)
	}
	return out
}

func entityTypesToArray(types []business.EntityType) pq.StringArray {
	out := make(pq.StringArray, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func nonNilMetadata(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// BusinessToRecord projects an entity onto its row shape.
func BusinessToRecord(e *business.Entity) BusinessRecord {
	p := e.Props()
	return BusinessRecord{
		ID:                 p.ID,
		Name:               p.Name,
		LegalName:          p.LegalName,
		LegalStructure:     string(p.LegalStructure),
		BusinessType:       string(p.Type),
		IndustryCode:       p.IndustryCode,
		Description:        p.Description,
		TaxID:              p.TaxID,
		RegistrationNumber: p.RegistrationNumber,
		IncorporationDate:  p.IncorporationDate,
		Address:            NewJSONB(p.Address),
		ContactInfo:        NewJSONB(p.ContactInfo),
		Status:             string(p.Status),
		VerificationStatus: string(p.VerificationStatus),
		OwnerID:            p.OwnerID,
		ParentBusinessID:   optionalString(p.ParentBusinessID),
		RootBusinessID:     optionalString(p.RootBusinessID),
		ChildBusinessIDs:   stringArray(p.ChildBusinessIDs),
		HierarchyLevel:     p.Hierarchy.Level,
		HierarchyPath:      stringArray(p.Hierarchy.Path),
		MaxDepth:           p.Hierarchy.MaxDepth,
		AllowedChildTypes:  entityTypesToArray(p.Hierarchy.AllowedChildTypes),
		Settings:           NewJSONB(p.Settings),
		Environments:       NewJSONB(p.Environments),
		Billing:            NewJSONB(p.Billing),
		Compliance:         NewJSONB(p.Compliance),
		Metadata:           NewJSONB(p.Metadata),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		DeletedAt:          p.DeletedAt,
	}
}

// ToEntity rebuilds the aggregate. NULL settings, environments, billing and
// compliance fall back to the root organisation baseline.
func (r BusinessRecord) ToEntity(opts ...business.Option) (*business.Entity, error) {
	settings := business.DefaultSettings()
	if r.Settings.Valid {
		settings = r.Settings.V
	}
	environments := business.DefaultEnvironments()
	if r.Environments.Valid {
		environments = r.Environments.V
	}
	billing := business.DefaultBilling(r.CreatedAt)
	if r.Billing.Valid {
		billing = r.Billing.V
	}
	compliance := business.DefaultCompliance()
	if r.Compliance.Valid {
		compliance = r.Compliance.V
	}

	e, err := business.RestoreEntity(business.EntityProps{
		ID:                 r.ID,
		Name:               r.Name,
		LegalName:          r.LegalName,
		LegalStructure:     business.LegalStructure(r.LegalStructure),
		Type:               business.EntityType(r.BusinessType),
		IndustryCode:       r.IndustryCode,
		Description:        r.Description,
		TaxID:              r.TaxID,
		RegistrationNumber: r.RegistrationNumber,
		IncorporationDate:  r.IncorporationDate,
		Address:            r.Address.V,
		ContactInfo:        r.ContactInfo.V,
		Status:             business.EntityStatus(r.Status),
		VerificationStatus: business.VerificationStatus(r.VerificationStatus),
		OwnerID:            r.OwnerID,
		ParentBusinessID:   derefString(r.ParentBusinessID),
		RootBusinessID:     derefString(r.RootBusinessID),
		ChildBusinessIDs:   []string(r.ChildBusinessIDs),
		Hierarchy: business.Hierarchy{
			Level:             r.HierarchyLevel,
			Path:              []string(r.HierarchyPath),
			MaxDepth:          r.MaxDepth,
			AllowedChildTypes: entityTypesFromArray(r.AllowedChildTypes),
		},
		Settings:     settings,
		Environments: environments,
		Billing:      billing,
		Compliance:   compliance,
		Metadata:     nonNilMetadata(r.Metadata.V),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		DeletedAt:    r.DeletedAt,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore business %s: %w", r.ID, err)
	}
	return e, nil
}

// MemberToRecord projects a member onto its row shape.
func MemberToRecord(m *business.Member) MemberRecord {
	p := m.Props()
	return MemberRecord{
		ID:              p.ID,
		BusinessID:      p.BusinessID,
		UserID:          p.UserID,
		RoleID:          p.RoleID,
		Status:          string(p.Status),
		JoinedAt:        p.JoinedAt,
		InvitedBy:       p.InvitedBy,
		Permissions:     stringArray(business.PermissionStrings(p.Permissions)),
		IsOwner:         p.IsOwner,
		Metadata:        NewJSONB(p.Metadata),
		LastActivityAt:  p.LastActivityAt,
		ActivityHistory: NewJSONB(p.ActivityHistory),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		DeletedAt:       p.DeletedAt,
	}
}

// ToMember rebuilds the aggregate.
func (r MemberRecord) ToMember(opts ...business.Option) (*business.Member, error) {
	m, err := business.RestoreMember(business.MemberProps{
		ID:              r.ID,
		BusinessID:      r.BusinessID,
		UserID:          r.UserID,
		RoleID:          r.RoleID,
		Status:          business.MemberStatus(r.Status),
		JoinedAt:        r.JoinedAt,
		InvitedBy:       r.InvitedBy,
		Permissions:     permissionsFromArray(r.Permissions),
		IsOwner:         r.IsOwner,
		Metadata:        nonNilMetadata(r.Metadata.V),
		LastActivityAt:  r.LastActivityAt,
		ActivityHistory: r.ActivityHistory.V,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		DeletedAt:       r.DeletedAt,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore member %s: %w", r.ID, err)
	}
	return m, nil
}

// RoleToRecord projects a role onto its row shape.
func RoleToRecord(role *business.Role) RoleRecord {
	p := role.Props()
	return RoleRecord{
		ID:             p.ID,
		BusinessID:     optionalString(p.BusinessID),
		Name:           p.Name,
		Description:    p.Description,
		Permissions:    stringArray(business.PermissionStrings(p.Permissions)),
		IsSystemRole:   p.IsSystemRole,
		IsCustomizable: p.IsCustomizable,
		Hierarchy:      p.Hierarchy,
		Metadata:       NewJSONB(p.Metadata),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DeletedAt:      p.DeletedAt,
	}
}

// ToRole rebuilds the aggregate.
func (r RoleRecord) ToRole(opts ...business.Option) (*business.Role, error) {
	role, err := business.RestoreRole(business.RoleProps{
		ID:             r.ID,
		BusinessID:     derefString(r.BusinessID),
		Name:           r.Name,
		Description:    r.Description,
		Permissions:    permissionsFromArray(r.Permissions),
		IsSystemRole:   r.IsSystemRole,
		IsCustomizable: r.IsCustomizable,
		Hierarchy:      r.Hierarchy,
		Metadata:       nonNilMetadata(r.Metadata.V),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
		DeletedAt:      r.DeletedAt,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore role %s: %w", r.ID, err)
	}
	return role, nil
}

// InvitationToRecord projects an invitation onto its row shape.
func InvitationToRecord(i *business.Invitation) InvitationRecord {
	p := i.Props()
	return InvitationRecord{
		ID:             p.ID,
		BusinessID:     p.BusinessID,
		Email:          p.Email,
		RoleID:         p.RoleID,
		Status:         string(p.Status),
		InvitedBy:      p.InvitedBy,
		Message:        p.Message,
		Token:          p.Token,
		ExpiresAt:      p.ExpiresAt,
		AcceptedAt:     p.AcceptedAt,
		RejectedAt:     p.RejectedAt,
		CancelledAt:    p.CancelledAt,
		AcceptedBy:     p.AcceptedBy,
		InvitationType: string(p.Type),
		Permissions:    stringArray(business.PermissionStrings(p.Permissions)),
		Metadata:       NewJSONB(p.Metadata),
		Notifications:  NewJSONB(p.Notifications),
		ResendCount:    p.ResendCount,
		LastResendAt:   p.LastResendAt,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DeletedAt:      p.DeletedAt,
	}
}

// ToInvitation rebuilds the aggregate.
func (r InvitationRecord) ToInvitation(opts ...business.Option) (*business.Invitation, error) {
	inv, err := business.RestoreInvitation(business.InvitationProps{
		ID:            r.ID,
		BusinessID:    r.BusinessID,
		Email:         r.Email,
		RoleID:        r.RoleID,
		Status:        business.InvitationStatus(r.Status),
		InvitedBy:     r.InvitedBy,
		Message:       r.Message,
		Token:         r.Token,
		ExpiresAt:     r.ExpiresAt,
		AcceptedAt:    r.AcceptedAt,
		RejectedAt:    r.RejectedAt,
		CancelledAt:   r.CancelledAt,
		AcceptedBy:    r.AcceptedBy,
		Type:          business.InvitationType(r.InvitationType),
		Permissions:   permissionsFromArray(r.Permissions),
		Metadata:      nonNilMetadata(r.Metadata.V),
		Notifications: r.Notifications.V,
		ResendCount:   r.ResendCount,
		LastResendAt:  r.LastResendAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		DeletedAt:     r.DeletedAt,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to restore invitation %s: %w", r.ID, err)
	}
	return inv, nil
}
