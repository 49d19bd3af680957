package app

import (
	"time"

	"business-svc/internal/business"
)

// BusinessView is the read model of a business entity.
type BusinessView struct {
	ID                 string                      `json:"id"`
	Name               string                      `json:"name"`
	LegalName          string                      `json:"legalName"`
	LegalStructure     business.LegalStructure     `json:"legalStructure"`
	Type               business.EntityType         `json:"businessType"`
	IndustryCode       string                      `json:"industryCode"`
	Description        string                      `json:"description,omitempty"`
	TaxID              string                      `json:"taxId,omitempty"`
	RegistrationNumber string                      `json:"registrationNumber,omitempty"`
	Address            business.Address            `json:"address"`
	ContactInfo        business.ContactInfo        `json:"contactInfo"`
	Status             business.EntityStatus       `json:"status"`
	VerificationStatus business.VerificationStatus `json:"verificationStatus"`
	OwnerID            string                      `json:"ownerId"`
	ParentBusinessID   string                      `json:"parentBusinessId,omitempty"`
	RootBusinessID     string                      `json:"rootBusinessId"`
	ChildBusinessIDs   []string                    `json:"childBusinessIds"`
	Hierarchy          business.Hierarchy          `json:"hierarchy"`
	Settings           business.Settings           `json:"settings"`
	Billing            business.Billing            `json:"billing"`
	Compliance         business.Compliance         `json:"compliance"`
	ProductionEnabled  bool                        `json:"productionEnabled"`
	APIKeys            []APIKeyView                `json:"apiKeys"`
	Metadata           map[string]any              `json:"metadata"`
	CreatedAt          time.Time                   `json:"createdAt"`
	UpdatedAt          time.Time                   `json:"updatedAt"`
	ClosedAt           *time.Time                  `json:"closedAt,omitempty"`
}

// APIKeyView describes an API key without its secret value.
type APIKeyView struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Environment business.Environment `json:"environment"`
	Prefix      string               `json:"prefix"`
	Scopes      []string             `json:"scopes"`
	IsActive    bool                 `json:"isActive"`
	RateLimit   int                  `json:"rateLimit"`
	CreatedAt   time.Time            `json:"createdAt"`
	ExpiresAt   *time.Time           `json:"expiresAt,omitempty"`
}

// MemberView is the read model of a member.
type MemberView struct {
	ID             string                `json:"id"`
	BusinessID     string                `json:"businessId"`
	UserID         string                `json:"userId"`
	RoleID         string                `json:"roleId"`
	Status         business.MemberStatus `json:"status"`
	IsOwner        bool                  `json:"isOwner"`
	Permissions    []business.Permission `json:"permissions"`
	InvitedBy      string                `json:"invitedBy,omitempty"`
	JoinedAt       time.Time             `json:"joinedAt"`
	LastActivityAt *time.Time            `json:"lastActivityAt,omitempty"`
	RecentActivity []business.Activity   `json:"recentActivity,omitempty"`
}

// InvitationView is the read model of an invitation.
type InvitationView struct {
	ID               string                    `json:"id"`
	BusinessID       string                    `json:"businessId"`
	Email            string                    `json:"email"`
	RoleID           string                    `json:"roleId"`
	Status           business.InvitationStatus `json:"status"`
	Type             business.InvitationType   `json:"invitationType"`
	Token            string                    `json:"token"`
	InvitedBy        string                    `json:"invitedBy"`
	Message          string                    `json:"message,omitempty"`
	ExpiresAt        time.Time                 `json:"expiresAt"`
	ExpirationStatus business.ExpirationStatus `json:"expirationStatus"`
	DaysUntilExpiry  int                       `json:"daysUntilExpiry"`
	ResendCount      int                       `json:"resendCount"`
	BatchID          string                    `json:"batchId,omitempty"`
	LastDelivery     business.DeliveryStatus   `json:"lastDelivery"`
	AcceptedBy       string                    `json:"acceptedBy,omitempty"`
}

// RoleView is the read model of a role.
type RoleView struct {
	ID             string                `json:"id"`
	BusinessID     string                `json:"businessId,omitempty"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Permissions    []business.Permission `json:"permissions"`
	IsSystemRole   bool                  `json:"isSystemRole"`
	IsCustomizable bool                  `json:"isCustomizable"`
	Hierarchy      int                   `json:"hierarchy"`
}

// UsageView reports API usage against the tier limits.
type UsageView struct {
	BusinessID    string        `json:"businessId"`
	Tier          business.Tier `json:"tier"`
	APICallsToday int           `json:"apiCallsToday"`
	APICallsMonth int           `json:"apiCallsMonth"`
	DailyLimit    int           `json:"dailyLimit"`
	MonthlyLimit  int           `json:"monthlyLimit"`
}

const recentActivityDays = 30

func newBusinessView(e *business.Entity) *BusinessView {
	envs := e.Environments()
	keys := make([]APIKeyView, 0, len(envs.Sandbox.APIKeys)+len(envs.Production.APIKeys))
	for _, k := range append(envs.Sandbox.APIKeys, envs.Production.APIKeys...) {
		keys = append(keys, newAPIKeyView(k))
	}
	return &BusinessView{
		ID:                 e.ID(),
		Name:               e.Name(),
		LegalName:          e.LegalName(),
		LegalStructure:     e.LegalStructure(),
		Type:               e.Type(),
		IndustryCode:       e.IndustryCode(),
		Description:        e.Description(),
		TaxID:              e.TaxID(),
		RegistrationNumber: e.RegistrationNumber(),
		Address:            e.Address(),
		ContactInfo:        e.ContactInfo(),
		Status:             e.Status(),
		VerificationStatus: e.VerificationStatus(),
		OwnerID:            e.OwnerID(),
		ParentBusinessID:   e.ParentBusinessID(),
		RootBusinessID:     e.RootBusinessID(),
		ChildBusinessIDs:   e.ChildBusinessIDs(),
		Hierarchy:          e.Hierarchy(),
		Settings:           e.Settings(),
		Billing:            e.Billing(),
		Compliance:         e.Compliance(),
		ProductionEnabled:  envs.Production.IsEnabled,
		APIKeys:            keys,
		Metadata:           e.Metadata(),
		CreatedAt:          e.CreatedAt(),
		UpdatedAt:          e.UpdatedAt(),
		ClosedAt:           e.DeletedAt(),
	}
}

// keyPrefixLen keeps the environment tag and a few characters of the key.
const keyPrefixLen = 9

func newAPIKeyView(k business.APIKey) APIKeyView {
	prefix := k.Key
	if len(prefix) > keyPrefixLen {
		prefix = prefix[:keyPrefixLen]
	}
	return APIKeyView{
		ID:          k.ID,
		Name:        k.Name,
		Environment: k.Environment,
		Prefix:      prefix,
		Scopes:      k.Scopes,
		IsActive:    k.IsActive,
		RateLimit:   k.RateLimit,
		CreatedAt:   k.CreatedAt,
		ExpiresAt:   k.ExpiresAt,
	}
}

func newMemberView(m *business.Member) *MemberView {
	return &MemberView{
		ID:             m.ID(),
		BusinessID:     m.BusinessID(),
		UserID:         m.UserID(),
		RoleID:         m.RoleID(),
		Status:         m.Status(),
		IsOwner:        m.IsOwner(),
		Permissions:    m.Permissions(),
		InvitedBy:      m.InvitedBy(),
		JoinedAt:       m.JoinedAt(),
		LastActivityAt: m.LastActivityAt(),
		RecentActivity: m.RecentActivity(recentActivityDays),
	}
}

func newInvitationView(inv *business.Invitation) *InvitationView {
	return &InvitationView{
		ID:               inv.ID(),
		BusinessID:       inv.BusinessID(),
		Email:            inv.Email(),
		RoleID:           inv.RoleID(),
		Status:           inv.Status(),
		Type:             inv.Type(),
		Token:            inv.Token(),
		InvitedBy:        inv.InvitedBy(),
		Message:          inv.Message(),
		ExpiresAt:        inv.ExpiresAt(),
		ExpirationStatus: inv.ExpirationStatus(),
		DaysUntilExpiry:  inv.DaysUntilExpiration(),
		ResendCount:      inv.ResendCount(),
		BatchID:          inv.BatchID(),
		LastDelivery:     inv.LastNotificationStatus(),
		AcceptedBy:       inv.AcceptedBy(),
	}
}

func newRoleView(r *business.Role) *RoleView {
	return &RoleView{
		ID:             r.ID(),
		BusinessID:     r.BusinessID(),
		Name:           r.Name(),
		Description:    r.Description(),
		Permissions:    r.Permissions(),
		IsSystemRole:   r.IsSystemRole(),
		IsCustomizable: r.IsCustomizable(),
		Hierarchy:      r.Hierarchy(),
	}
}

func newUsageView(e *business.Entity) *UsageView {
	b := e.Billing()
	return &UsageView{
		BusinessID:    e.ID(),
		Tier:          b.Tier,
		APICallsToday: b.Usage.APICallsToday,
		APICallsMonth: b.Usage.APICallsMonth,
		DailyLimit:    b.Limits.APICallsPerDay,
		MonthlyLimit:  b.Limits.APICallsPerMonth,
	}
}
