package business

import (
	"slices"
	"time"
)

// LegalStructure is the legal form of a business.
type LegalStructure string

const (
	SoleProprietorship LegalStructure = "SOLE_PROPRIETORSHIP"
	Partnership        LegalStructure = "PARTNERSHIP"
	LLC                LegalStructure = "LLC"
	Corporation        LegalStructure = "CORPORATION"
	SCorporation       LegalStructure = "S_CORPORATION"
	NonProfit          LegalStructure = "NON_PROFIT"
	OtherStructure     LegalStructure = "OTHER"
)

func (s LegalStructure) Valid() bool {
	switch s {
	case SoleProprietorship, Partnership, LLC, Corporation, SCorporation, NonProfit, OtherStructure:
		return true
	}
	return false
}

// EntityStatus is the lifecycle status of a business entity.
type EntityStatus string

const (
	StatusDraft     EntityStatus = "DRAFT"
	StatusActive    EntityStatus = "ACTIVE"
	StatusSuspended EntityStatus = "SUSPENDED"
	StatusInactive  EntityStatus = "INACTIVE"
	StatusClosed    EntityStatus = "CLOSED"
)

func (s EntityStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusSuspended, StatusInactive, StatusClosed:
		return true
	}
	return false
}

// VerificationStatus tracks business verification and KYC review.
type VerificationStatus string

const (
	VerificationUnverified VerificationStatus = "UNVERIFIED"
	VerificationPending    VerificationStatus = "PENDING"
	VerificationVerified   VerificationStatus = "VERIFIED"
	VerificationRejected   VerificationStatus = "REJECTED"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationUnverified, VerificationPending, VerificationVerified, VerificationRejected:
		return true
	}
	return false
}

// EntityType is the position of a business in an organisation tree.
type EntityType string

const (
	TypeRootOrganization EntityType = "ROOT_ORGANIZATION"
	TypeSubsidiary       EntityType = "SUBSIDIARY"
	TypeDivision         EntityType = "DIVISION"
	TypeDepartment       EntityType = "DEPARTMENT"
	TypeTeam             EntityType = "TEAM"
)

func (t EntityType) Valid() bool {
	_, ok := allowedChildren[t]
	return ok
}

var allowedChildren = map[EntityType][]EntityType{
	TypeRootOrganization: {TypeSubsidiary, TypeDivision},
	TypeSubsidiary:       {TypeDivision, TypeDepartment},
	TypeDivision:         {TypeDepartment, TypeTeam},
	TypeDepartment:       {TypeTeam},
	TypeTeam:             {},
}

// AllowedChildTypes returns the entity types t may create as children.
func AllowedChildTypes(t EntityType) []EntityType {
	return slices.Clone(allowedChildren[t])
}

// Environment selects the sandbox or production API environment.
type Environment string

const (
	EnvSandbox    Environment = "sandbox"
	EnvProduction Environment = "production"
)

func (e Environment) Valid() bool {
	return e == EnvSandbox || e == EnvProduction
}

// Tier is a billing tier.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierStartup    Tier = "STARTUP"
	TierEnterprise Tier = "ENTERPRISE"
)

func (t Tier) Valid() bool {
	_, ok := tierLimits[t]
	return ok
}

// TierLimits caps API usage, subsidiaries and members.
type TierLimits struct {
	APICallsPerDay   int `json:"apiCallsPerDay"`
	APICallsPerMonth int `json:"apiCallsPerMonth"`
	MaxSubBusinesses int `json:"maxSubBusinesses"`
	MaxMembers       int `json:"maxMembers"`
}

var tierLimits = map[Tier]TierLimits{
	TierFree:       {APICallsPerDay: 1000, APICallsPerMonth: 10000, MaxSubBusinesses: 1, MaxMembers: 3},
	TierStartup:    {APICallsPerDay: 10000, APICallsPerMonth: 100000, MaxSubBusinesses: 5, MaxMembers: 10},
	TierEnterprise: {APICallsPerDay: 100000, APICallsPerMonth: 1000000, MaxSubBusinesses: 50, MaxMembers: 100},
}

// LimitsFor returns a fresh copy of the preset limits for t.
func LimitsFor(t Tier) (TierLimits, error) {
	l, ok := tierLimits[t]
	if !ok {
		return TierLimits{}, validationError("invalid billing tier %q", string(t))
	}
	return l, nil
}

// Address is a postal address.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// ContactInfo holds the primary business contact.
type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
}

// APIKey is a credential issued for one environment.
type APIKey struct {
	ID          string      `json:"id"`
	Key         string      `json:"key"`
	Name        string      `json:"name"`
	Environment Environment `json:"environment"`
	Scopes      []string    `json:"scopes"`
	IsActive    bool        `json:"isActive"`
	RateLimit   int         `json:"rateLimit"`
	LastUsedAt  *time.Time  `json:"lastUsedAt,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	ExpiresAt   *time.Time  `json:"expiresAt,omitempty"`
}

func (k APIKey) clone() APIKey {
	k.Scopes = slices.Clone(k.Scopes)
	k.LastUsedAt = cloneTime(k.LastUsedAt)
	k.ExpiresAt = cloneTime(k.ExpiresAt)
	return k
}

// EnvironmentConfig is the per-environment API configuration.
type EnvironmentConfig struct {
	APIKeys     []APIKey `json:"apiKeys"`
	WebhookURL  string   `json:"webhookUrl,omitempty"`
	HMACSecret  string   `json:"hmacSecret,omitempty"`
	IPAllowlist []string `json:"ipAllowlist"`
	RateLimit   int      `json:"rateLimit"`
	IsEnabled   bool     `json:"isEnabled"`
}

func (c EnvironmentConfig) clone() EnvironmentConfig {
	keys := make([]APIKey, len(c.APIKeys))
	for i, k := range c.APIKeys {
		keys[i] = k.clone()
	}
	c.APIKeys = keys
	c.IPAllowlist = slices.Clone(c.IPAllowlist)
	if c.IPAllowlist == nil {
		c.IPAllowlist = []string{}
	}
	return c
}

// Environments pairs the sandbox and production configurations.
type Environments struct {
	Sandbox    EnvironmentConfig `json:"sandbox"`
	Production EnvironmentConfig `json:"production"`
}

func (e Environments) clone() Environments {
	return Environments{Sandbox: e.Sandbox.clone(), Production: e.Production.clone()}
}

// UsageMetrics counts API calls for the current day and month.
type UsageMetrics struct {
	APICallsToday int       `json:"apiCallsToday"`
	APICallsMonth int       `json:"apiCallsMonth"`
	LastResetDate time.Time `json:"lastResetDate"`
}

// Billing is the tier, its limits and current usage.
type Billing struct {
	Tier   Tier         `json:"tier"`
	Usage  UsageMetrics `json:"usage"`
	Limits TierLimits   `json:"limits"`
}

// Compliance tracks KYC, contract and residency state.
type Compliance struct {
	KYCStatus      VerificationStatus `json:"kycStatus"`
	ContractSigned bool               `json:"contractSigned"`
	DataResidency  string             `json:"dataResidency"`
	Documents      []string           `json:"documents"`
}

func (c Compliance) clone() Compliance {
	c.Documents = slices.Clone(c.Documents)
	if c.Documents == nil {
		c.Documents = []string{}
	}
	return c
}

// Hierarchy places an entity within its organisation tree.
type Hierarchy struct {
	Level             int          `json:"level"`
	Path              []string     `json:"path"`
	MaxDepth          int          `json:"maxDepth"`
	AllowedChildTypes []EntityType `json:"allowedChildTypes"`
}

func (h Hierarchy) clone() Hierarchy {
	h.Path = slices.Clone(h.Path)
	h.AllowedChildTypes = slices.Clone(h.AllowedChildTypes)
	return h
}

// Settings are per-business behavioural switches.
type Settings struct {
	AllowSubsidiaries       bool            `json:"allowSubsidiaries"`
	RequireVerification     bool            `json:"requireVerification"`
	MaxMembers              int             `json:"maxMembers"`
	NotificationPreferences map[string]bool `json:"notificationPreferences"`
	AutoInheritPermissions  bool            `json:"autoInheritPermissions"`
	CascadeStatusChanges    bool            `json:"cascadeStatusChanges"`
	Timezone                string          `json:"timezone,omitempty"`
	Language                string          `json:"language,omitempty"`
}

func (s Settings) clone() Settings {
	prefs := make(map[string]bool, len(s.NotificationPreferences))
	for k, v := range s.NotificationPreferences {
		prefs[k] = v
	}
	s.NotificationPreferences = prefs
	return s
}

// SettingsUpdate is a partial settings change; nil fields are left as is.
type SettingsUpdate struct {
	AllowSubsidiaries       *bool
	RequireVerification     *bool
	MaxMembers              *int
	NotificationPreferences map[string]bool
	AutoInheritPermissions  *bool
	CascadeStatusChanges    *bool
	Timezone                *string
	Language                *string
}

// ComplianceUpdate is a partial compliance change; nil fields are left as is.
type ComplianceUpdate struct {
	KYCStatus      *VerificationStatus
	ContractSigned *bool
	DataResidency  *string
	Documents      []string
}

// DefaultMaxDepth bounds organisation tree depth.
const DefaultMaxDepth = 10

// DefaultSettings is the settings baseline of a root organisation.
func DefaultSettings() Settings {
	return Settings{
		AllowSubsidiaries:       true,
		RequireVerification:     true,
		MaxMembers:              100,
		NotificationPreferences: map[string]bool{},
		AutoInheritPermissions:  true,
	}
}

// DefaultEnvironments is the environment baseline of a root organisation.
func DefaultEnvironments() Environments {
	return Environments{
		Sandbox:    EnvironmentConfig{APIKeys: []APIKey{}, IPAllowlist: []string{}, RateLimit: 100, IsEnabled: true},
		Production: EnvironmentConfig{APIKeys: []APIKey{}, IPAllowlist: []string{}, RateLimit: 0, IsEnabled: false},
	}
}

// DefaultBilling is the FREE tier baseline with zeroed usage.
func DefaultBilling(now time.Time) Billing {
	return Billing{
		Tier:   TierFree,
		Usage:  UsageMetrics{LastResetDate: now},
		Limits: tierLimits[TierFree],
	}
}

// DefaultCompliance is the compliance baseline of a root organisation.
func DefaultCompliance() Compliance {
	return Compliance{
		KYCStatus:     VerificationUnverified,
		DataResidency: "US",
		Documents:     []string{},
	}
}
