package business

import (
	"regexp"
	"slices"
	"strings"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// Entity is a business in an organisation tree: identity, lifecycle,
// verification, API environments, billing and compliance.
type Entity struct {
	base
	name               string
	legalName          string
	legalStructure     LegalStructure
	entityType         EntityType
	industryCode       string
	description        string
	taxID              string
	registrationNumber string
	incorporationDate  *time.Time
	address            Address
	contactInfo        ContactInfo
	status             EntityStatus
	verificationStatus VerificationStatus
	ownerID            string
	parentBusinessID   string
	rootBusinessID     string
	childBusinessIDs   []string
	hierarchy          Hierarchy
	settings           Settings
	environments       Environments
	billing            Billing
	compliance         Compliance
	metadata           map[string]any
}

// EntityProps is the full persisted state of an Entity.
type EntityProps struct {
	ID                 string
	Name               string
	LegalName          string
	LegalStructure     LegalStructure
	Type               EntityType
	IndustryCode       string
	Description        string
	TaxID              string
	RegistrationNumber string
	IncorporationDate  *time.Time
	Address            Address
	ContactInfo        ContactInfo
	Status             EntityStatus
	VerificationStatus VerificationStatus
	OwnerID            string
	ParentBusinessID   string
	RootBusinessID     string
	ChildBusinessIDs   []string
	Hierarchy          Hierarchy
	Settings           Settings
	Environments       Environments
	Billing            Billing
	Compliance         Compliance
	Metadata           map[string]any
	CreatedAt          time.Time
	UpdatedAt          time.Time
	DeletedAt          *time.Time
}

// RootOrganizationInput carries the caller-supplied fields of a new root
// organisation.
type RootOrganizationInput struct {
	Name               string
	LegalName          string
	LegalStructure     LegalStructure
	OwnerID            string
	IndustryCode       string
	Description        string
	TaxID              string
	RegistrationNumber string
	IncorporationDate  *time.Time
	Address            Address
	ContactInfo        ContactInfo
}

// NewRootOrganization creates an ACTIVE, unverified level-0 organisation on
// the FREE tier.
func NewRootOrganization(in RootOrganizationInput, opts ...Option) (*Entity, error) {
	b := newBase(buildOptions(opts))
	e := &Entity{
		base:               b,
		name:               in.Name,
		legalName:          in.LegalName,
		legalStructure:     in.LegalStructure,
		entityType:         TypeRootOrganization,
		industryCode:       in.IndustryCode,
		description:        in.Description,
		taxID:              in.TaxID,
		registrationNumber: in.RegistrationNumber,
		incorporationDate:  cloneTime(in.IncorporationDate),
		address:            in.Address,
		contactInfo:        in.ContactInfo,
		status:             StatusActive,
		verificationStatus: VerificationUnverified,
		ownerID:            in.OwnerID,
		childBusinessIDs:   []string{},
		hierarchy: Hierarchy{
			Level:             0,
			Path:              []string{b.id},
			MaxDepth:          DefaultMaxDepth,
			AllowedChildTypes: AllowedChildTypes(TypeRootOrganization),
		},
		settings:     DefaultSettings(),
		environments: DefaultEnvironments(),
		billing:      DefaultBilling(b.createdAt),
		compliance:   DefaultCompliance(),
		metadata: map[string]any{
			"createdVia":         "web",
			"isRootOrganization": true,
		},
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// NewSubBusiness creates a child of parent. The child inherits identity
// details from the parent and receives scaled-down limits. The caller must
// still register the child on the parent with AddChildBusiness.
func NewSubBusiness(name string, childType EntityType, parent *Entity, ownerID string, opts ...Option) (*Entity, error) {
	if parent == nil {
		return nil, validationError("parent business is required")
	}
	if !parent.CanCreateChildOfType(childType) {
		return nil, validationError("parent business cannot create child of type %s", childType)
	}
	if !parent.CanHaveSubsidiaries() {
		return nil, capacityError("parent business cannot have more subsidiaries")
	}

	b := newBase(buildOptions(opts))
	level := parent.hierarchy.Level + 1
	maxDepth := parent.hierarchy.MaxDepth

	verification := VerificationUnverified
	compliance := parent.compliance.clone()
	compliance.KYCStatus = VerificationUnverified
	if parent.settings.AutoInheritPermissions {
		verification = parent.verificationStatus
		compliance.KYCStatus = parent.compliance.KYCStatus
	}

	settings := parent.settings.clone()
	settings.AllowSubsidiaries = level < maxDepth-1

	rootID := parent.rootBusinessID
	if rootID == "" {
		rootID = parent.id
	}

	parentLimits := parent.billing.Limits
	e := &Entity{
		base:               b,
		name:               name,
		legalName:          name,
		legalStructure:     parent.legalStructure,
		entityType:         childType,
		industryCode:       parent.industryCode,
		address:            parent.address,
		contactInfo:        parent.contactInfo,
		status:             StatusActive,
		verificationStatus: verification,
		ownerID:            ownerID,
		parentBusinessID:   parent.id,
		rootBusinessID:     rootID,
		childBusinessIDs:   []string{},
		hierarchy: Hierarchy{
			Level:             level,
			Path:              append(slices.Clone(parent.hierarchy.Path), b.id),
			MaxDepth:          maxDepth,
			AllowedChildTypes: AllowedChildTypes(childType),
		},
		settings: settings,
		environments: Environments{
			Sandbox: EnvironmentConfig{
				APIKeys:     []APIKey{},
				IPAllowlist: []string{},
				RateLimit:   parent.environments.Sandbox.RateLimit / 2,
				IsEnabled:   true,
			},
			Production: EnvironmentConfig{
				APIKeys:     []APIKey{},
				IPAllowlist: []string{},
				RateLimit:   parent.environments.Production.RateLimit / 2,
				IsEnabled:   parent.environments.Production.IsEnabled,
			},
		},
		billing: Billing{
			Tier:  parent.billing.Tier,
			Usage: UsageMetrics{LastResetDate: b.createdAt},
			Limits: TierLimits{
				APICallsPerDay:   parentLimits.APICallsPerDay * 3 / 10,
				APICallsPerMonth: parentLimits.APICallsPerMonth * 3 / 10,
				MaxSubBusinesses: parentLimits.MaxSubBusinesses / 2,
				MaxMembers:       parentLimits.MaxMembers / 2,
			},
		},
		compliance: compliance,
		metadata: map[string]any{
			"createdVia":       "sub-business",
			"parentBusinessId": parent.id,
			"inheritedFrom":    parent.id,
		},
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// RestoreEntity rebuilds an Entity from persisted state, re-checking
// invariants.
func RestoreEntity(p EntityProps, opts ...Option) (*Entity, error) {
	o := buildOptions(opts)
	e := &Entity{
		base:               restoreBase(p.ID, p.CreatedAt, p.UpdatedAt, p.DeletedAt, o),
		name:               p.Name,
		legalName:          p.LegalName,
		legalStructure:     p.LegalStructure,
		entityType:         p.Type,
		industryCode:       p.IndustryCode,
		description:        p.Description,
		taxID:              p.TaxID,
		registrationNumber: p.RegistrationNumber,
		incorporationDate:  cloneTime(p.IncorporationDate),
		address:            p.Address,
		contactInfo:        p.ContactInfo,
		status:             p.Status,
		verificationStatus: p.VerificationStatus,
		ownerID:            p.OwnerID,
		parentBusinessID:   p.ParentBusinessID,
		rootBusinessID:     p.RootBusinessID,
		childBusinessIDs:   slices.Clone(p.ChildBusinessIDs),
		hierarchy:          p.Hierarchy.clone(),
		settings:           p.Settings.clone(),
		environments:       p.Environments.clone(),
		billing:            p.Billing,
		compliance:         p.Compliance.clone(),
		metadata:           normalizeMetadata(p.Metadata),
	}
	if e.childBusinessIDs == nil {
		e.childBusinessIDs = []string{}
	}
	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Entity) validate() error {
	if strings.TrimSpace(e.name) == "" {
		return validationError("business name is required")
	}
	if strings.TrimSpace(e.legalName) == "" {
		return validationError("legal name is required")
	}
	if strings.TrimSpace(e.industryCode) == "" {
		return validationError("industry code is required")
	}
	if strings.TrimSpace(e.ownerID) == "" {
		return validationError("owner ID is required")
	}
	if !e.legalStructure.Valid() {
		return validationError("invalid legal structure %q", string(e.legalStructure))
	}
	if !e.entityType.Valid() {
		return validationError("invalid business type %q", string(e.entityType))
	}
	if !e.status.Valid() {
		return validationError("invalid business status %q", string(e.status))
	}
	if !e.verificationStatus.Valid() {
		return validationError("invalid verification status %q", string(e.verificationStatus))
	}
	if !e.billing.Tier.Valid() {
		return validationError("invalid billing tier %q", string(e.billing.Tier))
	}
	if err := checkAddress(e.address); err != nil {
		return err
	}
	if err := checkContact(e.contactInfo); err != nil {
		return err
	}
	if e.parentBusinessID != "" && e.parentBusinessID == e.id {
		return validationError("business cannot be its own parent")
	}
	if e.incorporationDate != nil && e.incorporationDate.After(e.now()) {
		return validationError("incorporation date cannot be in the future")
	}
	h := e.hierarchy
	if h.Level < 0 || h.Level > h.MaxDepth {
		return validationError("invalid hierarchy level")
	}
	if e.entityType == TypeRootOrganization && e.parentBusinessID != "" {
		return validationError("root organization cannot have a parent")
	}
	if e.entityType != TypeRootOrganization && e.parentBusinessID == "" {
		return validationError("non-root business must have a parent")
	}
	if len(h.Path) != h.Level+1 {
		return validationError("hierarchy path length must match level + 1")
	}
	return nil
}

func checkAddress(a Address) error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return validationError("complete address is required")
	}
	return nil
}

func checkContact(c ContactInfo) error {
	if strings.TrimSpace(c.Email) == "" {
		return validationError("contact email is required")
	}
	if !ValidEmail(c.Email) {
		return validationError("valid email address is required")
	}
	return nil
}

// Props returns a deep copy of the entity state.
func (e *Entity) Props() EntityProps {
	return EntityProps{
		ID:                 e.id,
		Name:               e.name,
		LegalName:          e.legalName,
		LegalStructure:     e.legalStructure,
		Type:               e.entityType,
		IndustryCode:       e.industryCode,
		Description:        e.description,
		TaxID:              e.taxID,
		RegistrationNumber: e.registrationNumber,
		IncorporationDate:  cloneTime(e.incorporationDate),
		Address:            e.address,
		ContactInfo:        e.contactInfo,
		Status:             e.status,
		VerificationStatus: e.verificationStatus,
		OwnerID:            e.ownerID,
		ParentBusinessID:   e.parentBusinessID,
		RootBusinessID:     e.rootBusinessID,
		ChildBusinessIDs:   slices.Clone(e.childBusinessIDs),
		Hierarchy:          e.hierarchy.clone(),
		Settings:           e.settings.clone(),
		Environments:       e.environments.clone(),
		Billing:            e.billing,
		Compliance:         e.compliance.clone(),
		Metadata:           cloneMetadata(e.metadata),
		CreatedAt:          e.createdAt,
		UpdatedAt:          e.updatedAt,
		DeletedAt:          cloneTime(e.deletedAt),
	}
}

func (e *Entity) Name() string { return e.name }
func (e *Entity) LegalName() string { return e.legalName }
func (e *Entity) LegalStructure() LegalStructure { return e.legalStructure }
func (e *Entity) Type() EntityType { return e.entityType }
func (e *Entity) IndustryCode() string { return e.industryCode }
func (e *Entity) Description() string { return e.description }
func (e *Entity) TaxID() string { return e.taxID }
func (e *Entity) RegistrationNumber() string { return e.registrationNumber }
func (e *Entity) IncorporationDate() *time.Time { return cloneTime(e.incorporationDate) }
func (e *Entity) Address() Address { return e.address }
func (e *Entity) ContactInfo() ContactInfo { return e.contactInfo }
func (e *Entity) Status() EntityStatus { return e.status }
func (e *Entity) VerificationStatus() VerificationStatus { return e.verificationStatus }
func (e *Entity) OwnerID() string { return e.ownerID }
func (e *Entity) ParentBusinessID() string { return e.parentBusinessID }
func (e *Entity) ChildBusinessIDs() []string { return slices.Clone(e.childBusinessIDs) }
func (e *Entity) Hierarchy() Hierarchy { return e.hierarchy.clone() }
func (e *Entity) Settings() Settings { return e.settings.clone() }
func (e *Entity) Environments() Environments { return e.environments.clone() }
func (e *Entity) Billing() Billing { return e.billing }
func (e *Entity) Compliance() Compliance { return e.compliance.clone() }
func (e *Entity) Metadata() map[string]any { return cloneMetadata(e.metadata) }

// RootBusinessID returns the id of the tree root; a root organisation
// returns its own id.
func (e *Entity) RootBusinessID() string {
	if e.rootBusinessID == "" {
		return e.id
	}
	return e.rootBusinessID
}

func (e *Entity) IsBusinessActive() bool { return e.status == StatusActive }
func (e *Entity) IsVerified() bool { return e.verificationStatus == VerificationVerified }
func (e *Entity) IsRootOrganization() bool { return e.entityType == TypeRootOrganization }
func (e *Entity) IsSubsidiary() bool { return e.parentBusinessID != "" }

// CanCreateChildOfType reports whether t is an allowed child type.
func (e *Entity) CanCreateChildOfType(t EntityType) bool {
	return slices.Contains(e.hierarchy.AllowedChildTypes, t)
}

// CanHaveSubsidiaries reports whether settings allow children and the tier
// limit has room for another one.
func (e *Entity) CanHaveSubsidiaries() bool {
	return e.settings.AllowSubsidiaries && len(e.childBusinessIDs) < e.billing.Limits.MaxSubBusinesses
}

// CanAddMembers reports whether a business with current members may take
// another one under its tier limit.
func (e *Entity) CanAddMembers(current int) bool {
	return current < e.billing.Limits.MaxMembers
}

// AddChildBusiness registers a child id. Adding a known id is a no-op.
func (e *Entity) AddChildBusiness(childID string) error {
	if slices.Contains(e.childBusinessIDs, childID) {
		return nil
	}
	if !e.CanHaveSubsidiaries() {
		return capacityError("business cannot have subsidiaries or limit exceeded")
	}
	e.childBusinessIDs = append(e.childBusinessIDs, childID)
	e.touch()
	return nil
}

// RemoveChildBusiness unregisters a child id.
func (e *Entity) RemoveChildBusiness(childID string) {
	idx := slices.Index(e.childBusinessIDs, childID)
	if idx < 0 {
		return
	}
	e.childBusinessIDs = slices.Delete(slices.Clone(e.childBusinessIDs), idx, idx+1)
	e.touch()
}

// ChangeOwner records userID as the owning user after an ownership transfer.
func (e *Entity) ChangeOwner(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return validationError("owner ID is required")
	}
	e.ownerID = userID
	e.touch()
	return nil
}

func (e *Entity) UpdateDescription(description string) {
	e.description = description
	e.touch()
}

func (e *Entity) UpdateTaxID(taxID string) {
	e.taxID = taxID
	e.touch()
}

func (e *Entity) UpdateRegistrationNumber(number string) {
	e.registrationNumber = number
	e.touch()
}

// UpdateAddress replaces the address; street, city and country are required.
func (e *Entity) UpdateAddress(a Address) error {
	if err := checkAddress(a); err != nil {
		return err
	}
	e.address = a
	e.touch()
	return nil
}

// UpdateContactInfo replaces the contact details; the email must be valid.
func (e *Entity) UpdateContactInfo(c ContactInfo) error {
	if err := checkContact(c); err != nil {
		return err
	}
	e.contactInfo = c
	e.touch()
	return nil
}

// UpdateSettings applies a partial settings change.
func (e *Entity) UpdateSettings(u SettingsUpdate) error {
	s := e.settings.clone()
	if u.AllowSubsidiaries != nil {
		s.AllowSubsidiaries = *u.AllowSubsidiaries
	}
	if u.RequireVerification != nil {
		s.RequireVerification = *u.RequireVerification
	}
	if u.MaxMembers != nil {
		if *u.MaxMembers < 0 {
			return validationError("max members must be non-negative")
		}
		s.MaxMembers = *u.MaxMembers
	}
	for k, v := range u.NotificationPreferences {
		s.NotificationPreferences[k] = v
	}
	if u.AutoInheritPermissions != nil {
		s.AutoInheritPermissions = *u.AutoInheritPermissions
	}
	if u.CascadeStatusChanges != nil {
		s.CascadeStatusChanges = *u.CascadeStatusChanges
	}
	if u.Timezone != nil {
		s.Timezone = *u.Timezone
	}
	if u.Language != nil {
		s.Language = *u.Language
	}
	e.settings = s
	e.touch()
	return nil
}

// UpdateCompliance applies a partial compliance change.
func (e *Entity) UpdateCompliance(u ComplianceUpdate) error {
	c := e.compliance.clone()
	if u.KYCStatus != nil {
		if !u.KYCStatus.Valid() {
			return validationError("invalid KYC status %q", string(*u.KYCStatus))
		}
		c.KYCStatus = *u.KYCStatus
	}
	if u.ContractSigned != nil {
		c.ContractSigned = *u.ContractSigned
	}
	if u.DataResidency != nil {
		c.DataResidency = *u.DataResidency
	}
	if u.Documents != nil {
		c.Documents = slices.Clone(u.Documents)
	}
	e.compliance = c
	e.touch()
	return nil
}

// UpdateMetadata merges entries into the entity metadata.
func (e *Entity) UpdateMetadata(m map[string]any) {
	e.metadata = mergeMetadata(e.metadata, m)
	e.touch()
}
