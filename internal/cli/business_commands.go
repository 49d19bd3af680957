package cli

import (
	"context"
	"errors"
	"fmt"

	"business-svc/internal/app"
	"business-svc/internal/business"
)

func addressFlags(f flags) *business.Address {
	if !f.has("street") && !f.has("city") && !f.has("country") {
		return nil
	}
	return &business.Address{
		Street:  f["street"],
		City:    f["city"],
		State:   f["state"],
		ZipCode: f["zip"],
		Country: f["country"],
	}
}

func contactFlags(f flags) *business.ContactInfo {
	if !f.has("email") {
		return nil
	}
	return &business.ContactInfo{Email: f["email"], Phone: f["phone"], Website: f["website"]}
}

// RunBusinessCreate creates a root organisation and its owner.
func RunBusinessCreate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("name", "legal-structure", "owner", "industry-code", "email")
	if err != nil {
		return err
	}
	incorporated, err := f.date("incorporation-date")
	if err != nil {
		return err
	}
	in := business.RootOrganizationInput{
		Name:               req[0],
		LegalName:          f["legal-name"],
		LegalStructure:     business.LegalStructure(req[1]),
		OwnerID:            req[2],
		IndustryCode:       req[3],
		Description:        f["description"],
		TaxID:              f["tax-id"],
		RegistrationNumber: f["registration-number"],
		IncorporationDate:  incorporated,
		ContactInfo:        *contactFlags(f),
	}
	if in.LegalName == "" {
		in.LegalName = in.Name
	}
	if addr := addressFlags(f); addr != nil {
		in.Address = *addr
	}

	view, owner, err := svc.CreateRootOrganization(ctx, in)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}
	fmt.Printf("Created business: %s (ID: %s)\n", view.Name, view.ID)
	fmt.Printf("Owner member: %s (user %s)\n", owner.ID, owner.UserID)
	return nil
}

// RunBusinessCreateSub creates a sub-business under --parent.
func RunBusinessCreateSub(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("parent", "name", "type", "actor")
	if err != nil {
		return err
	}
	view, err := svc.CreateSubBusiness(ctx, req[3], req[0], req[1], business.EntityType(req[2]))
	if err != nil {
		return fmt.Errorf("failed to create sub-business: %w", err)
	}
	fmt.Printf("Created %s: %s (ID: %s, level %d)\n", view.Type, view.Name, view.ID, view.Hierarchy.Level)
	return nil
}

// RunBusinessList lists live businesses, or the children of --parent.
func RunBusinessList(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	views, err := svc.ListBusinesses(ctx, f["parent"])
	if err != nil {
		return fmt.Errorf("failed to list businesses: %w", err)
	}
	if len(views) == 0 {
		fmt.Println("No businesses found.")
		return nil
	}

	fmt.Println("Businesses:")
	for _, v := range views {
		fmt.Printf("  ID: %s\n", v.ID)
		fmt.Printf("  Name: %s\n", v.Name)
		fmt.Printf("  Type: %s (level %d)\n", v.Type, v.Hierarchy.Level)
		fmt.Printf("  Status: %s / %s\n", v.Status, v.VerificationStatus)
		fmt.Println("  ---")
	}
	return nil
}

// RunBusinessGet prints one business as JSON.
func RunBusinessGet(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id")
	if err != nil {
		return err
	}
	view, err := svc.GetBusiness(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to get business: %w", err)
	}
	return printJSON(view)
}

// RunBusinessUpdate changes descriptive fields and settings.
func RunBusinessUpdate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("id")
	if err != nil {
		return err
	}
	u := app.BusinessUpdate{
		Description:        f.optional("description"),
		TaxID:              f.optional("tax-id"),
		RegistrationNumber: f.optional("registration-number"),
		Address:            addressFlags(f),
		ContactInfo:        contactFlags(f),
	}
	settings, err := settingsFlags(f)
	if err != nil {
		return err
	}
	u.Settings = settings

	view, err := svc.UpdateBusiness(ctx, req[0], u)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	fmt.Printf("Updated business: %s\n", view.ID)
	return nil
}

func settingsFlags(f flags) (*business.SettingsUpdate, error) {
	var u business.SettingsUpdate
	var set bool
	for name, dst := range map[string]**bool{
		"allow-subsidiaries":       &u.AllowSubsidiaries,
		"require-verification":     &u.RequireVerification,
		"auto-inherit-permissions": &u.AutoInheritPermissions,
		"cascade-status":           &u.CascadeStatusChanges,
	} {
		b, err := f.boolValue(name)
		if err != nil {
			return nil, err
		}
		if b != nil {
			*dst, set = b, true
		}
	}
	if f.has("max-members") {
		n, err := f.intValue("max-members", 0)
		if err != nil {
			return nil, err
		}
		u.MaxMembers, set = &n, true
	}
	if v := f.optional("timezone"); v != nil {
		u.Timezone, set = v, true
	}
	if v := f.optional("language"); v != nil {
		u.Language, set = v, true
	}
	if !set {
		return nil, nil
	}
	return &u, nil
}

// RunBusinessStatus applies --action=activate|suspend|reactivate|deactivate.
func RunBusinessStatus(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id", "action")
	if err != nil {
		return err
	}
	view, cascaded, err := svc.ChangeBusinessStatus(ctx, req[0], app.StatusAction(req[1]))
	if err != nil {
		return fmt.Errorf("failed to change business status: %w", err)
	}
	fmt.Printf("Business %s is now %s\n", view.ID, view.Status)
	for _, id := range cascaded {
		fmt.Printf("  cascaded to %s\n", id)
	}
	return nil
}

// RunBusinessVerify applies --action=submit|verify|reject|reset.
func RunBusinessVerify(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id", "action")
	if err != nil {
		return err
	}
	view, err := svc.ChangeVerification(ctx, req[0], app.VerificationAction(req[1]))
	if err != nil {
		return fmt.Errorf("failed to change verification: %w", err)
	}
	fmt.Printf("Business %s verification is now %s\n", view.ID, view.VerificationStatus)
	return nil
}

func RunBusinessClose(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id")
	if err != nil {
		return err
	}
	view, err := svc.CloseBusiness(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to close business: %w", err)
	}
	fmt.Printf("Closed business: %s\n", view.ID)
	return nil
}

func RunBusinessTier(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id", "tier")
	if err != nil {
		return err
	}
	view, err := svc.UpdateBillingTier(ctx, req[0], business.Tier(req[1]))
	if err != nil {
		return fmt.Errorf("failed to update billing tier: %w", err)
	}
	fmt.Printf("Business %s is on tier %s (%d calls/day, %d members)\n",
		view.ID, view.Billing.Tier, view.Billing.Limits.APICallsPerDay, view.Billing.Limits.MaxMembers)
	return nil
}

// RunBusinessCompliance updates compliance fields.
func RunBusinessCompliance(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("id")
	if err != nil {
		return err
	}
	signed, err := f.boolValue("contract-signed")
	if err != nil {
		return err
	}
	u := business.ComplianceUpdate{
		ContractSigned: signed,
		DataResidency:  f.optional("data-residency"),
		Documents:      f.list("documents"),
	}
	if v := f.optional("kyc-status"); v != nil {
		kyc := business.VerificationStatus(*v)
		u.KYCStatus = &kyc
	}
	view, err := svc.UpdateCompliance(ctx, req[0], u)
	if err != nil {
		return fmt.Errorf("failed to update compliance: %w", err)
	}
	fmt.Printf("Business %s compliance: KYC %s, contract signed %t\n",
		view.ID, view.Compliance.KYCStatus, view.Compliance.ContractSigned)
	return nil
}

func RunBusinessProduction(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id")
	if err != nil {
		return err
	}
	view, err := svc.EnableProductionEnvironment(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to enable production: %w", err)
	}
	fmt.Printf("Production environment enabled for %s\n", view.ID)
	return nil
}

// RunAPIKeyCreate issues a key and prints its value once.
func RunAPIKeyCreate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business", "env", "name")
	if err != nil {
		return err
	}
	rate, err := f.intValue("rate-limit", 0)
	if err != nil {
		return err
	}
	expires, err := f.date("expires")
	if err != nil {
		return err
	}
	key, err := svc.CreateAPIKey(ctx, req[0], business.APIKeyRequest{
		Environment: business.Environment(req[1]),
		Name:        req[2],
		Scopes:      f.list("scopes"),
		RateLimit:   rate,
		ExpiresAt:   expires,
	})
	if err != nil {
		return fmt.Errorf("failed to create API key: %w", err)
	}
	fmt.Printf("Created API key: %s (ID: %s)\n", key.Name, key.ID)
	fmt.Printf("Key: %s\n", key.Key)
	fmt.Println("Store this key now; it is not shown again.")
	return nil
}

func RunAPIKeyRevoke(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "key-id", "env")
	if err != nil {
		return err
	}
	if err := svc.RevokeAPIKey(ctx, req[0], req[1], business.Environment(req[2])); err != nil {
		return fmt.Errorf("failed to revoke API key: %w", err)
	}
	fmt.Printf("Revoked API key: %s\n", req[1])
	return nil
}

// errInvalidKey is returned by apikey-validate so the process exits non-zero.
var errInvalidKey = errors.New("API key is not valid")

func RunAPIKeyValidate(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "key")
	if err != nil {
		return err
	}
	view, ok, err := svc.ValidateAPIKey(ctx, req[0], req[1])
	if err != nil {
		return fmt.Errorf("failed to validate API key: %w", err)
	}
	if !ok {
		fmt.Println("API key is INVALID")
		return errInvalidKey
	}
	fmt.Printf("API key is VALID: %s (%s, %s)\n", view.Name, view.ID, view.Environment)
	return nil
}

// RunUsageTrack counts --count API calls. Usage is printed even when a
// limit is exceeded.
func RunUsageTrack(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business")
	if err != nil {
		return err
	}
	count, err := f.intValue("count", 1)
	if err != nil {
		return err
	}
	usage, err := svc.TrackUsage(ctx, req[0], count)
	if usage != nil {
		fmt.Printf("Usage for %s (%s): %d/%d today, %d/%d this month\n", usage.BusinessID, usage.Tier,
			usage.APICallsToday, usage.DailyLimit, usage.APICallsMonth, usage.MonthlyLimit)
	}
	if err != nil {
		return fmt.Errorf("failed to track usage: %w", err)
	}
	return nil
}
