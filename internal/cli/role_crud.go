package cli

import (
	"context"
	"fmt"
	"strings"

	"business-svc/internal/app"
	"business-svc/internal/business"
)

// RunRoleCreate creates a custom role for a business
func RunRoleCreate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business", "name", "permissions", "actor")
	if err != nil {
		return err
	}
	perms, err := f.permissions("permissions")
	if err != nil {
		return err
	}
	hierarchy, err := f.intValue("hierarchy", 3)
	if err != nil {
		return err
	}

	role, err := svc.CreateCustomRole(ctx, req[3], app.RoleInput{
		BusinessID:  req[0],
		Name:        req[1],
		Description: f["description"],
		Permissions: perms,
		Hierarchy:   hierarchy,
	})
	if err != nil {
		return fmt.Errorf("failed to create role: %w", err)
	}

	fmt.Printf("Created role: %s (ID: %s)\n", role.Name, role.ID)
	return nil
}

// RunRoleList lists system roles plus the custom roles of --business
func RunRoleList(ctx context.Context, svc *app.Service, args []string) error {
	roles, err := svc.ListRoles(ctx, parseFlags(args)["business"])
	if err != nil {
		return fmt.Errorf("failed to list roles: %w", err)
	}

	if len(roles) == 0 {
		fmt.Println("No roles found.")
		return nil
	}

	fmt.Println("Roles:")
	for _, role := range roles {
		kind := "custom"
		if role.IsSystemRole {
			kind = "system"
		}
		fmt.Printf("  ID: %s\n", role.ID)
		fmt.Printf("  Name: %s (%s, level %d)\n", role.Name, kind, role.Hierarchy)
		fmt.Printf("  Description: %s\n", role.Description)
		fmt.Println("  ---")
	}

	return nil
}

// RunRoleGet retrieves a specific role
func RunRoleGet(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id")
	if err != nil {
		return err
	}

	role, err := svc.GetRole(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to get role: %w", err)
	}

	perms := make([]string, len(role.Permissions))
	for i, p := range role.Permissions {
		perms[i] = string(p)
	}
	fmt.Printf("Role Details:\n")
	fmt.Printf("  ID: %s\n", role.ID)
	fmt.Printf("  Name: %s\n", role.Name)
	fmt.Printf("  Description: %s\n", role.Description)
	fmt.Printf("  Hierarchy: %d\n", role.Hierarchy)
	fmt.Printf("  Permissions: %s\n", strings.Join(perms, ", "))

	return nil
}

// RunRoleUpdate updates a custom role
func RunRoleUpdate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("id", "actor")
	if err != nil {
		return err
	}
	perms, err := f.permissions("permissions")
	if err != nil {
		return err
	}

	role, err := svc.UpdateRole(ctx, req[1], req[0], app.RoleUpdate{
		Name:        f.optional("name"),
		Description: f.optional("description"),
		Permissions: perms,
	})
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	fmt.Printf("Updated role: %s\n", role.ID)
	return nil
}

// RunRoleDelete deletes a custom role
func RunRoleDelete(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id", "actor")
	if err != nil {
		return err
	}

	if err := svc.DeleteRole(ctx, req[1], req[0]); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	fmt.Printf("Deleted role: %s\n", req[0])
	return nil
}

// RunSeedRoles inserts the missing system roles
func RunSeedRoles(ctx context.Context, svc *app.Service, args []string) error {
	n, err := svc.SeedSystemRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed system roles: %w", err)
	}
	fmt.Printf("Seeded %d system roles (%d defined).\n", n, len(business.SystemRoles()))
	return nil
}
