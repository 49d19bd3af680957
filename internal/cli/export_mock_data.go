package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"business-svc/internal/datastore"
	"business-svc/internal/mocks"
)

// RunExportMockData exports existing database records to JSON files
func RunExportMockData(ctx context.Context, ds datastore.DataStore, args []string) error {
	outputDir := "data/mocks"
	if dir := parseFlags(args)["dir"]; dir != "" {
		outputDir = dir
	}

	fmt.Printf("Exporting database records to %s...\n", outputDir)

	var data mocks.SeedData
	var err error
	if data.Businesses, err = ds.Businesses().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export businesses: %w", err)
	}
	if data.Members, err = ds.Members().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export members: %w", err)
	}
	if data.Roles, err = ds.Roles().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export roles: %w", err)
	}
	if data.Invitations, err = ds.Invitations().FindAll(ctx); err != nil {
		return fmt.Errorf("failed to export invitations: %w", err)
	}

	counts, err := mocks.WriteSeedFiles(outputDir, data)
	if err != nil {
		return err
	}
	for _, name := range []string{mocks.BusinessesFile, mocks.MembersFile, mocks.RolesFile, mocks.InvitationsFile} {
		fmt.Printf("Exported %d records to %s\n", counts[name], filepath.Join(outputDir, name))
	}

	fmt.Println("Export completed successfully!")
	return nil
}

// RunInitDB creates the schema and seeds the system roles.
func RunInitDB(ctx context.Context, ds datastore.DataStore, args []string) error {
	if err := ds.InitDB(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	n, err := ds.SeedSystemRoles(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed system roles: %w", err)
	}
	fmt.Printf("Database initialized successfully (%d system roles seeded).\n", n)
	return nil
}
