package mocks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"business-svc/internal/business"
	"business-svc/internal/store"
)

// SeedData is a full snapshot of the four aggregate tables.
type SeedData struct {
	Businesses  []*business.Entity
	Members     []*business.Member
	Roles       []*business.Role
	Invitations []*business.Invitation
}

// WriteSeedFiles writes data to dir in the layout NewMockStore reads and
// returns the number of records written per file.
func WriteSeedFiles(dir string, data SeedData) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	businesses := make([]store.BusinessRecord, len(data.Businesses))
	for i, e := range data.Businesses {
		businesses[i] = store.BusinessToRecord(e)
	}
	members := make([]store.MemberRecord, len(data.Members))
	for i, m := range data.Members {
		members[i] = store.MemberToRecord(m)
	}
	roles := make([]store.RoleRecord, len(data.Roles))
	for i, r := range data.Roles {
		roles[i] = store.RoleToRecord(r)
	}
	invitations := make([]store.InvitationRecord, len(data.Invitations))
	for i, inv := range data.Invitations {
		invitations[i] = store.InvitationToRecord(inv)
	}

	files := []struct {
		name    string
		records interface{}
		count   int
	}{
		{BusinessesFile, businesses, len(businesses)},
		{MembersFile, members, len(members)},
		{RolesFile, roles, len(roles)},
		{InvitationsFile, invitations, len(invitations)},
	}
	counts := make(map[string]int, len(files))
	for _, f := range files {
		if err := writeJSONFile(filepath.Join(dir, f.name), f.records); err != nil {
			return nil, err
		}
		counts[f.name] = f.count
	}
	return counts, nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
