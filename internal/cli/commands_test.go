package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"business-svc/internal/app"
	"business-svc/internal/datastore"
	"business-svc/internal/mocks"
)

// steppingClock moves forward a millisecond on every read, so consecutive
// commands never share an instant.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newTestService(t *testing.T) (*app.Service, datastore.DataStore) {
	t.Helper()
	clock := &steppingClock{t: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)}
	ds, err := datastore.NewDataStore(datastore.Config{Type: datastore.MockStore, Clock: clock.Now})
	if err != nil {
		t.Fatalf("failed to create mock data store: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	return app.NewService(ds, app.WithClock(clock.Now)), ds
}

// captureStdout runs fn with os.Stdout redirected and returns what it wrote.
func captureStdout(t *testing.T, fn func() error) (string, error) {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := fn()
	w.Close()
	return <-done, runErr
}

var idPattern = regexp.MustCompile(`\(ID: ([^,)]+)`)

func extractID(t *testing.T, out string) string {
	t.Helper()
	m := idPattern.FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("no ID in output: %s", out)
	}
	return m[1]
}

func createBusiness(t *testing.T, svc *app.Service) string {
	t.Helper()
	out, err := captureStdout(t, func() error {
		return RunBusinessCreate(context.Background(), svc, []string{
			"--name=Acme", "--legal-structure=LLC", "--owner=owner-1", "--industry-code=5411",
			"--email=ops@acme.test", "--street=1 Main St", "--city=Springfield", "--zip=62701", "--country=US",
		})
	})
	if err != nil {
		t.Fatalf("RunBusinessCreate returned error: %v", err)
	}
	return extractID(t, out)
}

func TestParseFlags(t *testing.T) {
	f := parseFlags([]string{"stray", "--id=b-1", "--name", "Acme Corp", "--verbose", "--empty=", "--dry-run"})

	if f["id"] != "b-1" {
		t.Errorf("id = %q, want b-1", f["id"])
	}
	if f["name"] != "Acme Corp" {
		t.Errorf("name = %q, want Acme Corp", f["name"])
	}
	if f["verbose"] != "true" {
		t.Errorf("verbose = %q, want true", f["verbose"])
	}
	if !f.has("empty") || f["empty"] != "" {
		t.Errorf("empty flag not recorded: %#v", f)
	}
	if f["dry-run"] != "true" {
		t.Errorf("dry-run = %q, want true", f["dry-run"])
	}
	if f.has("stray") {
		t.Errorf("positional argument recorded as flag: %#v", f)
	}
	if got := parseFlags([]string{"--reason", "policy breach"})["reason"]; got != "policy breach" {
		t.Errorf("reason = %q, want policy breach", got)
	}
	if _, err := f.require("id", "missing"); err == nil || err.Error() != "--missing is required" {
		t.Errorf("require error = %v", err)
	}
	if _, err := parseFlags([]string{"--count=many"}).intValue("count", 1); err == nil {
		t.Error("expected integer parse error")
	}
	if got := parseFlags([]string{"--scopes=read, write,,"}).list("scopes"); len(got) != 2 || got[1] != "write" {
		t.Errorf("list = %#v", got)
	}
}

func TestRunBusinessCreateRequiresFlags(t *testing.T) {
	svc, _ := newTestService(t)
	err := RunBusinessCreate(context.Background(), svc, []string{"--legal-structure=LLC"})
	if err == nil || !strings.Contains(err.Error(), "--name is required") {
		t.Fatalf("expected missing --name error, got %v", err)
	}
}

func TestBusinessAndMemberCommands(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bizID := createBusiness(t, svc)

	out, err := captureStdout(t, func() error { return RunBusinessGet(ctx, svc, []string{"--id=" + bizID}) })
	if err != nil {
		t.Fatalf("RunBusinessGet returned error: %v", err)
	}
	var view app.BusinessView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("business-get output is not JSON: %v\n%s", err, out)
	}
	if view.Name != "Acme" || view.OwnerID != "owner-1" {
		t.Errorf("unexpected business: %+v", view)
	}

	out, err = captureStdout(t, func() error { return RunRoleList(ctx, svc, nil) })
	if err != nil {
		t.Fatalf("RunRoleList returned error: %v", err)
	}
	m := regexp.MustCompile(`ID: (\S+)\n\s+Name: MEMBER`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("MEMBER role missing from role-list: %s", out)
	}
	memberRoleID := m[1]

	out, err = captureStdout(t, func() error {
		return RunInviteCreate(ctx, svc, []string{
			"--business=" + bizID, "--email=bob@acme.test", "--role=" + memberRoleID, "--actor=owner-1",
		})
	})
	if err != nil {
		t.Fatalf("RunInviteCreate returned error: %v", err)
	}
	tm := regexp.MustCompile(`Token: (\S+)`).FindStringSubmatch(out)
	if tm == nil {
		t.Fatalf("no token in output: %s", out)
	}

	if _, err := captureStdout(t, func() error {
		return RunInviteAccept(ctx, svc, []string{"--token=" + tm[1], "--user=user-2"})
	}); err != nil {
		t.Fatalf("RunInviteAccept returned error: %v", err)
	}

	out, err = captureStdout(t, func() error { return RunMemberList(ctx, svc, []string{"--business", bizID}) })
	if err != nil {
		t.Fatalf("RunMemberList returned error: %v", err)
	}
	if !strings.Contains(out, "User: owner-1 (owner)") || !strings.Contains(out, "User: user-2") {
		t.Errorf("member-list output missing members: %s", out)
	}

	out, err = captureStdout(t, func() error {
		return RunBusinessStatus(ctx, svc, []string{"--id=" + bizID, "--action=suspend"})
	})
	if err != nil {
		t.Fatalf("RunBusinessStatus returned error: %v", err)
	}
	if !strings.Contains(out, "is now SUSPENDED") {
		t.Errorf("unexpected business-status output: %s", out)
	}
}

func TestAPIKeyCommands(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bizID := createBusiness(t, svc)

	out, err := captureStdout(t, func() error {
		return RunAPIKeyCreate(ctx, svc, []string{"--business=" + bizID, "--env=sandbox", "--name=ci", "--scopes=read,write"})
	})
	if err != nil {
		t.Fatalf("RunAPIKeyCreate returned error: %v", err)
	}
	km := regexp.MustCompile(`Key: (\S+)`).FindStringSubmatch(out)
	if km == nil {
		t.Fatalf("no key in output: %s", out)
	}

	out, err = captureStdout(t, func() error {
		return RunAPIKeyValidate(ctx, svc, []string{"--business=" + bizID, "--key=" + km[1]})
	})
	if err != nil || !strings.Contains(out, "VALID: ci") {
		t.Fatalf("expected valid key, got err=%v out=%s", err, out)
	}

	_, err = captureStdout(t, func() error {
		return RunAPIKeyValidate(ctx, svc, []string{"--business=" + bizID, "--key=sk_sandbox_nope"})
	})
	if !errors.Is(err, errInvalidKey) {
		t.Errorf("expected errInvalidKey, got %v", err)
	}
}

func TestRunUsageTrackReportsOverLimit(t *testing.T) {
	svc, _ := newTestService(t)
	bizID := createBusiness(t, svc)

	out, err := captureStdout(t, func() error {
		return RunUsageTrack(context.Background(), svc, []string{"--business=" + bizID, "--count=1500"})
	})
	if err == nil {
		t.Fatal("expected limit error")
	}
	if !strings.Contains(out, "1500/1000 today") {
		t.Errorf("usage not printed: %s", out)
	}
}

func TestMaintainCommand(t *testing.T) {
	svc, _ := newTestService(t)
	createBusiness(t, svc)

	out, err := captureStdout(t, func() error { return RunMaintain(context.Background(), svc, nil) })
	if err != nil {
		t.Fatalf("RunMaintain returned error: %v", err)
	}
	if !strings.Contains(out, "Expired 0 invitations") || !strings.Contains(out, "Reset daily usage for 1 businesses") {
		t.Errorf("unexpected maintain output: %s", out)
	}

	err = RunMaintain(context.Background(), svc, []string{"--expire-invitations=false", "--reset-usage=false"})
	if err == nil {
		t.Error("expected error when both jobs are disabled")
	}
}

func TestInviteBulkCommand(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	bizID := createBusiness(t, svc)
	roles, err := svc.ListRoles(ctx, "")
	if err != nil {
		t.Fatalf("ListRoles returned error: %v", err)
	}
	var viewerID string
	for _, r := range roles {
		if r.Name == "VIEWER" {
			viewerID = r.ID
		}
	}

	out, err := captureStdout(t, func() error {
		return RunInviteBulk(ctx, svc, []string{
			"--business=" + bizID, "--role=" + viewerID, "--actor=owner-1",
			"--emails=a@acme.test,b@acme.test,broken",
		})
	})
	if err != nil {
		t.Fatalf("RunInviteBulk returned error: %v", err)
	}
	var res app.BulkResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invite-bulk output is not JSON: %v\n%s", err, out)
	}
	if res.BatchID == "" || len(res.Created) != 2 || len(res.Failed) != 1 {
		t.Errorf("unexpected bulk result: %+v", res)
	}
}

func TestRunExportMockData(t *testing.T) {
	svc, ds := newTestService(t)
	bizID := createBusiness(t, svc)
	dir := t.TempDir()

	out, err := captureStdout(t, func() error {
		return RunExportMockData(context.Background(), ds, []string{"--dir=" + dir})
	})
	if err != nil {
		t.Fatalf("RunExportMockData returned error: %v", err)
	}
	if !strings.Contains(out, "Exported 1 records") {
		t.Errorf("unexpected export output: %s", out)
	}

	reloaded, err := mocks.NewMockStore(dir)
	if err != nil {
		t.Fatalf("failed to load exported data: %v", err)
	}
	e, err := reloaded.Businesses().FindByID(context.Background(), bizID)
	if err != nil || e == nil {
		t.Fatalf("exported business %s not found: %v", bizID, err)
	}
	if e.Name() != "Acme" {
		t.Errorf("name = %q, want Acme", e.Name())
	}
}
