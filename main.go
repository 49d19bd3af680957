package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"business-svc/internal/app"
	"business-svc/internal/cli"
	"business-svc/internal/config"
	"business-svc/internal/datastore"
	"business-svc/internal/logger"
	"business-svc/internal/observability"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		printUsage()
		return 1
	}

	command := os.Args[1]
	args := os.Args[2:]

	// Handle help command without DB connection
	if command == "help" {
		printUsage()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx := context.Background()
	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Environment: cfg.LogMode,
		Version:     version,
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelExporterEndpoint,
		SampleRatio: cfg.OTelSamplerRatio,
	})
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			log.Warn("Tracer shutdown failed", "error", err)
		}
	}()

	// All other commands require data store connection
	dsCfg := cfg.DataStore()
	dataStore, err := datastore.NewDataStore(dsCfg)
	if err != nil {
		log.Error("Failed to initialize data store", "error", err, "store_type", dsCfg.Type)
		return 1
	}
	defer dataStore.Close()

	if dsCfg.Type == datastore.MockStore {
		log.Info("Running in MOCK mode", "data_path", dsCfg.MockDataPath)
	} else {
		log.Info("Running in DATABASE mode")
	}

	svc := app.NewService(dataStore,
		app.WithLogger(log),
		app.WithInvitationTTL(cfg.InvitationTTLDays),
	)

	switch command {
	// SETUP COMMANDS
	case "init-db":
		err = cli.RunInitDB(ctx, dataStore, args)
	case "seed-roles":
		err = cli.RunSeedRoles(ctx, svc, args)
	case "maintain":
		err = cli.RunMaintain(ctx, svc, args)

	// BUSINESS COMMANDS
	case "business-create":
		err = cli.RunBusinessCreate(ctx, svc, args)
	case "business-create-sub":
		err = cli.RunBusinessCreateSub(ctx, svc, args)
	case "business-list":
		err = cli.RunBusinessList(ctx, svc, args)
	case "business-get":
		err = cli.RunBusinessGet(ctx, svc, args)
	case "business-update":
		err = cli.RunBusinessUpdate(ctx, svc, args)
	case "business-status":
		err = cli.RunBusinessStatus(ctx, svc, args)
	case "business-verify":
		err = cli.RunBusinessVerify(ctx, svc, args)
	case "business-close":
		err = cli.RunBusinessClose(ctx, svc, args)
	case "business-tier":
		err = cli.RunBusinessTier(ctx, svc, args)
	case "business-compliance":
		err = cli.RunBusinessCompliance(ctx, svc, args)
	case "business-production":
		err = cli.RunBusinessProduction(ctx, svc, args)

	// API KEYS AND USAGE
	case "apikey-create":
		err = cli.RunAPIKeyCreate(ctx, svc, args)
	case "apikey-revoke":
		err = cli.RunAPIKeyRevoke(ctx, svc, args)
	case "apikey-validate":
		err = cli.RunAPIKeyValidate(ctx, svc, args)
	case "usage-track":
		err = cli.RunUsageTrack(ctx, svc, args)

	// MEMBER COMMANDS
	case "member-list":
		err = cli.RunMemberList(ctx, svc, args)
	case "member-get":
		err = cli.RunMemberGet(ctx, svc, args)
	case "member-role":
		err = cli.RunMemberRole(ctx, svc, args)
	case "member-status":
		err = cli.RunMemberStatus(ctx, svc, args)
	case "member-remove":
		err = cli.RunMemberRemove(ctx, svc, args)
	case "ownership-transfer":
		err = cli.RunOwnershipTransfer(ctx, svc, args)

	// INVITATION COMMANDS
	case "invite-create":
		err = cli.RunInviteCreate(ctx, svc, args)
	case "invite-bulk":
		err = cli.RunInviteBulk(ctx, svc, args)
	case "invite-accept":
		err = cli.RunInviteAccept(ctx, svc, args)
	case "invite-reject":
		err = cli.RunInviteReject(ctx, svc, args)
	case "invite-cancel":
		err = cli.RunInviteCancel(ctx, svc, args)
	case "invite-resend":
		err = cli.RunInviteResend(ctx, svc, args)
	case "invite-extend":
		err = cli.RunInviteExtend(ctx, svc, args)
	case "invite-list":
		err = cli.RunInviteList(ctx, svc, args)

	// ROLE CRUD COMMANDS
	case "role-create":
		err = cli.RunRoleCreate(ctx, svc, args)
	case "role-list":
		err = cli.RunRoleList(ctx, svc, args)
	case "role-get":
		err = cli.RunRoleGet(ctx, svc, args)
	case "role-update":
		err = cli.RunRoleUpdate(ctx, svc, args)
	case "role-delete":
		err = cli.RunRoleDelete(ctx, svc, args)

	// MOCK DATA EXPORT
	case "export-mock-data":
		err = cli.RunExportMockData(ctx, dataStore, args)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		return 1
	}

	if err != nil {
		log.Error("Command failed", "command", command, "error", err)
		return 1
	}

	return 0
}

func printUsage() {
	fmt.Println("Business Service CLI (organisations, members, roles and invitations)")
	fmt.Println("Usage: business-svc <command> [options]")
	fmt.Println("\nEnvironment Variables:")
	fmt.Println("  BIZ_STORE_TYPE               Set to 'mock' for disconnected mode, 'postgresql' for database mode (default)")
	fmt.Println("  BIZ_MOCK_DATA_PATH           Path to mock data directory (default: data/mocks)")
	fmt.Println("  DB_CONN_STRING               PostgreSQL connection string (required for database mode)")
	fmt.Println("  BIZ_LOG_MODE                 'development' (default) or 'production' logging")
	fmt.Println("  BIZ_INVITATION_TTL_DAYS      Default invitation lifetime in days (default: 7)")
	fmt.Println("  OTEL_ENABLED                 Enable tracing (spans go to stderr unless an OTLP endpoint is set)")
	fmt.Println("  OTEL_EXPORTER_OTLP_ENDPOINT  OTLP/HTTP collector endpoint")
	fmt.Println("  OTEL_SAMPLER_RATIO           Trace sampling ratio between 0 and 1 (default: 1)")
	fmt.Println("\nSetup Commands:")
	fmt.Println("  init-db                      (One-time) Initializes the PostgreSQL schema and seeds system roles.")
	fmt.Println("  seed-roles                   Inserts any missing system role.")
	fmt.Println("  maintain [--expire-invitations=false] [--reset-usage=false]")
	fmt.Println("                               Expires stale invitations and resets daily API usage.")
	fmt.Println("\nBusiness Commands:")
	fmt.Println("  business-create --name=<name> --legal-structure=<LLC|CORPORATION|...> --owner=<user-id>")
	fmt.Println("                  --industry-code=<code> --email=<email> --street=<s> --city=<c> --country=<cc>")
	fmt.Println("                  [--state=<s>] [--zip=<z>] [--legal-name=<name>] [--phone=<p>] [--website=<url>]")
	fmt.Println("                  [--description=<d>] [--tax-id=<id>] [--registration-number=<n>] [--incorporation-date=<YYYY-MM-DD>]")
	fmt.Println("  business-create-sub --parent=<id> --name=<name> --type=<SUBSIDIARY|DIVISION|DEPARTMENT|TEAM> --actor=<user-id>")
	fmt.Println("  business-list [--parent=<id>]")
	fmt.Println("  business-get --id=<id>")
	fmt.Println("  business-update --id=<id> [--description=<d>] [--tax-id=<id>] [--registration-number=<n>]")
	fmt.Println("                  [--street=<s> --city=<c> --country=<cc> ...] [--email=<e> ...]")
	fmt.Println("                  [--allow-subsidiaries=<bool>] [--require-verification=<bool>] [--auto-inherit-permissions=<bool>]")
	fmt.Println("                  [--cascade-status=<bool>] [--max-members=<n>] [--timezone=<tz>] [--language=<l>]")
	fmt.Println("  business-status --id=<id> --action=<activate|suspend|reactivate|deactivate>")
	fmt.Println("  business-verify --id=<id> --action=<submit|verify|reject|reset>")
	fmt.Println("  business-close --id=<id>")
	fmt.Println("  business-tier --id=<id> --tier=<FREE|STARTUP|ENTERPRISE>")
	fmt.Println("  business-compliance --id=<id> [--kyc-status=<s>] [--contract-signed=<bool>] [--data-residency=<r>] [--documents=<d1,d2>]")
	fmt.Println("  business-production --id=<id>")
	fmt.Println("\nAPI Key and Usage Commands:")
	fmt.Println("  apikey-create --business=<id> --env=<sandbox|production> --name=<name> [--scopes=<s1,s2>] [--rate-limit=<n>] [--expires=<date>]")
	fmt.Println("  apikey-revoke --business=<id> --key-id=<id> --env=<sandbox|production>")
	fmt.Println("  apikey-validate --business=<id> --key=<value>")
	fmt.Println("  usage-track --business=<id> [--count=<n>]")
	fmt.Println("\nMember Commands:")
	fmt.Println("  member-list --business=<id>")
	fmt.Println("  member-get --business=<id> --user=<user-id>")
	fmt.Println("  member-role --business=<id> --actor=<user-id> --user=<user-id> --role=<role-id>")
	fmt.Println("  member-status --business=<id> --actor=<user-id> --user=<user-id> --action=<activate|deactivate|suspend|unsuspend> [--reason=<r>]")
	fmt.Println("  member-remove --business=<id> --actor=<user-id> --user=<user-id>")
	fmt.Println("  ownership-transfer --business=<id> --from=<user-id> --to=<user-id>")
	fmt.Println("\nInvitation Commands:")
	fmt.Println("  invite-create --business=<id> --email=<email> --role=<role-id> --actor=<user-id> [--message=<m>] [--days=<n>]")
	fmt.Println("  invite-bulk --business=<id> --role=<role-id> --actor=<user-id> --emails=<e1,e2,...>")
	fmt.Println("  invite-accept --token=<token> --user=<user-id>")
	fmt.Println("  invite-reject --token=<token>")
	fmt.Println("  invite-cancel --id=<id> --actor=<user-id>")
	fmt.Println("  invite-resend --id=<id> --actor=<user-id> [--extend-days=<n>]")
	fmt.Println("  invite-extend --id=<id> --actor=<user-id> --days=<n>")
	fmt.Println("  invite-list --business=<id> [--status=<PENDING|ACCEPTED|...>]")
	fmt.Println("\nRole Management Commands:")
	fmt.Println("  role-create --business=<id> --name=<name> --permissions=<p1,p2> --actor=<user-id> [--description=<d>] [--hierarchy=<n>]")
	fmt.Println("  role-list [--business=<id>]   Lists system roles plus the business's custom roles")
	fmt.Println("  role-get --id=<role-id>      Get role details")
	fmt.Println("  role-update --id=<role-id> --actor=<user-id> [--name=<name>] [--description=<desc>] [--permissions=<p1,p2>]")
	fmt.Println("  role-delete --id=<role-id> --actor=<user-id>")
	fmt.Println("\nUtility Commands:")
	fmt.Println("  export-mock-data [--dir=<path>] Exports existing database records to JSON mock files")
}
