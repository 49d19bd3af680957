package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"business-svc/internal/app"
	"business-svc/internal/business"
)

func RunInviteCreate(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business", "email", "role", "actor")
	if err != nil {
		return err
	}
	days, err := f.intValue("days", 0)
	if err != nil {
		return err
	}
	view, err := svc.CreateInvitation(ctx, app.InvitationRequest{
		BusinessID:     req[0],
		Email:          req[1],
		RoleID:         req[2],
		InvitedBy:      req[3],
		Message:        f["message"],
		ExpirationDays: days,
	})
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	fmt.Printf("Invited %s (ID: %s)\n", view.Email, view.ID)
	fmt.Printf("Token: %s\n", view.Token)
	fmt.Printf("Expires: %s\n", view.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func RunInviteAccept(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("token", "user")
	if err != nil {
		return err
	}
	m, err := svc.AcceptInvitation(ctx, req[0], req[1])
	if err != nil {
		return fmt.Errorf("failed to accept invitation: %w", err)
	}
	fmt.Printf("User %s joined business %s (member %s)\n", m.UserID, m.BusinessID, m.ID)
	return nil
}

func RunInviteReject(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("token")
	if err != nil {
		return err
	}
	view, err := svc.RejectInvitation(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to reject invitation: %w", err)
	}
	fmt.Printf("Rejected invitation: %s\n", view.ID)
	return nil
}

func RunInviteCancel(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("id", "actor")
	if err != nil {
		return err
	}
	view, err := svc.CancelInvitation(ctx, req[1], req[0])
	if err != nil {
		return fmt.Errorf("failed to cancel invitation: %w", err)
	}
	fmt.Printf("Cancelled invitation: %s\n", view.ID)
	return nil
}

// RunInviteResend records another delivery; --extend-days also resets the
// expiry.
func RunInviteResend(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("id", "actor")
	if err != nil {
		return err
	}
	days, err := f.intValue("extend-days", 0)
	if err != nil {
		return err
	}
	view, err := svc.ResendInvitation(ctx, req[1], req[0], days)
	if err != nil {
		return fmt.Errorf("failed to resend invitation: %w", err)
	}
	fmt.Printf("Resent invitation %s (%d/%d), expires %s\n",
		view.ID, view.ResendCount, business.MaxResends, view.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func RunInviteExtend(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("id", "actor", "days")
	if err != nil {
		return err
	}
	days, err := f.intValue("days", 0)
	if err != nil {
		return err
	}
	view, err := svc.ExtendInvitation(ctx, req[1], req[0], days)
	if err != nil {
		return fmt.Errorf("failed to extend invitation: %w", err)
	}
	fmt.Printf("Invitation %s now expires %s\n", view.ID, view.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func RunInviteList(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business")
	if err != nil {
		return err
	}
	views, err := svc.ListInvitations(ctx, req[0], business.InvitationStatus(f["status"]))
	if err != nil {
		return fmt.Errorf("failed to list invitations: %w", err)
	}
	if len(views) == 0 {
		fmt.Println("No invitations found.")
		return nil
	}

	fmt.Println("Invitations:")
	for _, v := range views {
		fmt.Printf("  ID: %s\n", v.ID)
		fmt.Printf("  Email: %s\n", v.Email)
		fmt.Printf("  Status: %s (%s, %d days left)\n", v.Status, v.ExpirationStatus, v.DaysUntilExpiry)
		fmt.Printf("  Role ID: %s\n", v.RoleID)
		fmt.Println("  ---")
	}
	return nil
}

// InviteBulkCommand creates the invite-bulk command
func InviteBulkCommand(svc *app.Service) *cobra.Command {
	var (
		businessID string
		roleID     string
		actor      string
		message    string
		emails     []string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "invite-bulk",
		Short: "Invite many email addresses with one role",
		Long: `Invite a list of email addresses into a business under a shared batch id.

Each address is validated and stored on its own, so one bad address does not
stop the rest. Failures are reported per address.

Examples:
  ./business-svc invite-bulk --business=<id> --role=<role-id> --actor=<user> \
      --emails=a@acme.test,b@acme.test`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.CreateBulkInvitations(cmd.Context(), app.InvitationRequest{
				BusinessID:     businessID,
				RoleID:         roleID,
				InvitedBy:      actor,
				Message:        message,
				ExpirationDays: days,
			}, emails)
			if err != nil {
				return fmt.Errorf("failed to create bulk invitations: %w", err)
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&businessID, "business", "", "Business to invite into")
	cmd.Flags().StringVar(&roleID, "role", "", "Role offered to every invitee")
	cmd.Flags().StringVar(&actor, "actor", "", "Inviting user (needs MEMBER_INVITE)")
	cmd.Flags().StringVar(&message, "message", "", "Optional message included with each invitation")
	cmd.Flags().StringSliceVar(&emails, "emails", nil, "Comma-separated email addresses")
	cmd.Flags().IntVar(&days, "days", 0, "Days until the invitations expire (default from BIZ_INVITATION_TTL_DAYS)")
	_ = cmd.MarkFlagRequired("business")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("actor")
	_ = cmd.MarkFlagRequired("emails")

	return cmd
}

// RunInviteBulk runs InviteBulkCommand with args.
func RunInviteBulk(ctx context.Context, svc *app.Service, args []string) error {
	cmd := InviteBulkCommand(svc)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
