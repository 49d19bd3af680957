package cli

import (
	"context"
	"fmt"
	"strings"

	"business-svc/internal/app"
)

func RunMemberList(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business")
	if err != nil {
		return err
	}
	views, err := svc.ListMembers(ctx, req[0])
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	if len(views) == 0 {
		fmt.Println("No members found.")
		return nil
	}

	fmt.Println("Members:")
	for _, m := range views {
		owner := ""
		if m.IsOwner {
			owner = " (owner)"
		}
		fmt.Printf("  User: %s%s\n", m.UserID, owner)
		fmt.Printf("  Member ID: %s\n", m.ID)
		fmt.Printf("  Role ID: %s\n", m.RoleID)
		fmt.Printf("  Status: %s\n", m.Status)
		fmt.Println("  ---")
	}
	return nil
}

// RunMemberGet prints one member, including recent activity, as JSON.
func RunMemberGet(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "user")
	if err != nil {
		return err
	}
	view, err := svc.GetMember(ctx, req[0], req[1])
	if err != nil {
		return fmt.Errorf("failed to get member: %w", err)
	}
	return printJSON(view)
}

func RunMemberRole(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "actor", "user", "role")
	if err != nil {
		return err
	}
	view, err := svc.ChangeMemberRole(ctx, req[0], req[1], req[2], req[3])
	if err != nil {
		return fmt.Errorf("failed to change member role: %w", err)
	}
	perms := make([]string, len(view.Permissions))
	for i, p := range view.Permissions {
		perms[i] = string(p)
	}
	fmt.Printf("Member %s now holds role %s [%s]\n", view.UserID, view.RoleID, strings.Join(perms, ", "))
	return nil
}

// RunMemberStatus applies --action=activate|deactivate|suspend|unsuspend.
func RunMemberStatus(ctx context.Context, svc *app.Service, args []string) error {
	f := parseFlags(args)
	req, err := f.require("business", "actor", "user", "action")
	if err != nil {
		return err
	}
	view, err := svc.ChangeMemberStatus(ctx, req[0], req[1], req[2], app.MemberAction(req[3]), f["reason"])
	if err != nil {
		return fmt.Errorf("failed to change member status: %w", err)
	}
	fmt.Printf("Member %s is now %s\n", view.UserID, view.Status)
	return nil
}

func RunMemberRemove(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "actor", "user")
	if err != nil {
		return err
	}
	if err := svc.RemoveMember(ctx, req[0], req[1], req[2]); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	fmt.Printf("Removed member %s from %s\n", req[2], req[0])
	return nil
}

func RunOwnershipTransfer(ctx context.Context, svc *app.Service, args []string) error {
	req, err := parseFlags(args).require("business", "from", "to")
	if err != nil {
		return err
	}
	from, to, err := svc.TransferOwnership(ctx, req[0], req[1], req[2])
	if err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}
	fmt.Printf("Ownership of %s transferred from %s to %s\n", req[0], from.UserID, to.UserID)
	return nil
}
