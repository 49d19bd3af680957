package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"business-svc/internal/app"
)

// MaintainCommand creates the maintain command
func MaintainCommand(svc *app.Service) *cobra.Command {
	var (
		expire bool
		reset  bool
	)

	cmd := &cobra.Command{
		Use:   "maintain",
		Short: "Expire stale invitations and reset daily API usage",
		Long: `Run the periodic housekeeping jobs once.

Pending invitations past their expiry are marked EXPIRED, and the daily API
call counters of every live business are reset to zero. Run it from cron or
a scheduler of your choice.

Examples:
  # Run both jobs
  ./business-svc maintain

  # Only expire invitations
  ./business-svc maintain --reset-usage=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !expire && !reset {
				return fmt.Errorf("nothing to do: both --expire-invitations and --reset-usage are off")
			}
			ctx := cmd.Context()
			if expire {
				n, err := svc.ExpireInvitations(ctx)
				if err != nil {
					return fmt.Errorf("failed to expire invitations: %w", err)
				}
				fmt.Printf("Expired %d invitations\n", n)
			}
			if reset {
				n, err := svc.ResetDailyUsage(ctx)
				if err != nil {
					return fmt.Errorf("failed to reset daily usage: %w", err)
				}
				fmt.Printf("Reset daily usage for %d businesses\n", n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&expire, "expire-invitations", true, "Mark pending invitations past expiry as EXPIRED")
	cmd.Flags().BoolVar(&reset, "reset-usage", true, "Reset daily API call counters")

	return cmd
}

// RunMaintain runs MaintainCommand with args.
func RunMaintain(ctx context.Context, svc *app.Service, args []string) error {
	cmd := MaintainCommand(svc)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
