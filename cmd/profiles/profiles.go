package profiles

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/grantsuite/accessgate/cmd/cmdutil"
	"github.com/grantsuite/accessgate/internal/config"
)

// ProfilesCmd groups the entitlement administration commands. Every write goes
// through the entitlement manager, so the affected cache entry is invalidated.
var ProfilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage profile app grants, activation and superuser role",
}

func init() {
	ProfilesCmd.AddCommand(listCmd)
	ProfilesCmd.AddCommand(grantCmd)
	ProfilesCmd.AddCommand(revokeCmd)
	ProfilesCmd.AddCommand(disableCmd)
	ProfilesCmd.AddCommand(enableCmd)
	ProfilesCmd.AddCommand(superuserCmd)
	ProfilesCmd.AddCommand(flushCacheCmd)
}

func openBundle(ctx context.Context) (*cmdutil.EntitlementBundle, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cmdutil.NewEntitlementBundle(ctx, cfg, cmdutil.BundleOptions{})
}

func parseProfileID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid profile id %q", arg)
	}
	return id, nil
}
