package profiles

import (
	"fmt"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <profile-id> <app-key>...",
	Short: "Grant one or more apps to a profile",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, err := parseProfileID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		bundle, err := openBundle(ctx)
		if err != nil {
			return err
		}
		defer bundle.Close()

		for _, appKey := range args[1:] {
			if err := bundle.Manager.GrantApp(ctx, profileID, appKey, nil); err != nil {
				return fmt.Errorf("failed to grant %s: %w", appKey, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Granted %s to profile %d\n", appKey, profileID)
		}
		return nil
	},
}

var revokeCmd = &cobra.Command{
	Use:   "revoke <profile-id> <app-key>...",
	Short: "Revoke one or more apps from a profile",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		profileID, err := parseProfileID(args[0])
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		bundle, err := openBundle(ctx)
		if err != nil {
			return err
		}
		defer bundle.Close()

		for _, appKey := range args[1:] {
			if err := bundle.Manager.RevokeApp(ctx, profileID, appKey); err != nil {
				return fmt.Errorf("failed to revoke %s: %w", appKey, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Revoked %s from profile %d\n", appKey, profileID)
		}
		return nil
	},
}
