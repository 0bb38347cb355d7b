package profiles

import (
	"fmt"

	"github.com/spf13/cobra"
)

func setActiveCmd(use, short string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <profile-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
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

			if err := bundle.Manager.SetActive(ctx, profileID, active); err != nil {
				return fmt.Errorf("failed to %s profile %d: %w", use, profileID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %d active=%t\n", profileID, active)
			return nil
		},
	}
}

var (
	disableCmd = setActiveCmd("disable", "Disable a profile; takes effect on its next request", false)
	enableCmd  = setActiveCmd("enable", "Re-enable a disabled profile", true)
)

var revokeSuperuser bool

var superuserCmd = &cobra.Command{
	Use:   "superuser <profile-id>",
	Short: "Assign (or with --revoke remove) the superuser role",
	Args:  cobra.ExactArgs(1),
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

		if err := bundle.Manager.SetSuperuser(ctx, profileID, !revokeSuperuser); err != nil {
			return fmt.Errorf("failed to update superuser role: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Profile %d superuser=%t\n", profileID, !revokeSuperuser)
		return nil
	},
}

var flushProfileID int64

var flushCacheCmd = &cobra.Command{
	Use:   "flush-cache",
	Short: "Invalidate cached entitlements for one profile or all",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bundle, err := openBundle(ctx)
		if err != nil {
			return err
		}
		defer bundle.Close()

		if flushProfileID > 0 {
			if err := bundle.Manager.Invalidate(ctx, flushProfileID); err != nil {
				return fmt.Errorf("failed to invalidate profile %d: %w", flushProfileID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Invalidated profile %d\n", flushProfileID)
			return nil
		}

		if err := bundle.Manager.InvalidateAll(ctx); err != nil {
			return fmt.Errorf("failed to invalidate entitlements: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Invalidated all entitlements")
		return nil
	},
}

func init() {
	superuserCmd.Flags().BoolVar(&revokeSuperuser, "revoke", false, "Remove the superuser role instead of assigning it")
	flushCacheCmd.Flags().Int64Var(&flushProfileID, "profile", 0, "Only invalidate this profile")
}
