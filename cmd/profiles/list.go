package profiles

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles with their app grants and roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bundle, err := openBundle(ctx)
		if err != nil {
			return err
		}
		defer bundle.Close()

		summaries, err := bundle.Manager.ListProfiles(ctx)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		superuserRole := viper.GetString("entitlements.superuser_role")
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tEMAIL\tACTIVE\tSUPERUSER\tAPPS")
		for _, s := range summaries {
			apps := strings.Join(s.Apps, ",")
			if apps == "" {
				apps = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%t\t%t\t%s\n",
				s.Profile.ID, s.Profile.Email, s.Profile.IsActive, slices.Contains(s.Roles, superuserRole), apps)
		}
		return w.Flush()
	},
}
