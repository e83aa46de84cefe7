package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"golang-ar-analytics-service/internal/access"

	"github.com/spf13/cobra"
)

// Flags for the users commands
var (
	usersDB          string
	grantDisplayName string
	grantRole        string
	actingAdmin      string
)

// usersCmd groups the access-store administration commands
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage dashboard access",
	Long: `Users manages the authorized-users store directly, without going
through the HTTP API. Useful for initial setup and break-glass fixes.

Examples:
  ardash users list
  ardash users grant jane@example.com --name "Jane Doe" --role viewer --by admin@example.com
  ardash users revoke jane@example.com --by admin@example.com`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user records",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "EMAIL\tNAME\tROLE\tACTIVE\tGRANTED BY")
		for _, u := range store.ListUsers() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
				u.Email, u.DisplayName, u.Role, u.Active, u.GrantedBy)
		}
		return w.Flush()
	},
}

var usersGrantCmd = &cobra.Command{
	Use:   "grant <email>",
	Short: "Grant access to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		user, err := store.Grant(args[0], grantDisplayName, grantRole, actingAdmin)
		if err != nil {
			return NewCLIErrorHandler().Report(err)
		}
		fmt.Printf("Granted %s access to %s\n", user.Role, user.Email)
		return nil
	},
}

var usersRevokeCmd = &cobra.Command{
	Use:   "revoke <email>",
	Short: "Revoke a user's access (soft delete)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		found, err := store.Revoke(args[0], actingAdmin)
		if err != nil {
			return NewCLIErrorHandler().Report(err)
		}
		if !found {
			return fmt.Errorf("user not found: %s", args[0])
		}
		fmt.Printf("Revoked access for %s\n", args[0])
		return nil
	},
}

var usersRoleCmd = &cobra.Command{
	Use:   "role <email> <admin|viewer>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		found, err := store.UpdateRole(args[0], args[1], actingAdmin)
		if err != nil {
			return NewCLIErrorHandler().Report(err)
		}
		if !found {
			return fmt.Errorf("user not found: %s", args[0])
		}
		fmt.Printf("Updated %s to role %s\n", args[0], args[1])
		return nil
	},
}

var usersReactivateCmd = &cobra.Command{
	Use:   "reactivate <email>",
	Short: "Re-enable a previously revoked user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		found, err := store.Reactivate(args[0], actingAdmin)
		if err != nil {
			return NewCLIErrorHandler().Report(err)
		}
		if !found {
			return fmt.Errorf("user not found: %s", args[0])
		}
		fmt.Printf("Reactivated %s\n", args[0])
		return nil
	},
}

func openStore() (*access.Store, error) {
	store, err := access.NewStore(usersDB)
	if err != nil {
		return nil, NewCLIErrorHandler().Report(err)
	}
	return store, nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersGrantCmd, usersRevokeCmd, usersRoleCmd, usersReactivateCmd)

	usersCmd.PersistentFlags().StringVar(&usersDB, "access-db", "config/authorized_users.json", "path to the authorized-users store")
	usersCmd.PersistentFlags().StringVar(&actingAdmin, "by", "cli", "email recorded as the acting administrator")

	usersGrantCmd.Flags().StringVar(&grantDisplayName, "name", "", "display name for the user")
	usersGrantCmd.Flags().StringVar(&grantRole, "role", access.RoleViewer, "role: admin or viewer")
}
