package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garrison-sh/garrison/pkg/sftp"
)

var sftpCmd = &cobra.Command{
	Use:   "sftp",
	Short: "Manage tenant access to the shared SFTP gateway",
}

func init() {
	sftpCmd.PersistentFlags().StringVarP(&flagSubscriptionID, "subscription-id", "u", "", "Unique subscription identifier")
	sftpAddCmd.Flags().StringVarP(&flagGameType, "game-type", "g", "", "Game type (valheim, ...)")

	sftpCmd.AddCommand(sftpAddCmd)
	sftpCmd.AddCommand(sftpRemoveCmd)
}

func newSFTPManager() (*sftp.Manager, error) {
	return sftp.NewManager(sftp.Config{BasePath: sftpBasePath()})
}

var sftpAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Provision SFTP access for a subscription",
	Long: `Provision SFTP access for a subscription: a credential record and a
volume mapping exposing the server data, applied as a single
transaction. The generated password is printed once in the result and
never stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSubscriptionID == "" || flagGameType == "" {
			return fmt.Errorf("--subscription-id and --game-type are required")
		}
		mgr, err := newSFTPManager()
		if err != nil {
			return err
		}
		return emitResult(cmd.Context(), mgr.AddTenant(cmd.Context(), flagGameType, flagSubscriptionID))
	},
}

var sftpRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Tear down a subscription's SFTP access",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagSubscriptionID == "" {
			return fmt.Errorf("--subscription-id is required")
		}
		mgr, err := newSFTPManager()
		if err != nil {
			return err
		}
		return emitResult(cmd.Context(), mgr.RemoveTenant(cmd.Context(), flagSubscriptionID))
	},
}
