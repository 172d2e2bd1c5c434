package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mensylisir/hostboard/pkg/logger"
	"github.com/mensylisir/hostboard/pkg/session"
)

var userPassword string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard users.",
}

var userSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Create a user or reset its password.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.SyncGlobal()
		if userPassword == "" {
			return errors.New("--password is required")
		}
		store := session.NewStore(loadedConfig.Session.FilePath, loadedConfig.Session.TTL, logger.Get())
		if err := store.SetPassword(args[0], userPassword); err != nil {
			return errors.Wrapf(err, "failed to set password for '%s'", args[0])
		}
		logger.Success("Stored credential for user %s", args[0])
		return nil
	},
}

func init() {
	userSetCmd.Flags().StringVarP(&userPassword, "password", "p", "", "Password to store (bcrypt-hashed on disk)")
	userCmd.AddCommand(userSetCmd)
	rootCmd.AddCommand(userCmd)
}
