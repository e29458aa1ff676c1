package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:           "providerhub",
	Short:         "ProviderHub is a reviewed directory of social service listings.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareCommandExecution(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, notifyCmd, usersCmd, loginCmd, versionCmd)
}
