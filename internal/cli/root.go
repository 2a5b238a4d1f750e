package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "exporter",
		Short: "Log into the ERP portal and download filtered report exports",
	}

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	rootCmd.AddCommand(
		newRunCmd(),
		newListCmd(),
	)

	return rootCmd
}
