package cmd

import (
	"github.com/spf13/cobra"
	"video-consult/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "video-consult",
		Short: "video consultation sessions for healthcare appointments",
	}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(migrate(config))
	return rootCmd
}
