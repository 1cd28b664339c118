package commands

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sill-sync",
	Short: "SILL catalog synchronization",
	Long:  `sill-sync maintains the SILL software catalog: it enriches catalog entries with metadata from external registries and serves the read-only catalog API.`,
}

func GetRootCmd() *cobra.Command {
	return rootCmd
}
