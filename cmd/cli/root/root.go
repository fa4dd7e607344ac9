package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "brewlog",
	Short:         "Coffee journal CLI",
	Long:          "Command line interface for the brewlog coffee journal API.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// GetRoot returns the RootCmd so subpackages can attach commands.
func GetRoot() *cobra.Command {
	return RootCmd
}
