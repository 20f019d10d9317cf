package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

// GitSHA is set at build time.
var GitSHA string

// VersionCmd prints the build version.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dotnation version: %s\n", Version)
		if GitSHA != "" {
			fmt.Printf("dotnation git sha: %s\n", GitSHA)
		}
	},
}
