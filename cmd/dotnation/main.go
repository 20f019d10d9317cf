package main

import (
	"fmt"
	"os"

	cmd "github.com/Elactrac/dotnation-sub001/cmd/dotnation/commands"
)

func main() {
	rootCmd := cmd.RootCmd

	rootCmd.AddCommand(
		cmd.NewStartCmd(),
		cmd.NewSubmitCmd(),
		cmd.VersionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
