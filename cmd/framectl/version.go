package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(versionString())
		},
	})
}

// versionString renders the build identity on one line, ldflags permitting.
func versionString() string {
	return fmt.Sprintf("framectl %s (commit %s, built %s)", version, commit, date)
}
