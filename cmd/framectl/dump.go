package main

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDumpCmd())
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the allocator's free lists",
		Long: `The dump command boots a machine from the configuration flags and
prints the buddy allocator's per-order free lists as block extents.

Example:
  framectl dump --pages 64 --last-order 6
  framectl dump --reserve 0:16 --reserve 48:16`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump()
		},
	}
}

func runDump() error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	m.Dump(os.Stdout)
	return nil
}
