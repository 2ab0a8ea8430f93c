package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/framekit/framekit/machine"
	"github.com/framekit/framekit/sys"
)

var (
	lsLong bool
	lsRoot string
)

func init() {
	cmd := newLsCmd()
	cmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Long listing with entry type and size")
	cmd.Flags().StringVar(&lsRoot, "root", ".", "Host directory exposed as the filesystem root")
	rootCmd.AddCommand(cmd)
}

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "List a directory through the ListDir system call",
		Long: `The ls command boots a machine with a host directory mounted as its
filesystem root and lists a path through the ListDir system call, the way
a user-space program would.

Example:
  framectl ls /
  framectl ls -l /docs --root ./testdata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLs(args[0])
		},
	}
}

func runLs(path string) error {
	m, err := machine.New(machine.Config{
		Pages:     memPages,
		LastOrder: lastOrder,
		DirRoot:   lsRoot,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	entries, res := m.Sys.ListDir(path, -1)
	switch res.Code {
	case sys.OK:
	case sys.NotFound:
		return fmt.Errorf("%s: path not found", path)
	case sys.NotSupported:
		return fmt.Errorf("%s: not a directory", path)
	default:
		return fmt.Errorf("%s: list failed (code %d)", path, res.Code)
	}

	if jsonOut {
		return printJSON(entries)
	}

	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		if lsLong {
			printInfo("%s\n", formatEntry(e))
		} else {
			printInfo("%s\n", e.Name)
		}
	}
	return nil
}

// formatEntry renders one long-mode line: type marker, name, and size for
// every entry, directories included.
func formatEntry(e sys.DirectoryEntry) string {
	marker := 'F'
	if e.Type == sys.EntryDir {
		marker = 'D'
	}
	return fmt.Sprintf("[%c] %s %d", marker, e.Name, e.Size)
}
