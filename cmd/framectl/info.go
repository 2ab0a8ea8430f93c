package main

import (
	"github.com/spf13/cobra"

	"github.com/framekit/framekit/internal/format"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the booted machine's memory configuration",
		Long: `The info command boots a machine from the configuration flags and
reports its physical memory layout and free totals.

Example:
  framectl info --pages 4096 --last-order 12
  framectl info --reserve 0:16 --reserve 512:64 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo()
		},
	}
}

type machineInfo struct {
	Pages     uint64 `json:"pages"`
	PageSize  int    `json:"page_size"`
	LastOrder int    `json:"last_order"`
	FreePages uint64 `json:"free_pages"`
	FreeBytes uint64 `json:"free_bytes"`
}

func runInfo() error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	info := machineInfo{
		Pages:     m.PageTable().NumPages(),
		PageSize:  format.PageSize,
		LastOrder: m.Alloc.LastOrder(),
		FreePages: m.TotalFree(),
		FreeBytes: m.TotalFree() << format.PageBits,
	}
	if jsonOut {
		return printJSON(info)
	}

	printInfo("physical pages: %d (%d bytes each)\n", info.Pages, info.PageSize)
	printInfo("largest block order: %d (%d pages)\n",
		info.LastOrder, format.PagesPerBlock(info.LastOrder))
	printInfo("free: %d pages / %d bytes\n", info.FreePages, info.FreeBytes)
	return nil
}
