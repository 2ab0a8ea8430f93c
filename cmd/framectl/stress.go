package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var stressOps int

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressOps, "ops", 10000, "Number of random alloc/free operations")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized alloc/free workload",
		Long: `The stress command boots a machine and drives the allocator with a
random interleaving of allocations and frees, then prints what happened.
Everything still held at the end is freed, so a clean run finishes with
the machine's memory fully coalesced.

Example:
  framectl stress --ops 100000
  framectl stress --pages 4096 --last-order 8 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

func runStress() error {
	m, err := bootMachine()
	if err != nil {
		return err
	}
	defer m.Close()

	startFree := m.TotalFree()
	report := m.Stress(stressOps)

	if jsonOut {
		return printJSON(report)
	}

	printInfo("ops: %d (%d allocation failures)\n", report.Ops, report.Failures)
	printInfo("peak held: %d pages\n", report.PeakPages)
	printInfo("alloc calls: %d, free calls: %d\n",
		report.Stats.AllocCalls, report.Stats.FreeCalls)
	printInfo("splits: %d, merges: %d\n", report.Stats.SplitCount, report.Stats.MergeCount)
	printInfo("pages served: %d, released: %d\n",
		report.Stats.PagesServed, report.Stats.PagesReleased)

	if free := m.TotalFree(); free != startFree {
		return fmt.Errorf("free total drifted: started with %d pages, ended with %d", startFree, free)
	}
	printVerbose("free total intact: %d pages\n", startFree)
	return nil
}
