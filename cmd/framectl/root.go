package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/framekit/framekit/machine"
	"github.com/framekit/framekit/mem"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool

	// Machine configuration flags
	memPages  uint64
	lastOrder int
	reserved  []string
)

var rootCmd = &cobra.Command{
	Use:   "framectl",
	Short: "Inspect and exercise the framekit kernel core",
	Long: `framectl boots a simulated machine around the framekit physical page
allocator and lets you inspect its free lists, run randomized workloads,
and exercise the system-call surface.`,
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")

	rootCmd.PersistentFlags().Uint64Var(&memPages, "pages", 1024, "Physical memory size in pages")
	rootCmd.PersistentFlags().IntVar(&lastOrder, "last-order", 10, "Largest managed block order")
	rootCmd.PersistentFlags().StringArrayVar(&reserved, "reserve", nil,
		"Reserved frame range as start:count (repeatable)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootMachine builds a machine from the persistent flags.
func bootMachine() (*machine.Machine, error) {
	cfg := machine.Config{
		Pages:     memPages,
		LastOrder: lastOrder,
	}
	for _, spec := range reserved {
		r, err := parseRange(spec)
		if err != nil {
			return nil, err
		}
		cfg.Reserved = append(cfg.Reserved, r)
	}
	printVerbose("Booting machine: %d pages, last order %d, %d reserved range(s)\n",
		cfg.Pages, cfg.LastOrder, len(cfg.Reserved))
	return machine.New(cfg)
}

// parseRange parses a start:count frame range.
func parseRange(spec string) (machine.Range, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return machine.Range{}, fmt.Errorf("invalid range %q (want start:count)", spec)
	}
	start, err := strconv.ParseUint(parts[0], 0, 64)
	if err != nil {
		return machine.Range{}, fmt.Errorf("invalid range start %q: %w", parts[0], err)
	}
	count, err := strconv.ParseUint(parts[1], 0, 64)
	if err != nil {
		return machine.Range{}, fmt.Errorf("invalid range count %q: %w", parts[1], err)
	}
	return machine.Range{Start: mem.PFN(start), Count: count}, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
