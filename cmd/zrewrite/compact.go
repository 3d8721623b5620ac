package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/zrewrite/internal/logger"
	"github.com/michaelscutari/zrewrite/internal/pathutil"
	"github.com/michaelscutari/zrewrite/internal/state"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Remove duplicate and stale lines from a state file",
	Long: `Rewrite the state file keeping only the first occurrence of each path
that still refers to a regular file. The file is replaced atomically and the
command refuses to run while a rewrite run holds the state file.`,
	Args: cobra.NoArgs,
	RunE: runCompact,
}

var (
	compactState   string
	compactVerbose int
)

func init() {
	compactCmd.Flags().StringVarP(&compactState, "rewritten-paths-file", "r", "", "State file to compact")
	compactCmd.Flags().CountVarP(&compactVerbose, "verbose", "v", "Verbose level")
	compactCmd.MarkFlagRequired("rewritten-paths-file")
}

func runCompact(cmd *cobra.Command, args []string) error {
	logger.Init(logger.Options{Verbosity: compactVerbose})

	path := pathutil.Normalize(compactState)
	stats, err := state.Compact(path)
	if err != nil {
		return fmt.Errorf("failed to compact %s: %w", path, err)
	}

	if stats.Dropped() == 0 {
		fmt.Printf("%s is already compact (%s paths)\n", path, humanize.Comma(int64(stats.Kept)))
		return nil
	}

	fmt.Printf("Compacted %s\n", path)
	fmt.Printf("  Kept:       %s\n", humanize.Comma(int64(stats.Kept)))
	fmt.Printf("  Duplicates: %s\n", humanize.Comma(int64(stats.Duplicates)))
	fmt.Printf("  Stale:      %s\n", humanize.Comma(int64(stats.Stale)))
	return nil
}
