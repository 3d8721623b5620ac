package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/michaelscutari/zrewrite/internal/config"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zrewrite -p PATH -r REWRITTEN_PATHS_FILE",
		Short: "Rewrite every file in a ZFS dataset exactly once",
		Long: `zrewrite walks a directory tree and runs "zfs rewrite" on each regular
file that has not been rewritten yet. Hardlinked files are rewritten through
one path only. Rewritten paths are appended to a state file so an interrupted
run can be resumed with the same arguments.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runRewrite,
	}

	rootCmd.Version = version
	config.BindFlags(rootCmd.Flags())
	rootCmd.AddCommand(compactCmd)
	rootCmd.AddCommand(historyCmd)
	return rootCmd
}
