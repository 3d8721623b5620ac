package main

import (
	"database/sql"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/zrewrite/internal/db"
	"github.com/michaelscutari/zrewrite/internal/entry"
	"github.com/michaelscutari/zrewrite/internal/pathutil"
)

var historyCmd = &cobra.Command{
	Use:   "history [RUN-ID]",
	Short: "Show recorded runs from a journal",
	Long: `List the runs recorded in a journal, newest first. With a run id (or a
unique prefix of one) print that run's details and the files it rewrote.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

var (
	historyJournal string
	historyLimit   int
)

func init() {
	historyCmd.Flags().StringVar(&historyJournal, "journal", "", "Path to journal database")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of rows (0 = all)")
	historyCmd.MarkFlagRequired("journal")
}

func runHistory(cmd *cobra.Command, args []string) error {
	database, err := db.OpenReadOnly(pathutil.Normalize(historyJournal))
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer database.Close()

	if len(args) == 1 {
		return showRun(database, args[0])
	}

	runs, err := db.ListRuns(database, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tSTARTED\tDURATION\tSTATUS\tCANDIDATES\tREWRITTEN\tSKIPPED\tROOT\n")
	for _, m := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(m.ID),
			humanize.Time(m.StartTime),
			runDuration(m),
			m.Status,
			humanize.Comma(m.Candidates),
			humanize.Comma(m.Rewritten),
			humanize.Comma(m.Skipped),
			m.RootPath,
		)
	}
	w.Flush()

	return nil
}

func showRun(database *sql.DB, id string) error {
	m, err := db.GetRun(database, id)
	if err != nil {
		return fmt.Errorf("failed to read run: %w", err)
	}
	if m == nil {
		return fmt.Errorf("no run matching %q", id)
	}

	fmt.Printf("Run Information\n")
	fmt.Printf("===============\n\n")
	fmt.Printf("ID:          %s\n", m.ID)
	fmt.Printf("Root Path:   %s\n", m.RootPath)
	fmt.Printf("State File:  %s\n", m.StatePath)
	fmt.Printf("Status:      %s\n", m.Status)
	fmt.Printf("Start Time:  %s\n", m.StartTime.Format(time.RFC3339))
	if !m.EndTime.IsZero() {
		fmt.Printf("End Time:    %s\n", m.EndTime.Format(time.RFC3339))
		fmt.Printf("Duration:    %s\n", runDuration(*m))
	}
	if m.Error != "" {
		fmt.Printf("Error:       %s\n", m.Error)
	}
	fmt.Printf("\nStatistics\n")
	fmt.Printf("----------\n")
	fmt.Printf("Candidates:  %s\n", humanize.Comma(m.Candidates))
	fmt.Printf("Processed:   %s\n", humanize.Comma(m.Processed))
	fmt.Printf("Rewritten:   %s\n", humanize.Comma(m.Rewritten))
	fmt.Printf("Skipped:     %s\n", humanize.Comma(m.Skipped))

	rewrites, err := db.LoadRewrites(database, m.ID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to load rewrites: %w", err)
	}
	if len(rewrites) > 0 {
		fmt.Printf("\nRewritten Files\n")
		fmt.Printf("---------------\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "TIME\tTOOK\tINODE\tPATH\n")
		for _, rw := range rewrites {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
				rw.Time.Format(time.TimeOnly),
				rw.Duration.Round(time.Millisecond),
				rw.Inode,
				rw.Path,
			)
		}
		w.Flush()
		if historyLimit > 0 && int64(len(rewrites)) < m.Rewritten {
			fmt.Printf("... %s more (use --limit 0 to show all)\n", humanize.Comma(m.Rewritten-int64(len(rewrites))))
		}
	}

	scanErrs, err := db.LoadScanErrors(database, m.ID)
	if err != nil {
		return fmt.Errorf("failed to load scan errors: %w", err)
	}
	if len(scanErrs) > 0 {
		fmt.Printf("\nUnreadable Entries\n")
		fmt.Printf("------------------\n")
		for _, e := range scanErrs {
			fmt.Printf("%s: %s\n", e.Path, e.Message)
		}
	}

	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runDuration(m entry.RunMeta) string {
	if m.EndTime.IsZero() {
		return "-"
	}
	return m.EndTime.Sub(m.StartTime).Round(time.Second).String()
}
