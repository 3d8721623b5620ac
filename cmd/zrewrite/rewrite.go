package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/michaelscutari/zrewrite/internal/config"
	"github.com/michaelscutari/zrewrite/internal/db"
	"github.com/michaelscutari/zrewrite/internal/identity"
	"github.com/michaelscutari/zrewrite/internal/logger"
	"github.com/michaelscutari/zrewrite/internal/rewrite"
	"github.com/michaelscutari/zrewrite/internal/runner"
	"github.com/michaelscutari/zrewrite/internal/scan"
	"github.com/michaelscutari/zrewrite/internal/state"
	"github.com/michaelscutari/zrewrite/internal/tui"
)

func runRewrite(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	useTUI := cfg.TUI && isTerminal()
	logger.Init(logger.Options{Verbosity: cfg.Verbose, File: cfg.Log, Quiet: useTUI})
	log := logger.GetLogger("zrewrite")

	action, err := rewrite.NewCommand(cfg.Command)
	if err != nil {
		return fmt.Errorf("invalid rewrite command: %w", err)
	}

	r := runner.New(
		runner.Options{Root: cfg.Path, StatePath: cfg.StateFile, DryRun: cfg.DryRun},
		identity.NewTracker(),
		scan.NewFastWalker(cfg.ScanOptions()),
		action,
	)

	if cfg.Journal != "" && !cfg.DryRun {
		journal, err := db.Open(cfg.Journal)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer journal.Close()
		r.SetJournal(journal)
	}

	if cfg.DryRun {
		log.Warn("Dry-run enabled, no files will be rewritten")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nStopping after the current file... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()

	startTime := time.Now()
	var res runner.Result
	if useTUI {
		res, err = runWithTUI(ctx, cancel, cfg, r)
	} else {
		res, err = r.Run(ctx)
	}

	if err != nil {
		switch {
		case errors.Is(err, state.ErrLocked):
			return fmt.Errorf("another run is using %s: %w", cfg.StateFile, err)
		case errors.Is(err, runner.ErrInvariant):
			return fmt.Errorf("internal consistency check failed: %w", err)
		default:
			var failure *rewrite.Failure
			if errors.As(err, &failure) {
				return fmt.Errorf("rewrite failed, rerun with the same arguments after fixing the cause: %w", err)
			}
			return fmt.Errorf("run failed: %w", err)
		}
	}

	if res.Interrupted {
		fmt.Fprintf(os.Stderr, "Interrupted after %d of %d files; rerun with the same arguments to resume.\n", res.Processed, res.Candidates)
		return nil
	}

	log.Debugf("Finished in %s", time.Since(startTime).Round(time.Millisecond))
	return nil
}

func runWithTUI(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, r *runner.Runner) (runner.Result, error) {
	model := tui.NewModel(cfg.Path, cfg.DryRun, cancel)
	p := tea.NewProgram(model)
	rep := tui.NewReporter(p)
	r.SetReporter(rep)

	type outcome struct {
		res runner.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.Run(ctx)
		rep.Finish(err)
		done <- outcome{res, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		out := <-done
		if out.err != nil {
			return out.res, out.err
		}
		return out.res, fmt.Errorf("TUI error: %w", err)
	}

	out := <-done
	if out.err == nil {
		fmt.Printf("Done. Processed %d files, rewritten %d files.\n", out.res.Processed, out.res.Rewritten)
		if out.res.DryRun {
			fmt.Println("Dry run mode: no files were actually rewritten.")
		}
	}
	return out.res, out.err
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
