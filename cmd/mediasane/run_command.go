package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"mediasane/internal/config"
	"mediasane/internal/engine"
	"mediasane/internal/progress"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var dryRun bool
	var keepDuplicates bool

	cmd := &cobra.Command{
		Use:   "run SOURCE",
		Short: "Classify, deduplicate, and rename media files under SOURCE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve source path: %w", err)
			}
			info, err := os.Stat(source)
			if err != nil {
				return fmt.Errorf("inspect source %q: %w", source, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("source %q is not a directory", source)
			}

			output := source
			if trimmed := strings.TrimSpace(outputFlag); trimmed != "" {
				output, err = config.ExpandPath(trimmed)
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			}

			keep := cfg.Scan.KeepDuplicates
			if cmd.Flags().Changed("keep-duplicates") {
				keep = keepDuplicates
			}

			lock, err := acquireTreeLock(cfg, output)
			if err != nil {
				return err
			}
			defer lock.Unlock()

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			stream := progress.NewStream()
			eng := engine.New(cfg, stream, logger)

			var report *engine.Report
			var runErr error
			done := make(chan struct{})
			go func() {
				defer close(done)
				defer stream.Close()
				report, runErr = eng.Run(runCtx, engine.Request{
					SourceDir:      source,
					OutputDir:      output,
					KeepDuplicates: keep,
					DryRun:         dryRun,
				})
			}()

			consumeEvents(cmd, stream.Events())
			<-done
			if runErr != nil {
				return runErr
			}

			out := cmd.OutOrStdout()
			switch report.State {
			case engine.StateCancelled:
				fmt.Fprintln(out, "Run cancelled")
			default:
				if dryRun {
					fmt.Fprintf(out, "Dry run complete: %d files planned\n", len(report.Results))
				} else {
					fmt.Fprintf(out, "Run complete: %d files, %d resequence moves\n",
						len(report.Results), report.ResequenceMoves)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination tree (defaults to SOURCE)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned moves without touching files")
	cmd.Flags().BoolVar(&keepDuplicates, "keep-duplicates", false,
		"Quarantine duplicates under .duplicates instead of deleting them")
	return cmd
}
