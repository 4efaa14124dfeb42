package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mediasane/internal/config"
	"mediasane/internal/media"
	"mediasane/internal/resequencer"
)

func newResequenceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resequence DIR",
		Short: "Close numbering gaps in already-renamed media under DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("inspect directory %q: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%q is not a directory", dir)
			}

			lock, err := acquireTreeLock(cfg, dir)
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

			prefixes := media.Prefixes{Image: cfg.Naming.ImagePrefix, Video: cfg.Naming.VideoPrefix}
			moves, err := resequencer.New(prefixes, logger).Run(runCtx, dir)
			out := cmd.OutOrStdout()
			if err != nil {
				if errors.Is(err, context.Canceled) {
					fmt.Fprintln(out, "Resequence cancelled")
					return nil
				}
				return err
			}
			fmt.Fprintf(out, "Resequence complete: %d moves\n", moves)
			return nil
		},
	}
}
