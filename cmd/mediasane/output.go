package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mediasane/internal/progress"
)

// consumeEvents drains the progress stream. On a terminal the per-file rows
// are collected and rendered as one table once the run finishes; otherwise
// each row is streamed as a tab-separated line so output stays pipeable.
func consumeEvents(cmd *cobra.Command, events <-chan progress.Event) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	interactive := stdoutIsTerminal()

	var rows [][]string
	total := 0
	for ev := range events {
		switch ev.Kind {
		case progress.KindTotal:
			total = ev.Total
			fmt.Fprintf(errOut, "Scanning %d files\n", total)
		case progress.KindFile:
			if interactive {
				rows = append(rows, []string{ev.OriginalPath, ev.Destination})
			} else {
				fmt.Fprintf(out, "%s\t%s\n", ev.OriginalPath, ev.Destination)
			}
		case progress.KindCount:
			if interactive {
				fmt.Fprintf(errOut, "Processed %d/%d\n", ev.Processed, total)
			}
		}
	}

	if interactive && len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Original", "Destination"}, rows))
	}
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
