package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"mediasane/internal/fileutil"
	"mediasane/internal/logging"
	"mediasane/internal/planner"
	"mediasane/internal/progress"
)

// countEvery controls how often a processed-count event is published.
const countEvery = 25

// Outcome reports how a run finished.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeCancelled
)

func (o Outcome) String() string {
	if o == OutcomeCancelled {
		return "cancelled"
	}
	return "completed"
}

// Executor carries out a plan: duplicate removal or quarantine first, then
// the two-phase staged renames. Every completed transition is reported to
// the progress sink.
type Executor struct {
	sink   progress.Sink
	logger *slog.Logger
}

// New constructs an executor publishing to sink.
func New(sink progress.Sink, logger *slog.Logger) *Executor {
	return &Executor{sink: sink, logger: logging.NewComponentLogger(logger, "executor")}
}

// Run applies the plan. In dry-run mode it only reports the planned rows.
// Cancellation is observed at the top of each per-file step; an in-flight
// single-file operation always finishes before Run unwinds.
func (e *Executor) Run(ctx context.Context, plan *planner.Plan, dryRun bool) (Outcome, error) {
	e.sink.Publish(progress.Total(len(plan.Results)))

	if dryRun {
		return e.report(ctx, plan)
	}

	processed := 0
	cancelled := false

	// Unsupported files involve no filesystem work; report them up front.
	for _, res := range plan.Results {
		if res.Destination == progress.MarkerUnsupported {
			e.publishFile(res.OriginalPath, res.Destination, &processed)
		}
	}

	for _, action := range plan.Duplicates {
		if ctx.Err() != nil {
			cancelled = true
			break
		}
		e.applyDuplicate(action, &processed)
	}

	var staged []planner.RenameEntry
	if !cancelled {
		for _, entry := range plan.Renames {
			if ctx.Err() != nil {
				cancelled = true
				break
			}
			if _, err := os.Stat(entry.SourcePath); err != nil {
				e.logger.Warn("source vanished before staging", logging.String("path", entry.SourcePath))
				e.publishFile(entry.SourcePath, progress.MarkerSkipped, &processed)
				continue
			}
			if err := fileutil.SafeMove(entry.SourcePath, entry.StagedPath); err != nil {
				e.logger.Warn("staging move failed",
					logging.String("path", entry.SourcePath), logging.Error(err))
				e.publishFile(entry.SourcePath, progress.MarkerSkipped, &processed)
				continue
			}
			staged = append(staged, entry)
		}
	}

	// Staged temporaries are always drained to final names, even after a
	// cancellation, so no file is ever left at a temporary path.
	for _, entry := range staged {
		final := e.finalize(entry)
		if final == "" {
			e.publishFile(entry.SourcePath, progress.MarkerSkipped, &processed)
			continue
		}
		e.publishFile(entry.SourcePath, final, &processed)
	}

	e.sink.Publish(progress.Count(processed))
	if cancelled {
		e.logger.Info("run cancelled", logging.Int("processed", processed))
		return OutcomeCancelled, nil
	}
	e.logger.Info("run completed", logging.Int("processed", processed))
	return OutcomeCompleted, nil
}

func (e *Executor) report(ctx context.Context, plan *planner.Plan) (Outcome, error) {
	processed := 0
	for _, res := range plan.Results {
		if ctx.Err() != nil {
			e.sink.Publish(progress.Count(processed))
			return OutcomeCancelled, nil
		}
		e.publishFile(res.OriginalPath, res.Destination, &processed)
	}
	e.sink.Publish(progress.Count(processed))
	return OutcomeCompleted, nil
}

func (e *Executor) applyDuplicate(action planner.DuplicateAction, processed *int) {
	if action.Quarantine {
		if err := fileutil.SafeMove(action.SourcePath, action.DestPath); err != nil {
			e.logger.Warn("quarantine move failed",
				logging.String("path", action.SourcePath), logging.Error(err))
			e.publishFile(action.SourcePath, progress.MarkerSkipped, processed)
			return
		}
		e.publishFile(action.SourcePath, action.DestPath, processed)
		return
	}
	if err := os.Remove(action.SourcePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.logger.Warn("duplicate delete failed",
			logging.String("path", action.SourcePath), logging.Error(err))
		e.publishFile(action.SourcePath, progress.MarkerSkipped, processed)
		return
	}
	e.publishFile(action.SourcePath, progress.MarkerDeleted, processed)
}

// finalize moves a staged temporary to its final slot, probing numeric
// suffixes when the slot is occupied. Returns the path actually used, or ""
// on failure.
func (e *Executor) finalize(entry planner.RenameEntry) string {
	target, err := ResolveCollision(entry.FinalPath)
	if err != nil {
		e.logger.Warn("no free final slot", logging.String("path", entry.FinalPath), logging.Error(err))
		return ""
	}
	if target != entry.FinalPath {
		e.logger.Warn("final name occupied, using fallback",
			logging.String("wanted", entry.FinalPath), logging.String("using", target))
	}
	if err := fileutil.SafeMove(entry.StagedPath, target); err != nil {
		e.logger.Warn("finalize move failed", logging.String("path", entry.StagedPath), logging.Error(err))
		return ""
	}
	return target
}

// ResolveCollision returns path if free, otherwise the first free candidate
// formed by inserting _1, _2, ... before the extension. The probe is
// correctness-preserving but not starvation-free under pathological inputs,
// so it gives up after a bounded number of attempts.
func ResolveCollision(path string) (string, error) {
	const maxAttempts = 10000
	if _, err := os.Stat(path); err != nil {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; n <= maxAttempts; n++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, n, ext)
		if _, err := os.Stat(candidate); err != nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted collision suffixes for %s", path)
}

func (e *Executor) publishFile(original, destination string, processed *int) {
	e.sink.Publish(progress.File(original, destination))
	*processed++
	if *processed%countEvery == 0 {
		e.sink.Publish(progress.Count(*processed))
	}
}
