package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mediasane/internal/config"
	"mediasane/internal/contentkey"
	"mediasane/internal/datestamp"
	"mediasane/internal/executor"
	"mediasane/internal/logging"
	"mediasane/internal/media"
	"mediasane/internal/planner"
	"mediasane/internal/progress"
	"mediasane/internal/resequencer"
)

// State names the engine's position in its lifecycle.
type State int

const (
	StateIdle State = iota
	StatePlanning
	StateExecuting
	StateResequencing
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateResequencing:
		return "resequencing"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Request parameterizes one engine run.
type Request struct {
	SourceDir string
	// OutputDir defaults to SourceDir when empty.
	OutputDir      string
	KeepDuplicates bool
	DryRun         bool
}

// Report summarizes a finished run. State is one of StateCompleted,
// StateCancelled, or StateFailed.
type Report struct {
	State           State
	Results         []planner.Result
	ResequenceMoves int
}

// Engine runs the full pipeline: plan, execute, resequence. It is built for
// exactly one concurrent run per output tree; the caller enforces that.
type Engine struct {
	cfg    *config.Config
	sink   progress.Sink
	logger *slog.Logger
}

// New constructs an engine publishing progress to sink.
func New(cfg *config.Config, sink progress.Sink, logger *slog.Logger) *Engine {
	return &Engine{cfg: cfg, sink: sink, logger: logging.NewComponentLogger(logger, "engine")}
}

// Run executes a complete pass. Cancellation surfaces as StateCancelled with
// a nil error; only structural failures return a non-nil error alongside
// StateFailed. Work completed before a failure remains valid.
func (e *Engine) Run(ctx context.Context, req Request) (*Report, error) {
	prefixes := media.Prefixes{Image: e.cfg.Naming.ImagePrefix, Video: e.cfg.Naming.VideoPrefix}
	keys := contentkey.NewGenerator(
		time.Duration(e.cfg.Hashing.BudgetSeconds)*time.Second,
		e.cfg.Hashing.QuickPrefixBytes,
	)
	dates := datestamp.NewResolver(
		e.cfg.Metadata.Tool,
		time.Duration(e.cfg.Metadata.TimeoutSeconds)*time.Second,
		e.logger,
	)

	e.setState(StatePlanning)
	plan, err := planner.New(prefixes, keys, dates, e.logger).Build(ctx, planner.Options{
		SourceDir:      req.SourceDir,
		OutputDir:      req.OutputDir,
		KeepDuplicates: req.KeepDuplicates,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return e.finish(StateCancelled, nil, 0), nil
		}
		e.setState(StateFailed)
		return &Report{State: StateFailed}, err
	}

	e.setState(StateExecuting)
	outcome, err := executor.New(e.sink, e.logger).Run(ctx, plan, req.DryRun)
	if err != nil {
		e.setState(StateFailed)
		return &Report{State: StateFailed, Results: plan.Results}, err
	}
	if outcome == executor.OutcomeCancelled {
		// Resequencing is skipped on a cancelled run.
		return e.finish(StateCancelled, plan.Results, 0), nil
	}

	if req.DryRun {
		return e.finish(StateCompleted, plan.Results, 0), nil
	}

	e.setState(StateResequencing)
	moves, err := resequencer.New(prefixes, e.logger).Run(ctx, plan.OutputDir)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return e.finish(StateCancelled, plan.Results, moves), nil
		}
		e.setState(StateFailed)
		return &Report{State: StateFailed, Results: plan.Results, ResequenceMoves: moves}, err
	}

	return e.finish(StateCompleted, plan.Results, moves), nil
}

func (e *Engine) setState(s State) {
	e.logger.Info("state change", logging.String("state", s.String()))
}

func (e *Engine) finish(s State, results []planner.Result, moves int) *Report {
	e.setState(s)
	return &Report{State: s, Results: results, ResequenceMoves: moves}
}
