package planner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"mediasane/internal/contentkey"
	"mediasane/internal/datestamp"
	"mediasane/internal/logging"
	"mediasane/internal/media"
	"mediasane/internal/progress"
	"mediasane/internal/services"
)

// Options parameterizes a single planning pass.
type Options struct {
	SourceDir string
	// OutputDir defaults to SourceDir when empty.
	OutputDir      string
	KeepDuplicates bool
}

// Result records the planned disposition of one discovered file. Destination
// is either a final path, a quarantine path, or one of the progress markers.
type Result struct {
	OriginalPath string
	Destination  string
}

// DuplicateAction removes or quarantines one redundant file.
type DuplicateAction struct {
	SourcePath string
	Quarantine bool
	// DestPath is set only for quarantined duplicates.
	DestPath string
}

// RenameEntry is one two-phase move: source to staged temporary, staged
// temporary to final.
type RenameEntry struct {
	SourcePath string
	StagedPath string
	FinalPath  string
}

// Plan is the full output of a planning pass, consumed by the executor.
type Plan struct {
	OutputDir  string
	Results    []Result
	Duplicates []DuplicateAction
	Renames    []RenameEntry
}

// Planner decides the disposition and destination of every file under a
// source root. It touches nothing; execution is a separate stage.
type Planner struct {
	prefixes media.Prefixes
	keys     *contentkey.Generator
	dates    *datestamp.Resolver
	logger   *slog.Logger

	tempSuffix func() string
}

// New constructs a planner from its collaborators.
func New(prefixes media.Prefixes, keys *contentkey.Generator, dates *datestamp.Resolver, logger *slog.Logger) *Planner {
	return &Planner{
		prefixes:   prefixes,
		keys:       keys,
		dates:      dates,
		logger:     logging.NewComponentLogger(logger, "planner"),
		tempSuffix: randomSuffix,
	}
}

type candidate struct {
	date   string
	mtime  time.Time
	name   string
	path   string
	prefix string
	ext    string
}

// Build enumerates the source tree and produces a deterministic plan. The
// context is checked once per file; a cancelled context returns
// context.Canceled with a partial plan discarded.
func (p *Planner) Build(ctx context.Context, opts Options) (*Plan, error) {
	src := opts.SourceDir
	out := opts.OutputDir
	if out == "" {
		out = src
	}

	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "planning", "enumerate",
			fmt.Sprintf("Source directory %q is missing or not a directory", src), err)
	}

	files, err := enumerate(src)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "planning", "enumerate",
			"Failed to walk the source tree", err)
	}
	p.logger.Info("enumeration complete", logging.Int("files", len(files)))

	plan := &Plan{OutputDir: out}
	seen := make(map[string]string, len(files))
	plannedQuarantine := make(map[string]struct{})
	var candidates []candidate
	degraded := 0

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		file := media.ClassifyFile(path)
		prefix := p.prefixes.For(file.Category)
		if prefix == "" {
			plan.Results = append(plan.Results, Result{OriginalPath: path, Destination: progress.MarkerUnsupported})
			continue
		}

		key := p.keys.Key(path)
		if key.Degraded {
			degraded++
		}
		if first, dup := seen[key.Value]; dup {
			p.planDuplicate(plan, plannedQuarantine, path, first, opts.KeepDuplicates)
			continue
		}
		seen[key.Value] = path

		var mtime time.Time
		if info, err := os.Stat(path); err == nil {
			mtime = info.ModTime()
		}
		candidates = append(candidates, candidate{
			date:   p.dates.Resolve(ctx, path),
			mtime:  mtime,
			name:   filepath.Base(path),
			path:   path,
			prefix: prefix,
			ext:    file.Ext,
		})
	}

	// Canonical tie-break: (date, mtime, original filename). Stable and
	// independent of enumeration order.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.date != b.date {
			return a.date < b.date
		}
		if !a.mtime.Equal(b.mtime) {
			return a.mtime.Before(b.mtime)
		}
		return a.name < b.name
	})

	sequences := make(map[string]int)
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		group := c.prefix + c.date
		sequences[group]++
		finalName := fmt.Sprintf("%s%s-%05d.%s", c.prefix, c.date, sequences[group], c.ext)
		finalPath := filepath.Join(out, finalName)
		plan.Renames = append(plan.Renames, RenameEntry{
			SourcePath: c.path,
			StagedPath: finalPath + ".tmp-" + p.tempSuffix(),
			FinalPath:  finalPath,
		})
		plan.Results = append(plan.Results, Result{OriginalPath: c.path, Destination: finalPath})
	}

	p.logger.Info("plan ready",
		logging.Int("keep", len(plan.Renames)),
		logging.Int("duplicates", len(plan.Duplicates)),
		logging.Int("degraded_keys", degraded))
	return plan, nil
}

func (p *Planner) planDuplicate(plan *Plan, planned map[string]struct{}, path, first string, keep bool) {
	if !keep {
		plan.Duplicates = append(plan.Duplicates, DuplicateAction{SourcePath: path})
		plan.Results = append(plan.Results, Result{OriginalPath: path, Destination: progress.MarkerDeleted})
		p.logger.Debug("duplicate scheduled for deletion",
			logging.String("path", path), logging.String("kept", first))
		return
	}

	quarantine := filepath.Join(plan.OutputDir, media.QuarantineDirName)
	base := filepath.Base(path)
	dest := filepath.Join(quarantine, base)
	for n := 1; occupied(dest, planned); n++ {
		dest = filepath.Join(quarantine, fmt.Sprintf("%s.%d", base, n))
	}
	planned[dest] = struct{}{}
	plan.Duplicates = append(plan.Duplicates, DuplicateAction{SourcePath: path, Quarantine: true, DestPath: dest})
	plan.Results = append(plan.Results, Result{OriginalPath: path, Destination: dest})
}

func occupied(path string, planned map[string]struct{}) bool {
	if _, ok := planned[path]; ok {
		return true
	}
	_, err := os.Stat(path)
	return err == nil
}

// enumerate walks root and returns every regular file, excluding the
// quarantine subtree, in lexical path order. The ordering makes the
// first-key-seen dedup choice reproducible across platforms.
func enumerate(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// A vanished or unreadable entry is skipped, not fatal.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if d.Name() == media.QuarantineDirName {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func randomSuffix() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}
