package resequencer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"mediasane/internal/executor"
	"mediasane/internal/fileutil"
	"mediasane/internal/logging"
	"mediasane/internal/media"
	"mediasane/internal/services"
)

// Resequencer closes numbering gaps so every (prefix, date) group counts
// 1..N without holes. Running it twice in a row performs zero moves the
// second time.
type Resequencer struct {
	prefixes media.Prefixes
	logger   *slog.Logger

	tempSuffix func() string
	move       func(src, dst string) error
}

// New constructs a resequencer for the given naming prefixes.
func New(prefixes media.Prefixes, logger *slog.Logger) *Resequencer {
	return &Resequencer{
		prefixes:   prefixes,
		logger:     logging.NewComponentLogger(logger, "resequencer"),
		tempSuffix: randomSuffix,
		move:       fileutil.SafeMove,
	}
}

type member struct {
	path  string
	seq   int
	ext   string
	mtime time.Time
}

type group struct {
	dir     string
	prefix  string
	date    string
	members []member
}

// Run scans root for files matching the naming pattern and renumbers each
// group to a contiguous sequence. Returns the number of files moved.
func (r *Resequencer) Run(ctx context.Context, root string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, services.Wrap(services.ErrNotFound, "resequencing", "scan",
			fmt.Sprintf("Output directory %q is missing", root), err)
	}
	if !info.IsDir() {
		return 0, services.Wrap(services.ErrValidation, "resequencing", "scan",
			fmt.Sprintf("Output path %q is not a directory", root), nil)
	}

	groups, err := r.scan(root)
	if err != nil {
		return 0, services.Wrap(services.ErrTransient, "resequencing", "scan",
			"Failed to walk the output tree", err)
	}

	moves := 0
	for _, g := range groups {
		n, err := r.renumber(ctx, g)
		moves += n
		if err != nil {
			return moves, err
		}
	}
	r.logger.Info("resequencing complete", logging.Int("groups", len(groups)), logging.Int("moves", moves))
	return moves, nil
}

func (r *Resequencer) scan(root string) ([]group, error) {
	patterns := r.patterns()
	byKey := map[string]*group{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
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
		for prefix, re := range patterns {
			m := re.FindStringSubmatch(d.Name())
			if m == nil {
				continue
			}
			date, seqStr, ext := m[1], m[2], m[3]
			if !media.SupportedExt(ext) {
				continue
			}
			seq, convErr := strconv.Atoi(seqStr)
			if convErr != nil {
				continue
			}
			info, statErr := d.Info()
			if statErr != nil {
				continue
			}
			dir := filepath.Dir(path)
			key := dir + "\x00" + prefix + "\x00" + date
			g, ok := byKey[key]
			if !ok {
				g = &group{dir: dir, prefix: prefix, date: date}
				byKey[key] = g
			}
			g.members = append(g.members, member{path: path, seq: seq, ext: ext, mtime: info.ModTime()})
			break
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	groups := make([]group, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups, nil
}

// renumber assigns contiguous sequence numbers within one group. Files
// already holding their slot stay put; every other file is first moved to a
// unique temporary name so simultaneous renames inside the group cannot
// collide. A member that cannot be staged is skipped with a warning and
// keeps its current name.
func (r *Resequencer) renumber(ctx context.Context, g group) (int, error) {
	sort.SliceStable(g.members, func(i, j int) bool {
		a, b := g.members[i], g.members[j]
		if !a.mtime.Equal(b.mtime) {
			return a.mtime.Before(b.mtime)
		}
		return filepath.Base(a.path) < filepath.Base(b.path)
	})

	type pending struct {
		staged   string
		target   string
		original string
	}
	var moves []pending
	var cancelled error
	for i, m := range g.members {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		want := i + 1
		if m.seq == want {
			continue
		}
		target := filepath.Join(g.dir, fmt.Sprintf("%s%s-%05d.%s", g.prefix, g.date, want, m.ext))
		staged := m.path + ".tmp-" + r.tempSuffix()
		if err := r.move(m.path, staged); err != nil {
			r.logger.Warn("staging move failed", logging.String("path", m.path), logging.Error(err))
			continue
		}
		moves = append(moves, pending{staged: staged, target: target, original: m.path})
	}

	// Every displaced file is parked at a temp name; the temps must always
	// be drained, even after a cancellation, so no file is ever left at a
	// temporary path. A member that cannot reach its slot goes back to its
	// original name.
	done := 0
	for _, mv := range moves {
		target, err := executor.ResolveCollision(mv.target)
		if err != nil {
			r.logger.Warn("no free slot", logging.String("path", mv.target), logging.Error(err))
			r.restore(mv.staged, mv.original)
			continue
		}
		if err := r.move(mv.staged, target); err != nil {
			r.logger.Warn("finalize move failed", logging.String("path", target), logging.Error(err))
			r.restore(mv.staged, mv.original)
			continue
		}
		done++
		r.logger.Debug("resequenced", logging.String("to", target))
	}
	return done, cancelled
}

func (r *Resequencer) restore(staged, original string) {
	if err := r.move(staged, original); err != nil {
		r.logger.Warn("restore failed", logging.String("path", staged), logging.Error(err))
	}
}

func (r *Resequencer) patterns() map[string]*regexp.Regexp {
	prefixes := map[string]struct{}{r.prefixes.Image: {}, r.prefixes.Video: {}}
	patterns := make(map[string]*regexp.Regexp, len(prefixes))
	for prefix := range prefixes {
		if prefix == "" {
			continue
		}
		patterns[prefix] = regexp.MustCompile(
			`^` + regexp.QuoteMeta(prefix) + `(\d{8})-(\d{5})\.([a-z0-9]+)$`)
	}
	return patterns
}

func randomSuffix() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:4])
}
