package datestamp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mediasane/internal/logging"
	"mediasane/internal/services"
)

const layout = "20060102"

// Resolver derives an 8-digit YYYYMMDD stamp for a file through a fixed
// fallback chain: filename prefix, external metadata tool, modification
// time, current date. The chain is total; Resolve always returns a stamp.
type Resolver struct {
	tool    string
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time

	lookOnce sync.Once
	toolPath string
}

// NewResolver constructs a resolver. An empty tool name disables metadata
// extraction entirely.
func NewResolver(tool string, timeout time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		tool:    strings.TrimSpace(tool),
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "datestamp"),
		now:     time.Now,
	}
}

// Resolve returns the date stamp for path. Earlier chain steps win; later
// steps are never consulted once one succeeds.
func (r *Resolver) Resolve(ctx context.Context, path string) string {
	if d := FromName(stem(path)); d != "" {
		return d
	}
	if d := r.fromMetadata(ctx, path); d != "" {
		return d
	}
	if d := fromModTime(path); d != "" {
		return d
	}
	return r.now().Format(layout)
}

// FromName parses a leading 8-digit date out of a filename stem. Returns ""
// when the stem does not start with one.
func FromName(name string) string {
	if len(name) < 8 {
		return ""
	}
	for _, c := range name[:8] {
		if c < '0' || c > '9' {
			return ""
		}
	}
	return name[:8]
}

func (r *Resolver) fromMetadata(ctx context.Context, path string) string {
	if r.tool == "" {
		return ""
	}
	r.lookOnce.Do(func() {
		if found, err := exec.LookPath(r.tool); err == nil {
			r.toolPath = found
		}
	})
	if r.toolPath == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.toolPath,
		"-s", "-S", "-q", "-q", "-m",
		"-api", "LargeFileSupport=1", "-fast2",
		"-d", "%Y%m%d",
		"-DateTimeOriginal", "-CreateDate", "-MediaCreateDate", "-FileModifyDate",
		"--", path)
	output, err := cmd.Output()
	if err != nil {
		// Absence, timeout, and non-zero exit all degrade to the next step.
		r.logger.Debug("metadata extraction failed", logging.String("path", path), logging.Error(toolFailure(err)))
		return ""
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	line = strings.TrimSpace(line)
	if d := FromName(line); d != "" && len(line) == 8 {
		return d
	}
	return ""
}

// toolFailure classifies an extraction failure for the log record: deadline
// overruns carry ErrTimeout, everything else ErrExternalTool.
func toolFailure(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "datestamp", "extract metadata",
			"Metadata tool timed out", err)
	}
	return services.Wrap(services.ErrExternalTool, "datestamp", "extract metadata",
		"Metadata tool failed", err)
}

func fromModTime(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return info.ModTime().Format(layout)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
