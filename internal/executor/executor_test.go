package executor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasane/internal/contentkey"
	"mediasane/internal/datestamp"
	"mediasane/internal/media"
	"mediasane/internal/planner"
	"mediasane/internal/progress"
	"mediasane/internal/testsupport"
)

type recordingSink struct {
	events []progress.Event
}

func (r *recordingSink) Publish(e progress.Event) {
	r.events = append(r.events, e)
}

func (r *recordingSink) files() map[string]string {
	out := map[string]string{}
	for _, e := range r.events {
		if e.Kind == progress.KindFile {
			out[e.OriginalPath] = e.Destination
		}
	}
	return out
}

func buildPlan(t *testing.T, dir string, keepDupes bool) *planner.Plan {
	t.Helper()
	p := planner.New(
		media.Prefixes{Image: "IMG-", Video: "VID-"},
		contentkey.NewGenerator(time.Minute, 1024*1024),
		datestamp.NewResolver("", time.Second, nil),
		nil,
	)
	plan, err := p.Build(context.Background(), planner.Options{SourceDir: dir, KeepDuplicates: keepDupes})
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func localDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestRunScenario(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFileMtime(t, filepath.Join(dir, "photo1.jpg"), []byte("content A"), localDate(2023, 1, 5))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "photo2.jpg"), []byte("content A"), localDate(2023, 1, 6))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "photo3.jpg"), []byte("content B"), localDate(2023, 1, 1))

	sink := &recordingSink{}
	outcome, err := New(sink, nil).Run(context.Background(), buildPlan(t, dir, false), false)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %v", outcome)
	}

	for _, name := range []string{"IMG-20230101-00001.jpg", "IMG-20230105-00001.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing final file %s: %v", name, err)
		}
	}
	for _, name := range []string{"photo1.jpg", "photo2.jpg", "photo3.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("original %s still present", name)
		}
	}

	files := sink.files()
	if files[filepath.Join(dir, "photo2.jpg")] != progress.MarkerDeleted {
		t.Fatalf("photo2 not reported deleted: %v", files)
	}
	if sink.events[0].Kind != progress.KindTotal || sink.events[0].Total != 3 {
		t.Fatalf("first event must carry the total: %+v", sink.events[0])
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFileMtime(t, filepath.Join(dir, "photo1.jpg"), []byte("A"), localDate(2023, 1, 5))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "photo2.jpg"), []byte("A"), localDate(2023, 1, 6))

	plan := buildPlan(t, dir, false)
	sink := &recordingSink{}
	outcome, err := New(sink, nil).Run(context.Background(), plan, true)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCompleted {
		t.Fatalf("outcome = %v", outcome)
	}

	for _, name := range []string{"photo1.jpg", "photo2.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("dry run moved %s: %v", name, err)
		}
	}

	// Dry-run reported destinations must match what a real run produces.
	dryFiles := sink.files()
	realSink := &recordingSink{}
	if _, err := New(realSink, nil).Run(context.Background(), plan, false); err != nil {
		t.Fatal(err)
	}
	for orig, dest := range realSink.files() {
		if dryFiles[orig] != dest {
			t.Errorf("dry-run mismatch for %s: %q vs real %q", orig, dryFiles[orig], dest)
		}
	}
}

func TestRunQuarantinesDuplicates(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFileMtime(t, filepath.Join(dir, "one.jpg"), []byte("dup"), localDate(2023, 4, 1))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "two.jpg"), []byte("dup"), localDate(2023, 4, 2))

	sink := &recordingSink{}
	if _, err := New(sink, nil).Run(context.Background(), buildPlan(t, dir, true), false); err != nil {
		t.Fatal(err)
	}

	quarantined := filepath.Join(dir, media.QuarantineDirName, "two.jpg")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("duplicate not quarantined: %v", err)
	}
	if got, err := os.ReadFile(quarantined); err != nil || string(got) != "dup" {
		t.Fatalf("quarantined content wrong: %q %v", got, err)
	}
}

func TestRunTwoPhaseHandlesNameSwap(t *testing.T) {
	// A source file already holds a name that the plan assigns to another
	// file. Direct renames would collide; staging avoids it.
	dir := t.TempDir()
	testsupport.WriteFileMtime(t, filepath.Join(dir, "IMG-20230101-00001.jpg"), []byte("late"), time.Date(2023, 1, 1, 14, 0, 0, 0, time.Local))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "early.jpg"), []byte("early"), time.Date(2023, 1, 1, 8, 0, 0, 0, time.Local))

	sink := &recordingSink{}
	if _, err := New(sink, nil).Run(context.Background(), buildPlan(t, dir, false), false); err != nil {
		t.Fatal(err)
	}

	first, err := os.ReadFile(filepath.Join(dir, "IMG-20230101-00001.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != "early" {
		t.Fatalf("slot 00001 holds %q, want the earlier file", first)
	}
	second, err := os.ReadFile(filepath.Join(dir, "IMG-20230101-00002.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(second) != "late" {
		t.Fatalf("slot 00002 holds %q, want the later file", second)
	}
}

func TestRunResolvesForeignCollision(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	out := filepath.Join(dir, "out")
	testsupport.WriteFileMtime(t, filepath.Join(src, "pic.jpg"), []byte("new"), localDate(2023, 1, 1))
	// An unrelated actor already holds the final name.
	testsupport.WriteFile(t, filepath.Join(out, "IMG-20230101-00001.jpg"), []byte("foreign"))

	sink := &recordingSink{}
	plan := buildPlanWithOutput(t, src, out)
	if _, err := New(sink, nil).Run(context.Background(), plan, false); err != nil {
		t.Fatal(err)
	}

	foreign, err := os.ReadFile(filepath.Join(out, "IMG-20230101-00001.jpg"))
	if err != nil || string(foreign) != "foreign" {
		t.Fatalf("foreign file overwritten: %q %v", foreign, err)
	}
	fallback, err := os.ReadFile(filepath.Join(out, "IMG-20230101-00001_1.jpg"))
	if err != nil || string(fallback) != "new" {
		t.Fatalf("collision fallback missing: %q %v", fallback, err)
	}
}

func buildPlanWithOutput(t *testing.T, src, out string) *planner.Plan {
	t.Helper()
	p := planner.New(
		media.Prefixes{Image: "IMG-", Video: "VID-"},
		contentkey.NewGenerator(time.Minute, 1024*1024),
		datestamp.NewResolver("", time.Second, nil),
		nil,
	)
	plan, err := p.Build(context.Background(), planner.Options{SourceDir: src, OutputDir: out})
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestRunCancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFileMtime(t, filepath.Join(dir, "a.jpg"), []byte("a"), localDate(2023, 1, 1))
	testsupport.WriteFileMtime(t, filepath.Join(dir, "b.jpg"), []byte("a"), localDate(2023, 1, 2))

	plan := buildPlan(t, dir, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordingSink{}
	outcome, err := New(sink, nil).Run(ctx, plan, false)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != OutcomeCancelled {
		t.Fatalf("outcome = %v, want cancelled", outcome)
	}

	// Nothing moved: both files remain at their original locations.
	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("file %s not at original location: %v", name, err)
		}
	}
	moves := 0
	for _, e := range sink.events {
		if e.Kind == progress.KindFile && e.Destination != progress.MarkerUnsupported {
			moves++
		}
	}
	if moves != 0 {
		t.Fatalf("reported %d completions for a run that moved nothing", moves)
	}
}
