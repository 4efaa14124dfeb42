package datestamp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediasane/internal/services"
)

func TestToolFailureClassification(t *testing.T) {
	if err := toolFailure(context.DeadlineExceeded); !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("deadline overrun classified as %v, want services.ErrTimeout", err)
	}
	if err := toolFailure(errors.New("exit status 1")); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("tool exit classified as %v, want services.ErrExternalTool", err)
	}
}

func TestFromName(t *testing.T) {
	cases := []struct{ name, want string }{
		{"20230102-weirdname", "20230102"},
		{"20230102", "20230102"},
		{"2023010", ""},
		{"2023010a-photo", ""},
		{"photo-20230102", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := FromName(tc.name); got != tc.want {
			t.Errorf("FromName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestResolveNamePrefixWinsOverModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20230102-weirdname.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2021, 6, 1, 0, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("", time.Second, nil)
	if got := r.Resolve(context.Background(), path); got != "20230102" {
		t.Fatalf("Resolve = %q, want 20230102", got)
	}
}

func TestResolveFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "holiday.jpg")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2023, 1, 1, 10, 30, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("", time.Second, nil)
	if got := r.Resolve(context.Background(), path); got != "20230101" {
		t.Fatalf("Resolve = %q, want 20230101", got)
	}
}

func TestResolveMissingFileUsesToday(t *testing.T) {
	r := NewResolver("", time.Second, nil)
	r.now = func() time.Time { return time.Date(2024, 12, 31, 23, 0, 0, 0, time.Local) }
	got := r.Resolve(context.Background(), filepath.Join(t.TempDir(), "gone.jpg"))
	if got != "20241231" {
		t.Fatalf("Resolve = %q, want 20241231", got)
	}
}

func TestResolveMissingToolDegradesSilently(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Date(2022, 3, 4, 0, 0, 0, 0, time.Local)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}

	r := NewResolver("definitely-not-a-real-tool-name", time.Second, nil)
	if got := r.Resolve(context.Background(), path); got != "20220304" {
		t.Fatalf("Resolve = %q, want 20220304", got)
	}
}
