package progress

// Destination markers reported instead of a path when a file is not kept.
const (
	MarkerDeleted     = "(deleted)"
	MarkerUnsupported = "(unsupported)"
	MarkerSkipped     = "(skipped)"
)

// Kind discriminates progress events.
type Kind int

const (
	// KindTotal announces the number of files the run will report, once at
	// execution start.
	KindTotal Kind = iota
	// KindFile reports one completed per-file transition.
	KindFile
	// KindCount reports the running processed-file count.
	KindCount
)

// Event is a single progress report from the engine.
type Event struct {
	Kind         Kind
	Total        int
	OriginalPath string
	Destination  string
	Processed    int
}

// Sink consumes progress events. Publish must not block the engine for long;
// Stream satisfies that by buffering without bound.
type Sink interface {
	Publish(Event)
}

// Total builds a run-start total event.
func Total(n int) Event { return Event{Kind: KindTotal, Total: n} }

// File builds a per-file transition event.
func File(original, destination string) Event {
	return Event{Kind: KindFile, OriginalPath: original, Destination: destination}
}

// Count builds a processed-count event.
func Count(n int) Event { return Event{Kind: KindCount, Processed: n} }
