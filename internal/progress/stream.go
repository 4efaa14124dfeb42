package progress

// Stream is a one-directional, unbounded event queue between the engine (the
// sole producer) and whatever consumes its progress. Publish never waits on
// the consumer: events accumulate in an internal buffer until drained.
type Stream struct {
	in  chan Event
	out chan Event
}

// NewStream starts an empty stream.
func NewStream() *Stream {
	s := &Stream{
		in:  make(chan Event),
		out: make(chan Event),
	}
	go s.pump()
	return s
}

// Publish enqueues an event. It must not be called after Close.
func (s *Stream) Publish(e Event) {
	s.in <- e
}

// Close signals that no further events will be published. The Events channel
// closes once every buffered event has been consumed.
func (s *Stream) Close() {
	close(s.in)
}

// Events returns the consumer side of the stream.
func (s *Stream) Events() <-chan Event {
	return s.out
}

func (s *Stream) pump() {
	var queue []Event
	in := s.in
	for in != nil || len(queue) > 0 {
		var out chan Event
		var next Event
		if len(queue) > 0 {
			out = s.out
			next = queue[0]
		}
		select {
		case e, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			queue = append(queue, e)
		case out <- next:
			queue = queue[1:]
		}
	}
	close(s.out)
}
