package clipboard

import "sync/atomic"

// Counter substitutes for a platform clipboard sequence number. It starts at
// zero when the process starts and is incremented on every query, so two
// reads never return decreasing values; it says nothing about whether the
// content actually changed.
type Counter struct {
	n atomic.Int64
}

// Next increments and returns the counter.
func (c *Counter) Next() int64 {
	return c.n.Add(1)
}

// Current returns the last value handed out.
func (c *Counter) Current() int64 {
	return c.n.Load()
}

// Sequencer resolves the sequence token for a source, preferring the native
// counter and falling back to a process-local Counter.
type Sequencer struct {
	src      Source
	fallback *Counter
}

func NewSequencer(src Source, fallback *Counter) *Sequencer {
	if fallback == nil {
		fallback = &Counter{}
	}
	return &Sequencer{src: src, fallback: fallback}
}

// Next returns the token and whether it came from the platform.
func (s *Sequencer) Next() (int64, bool) {
	if n, ok := s.src.Sequence(); ok {
		return n, true
	}
	return s.fallback.Next(), false
}
