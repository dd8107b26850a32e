package search

import "sync/atomic"

// Sequencer hands out search generations. Only the most recently begun generation is
// current; results stamped with any other generation are stale.
type Sequencer struct {
	current atomic.Uint64
}

// Begin starts a new generation and makes it current
func (s *Sequencer) Begin() uint64 {
	return s.current.Add(1)
}

// IsCurrent reports whether gen is still the latest generation
func (s *Sequencer) IsCurrent(gen uint64) bool {
	return s.current.Load() == gen
}

// Current returns the latest generation, 0 before the first search
func (s *Sequencer) Current() uint64 {
	return s.current.Load()
}
