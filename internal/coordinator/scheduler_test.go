package coordinator

import (
	"sync"
	"time"
)

// manualScheduler queues continuations until the test runs them.
type manualScheduler struct {
	mu     sync.Mutex
	queue  []*manualTimer
	delays []time.Duration
}

type manualTimer struct {
	s       *manualScheduler
	f       func()
	fired   bool
	stopped bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &manualTimer{s: s, f: f}
	s.queue = append(s.queue, t)
	s.delays = append(s.delays, d)
	return t
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// RunNext fires the oldest live continuation. It reports whether one ran.
func (s *manualScheduler) RunNext() bool {
	s.mu.Lock()
	var next *manualTimer
	for len(s.queue) > 0 {
		candidate := s.queue[0]
		s.queue = s.queue[1:]
		if !candidate.stopped {
			candidate.fired = true
			next = candidate
			break
		}
	}
	s.mu.Unlock()

	if next == nil {
		return false
	}
	next.f()
	return true
}

// RunAll fires continuations until none are left and returns how many ran.
func (s *manualScheduler) RunAll() int {
	n := 0
	for s.RunNext() {
		n++
	}
	return n
}

func (s *manualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}
