package toast

import (
	"sync"
	"time"

	"github.com/jmylchreest/toastd/internal/clock"
)

// DefaultFrameInterval is how often a countdown is redrawn.
const DefaultFrameInterval = 100 * time.Millisecond

// ProgressAnimator drives countdown bars. It is purely cosmetic: it never
// closes a toast and may drift from the dismiss timer.
type ProgressAnimator struct {
	clock clock.Clock
	frame time.Duration
}

// NewProgressAnimator creates an animator redrawing every frame.
func NewProgressAnimator(clk clock.Clock, frame time.Duration) *ProgressAnimator {
	if clk == nil {
		clk = clock.Real()
	}
	if frame <= 0 {
		frame = DefaultFrameInterval
	}
	return &ProgressAnimator{clock: clk, frame: frame}
}

// Start begins a countdown on w lasting d. It returns nil if w cannot draw
// progress or d is not positive.
func (a *ProgressAnimator) Start(w Widget, d time.Duration) *ProgressRun {
	setter, ok := w.(ProgressSetter)
	if !ok || d <= 0 {
		return nil
	}

	run := &ProgressRun{
		clock:    a.clock,
		setter:   setter,
		start:    a.clock.Now(),
		duration: d,
		frame:    a.frame,
	}

	run.mu.Lock()
	run.remaining = 1
	setter.SetProgress(1)
	run.timer = a.clock.AfterFunc(a.frame, run.tick)
	run.mu.Unlock()

	return run
}

// ProgressRun is one running countdown.
type ProgressRun struct {
	mu        sync.Mutex
	clock     clock.Clock
	setter    ProgressSetter
	start     time.Time
	duration  time.Duration
	frame     time.Duration
	timer     clock.Timer
	remaining float64
	stopped   bool
}

func (r *ProgressRun) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}

	elapsed := r.clock.Now().Sub(r.start)
	remaining := 1 - float64(elapsed)/float64(r.duration)
	if remaining <= 0 {
		remaining = 0
		r.stopped = true
		r.timer = nil
	} else {
		r.timer = r.clock.AfterFunc(r.frame, r.tick)
	}

	r.remaining = remaining
	r.setter.SetProgress(remaining)
}

// Remaining returns the last fraction drawn.
func (r *ProgressRun) Remaining() float64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Stop halts the countdown. Safe to call more than once and on nil.
func (r *ProgressRun) Stop() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
