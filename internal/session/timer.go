package session

import (
	"sync"
	"time"
)

// QuestionTimer counts whole seconds spent on the current question. It only
// increments while both its own active flag and the session-level gate hold,
// re-checked at every tick; missed ticks are never replayed.
type QuestionTimer struct {
	mu      sync.Mutex
	seconds int
	active  bool

	gate func() bool

	stop     chan struct{}
	stopOnce sync.Once
}

// NewQuestionTimer creates a timer ticking once per second. The gate is
// consulted at each tick in addition to the timer's own active flag.
func NewQuestionTimer(gate func() bool) *QuestionTimer {
	t := newQuestionTimer(gate)
	go t.run(time.Second)
	return t
}

// newQuestionTimer creates a timer without starting the tick loop. Tests
// drive it by calling tick directly.
func newQuestionTimer(gate func() bool) *QuestionTimer {
	if gate == nil {
		gate = func() bool { return true }
	}
	return &QuestionTimer{
		gate: gate,
		stop: make(chan struct{}),
	}
}

func (t *QuestionTimer) run(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

// tick applies one elapsed second if the gates allow it. The gate runs
// before the timer lock is taken so gate implementations may take their own
// locks without ordering issues.
func (t *QuestionTimer) tick() {
	if !t.gate() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	select {
	case <-t.stop:
		return
	default:
	}

	if t.active {
		t.seconds++
	}
}

// Resume enables ticking
func (t *QuestionTimer) Resume() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = true
}

// Suspend disables ticking without losing the elapsed count
func (t *QuestionTimer) Suspend() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
}

// Reset zeroes the elapsed count for the next question
func (t *QuestionTimer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seconds = 0
}

// Elapsed returns the seconds counted so far for the current question
func (t *QuestionTimer) Elapsed() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seconds
}

// Close stops the tick loop permanently. Safe to call more than once.
func (t *QuestionTimer) Close() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		t.active = false
		t.mu.Unlock()
		close(t.stop)
	})
}
