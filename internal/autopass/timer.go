package autopass

import (
	"sync"
	"time"
)

// State is the timer lifecycle state.
type State int

const (
	StateInactive State = iota
	StateArmed
	StateCancelled
	StateExpired
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateArmed:
		return "armed"
	case StateCancelled:
		return "cancelled"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Timer counts down an idle turn and fires an expiry callback that the
// owning engine turns into a forced pass. A grace period runs before the
// visible countdown starts. Arm replaces any previous countdown; Cancel is
// idempotent and safe against a concurrently firing expiry.
type Timer struct {
	grace    time.Duration
	duration time.Duration
	onExpire func(seat int)

	mu       sync.Mutex
	state    State
	seat     int
	deadline time.Time
	timer    *time.Timer
	gen      int
}

// New builds a timer. onExpire runs on the timer goroutine exactly once
// per armed countdown that reaches its deadline.
func New(grace, duration time.Duration, onExpire func(seat int)) *Timer {
	return &Timer{
		grace:    grace,
		duration: duration,
		onExpire: onExpire,
	}
}

// Arm starts the grace period followed by the countdown for seat. A timer
// already armed for another turn is restarted.
func (t *Timer) Arm(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.state = StateArmed
	t.seat = seat
	t.deadline = time.Now().Add(t.grace + t.duration)
	t.timer = time.AfterFunc(t.grace+t.duration, func() {
		t.expire(gen)
	})
}

// Cancel stops the countdown. Calling it on an inactive, already cancelled
// or already expired timer does nothing.
func (t *Timer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateArmed {
		return
	}
	t.state = StateCancelled
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

// State returns the current lifecycle state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Seat returns the seat the countdown is (or was) armed for.
func (t *Timer) Seat() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seat
}

// Remaining reports the milliseconds left on the countdown, clamped to the
// visible duration while the grace period runs and to zero after the
// deadline. Callers poll this at their own interval for UI feedback.
func (t *Timer) Remaining() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateArmed {
		return 0
	}
	left := time.Until(t.deadline)
	if left > t.duration {
		left = t.duration
	}
	if left < 0 {
		left = 0
	}
	return left.Milliseconds()
}

func (t *Timer) expire(gen int) {
	t.mu.Lock()
	if t.gen != gen || t.state != StateArmed {
		t.mu.Unlock()
		return
	}
	t.state = StateExpired
	t.timer = nil
	seat := t.seat
	t.mu.Unlock()

	if t.onExpire != nil {
		t.onExpire(seat)
	}
}
