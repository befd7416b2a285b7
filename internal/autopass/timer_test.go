package autopass

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTimerExpiresWithSeat(t *testing.T) {
	var fired atomic.Int64
	fired.Store(-1)
	done := make(chan struct{})

	tm := New(time.Millisecond, 5*time.Millisecond, func(seat int) {
		fired.Store(int64(seat))
		close(done)
	})
	tm.Arm(2)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never expired")
	}
	if got := fired.Load(); got != 2 {
		t.Errorf("expired seat = %d, want 2", got)
	}
	if tm.State() != StateExpired {
		t.Errorf("state = %v, want expired", tm.State())
	}
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	var fired atomic.Int32
	tm := New(time.Millisecond, 5*time.Millisecond, func(int) {
		fired.Add(1)
	})
	tm.Arm(0)
	tm.Cancel()
	tm.Cancel()

	if tm.State() != StateCancelled {
		t.Fatalf("state = %v, want cancelled", tm.State())
	}

	time.Sleep(20 * time.Millisecond)
	if n := fired.Load(); n != 0 {
		t.Errorf("cancelled timer fired %d times", n)
	}
}

func TestTimerCancelAfterExpiryKeepsExpired(t *testing.T) {
	done := make(chan struct{})
	tm := New(0, time.Millisecond, func(int) { close(done) })
	tm.Arm(1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer never expired")
	}
	tm.Cancel()
	if tm.State() != StateExpired {
		t.Errorf("state = %v, want expired", tm.State())
	}
}

func TestTimerRearmSupersedesOldCountdown(t *testing.T) {
	seats := make(chan int, 2)
	tm := New(time.Millisecond, 10*time.Millisecond, func(seat int) {
		seats <- seat
	})
	tm.Arm(0)
	tm.Arm(3)

	select {
	case seat := <-seats:
		if seat != 3 {
			t.Fatalf("expired seat = %d, want 3", seat)
		}
	case <-time.After(time.Second):
		t.Fatal("timer never expired")
	}

	select {
	case seat := <-seats:
		t.Fatalf("superseded countdown fired for seat %d", seat)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestTimerRemaining(t *testing.T) {
	tm := New(time.Hour, time.Minute, nil)

	if got := tm.Remaining(); got != 0 {
		t.Errorf("inactive Remaining = %d, want 0", got)
	}

	tm.Arm(0)
	// Deep inside the grace period the visible countdown has not started.
	if got := tm.Remaining(); got != time.Minute.Milliseconds() {
		t.Errorf("Remaining during grace = %d, want %d", got, time.Minute.Milliseconds())
	}

	tm.Cancel()
	if got := tm.Remaining(); got != 0 {
		t.Errorf("cancelled Remaining = %d, want 0", got)
	}
}
