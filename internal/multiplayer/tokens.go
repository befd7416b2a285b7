package multiplayer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is a command category guarded against double submission.
type Action string

const (
	ActionPlay Action = "play"
	ActionPass Action = "pass"
)

type tokenSlot struct {
	id       uuid.UUID
	issuedAt time.Time
}

// commandTokens is a single-slot in-flight guard per action. A second
// command of the same action is refused until the first completes or its
// token ages past the timeout, which covers a response lost in transit.
type commandTokens struct {
	mu      sync.Mutex
	timeout time.Duration
	slots   map[Action]tokenSlot
}

func newCommandTokens(timeout time.Duration) *commandTokens {
	return &commandTokens{
		timeout: timeout,
		slots:   make(map[Action]tokenSlot),
	}
}

// acquire claims the slot for an action. The second return is false while
// a live token holds it.
func (t *commandTokens) acquire(action Action) (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot, held := t.slots[action]; held {
		if time.Since(slot.issuedAt) < t.timeout {
			return uuid.Nil, false
		}
		// Timed-out token: the previous command's fate is unknown, but
		// blocking input forever is worse than a duplicate the store will
		// reject as stale.
	}

	id := uuid.New()
	t.slots[action] = tokenSlot{id: id, issuedAt: time.Now()}
	return id, true
}

// release frees the slot if the caller still owns it. A release with a
// superseded token is a no-op.
func (t *commandTokens) release(action Action, id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot, held := t.slots[action]; held && slot.id == id {
		delete(t.slots, action)
	}
}
