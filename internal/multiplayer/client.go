package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bigtwo/internal/config"
	"bigtwo/internal/store"
)

var (
	// ErrCommandInFlight means the same action is already awaiting store
	// acknowledgment; the caller waits for the next row update.
	ErrCommandInFlight = errors.New("command already in flight")
	// ErrClientClosed means the projection loop has stopped.
	ErrClientClosed = errors.New("multiplayer client closed")
)

const updateBuffer = 16

// Client projects a server-authoritative room onto this device. It never
// mutates state speculatively: commands go to the store, and the only
// source of truth is the row re-fetched after each change signal. One
// Client per joined room; Close tears it down.
type Client struct {
	rs     store.RoomStore
	cfg    *config.Config
	log    *slog.Logger
	roomID string
	seat   int

	tokens  *commandTokens
	host    *HostCoordinator // nil when this client is not the host
	updates chan *store.RoomRow

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewClient builds a projection client for one room and seat. host may be
// nil; when set, every refreshed row is offered to the coordinator.
func NewClient(rs store.RoomStore, cfg *config.Config, roomID string, seat int, host *HostCoordinator, logger *slog.Logger) *Client {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		rs:      rs,
		cfg:     cfg,
		log:     logger.With("component", "sync", "room", roomID),
		roomID:  roomID,
		seat:    seat,
		tokens:  newCommandTokens(time.Duration(cfg.Sync.CommandTimeoutMS) * time.Millisecond),
		host:    host,
		updates: make(chan *store.RoomRow, updateBuffer),
		done:    make(chan struct{}),
	}
}

// Updates delivers each re-fetched authoritative row. The channel closes
// when the projection stops; the last error is available from Run.
func (c *Client) Updates() <-chan *store.RoomRow {
	return c.updates
}

// Run subscribes and drives the fetch-on-signal loop until the context
// ends, the room disappears, or retries are exhausted. It returns
// store.ErrRoomGone when the room vanished.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.started = true
	c.mu.Unlock()
	defer close(c.done)
	defer close(c.updates)

	sub, err := c.rs.Subscribe(ctx, c.roomID)
	if err != nil {
		return fmt.Errorf("subscribe to room: %w", err)
	}
	defer sub.Close()

	// Initial full state before any signal.
	if err := c.refresh(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-sub.Notifications():
			if !ok {
				// Subscription died: resubscribe, then refetch everything
				// missed during the gap.
				sub.Close()
				sub, err = c.resubscribe(ctx)
				if err != nil {
					return err
				}
			}
			if err := c.refresh(ctx); err != nil {
				return err
			}
		}
	}
}

// Close stops the projection loop and waits for it to finish. Closing a
// client that never ran returns immediately.
func (c *Client) Close() {
	c.mu.Lock()
	started, cancel := c.started, c.cancel
	c.mu.Unlock()
	if !started {
		return
	}
	cancel()
	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
	}
}

// Play submits the seat's play. The in-flight token blocks a second play
// until the store answers; a stale-turn rejection resolves on the next row
// update rather than by local guessing.
func (c *Client) Play(ctx context.Context, cardIDs []int) error {
	id, ok := c.tokens.acquire(ActionPlay)
	if !ok {
		return ErrCommandInFlight
	}
	defer c.tokens.release(ActionPlay, id)

	return c.rs.SubmitPlay(ctx, c.roomID, c.seat, cardIDs)
}

// Pass submits the seat's pass under the pass token.
func (c *Client) Pass(ctx context.Context) error {
	id, ok := c.tokens.acquire(ActionPass)
	if !ok {
		return ErrCommandInFlight
	}
	defer c.tokens.release(ActionPass, id)

	return c.rs.SubmitPass(ctx, c.roomID, c.seat)
}

// refresh re-fetches the full row with bounded retry and publishes it.
func (c *Client) refresh(ctx context.Context) error {
	row, err := c.fetchWithRetry(ctx)
	if err != nil {
		return err
	}

	select {
	case c.updates <- row:
	default:
		// A consumer this far behind only needs the newest row anyway.
		select {
		case <-c.updates:
		default:
		}
		c.updates <- row
	}

	if c.host != nil {
		c.host.OnRow(ctx, row)
	}
	return nil
}

func (c *Client) fetchWithRetry(ctx context.Context) (*store.RoomRow, error) {
	backoff := time.Duration(c.cfg.Sync.RetryBackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Sync.FetchRetries; attempt++ {
		if attempt > 0 {
			c.log.Warn("room fetch failed, retrying", "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		row, err := c.rs.FetchRoom(ctx, c.roomID)
		if err == nil {
			return row, nil
		}
		if errors.Is(err, store.ErrRoomGone) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("fetch room after %d retries: %w", c.cfg.Sync.FetchRetries, lastErr)
}

func (c *Client) resubscribe(ctx context.Context) (store.Subscriber, error) {
	backoff := time.Duration(c.cfg.Sync.RetryBackoffMS) * time.Millisecond
	var lastErr error
	for attempt := 0; attempt <= c.cfg.Sync.FetchRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		sub, err := c.rs.Subscribe(ctx, c.roomID)
		if err == nil {
			c.log.Info("resubscribed")
			return sub, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("resubscribe after %d retries: %w", c.cfg.Sync.FetchRetries, lastErr)
}
