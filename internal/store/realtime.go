package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	realtimeWriteWait    = 10 * time.Second
	realtimeReadWait     = 60 * time.Second
	realtimeBackoffFloor = 500 * time.Millisecond
	realtimeBackoffCeil  = 15 * time.Second

	// tokenRefreshMargin is how long before token expiry the subscriber
	// fetches fresh credentials and reconnects.
	tokenRefreshMargin = 30 * time.Second
)

type subscribeMessage struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// RealtimeSubscriber is a Subscriber fed by a websocket change-feed
// gateway, for deployments where the database notification channel is not
// reachable from clients. Messages are treated as signals only; after any
// reconnect it emits a synthetic signal so the consumer refetches state it
// may have missed.
type RealtimeSubscriber struct {
	url    string
	roomID string
	log    *slog.Logger

	tokens TokenSource // nil against an anonymous gateway
	token  string      // current credential; touched only by the run goroutine

	ch     chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Subscriber = (*RealtimeSubscriber)(nil)

// NewRealtimeSubscriber dials the gateway and subscribes to the room's
// topic. A non-nil tokens source authenticates the dial and is polled
// again shortly before each token expires, cycling the connection with
// fresh credentials. The initial dial fails fast; later disconnects
// reconnect with exponential backoff until Close or context cancellation.
func NewRealtimeSubscriber(ctx context.Context, gatewayURL, roomID string, tokens TokenSource, logger *slog.Logger) (*RealtimeSubscriber, error) {
	if logger == nil {
		logger = slog.Default()
	}
	sub := &RealtimeSubscriber{
		url:    gatewayURL,
		roomID: roomID,
		log:    logger.With("component", "realtime", "room", roomID),
		tokens: tokens,
		ch:     make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	runCtx, cancel := context.WithCancel(ctx)
	sub.cancel = cancel

	if tokens != nil {
		token, err := tokens(runCtx)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("fetch gateway token: %w", err)
		}
		sub.token = token
	}

	conn, err := sub.dial(runCtx)
	if err != nil {
		cancel()
		return nil, err
	}

	go sub.run(runCtx, conn)
	return sub, nil
}

func (s *RealtimeSubscriber) Notifications() <-chan struct{} {
	return s.ch
}

func (s *RealtimeSubscriber) Close() error {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
	return nil
}

func (s *RealtimeSubscriber) dial(ctx context.Context) (*websocket.Conn, error) {
	var header http.Header
	if s.token != "" {
		header = http.Header{"Authorization": []string{"Bearer " + s.token}}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, header)
	if err != nil {
		return nil, fmt.Errorf("dial realtime gateway: %w", err)
	}

	msg, err := json.Marshal(subscribeMessage{Action: "subscribe", Topic: "room:" + s.roomID})
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(realtimeWriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe to room topic: %w", err)
	}
	return conn, nil
}

func (s *RealtimeSubscriber) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.ch)

	backoff := realtimeBackoffFloor
	for {
		readErr := make(chan error, 1)
		go func() { readErr <- s.readLoop(conn) }()

		var err error
		select {
		case <-ctx.Done():
			conn.Close()
			<-readErr
			return
		case <-s.refreshDue():
			// The gateway checks credentials at dial time, so a token
			// refresh cycles the connection.
			if rerr := s.refreshToken(ctx); rerr != nil {
				s.log.Warn("gateway token refresh failed", "error", rerr)
			}
			conn.Close()
			err = <-readErr
		case err = <-readErr:
		}
		conn.Close()
		if ctx.Err() != nil {
			return
		}
		s.log.Warn("realtime feed dropped, reconnecting", "error", err, "backoff", backoff)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			next, err := s.dial(ctx)
			if err == nil {
				conn = next
				backoff = realtimeBackoffFloor
				// The gap may have swallowed notifications.
				s.signal()
				break
			}
			if ctx.Err() != nil {
				return
			}
			s.log.Warn("realtime reconnect failed", "error", err, "backoff", backoff)
			if backoff *= 2; backoff > realtimeBackoffCeil {
				backoff = realtimeBackoffCeil
			}
		}
	}
}

// refreshDue arms a timer for the next credential refresh, or a nil
// channel when no refresh applies.
func (s *RealtimeSubscriber) refreshDue() <-chan time.Time {
	if s.tokens == nil {
		return nil
	}
	wait, err := RefreshIn(s.token, tokenRefreshMargin)
	if err != nil {
		return nil
	}
	return time.After(wait)
}

func (s *RealtimeSubscriber) refreshToken(ctx context.Context) error {
	token, err := s.tokens(ctx)
	if err != nil {
		return err
	}
	s.token = token
	return nil
}

func (s *RealtimeSubscriber) readLoop(conn *websocket.Conn) error {
	for {
		conn.SetReadDeadline(time.Now().Add(realtimeReadWait))
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
		s.signal()
	}
}

func (s *RealtimeSubscriber) signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}
