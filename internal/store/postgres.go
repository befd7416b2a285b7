package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createRoomTableSQL = `
CREATE TABLE IF NOT EXISTS rooms (
	code       TEXT PRIMARY KEY,
	state      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// submit_move validates the move against the current row, applies it
// atomically and fires pg_notify on the room's channel. It returns a
// status: 'ok', 'room_gone', 'not_your_turn', 'stale_turn', or a
// validation detail prefixed with 'invalid:'.
const submitMoveSQL = `SELECT submit_move($1, $2, $3, $4::int[])`

// PostgresStore implements RoomStore on a pgx connection pool. Change
// notifications use LISTEN/NOTIFY on a per-room channel.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ RoomStore = (*PostgresStore)(nil)

// NewPostgresStore connects to Postgres and ensures the rooms table exists.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect room store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping room store: %w", err)
	}
	if _, err := pool.Exec(ctx, createRoomTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure rooms table: %w", err)
	}
	return &PostgresStore{pool: pool, log: logger.With("component", "store")}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// FetchRoom reads and decodes the full authoritative row.
func (s *PostgresStore) FetchRoom(ctx context.Context, roomID string) (*RoomRow, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT state FROM rooms WHERE code = $1`, roomID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomGone
	}
	if err != nil {
		return nil, fmt.Errorf("fetch room %s: %w", roomID, err)
	}
	row, err := DecodeRow(data)
	if err != nil {
		return nil, err
	}
	row.RoomID = roomID
	return row, nil
}

// SubmitPlay writes one play move through the atomic server-side function.
func (s *PostgresStore) SubmitPlay(ctx context.Context, roomID string, seat int, cardIDs []int) error {
	return s.submit(ctx, roomID, seat, "play", cardIDs)
}

// SubmitPass writes one pass move.
func (s *PostgresStore) SubmitPass(ctx context.Context, roomID string, seat int) error {
	return s.submit(ctx, roomID, seat, "pass", nil)
}

func (s *PostgresStore) submit(ctx context.Context, roomID string, seat int, action string, cardIDs []int) error {
	if cardIDs == nil {
		cardIDs = []int{}
	}
	var status string
	err := s.pool.QueryRow(ctx, submitMoveSQL, roomID, seat, action, cardIDs).Scan(&status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return &ValidationError{Detail: pgErr.Message}
		}
		return fmt.Errorf("submit %s for room %s: %w", action, roomID, err)
	}
	return mapSubmitStatus(status)
}

func mapSubmitStatus(status string) error {
	switch {
	case status == "ok":
		return nil
	case status == "room_gone":
		return ErrRoomGone
	case status == "not_your_turn":
		return ErrNotYourTurn
	case status == "stale_turn":
		return ErrStaleTurn
	case strings.HasPrefix(status, "invalid:"):
		return &ValidationError{Detail: strings.TrimSpace(strings.TrimPrefix(status, "invalid:"))}
	default:
		return fmt.Errorf("unexpected submit status %q", status)
	}
}

// channelName builds the per-room LISTEN channel identifier.
func channelName(roomID string) string {
	return "room_" + roomID
}

// Subscribe holds a dedicated connection listening on the room's channel
// and forwards each notification as an empty signal.
func (s *PostgresStore) Subscribe(ctx context.Context, roomID string) (Subscriber, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen connection: %w", err)
	}

	channel := pgx.Identifier{channelName(roomID)}.Sanitize()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen on %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &pgSubscriber{
		ch:     make(chan struct{}, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer conn.Release()
		for {
			if _, err := conn.Conn().WaitForNotification(subCtx); err != nil {
				if subCtx.Err() == nil {
					s.log.Warn("notification wait failed", "room", roomID, "error", err)
				}
				close(sub.ch)
				return
			}
			sub.signal()
		}
	}()

	return sub, nil
}

type pgSubscriber struct {
	ch     chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// signal coalesces bursts: an undelivered pending signal already forces a
// refetch, so further ones add nothing.
func (s *pgSubscriber) signal() {
	select {
	case s.ch <- struct{}{}:
	default:
	}
}

func (s *pgSubscriber) Notifications() <-chan struct{} {
	return s.ch
}

func (s *pgSubscriber) Close() error {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
	}
	return nil
}
