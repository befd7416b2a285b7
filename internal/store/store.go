package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Navigation-level and turn-level failures surfaced by a RoomStore.
var (
	// ErrRoomGone means the room row no longer exists; callers leave the
	// room rather than retry.
	ErrRoomGone = errors.New("room no longer exists")
	// ErrNotYourTurn means the store rejected a submit for a seat that is
	// not the current turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrStaleTurn means the turn advanced between the client's read and
	// its submit; the caller refetches and retries from fresh state.
	ErrStaleTurn = errors.New("turn already advanced")
)

// ValidationError is a structured rejection of a submitted move.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "move rejected: " + e.Detail
}

// LastPlayRecord is the authoritative play to beat, as stored in the row.
type LastPlayRecord struct {
	Seat  int   `json:"seat"`
	Cards []int `json:"cards"` // card ids 0..51
}

// TimerRecord mirrors the server's auto-pass countdown state.
type TimerRecord struct {
	Active      bool  `json:"active"`
	Seat        int   `json:"seat"`
	RemainingMS int64 `json:"remaining_ms"`
}

// RoomRow is the authoritative multiplayer room state. The client never
// mutates it directly; it re-reads the whole row on every change signal.
type RoomRow struct {
	RoomID      string           `json:"room_id"`
	HostID      string           `json:"host_id"`
	CurrentTurn int              `json:"current_turn"`
	LastPlay    *LastPlayRecord  `json:"last_play"`
	Hands       map[string][]int `json:"hands"` // keyed by seat index string
	PassCount   int              `json:"pass_count"`
	GamePhase   string           `json:"game_phase"`
	MatchNumber int              `json:"match_number"`
	RoundNumber int              `json:"round_number"`
	Timer       *TimerRecord     `json:"auto_pass_timer"`
	Scores      map[string]int   `json:"scores"` // keyed by seat index string
	BotSeats    []int            `json:"bot_seats"`
}

// Hand returns the card ids held by a seat, nil when unknown.
func (r *RoomRow) Hand(seat int) []int {
	return r.Hands[strconv.Itoa(seat)]
}

// Score returns the cumulative score for a seat.
func (r *RoomRow) Score(seat int) int {
	return r.Scores[strconv.Itoa(seat)]
}

// IsBotSeat reports whether the seat is listed as bot-driven.
func (r *RoomRow) IsBotSeat(seat int) bool {
	for _, s := range r.BotSeats {
		if s == seat {
			return true
		}
	}
	return false
}

// DecodeRow parses a room row from its JSON representation.
func DecodeRow(data []byte) (*RoomRow, error) {
	var row RoomRow
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, fmt.Errorf("decode room row: %w", err)
	}
	return &row, nil
}

// EncodeRow serializes a room row for storage.
func EncodeRow(row *RoomRow) ([]byte, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("encode room row: %w", err)
	}
	return data, nil
}

// Subscriber delivers signal-only change notifications for one room. The
// signals carry no payload; consumers re-fetch the row on every signal.
type Subscriber interface {
	Notifications() <-chan struct{}
	Close() error
}

// RoomStore is the remote collaborator holding authoritative multiplayer
// state. Implementations provide atomic per-move writes; moves are already
// serialized by turn order on the server side.
type RoomStore interface {
	FetchRoom(ctx context.Context, roomID string) (*RoomRow, error)
	Subscribe(ctx context.Context, roomID string) (Subscriber, error)
	SubmitPlay(ctx context.Context, roomID string, seat int, cardIDs []int) error
	SubmitPass(ctx context.Context, roomID string, seat int) error
}
