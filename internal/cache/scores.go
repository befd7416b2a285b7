package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"bigtwo/internal/domain"
)

// snapshotVersion bumps whenever the snapshot layout changes; older blobs
// are discarded rather than migrated.
const snapshotVersion = 1

var (
	// ErrNotCached means no snapshot exists for the room code.
	ErrNotCached = errors.New("no cached score history")
	// ErrVersionMismatch means a snapshot exists but was written by an
	// incompatible version and must be ignored.
	ErrVersionMismatch = errors.New("cached score history version mismatch")
)

// Snapshot is the persisted score history for one room.
type Snapshot struct {
	Version   int               `json:"version"`
	RoomCode  string            `json:"room_code"`
	Totals    [domain.Seats]int `json:"totals"`
	LastMatch int               `json:"last_match"`
	SavedAt   time.Time         `json:"saved_at"`
}

// ScoreHistory is a file-backed cache of session scores keyed by room
// code. It only exists to survive app restarts; the remote row stays
// authoritative and overwrites it on every fetch.
type ScoreHistory struct {
	mu  sync.Mutex
	dir string
}

// NewScoreHistory stores snapshots under dir, creating it if needed.
func NewScoreHistory(dir string) (*ScoreHistory, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create score cache dir: %w", err)
	}
	return &ScoreHistory{dir: dir}, nil
}

// Put writes the room's score snapshot, replacing any previous one. The
// write is atomic: a crash never leaves a truncated snapshot behind.
func (c *ScoreHistory) Put(roomCode string, totals [domain.Seats]int, lastMatch int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Version:   snapshotVersion,
		RoomCode:  roomCode,
		Totals:    totals,
		LastMatch: lastMatch,
		SavedAt:   time.Now(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode score snapshot: %w", err)
	}

	path := c.path(roomCode)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write score snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit score snapshot: %w", err)
	}
	return nil
}

// Get reads the room's score snapshot, if a compatible one exists.
func (c *ScoreHistory) Get(roomCode string) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := os.ReadFile(c.path(roomCode))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, fmt.Errorf("read score snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, ErrVersionMismatch
	}
	if snap.Version != snapshotVersion || snap.RoomCode != roomCode {
		return nil, ErrVersionMismatch
	}
	return &snap, nil
}

// Delete removes the room's snapshot. Missing snapshots are not an error.
func (c *ScoreHistory) Delete(roomCode string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := os.Remove(c.path(roomCode))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete score snapshot: %w", err)
	}
	return nil
}

func (c *ScoreHistory) path(roomCode string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, roomCode)
	return filepath.Join(c.dir, "scores-"+safe+".json")
}
