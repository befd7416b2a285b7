package multiplayer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
	"bigtwo/internal/store"
)

// HostCoordinator drives bot seats for a room when this client is the
// host. Exactly one bot-turn check runs at a time; an attempt exceeding
// the timeout forfeits its lock and the next row update retries it.
type HostCoordinator struct {
	rs       store.RoomStore
	brain    bot.Brain
	clientID string
	timeout  time.Duration
	log      *slog.Logger

	mu        sync.Mutex
	inFlight  bool
	startedAt time.Time
	attempt   int // generation guard: a timed-out attempt cannot release its successor's lock
}

// NewHostCoordinator builds a coordinator. clientID is compared against
// the row's host id so a demoted host stops driving bots immediately.
func NewHostCoordinator(rs store.RoomStore, brain bot.Brain, clientID string, timeout time.Duration, logger *slog.Logger) *HostCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &HostCoordinator{
		rs:       rs,
		brain:    brain,
		clientID: clientID,
		timeout:  timeout,
		log:      logger.With("component", "host"),
	}
}

// OnRow inspects a freshly fetched row and, when a bot seat holds the
// turn, launches at most one bot action for it.
func (h *HostCoordinator) OnRow(ctx context.Context, row *store.RoomRow) {
	if row.HostID != h.clientID || row.GamePhase != string(domain.PhasePlaying) {
		return
	}
	seat := row.CurrentTurn
	if !row.IsBotSeat(seat) {
		return
	}

	h.mu.Lock()
	if h.inFlight {
		if time.Since(h.startedAt) < h.timeout {
			h.mu.Unlock()
			return
		}
		h.log.Warn("bot turn exceeded timeout, forcing lock release", "seat", seat)
	}
	h.inFlight = true
	h.startedAt = time.Now()
	h.attempt++
	attempt := h.attempt
	h.mu.Unlock()

	go h.runBotTurn(ctx, row, seat, attempt)
}

func (h *HostCoordinator) runBotTurn(ctx context.Context, row *store.RoomRow, seat int, attempt int) {
	defer h.release(attempt)

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	view, err := viewFromRow(row, seat)
	if err != nil {
		h.log.Error("room row holds undecodable cards", "seat", seat, "error", err)
		return
	}

	move, err := h.brain.CalculateMove(view)
	if err != nil {
		h.log.Error("bot move failed", "seat", seat, "error", err)
		return
	}

	if move.Pass {
		err = h.rs.SubmitPass(ctx, row.RoomID, seat)
	} else {
		err = h.rs.SubmitPlay(ctx, row.RoomID, seat, domain.CardIDs(move.Cards))
	}
	if err != nil {
		// Stale and turn rejections are routine: another update already
		// advanced the row, and the next OnRow re-checks from scratch.
		h.log.Warn("bot submit rejected", "seat", seat, "error", err)
	}
}

func (h *HostCoordinator) release(attempt int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attempt == attempt {
		h.inFlight = false
	}
}

// viewFromRow builds the strategy view a remote bot seat sees. Remote rows
// carry no discard history, so the view's Played stays nil.
func viewFromRow(row *store.RoomRow, seat int) (bot.View, error) {
	hand, err := domain.CardsFromIDs(row.Hand(seat))
	if err != nil {
		return bot.View{}, err
	}

	var counts [domain.Seats]int
	total := 0
	for s := 0; s < domain.Seats; s++ {
		counts[s] = len(row.Hand(s))
		total += counts[s]
	}

	var lastPlay domain.Combination
	if row.LastPlay != nil {
		cards, err := domain.CardsFromIDs(row.LastPlay.Cards)
		if err != nil {
			return bot.View{}, err
		}
		lastPlay = domain.Classify(cards)
	}

	return bot.View{
		Seat:           seat,
		Hand:           hand,
		LastPlay:       lastPlay,
		Counts:         counts,
		OpenerRequired: row.LastPlay == nil && row.RoundNumber <= 1 && total == domain.Seats*domain.HandSize,
	}, nil
}
