package app

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"bigtwo/internal/autopass"
	"bigtwo/internal/bot"
	"bigtwo/internal/cache"
	"bigtwo/internal/config"
	"bigtwo/internal/domain"
)

var (
	ErrClosed      = errors.New("engine is closed")
	ErrBotSeat     = errors.New("seat is driven by a bot")
	ErrNotStarted  = errors.New("engine not started")
	ErrOutOfBounds = errors.New("seat index out of range")
)

const observerBuffer = 256

// Engine runs one local authoritative session: it owns the match state
// machine and the ledger, drives bot seats on a randomized delay, arms the
// auto-pass countdown for human seats and publishes every state change to
// observer channels. One Engine per session; Close tears it down.
type Engine struct {
	cfg *config.Config
	log *slog.Logger
	rng *rand.Rand

	mu         sync.Mutex
	match      *domain.Match
	ledger     *domain.Ledger
	brains     [domain.Seats]bot.Brain
	timer      *autopass.Timer
	observers  []chan Event
	history    *cache.ScoreHistory // nil when scores are not persisted
	historyKey string
	resumeFrom int // last match number restored from the cache
	gen        int // bumped on every commit so stale scheduled turns abort
	closed     bool
}

// NewEngine constructs an engine. brains[seat] == nil marks a human seat.
// A nil rng falls back to a time-seeded source, a nil logger to
// slog.Default.
func NewEngine(cfg *config.Config, brains [domain.Seats]bot.Brain, rng *rand.Rand, logger *slog.Logger) *Engine {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:    cfg,
		log:    logger.With("component", "engine"),
		rng:    rng,
		brains: brains,
		ledger: domain.NewLedger(cfg.BustThreshold, domain.PenaltyTable{
			DoubleAt: cfg.Penalty.DoubleAt,
			TripleAt: cfg.Penalty.TripleAt,
		}),
	}
	e.timer = autopass.New(
		time.Duration(cfg.AutoPass.GraceMS)*time.Millisecond,
		time.Duration(cfg.AutoPass.DurationMS)*time.Millisecond,
		e.onAutoPassExpired,
	)
	return e
}

// Observe registers a buffered event channel. The channel closes when the
// engine closes; observing an already closed engine yields a closed
// channel. A slow observer loses events rather than blocking play.
func (e *Engine) Observe() <-chan Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	ch := make(chan Event, observerBuffer)
	if e.closed {
		close(ch)
		return ch
	}
	e.observers = append(e.observers, ch)
	return ch
}

// UseScoreHistory persists session totals under key and resumes from a
// compatible snapshot left by a previous run. Call before Start; the
// snapshot is cleared when the session ends.
func (e *Engine) UseScoreHistory(h *cache.ScoreHistory, key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = h
	e.historyKey = key

	snap, err := h.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotCached) {
			e.log.Warn("score cache unreadable, starting fresh", "error", err)
		}
		return
	}
	e.ledger.RestoreTotals(snap.Totals, snap.LastMatch)
	e.resumeFrom = snap.LastMatch
	e.log.Info("resumed session scores", "last_match", snap.LastMatch, "totals", snap.Totals)
}

// Start deals the first match and begins driving turns. A session resumed
// from the score cache deals the match after the last recorded one.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.match != nil {
		return
	}
	e.startMatchLocked(e.resumeFrom + 1)
}

// Close stops all scheduled work and closes observer channels.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	e.gen++
	e.timer.Cancel()
	for _, ch := range e.observers {
		close(ch)
	}
	e.observers = nil
}

// Play submits a human play for the given seat. Bot seats reject human
// commands.
func (e *Engine) Play(seat int, cards []domain.Card) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkHumanCommand(seat); err != nil {
		return err
	}

	e.cancelCountdownLocked(seat)
	if err := e.match.Submit(seat, cards); err != nil {
		e.rearmCountdownLocked(seat)
		return err
	}
	e.afterSubmitLocked(seat, cards)
	return nil
}

// Pass submits a human pass for the given seat.
func (e *Engine) Pass(seat int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkHumanCommand(seat); err != nil {
		return err
	}

	e.cancelCountdownLocked(seat)
	if err := e.match.PassTurn(seat); err != nil {
		e.rearmCountdownLocked(seat)
		return err
	}
	e.afterPassLocked(seat, false)
	return nil
}

// Hint suggests a move for a human seat from its current view.
func (e *Engine) Hint(seat int) (bot.Move, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return bot.Move{}, ErrNotStarted
	}
	if seat < 0 || seat >= domain.Seats {
		return bot.Move{}, ErrOutOfBounds
	}
	return bot.FindHint(e.viewLocked(seat)), nil
}

// Hand returns a copy of the seat's current hand.
func (e *Engine) Hand(seat int) []domain.Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil || seat < 0 || seat >= domain.Seats {
		return nil
	}
	return append([]domain.Card{}, e.match.Hands[seat]...)
}

// Counts returns the remaining card count per seat.
func (e *Engine) Counts() [domain.Seats]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return [domain.Seats]int{}
	}
	return e.match.CardCounts()
}

// LastPlay returns a copy of the play to beat, or nil on a fresh trick.
func (e *Engine) LastPlay() *domain.Play {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil || e.match.LastPlay == nil {
		return nil
	}
	cp := *e.match.LastPlay
	return &cp
}

// CurrentTurn returns the seat whose turn it is.
func (e *Engine) CurrentTurn() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return -1
	}
	return e.match.CurrentTurn
}

// Phase returns the lifecycle phase of the running match.
func (e *Engine) Phase() domain.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return domain.PhaseDealing
	}
	return e.match.Phase
}

// MatchNumber returns the current match number, starting at 1.
func (e *Engine) MatchNumber() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return 0
	}
	return e.match.MatchNumber
}

// RoundNumber returns the current trick index within the match.
func (e *Engine) RoundNumber() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.match == nil {
		return 0
	}
	return e.match.RoundNumber
}

// OpenerPending reports whether the mandatory opening play is outstanding.
func (e *Engine) OpenerPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.match != nil && e.match.OpenerPending()
}

// Totals returns the cumulative session score per seat.
func (e *Engine) Totals() [domain.Seats]int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Totals()
}

// Entries returns the scoring ledger so far.
func (e *Engine) Entries() []domain.LedgerEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.LedgerEntry{}, e.ledger.Entries...)
}

// CountdownRemaining reports the milliseconds left on the auto-pass
// countdown, zero when inactive.
func (e *Engine) CountdownRemaining() int64 {
	return e.timer.Remaining()
}

func (e *Engine) checkHumanCommand(seat int) error {
	if e.closed {
		return ErrClosed
	}
	if e.match == nil {
		return ErrNotStarted
	}
	if seat < 0 || seat >= domain.Seats {
		return ErrOutOfBounds
	}
	if e.brains[seat] != nil {
		return ErrBotSeat
	}
	return nil
}

func (e *Engine) startMatchLocked(number int) {
	e.match = domain.NewMatch(number, e.rng)
	e.log.Info("hand dealt", "match", number, "first_turn", e.match.CurrentTurn)
	e.publishLocked(Event{Kind: EventHandDealt, Payload: HandDealtPayload{
		MatchNumber: number,
		FirstTurn:   e.match.CurrentTurn,
		Counts:      e.match.CardCounts(),
	}})
	e.advanceLocked()
}

// afterSubmitLocked publishes the commit and routes to scoring or the next
// turn.
func (e *Engine) afterSubmitLocked(seat int, cards []domain.Card) {
	e.publishLocked(Event{Kind: EventCardPlayed, Payload: CardPlayedPayload{
		Seat:     seat,
		Cards:    append([]domain.Card{}, cards...),
		NextTurn: e.match.CurrentTurn,
	}})
	if e.match.LastCardSeat == seat {
		e.publishLocked(Event{Kind: EventLastCardAlert, Payload: LastCardAlertPayload{Seat: seat}})
	}

	if e.match.Phase == domain.PhaseMatchEnded {
		e.scoreMatchLocked()
		return
	}
	e.advanceLocked()
}

func (e *Engine) afterPassLocked(seat int, forced bool) {
	kind := EventTurnPassed
	if forced {
		kind = EventAutoPassed
	}
	e.publishLocked(Event{Kind: kind, Payload: TurnPassedPayload{
		Seat:     seat,
		NextTurn: e.match.CurrentTurn,
		Forced:   forced,
	}})
	if e.match.Leading() {
		e.publishLocked(Event{Kind: EventTrickWon, Payload: TrickWonPayload{
			Seat:        e.match.CurrentTurn,
			RoundNumber: e.match.RoundNumber,
		}})
	}
	e.advanceLocked()
}

func (e *Engine) scoreMatchLocked() {
	winner := e.match.Winner
	entry, ok := e.ledger.RecordMatch(e.match.MatchNumber, e.match.CardCounts())
	if !ok {
		return
	}
	e.log.Info("match ended", "match", e.match.MatchNumber, "winner", winner, "totals", entry.Totals)
	if e.history != nil {
		if err := e.history.Put(e.historyKey, entry.Totals, entry.MatchNumber); err != nil {
			e.log.Warn("score cache write failed", "error", err)
		}
	}
	e.publishLocked(Event{Kind: EventMatchEnded, Payload: MatchEndedPayload{
		Winner: winner,
		Entry:  entry,
	}})

	if e.ledger.Busted() {
		e.match.Phase = domain.PhaseSessionEnded
		if e.history != nil {
			if err := e.history.Delete(e.historyKey); err != nil {
				e.log.Warn("score cache delete failed", "error", err)
			}
		}
		e.publishLocked(Event{Kind: EventSessionEnded, Payload: SessionEndedPayload{
			Winner: e.ledger.SessionWinner(),
			Totals: e.ledger.Totals(),
		}})
		return
	}

	next := e.match.MatchNumber + 1
	e.gen++
	gen := e.gen
	time.AfterFunc(e.botDelay(), func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed || e.gen != gen {
			return
		}
		e.startMatchLocked(next)
	})
}

// advanceLocked hands the new turn to its driver: a scheduled bot move or
// the human auto-pass countdown.
func (e *Engine) advanceLocked() {
	if e.match.Phase != domain.PhasePlaying {
		return
	}
	e.gen++
	gen := e.gen
	seat := e.match.CurrentTurn

	if e.brains[seat] != nil {
		time.AfterFunc(e.botDelay(), func() {
			e.botTurn(gen, seat)
		})
		return
	}
	e.timer.Arm(seat)
}

func (e *Engine) botTurn(gen int, seat int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.gen != gen {
		return
	}

	move, err := e.brains[seat].CalculateMove(e.viewLocked(seat))
	if err != nil {
		e.log.Warn("bot move failed, forcing lowest legal", "seat", seat, "error", err)
		move = bot.FindHint(e.viewLocked(seat))
	}

	if move.Pass {
		if err := e.match.PassTurn(seat); err != nil {
			// A leader may not pass; degrade to the cheapest legal play.
			move = bot.FindHint(e.viewLocked(seat))
		} else {
			e.afterPassLocked(seat, false)
			return
		}
	}

	if err := e.match.Submit(seat, move.Cards); err != nil {
		e.log.Error("bot submitted an illegal move", "seat", seat, "error", err)
		return
	}
	e.afterSubmitLocked(seat, move.Cards)
}

// onAutoPassExpired runs on the timer goroutine when a human seat idles
// through its countdown.
func (e *Engine) onAutoPassExpired(seat int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.match == nil || e.match.Phase != domain.PhasePlaying {
		return
	}
	if e.match.CurrentTurn != seat {
		return
	}

	if e.match.Leading() {
		// The leader cannot pass, so the timeout plays the cheapest legal
		// combination instead.
		move := bot.FindHint(e.viewLocked(seat))
		if move.Pass {
			return
		}
		e.log.Info("idle leader forced to play", "seat", seat)
		if err := e.match.Submit(seat, move.Cards); err != nil {
			e.log.Error("forced play rejected", "seat", seat, "error", err)
			return
		}
		e.afterSubmitLocked(seat, move.Cards)
		return
	}

	if err := e.match.PassTurn(seat); err != nil {
		e.log.Error("forced pass rejected", "seat", seat, "error", err)
		return
	}
	e.log.Info("auto-passed idle seat", "seat", seat)
	e.afterPassLocked(seat, true)
}

func (e *Engine) cancelCountdownLocked(seat int) {
	if e.timer.State() == autopass.StateArmed && e.timer.Seat() == seat {
		e.timer.Cancel()
	}
}

// rearmCountdownLocked restores the countdown after a rejected command so
// an invalid play does not silently disarm the idle timeout.
func (e *Engine) rearmCountdownLocked(seat int) {
	if e.match.Phase == domain.PhasePlaying && e.match.CurrentTurn == seat && e.brains[seat] == nil {
		e.timer.Arm(seat)
	}
}

func (e *Engine) viewLocked(seat int) bot.View {
	var lastPlay domain.Combination
	if e.match.LastPlay != nil {
		lastPlay = e.match.LastPlay.Combo
	}
	return bot.View{
		Seat:           seat,
		Hand:           append([]domain.Card{}, e.match.Hands[seat]...),
		LastPlay:       lastPlay,
		Counts:         e.match.CardCounts(),
		Played:         e.match.PlayedCards(),
		OpenerRequired: e.match.OpenerPending(),
	}
}

func (e *Engine) botDelay() time.Duration {
	min, max := e.cfg.Bot.DelayMinMS, e.cfg.Bot.DelayMaxMS
	if max <= min {
		return time.Duration(min) * time.Millisecond
	}
	return time.Duration(min+e.rng.Intn(max-min+1)) * time.Millisecond
}

func (e *Engine) publishLocked(ev Event) {
	for _, ch := range e.observers {
		select {
		case ch <- ev:
		default:
			e.log.Warn("observer channel full, dropping event", "kind", ev.Kind)
		}
	}
}
