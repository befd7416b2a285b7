package session

import (
	"context"
	"errors"
	"sync"

	"bigtwo/internal/app"
	"bigtwo/internal/bot"
	"bigtwo/internal/domain"
	"bigtwo/internal/multiplayer"
	"bigtwo/internal/store"
)

// Mode tags which execution model backs a Game.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// PlayView is the table's play to beat, as shown to the UI.
type PlayView struct {
	Seat  int
	Cards []domain.Card
}

// Snapshot is the read-only state the UI renders. The viewing seat's hand
// appears in full; all other seats appear as card counts only.
type Snapshot struct {
	Mode        Mode
	Phase       string
	Seat        int
	Hand        []domain.Card
	Counts      [domain.Seats]int
	LastPlay    *PlayView
	CurrentTurn int
	MatchNumber int
	RoundNumber int
	Scores      [domain.Seats]int
	CountdownMS int64

	// LegalPlays is nil unless it is the viewing seat's turn; empty but
	// non-nil means no legal response exists and passing is the only move.
	LegalPlays [][]domain.Card
	CanPass    bool
}

// Result is the outcome of a play or pass command, with a human-readable
// reason on failure.
type Result struct {
	OK     bool
	Reason string
}

// Game is the unified handle over one match, local or remote. Construct
// one per session and discard it on leave.
type Game struct {
	mode Mode
	seat int

	local *app.Engine

	remote   *multiplayer.Client
	mu       sync.Mutex
	lastRow  *store.RoomRow
	rowError string
}

// NewLocal wraps a running local engine for the given human seat.
func NewLocal(engine *app.Engine, seat int) *Game {
	return &Game{mode: ModeLocal, seat: seat, local: engine}
}

// NewRemote wraps a multiplayer projection client for the given seat. The
// caller feeds rows from the client's update channel through Apply.
func NewRemote(client *multiplayer.Client, seat int) *Game {
	return &Game{mode: ModeRemote, seat: seat, remote: client}
}

// Apply installs the latest authoritative row. Remote mode only.
func (g *Game) Apply(row *store.RoomRow) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastRow = row
}

// Mode returns the execution model backing this game.
func (g *Game) Mode() Mode {
	return g.mode
}

// Snapshot builds the current UI state.
func (g *Game) Snapshot() Snapshot {
	if g.mode == ModeLocal {
		return g.localSnapshot()
	}
	return g.remoteSnapshot()
}

// Play submits card ids for the viewing seat.
func (g *Game) Play(ctx context.Context, cardIDs []int) Result {
	cards, err := domain.CardsFromIDs(cardIDs)
	if err != nil {
		return Result{Reason: "those cards do not exist"}
	}

	if g.mode == ModeLocal {
		return localResult(g.local.Play(g.seat, cards))
	}
	return remoteResult(g.remote.Play(ctx, cardIDs))
}

// Pass submits a pass for the viewing seat.
func (g *Game) Pass(ctx context.Context) Result {
	if g.mode == ModeLocal {
		return localResult(g.local.Pass(g.seat))
	}
	return remoteResult(g.remote.Pass(ctx))
}

// Hint suggests a move for the viewing seat from its current snapshot.
func (g *Game) Hint() bot.Move {
	if g.mode == ModeLocal {
		move, err := g.local.Hint(g.seat)
		if err != nil {
			return bot.Move{Pass: true}
		}
		return move
	}

	snap := g.remoteSnapshot()
	var lastPlay domain.Combination
	if snap.LastPlay != nil {
		lastPlay = domain.Classify(snap.LastPlay.Cards)
	}
	return bot.FindHint(bot.View{
		Seat:           g.seat,
		Hand:           snap.Hand,
		LastPlay:       lastPlay,
		Counts:         snap.Counts,
		OpenerRequired: openerPending(&snap),
	})
}

func (g *Game) localSnapshot() Snapshot {
	e := g.local
	snap := Snapshot{
		Mode:        ModeLocal,
		Phase:       string(e.Phase()),
		Seat:        g.seat,
		Hand:        e.Hand(g.seat),
		Counts:      e.Counts(),
		CurrentTurn: e.CurrentTurn(),
		MatchNumber: e.MatchNumber(),
		RoundNumber: e.RoundNumber(),
		Scores:      e.Totals(),
		CountdownMS: e.CountdownRemaining(),
	}
	if lp := e.LastPlay(); lp != nil {
		snap.LastPlay = &PlayView{Seat: lp.Seat, Cards: lp.Combo.Cards}
	}
	fillLegalMoves(&snap, e.OpenerPending())
	return snap
}

func (g *Game) remoteSnapshot() Snapshot {
	g.mu.Lock()
	row := g.lastRow
	g.mu.Unlock()

	snap := Snapshot{Mode: ModeRemote, Seat: g.seat, Phase: string(domain.PhaseDealing)}
	if row == nil {
		return snap
	}

	snap.Phase = row.GamePhase
	snap.CurrentTurn = row.CurrentTurn
	snap.MatchNumber = row.MatchNumber
	snap.RoundNumber = row.RoundNumber

	hand, err := domain.CardsFromIDs(row.Hand(g.seat))
	if err == nil {
		domain.SortHand(hand)
		snap.Hand = hand
	}
	for s := 0; s < domain.Seats; s++ {
		snap.Counts[s] = len(row.Hand(s))
		snap.Scores[s] = row.Score(s)
	}
	if row.LastPlay != nil {
		if cards, err := domain.CardsFromIDs(row.LastPlay.Cards); err == nil {
			snap.LastPlay = &PlayView{Seat: row.LastPlay.Seat, Cards: cards}
		}
	}
	if row.Timer != nil && row.Timer.Active {
		snap.CountdownMS = row.Timer.RemainingMS
	}

	fillLegalMoves(&snap, openerPending(&snap))
	return snap
}

// openerPending reports whether the mandatory opening play is still
// outstanding: first trick, nothing on the table, every card still held.
func openerPending(snap *Snapshot) bool {
	if snap.LastPlay != nil || snap.RoundNumber > 1 {
		return false
	}
	total := 0
	for _, n := range snap.Counts {
		total += n
	}
	return total == domain.Seats*domain.HandSize
}

// fillLegalMoves computes the seat's legal responses when it holds the
// turn. Hidden opponent hands are never consulted.
func fillLegalMoves(snap *Snapshot, openerPending bool) {
	if snap.Phase != string(domain.PhasePlaying) || snap.CurrentTurn != snap.Seat {
		return
	}

	var lastPlay domain.Combination
	leading := snap.LastPlay == nil
	if !leading {
		lastPlay = domain.Classify(snap.LastPlay.Cards)
	}

	plays := bot.LegalPlays(snap.Hand, lastPlay)
	if openerPending {
		kept := plays[:0]
		for _, p := range plays {
			for _, c := range p {
				if c == domain.LowestCard {
					kept = append(kept, p)
					break
				}
			}
		}
		plays = kept
	}
	if plays == nil {
		plays = [][]domain.Card{}
	}
	snap.LegalPlays = plays
	snap.CanPass = !leading
}

func localResult(err error) Result {
	if err == nil {
		return Result{OK: true}
	}
	var ruleErr *domain.RuleError
	if errors.As(err, &ruleErr) {
		return Result{Reason: ruleErr.Message}
	}
	return Result{Reason: err.Error()}
}

func remoteResult(err error) Result {
	switch {
	case err == nil:
		return Result{OK: true}
	case errors.Is(err, multiplayer.ErrCommandInFlight):
		return Result{Reason: "still waiting for your previous move"}
	case errors.Is(err, store.ErrNotYourTurn):
		return Result{Reason: "it is not your turn"}
	case errors.Is(err, store.ErrStaleTurn):
		return Result{Reason: "the table moved on, try again"}
	case errors.Is(err, store.ErrRoomGone):
		return Result{Reason: "the room no longer exists"}
	default:
		var vErr *store.ValidationError
		if errors.As(err, &vErr) {
			return Result{Reason: vErr.Detail}
		}
		return Result{Reason: "could not reach the table"}
	}
}
