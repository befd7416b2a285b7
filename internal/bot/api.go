package bot

import (
	"bigtwo/internal/domain"

	botinternal "bigtwo/internal/bot/internal"
)

// View is the information a strategy sees when deciding a move: its own
// hand, the baseline to beat, and public table state. It is buildable from
// both the local engine and a remote room snapshot.
type View struct {
	Seat     int
	Hand     []domain.Card
	LastPlay domain.Combination // Invalid type when leading a fresh trick
	Counts   [domain.Seats]int
	Played   []domain.Card // committed cards when known; may be nil remotely

	// OpenerRequired is set on the first turn of a match: the chosen
	// combination must contain the three of diamonds.
	OpenerRequired bool
}

// Leading reports whether the seat opens the trick.
func (v View) Leading() bool {
	return v.LastPlay.Type == domain.Invalid
}

// Move represents the decision made by the AI.
type Move struct {
	Pass  bool
	Cards []domain.Card
}

// Brain is the interface all bot strategies implement.
type Brain interface {
	CalculateMove(view View) (Move, error)
}

// LegalPlays enumerates every combination in hand that answers the last
// play, or every playable combination when leading. The result is a fresh
// slice on every call.
func LegalPlays(hand []domain.Card, lastPlay domain.Combination) [][]domain.Card {
	moves := botinternal.GetValidMoves(hand, lastPlay)
	out := make([][]domain.Card, len(moves))
	for i, m := range moves {
		out[i] = m.Cards
	}
	return out
}
