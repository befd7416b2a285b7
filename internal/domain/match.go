package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// Phase is the lifecycle stage of a match. The values double as the
// game_phase strings in the store row.
type Phase string

const (
	// PhaseDealing covers the short window between match creation and the
	// first awaited play.
	PhaseDealing Phase = "dealing"
	// PhasePlaying means the match awaits a play or pass from CurrentTurn.
	PhasePlaying Phase = "playing"
	// PhaseMatchEnded means a seat emptied its hand and scoring is due.
	PhaseMatchEnded Phase = "match_ended"
	// PhaseSessionEnded means a cumulative score crossed the bust threshold.
	PhaseSessionEnded Phase = "session_ended"
)

// Seats is the fixed number of players in a match.
const Seats = 4

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

// Play is a committed combination. Immutable once recorded.
type Play struct {
	Seat  int
	Combo Combination
	At    time.Time
}

// TurnRecord is one entry in the trick history: a committed play or a pass.
type TurnRecord struct {
	Seat  int
	Cards []Card // empty on a pass
	Pass  bool
}

// Match is the authoritative turn state machine for one deal-to-empty-hand
// instance. Submit and PassTurn apply atomically: an illegal command
// returns a RuleError and leaves the state untouched.
type Match struct {
	Phase       Phase
	Hands       [Seats][]Card
	CurrentTurn int
	LastPlay    *Play
	PassCount   int // consecutive passes since the last committed play
	History     []TurnRecord
	MatchNumber int
	RoundNumber int // trick index within the match, starting at 1
	Winner      int // seat that emptied its hand, -1 while playing

	// LastCardSeat flags a seat that just dropped to exactly one card, for
	// dependent alerting. -1 when no alert is pending.
	LastCardSeat int

	openerPending bool
}

// NewMatch shuffles, deals 13 cards to each seat and hands the turn to the
// holder of the lowest card, which the opening play must include.
func NewMatch(matchNumber int, rng *rand.Rand) *Match {
	deck := ShuffledDeck(rng)

	m := &Match{
		Phase:         PhasePlaying,
		MatchNumber:   matchNumber,
		RoundNumber:   1,
		Winner:        -1,
		LastCardSeat:  -1,
		openerPending: true,
	}

	for seat := 0; seat < Seats; seat++ {
		hand := append([]Card{}, deck[seat*HandSize:(seat+1)*HandSize]...)
		SortHand(hand)
		m.Hands[seat] = hand
		for _, c := range hand {
			if c == LowestCard {
				m.CurrentTurn = seat
			}
		}
	}
	return m
}

// Leading reports whether the active seat opens a fresh trick, i.e. there
// is no last play to beat.
func (m *Match) Leading() bool {
	return m.LastPlay == nil
}

// OpenerPending reports whether the mandatory lowest-card opening play is
// still outstanding.
func (m *Match) OpenerPending() bool {
	return m.openerPending
}

// Submit commits a play for the given seat. On success the cards leave the
// hand, the turn record is appended, the last play updates, the pass
// counter resets and the turn advances; an emptied hand ends the match.
func (m *Match) Submit(seat int, cards []Card) error {
	if m.Phase != PhasePlaying {
		return ruleErr(ReasonNotPlaying, "match is not awaiting a play")
	}
	if seat != m.CurrentTurn {
		return ruleErr(ReasonWrongTurn, fmt.Sprintf("seat %d played out of turn", seat))
	}
	if !ContainsAll(m.Hands[seat], cards) {
		return ruleErr(ReasonCardNotOwned, "play contains cards not in hand")
	}

	combo := Classify(cards)
	if combo.Type == Invalid {
		return ruleErr(ReasonInvalidCombination, "cards do not form a playable combination")
	}
	if m.openerPending && !containsCard(cards, LowestCard) {
		return ruleErr(ReasonOpenerRequired, fmt.Sprintf("opening play must include %s", LowestCard))
	}
	if m.LastPlay != nil && !Beats(m.LastPlay.Combo, combo) {
		return ruleErr(ReasonDoesNotBeat, fmt.Sprintf("%s does not beat the last play", combo.Type))
	}

	m.Hands[seat] = RemoveCards(m.Hands[seat], cards)
	m.History = append(m.History, TurnRecord{Seat: seat, Cards: combo.Cards})
	m.LastPlay = &Play{Seat: seat, Combo: combo, At: time.Now()}
	m.PassCount = 0
	m.openerPending = false

	m.LastCardSeat = -1
	if len(m.Hands[seat]) == 1 {
		m.LastCardSeat = seat
	}

	if len(m.Hands[seat]) == 0 {
		m.Winner = seat
		m.Phase = PhaseMatchEnded
		return nil
	}

	m.CurrentTurn = (seat + 1) % Seats
	return nil
}

// PassTurn records a pass for the given seat. The trick leader may never
// pass; the third consecutive pass ends the trick and returns the lead to
// the last play's owner.
func (m *Match) PassTurn(seat int) error {
	if m.Phase != PhasePlaying {
		return ruleErr(ReasonNotPlaying, "match is not awaiting a play")
	}
	if seat != m.CurrentTurn {
		return ruleErr(ReasonWrongTurn, fmt.Sprintf("seat %d passed out of turn", seat))
	}
	if m.LastPlay == nil {
		return ruleErr(ReasonLeaderCannotPass, "the trick leader must play")
	}

	m.History = append(m.History, TurnRecord{Seat: seat, Pass: true})
	m.PassCount++

	if m.PassCount >= Seats-1 {
		// Trick won: the last play's owner leads fresh.
		m.CurrentTurn = m.LastPlay.Seat
		m.LastPlay = nil
		m.PassCount = 0
		m.RoundNumber++
		return nil
	}

	m.CurrentTurn = (seat + 1) % Seats
	return nil
}

// PlayedCards returns every card committed so far, in play order.
func (m *Match) PlayedCards() []Card {
	var out []Card
	for _, rec := range m.History {
		out = append(out, rec.Cards...)
	}
	return out
}

// CardCounts returns the remaining hand size per seat.
func (m *Match) CardCounts() [Seats]int {
	var counts [Seats]int
	for seat, hand := range m.Hands {
		counts[seat] = len(hand)
	}
	return counts
}

func containsCard(cards []Card, target Card) bool {
	for _, c := range cards {
		if c == target {
			return true
		}
	}
	return false
}
