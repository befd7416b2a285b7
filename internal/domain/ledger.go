package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultBustThreshold is the cumulative score that ends a session.
const DefaultBustThreshold = 101

// PenaltyTable holds the per-card multiplier tiers applied to a losing
// seat's remaining cards. The defaults mirror the published ruleset:
// double from DoubleAt cards, triple for a full untouched hand.
type PenaltyTable struct {
	DoubleAt int
	TripleAt int
}

// DefaultPenaltyTable returns the standard tier boundaries.
func DefaultPenaltyTable() PenaltyTable {
	return PenaltyTable{DoubleAt: 10, TripleAt: 13}
}

// Penalty computes the points charged for a hand with the given number of
// cards remaining at match end.
func (t PenaltyTable) Penalty(remaining int) int {
	switch {
	case remaining <= 0:
		return 0
	case remaining >= t.TripleAt:
		return remaining * 3
	case remaining >= t.DoubleAt:
		return remaining * 2
	default:
		return remaining
	}
}

// LedgerEntry records one finished match's scoring.
type LedgerEntry struct {
	ID          uuid.UUID  `json:"id"`
	MatchNumber int        `json:"match_number"`
	Deltas      [Seats]int `json:"deltas"`
	Totals      [Seats]int `json:"totals"`
	RecordedAt  time.Time  `json:"recorded_at"`
}

// Ledger accumulates per-match points into running session totals and
// detects session end. Recording is idempotent per match number: duplicate
// notifications for an already-scored match are skipped.
type Ledger struct {
	BustThreshold int
	Penalties     PenaltyTable
	Entries       []LedgerEntry

	totals [Seats]int
	scored map[int]bool
}

// NewLedger constructs an empty ledger. Zero values fall back to the
// default threshold and tier table.
func NewLedger(bustThreshold int, penalties PenaltyTable) *Ledger {
	if bustThreshold <= 0 {
		bustThreshold = DefaultBustThreshold
	}
	if penalties == (PenaltyTable{}) {
		penalties = DefaultPenaltyTable()
	}
	return &Ledger{
		BustThreshold: bustThreshold,
		Penalties:     penalties,
		scored:        make(map[int]bool),
	}
}

// RecordMatch scores a finished match from the remaining card counts.
// The second return is false when this match number was already scored.
func (l *Ledger) RecordMatch(matchNumber int, counts [Seats]int) (LedgerEntry, bool) {
	if l.scored[matchNumber] {
		return LedgerEntry{}, false
	}

	var deltas [Seats]int
	for seat, remaining := range counts {
		deltas[seat] = l.Penalties.Penalty(remaining)
		l.totals[seat] += deltas[seat]
	}

	entry := LedgerEntry{
		ID:          uuid.New(),
		MatchNumber: matchNumber,
		Deltas:      deltas,
		Totals:      l.totals,
		RecordedAt:  time.Now(),
	}
	l.Entries = append(l.Entries, entry)
	l.scored[matchNumber] = true
	return entry, true
}

// Totals returns the cumulative score per seat.
func (l *Ledger) Totals() [Seats]int {
	return l.totals
}

// Busted reports whether any seat reached the bust threshold.
func (l *Ledger) Busted() bool {
	for _, total := range l.totals {
		if total >= l.BustThreshold {
			return true
		}
	}
	return false
}

// SessionWinner returns the seat with the lowest cumulative score.
func (l *Ledger) SessionWinner() int {
	winner := 0
	for seat := 1; seat < Seats; seat++ {
		if l.totals[seat] < l.totals[winner] {
			winner = seat
		}
	}
	return winner
}

// RestoreTotals seeds the ledger from persisted totals, marking all match
// numbers up to lastMatch as scored. Used when resuming from the local
// score-history cache.
func (l *Ledger) RestoreTotals(totals [Seats]int, lastMatch int) {
	l.totals = totals
	for n := 1; n <= lastMatch; n++ {
		l.scored[n] = true
	}
}
