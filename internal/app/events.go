package app

import "bigtwo/internal/domain"

// EventKind identifies engine events published to observers.
type EventKind string

const (
	EventHandDealt     EventKind = "hand_dealt"
	EventCardPlayed    EventKind = "card_played"
	EventTurnPassed    EventKind = "turn_passed"
	EventTrickWon      EventKind = "trick_won"
	EventLastCardAlert EventKind = "last_card_alert"
	EventAutoPassed    EventKind = "auto_passed"
	EventMatchEnded    EventKind = "match_ended"
	EventSessionEnded  EventKind = "session_ended"
)

// Event is one engine state change. Published in commit order.
type Event struct {
	Kind    EventKind
	Payload any
}

type HandDealtPayload struct {
	MatchNumber int
	FirstTurn   int
	Counts      [domain.Seats]int
}

type CardPlayedPayload struct {
	Seat     int
	Cards    []domain.Card
	NextTurn int
}

type TurnPassedPayload struct {
	Seat     int
	NextTurn int
	// Forced marks a pass issued by the auto-pass timer.
	Forced bool
}

type TrickWonPayload struct {
	Seat        int
	RoundNumber int
}

type LastCardAlertPayload struct {
	Seat int
}

type MatchEndedPayload struct {
	Winner int
	Entry  domain.LedgerEntry
}

type SessionEndedPayload struct {
	Winner int
	Totals [domain.Seats]int
}
