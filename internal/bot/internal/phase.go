package internal

import "bigtwo/internal/domain"

// GamePhase describes the current strategic stage of a match.
type GamePhase int

const (
	// PhaseOpening indicates every seat still holds a full hand.
	PhaseOpening GamePhase = iota
	// PhaseMid indicates no seat has reached the endgame threshold yet.
	PhaseMid
	// PhaseEnd indicates a seat is at or below the endgame threshold.
	PhaseEnd
)

const endgameThreshold = 5

// DetectPhase infers the phase from the remaining card counts.
func DetectPhase(counts [domain.Seats]int) GamePhase {
	opening := true
	for _, n := range counts {
		if n != domain.HandSize {
			opening = false
		}
		if n <= endgameThreshold {
			return PhaseEnd
		}
	}
	if opening {
		return PhaseOpening
	}
	return PhaseMid
}
