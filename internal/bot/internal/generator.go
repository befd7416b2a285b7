package internal

import (
	"bigtwo/internal/domain"
)

// ValidMove represents a possible legal play.
type ValidMove struct {
	Cards []domain.Card
}

// GetValidMoves returns all legal moves for a hand given the last played
// combination. An Invalid lastPlay means the seat leads and may open with
// any playable combination.
func GetValidMoves(hand []domain.Card, lastPlay domain.Combination) []ValidMove {
	sorted := make([]domain.Card, len(hand))
	copy(sorted, hand)
	domain.SortHand(sorted)

	if lastPlay.Type == domain.Invalid {
		var moves []ValidMove
		moves = append(moves, findAllSingles(sorted)...)
		moves = append(moves, findAllPairs(sorted)...)
		moves = append(moves, findAllTriples(sorted)...)
		moves = append(moves, findAllFives(sorted)...)
		return moves
	}

	// Responding: same cardinality, strictly dominating.
	var candidates []ValidMove
	switch lastPlay.Count {
	case 1:
		candidates = findAllSingles(sorted)
	case 2:
		candidates = findAllPairs(sorted)
	case 3:
		candidates = findAllTriples(sorted)
	case 5:
		candidates = findAllFives(sorted)
	}

	var moves []ValidMove
	for _, m := range candidates {
		if domain.Beats(lastPlay, domain.Classify(m.Cards)) {
			moves = append(moves, m)
		}
	}
	return moves
}

func findAllSingles(hand []domain.Card) []ValidMove {
	moves := make([]ValidMove, 0, len(hand))
	for _, c := range hand {
		moves = append(moves, ValidMove{Cards: []domain.Card{c}})
	}
	return moves
}

func findAllPairs(hand []domain.Card) []ValidMove {
	var moves []ValidMove
	for i := 0; i < len(hand)-1; i++ {
		for j := i + 1; j < len(hand); j++ {
			if hand[i].Rank != hand[j].Rank {
				continue
			}
			moves = append(moves, ValidMove{Cards: []domain.Card{hand[i], hand[j]}})
		}
	}
	return moves
}

func findAllTriples(hand []domain.Card) []ValidMove {
	var moves []ValidMove
	for i := 0; i < len(hand)-2; i++ {
		for j := i + 1; j < len(hand)-1; j++ {
			for k := j + 1; k < len(hand); k++ {
				if hand[i].Rank != hand[j].Rank || hand[j].Rank != hand[k].Rank {
					continue
				}
				moves = append(moves, ValidMove{Cards: []domain.Card{hand[i], hand[j], hand[k]}})
			}
		}
	}
	return moves
}

// findAllFives brute-forces every 5-card subset and keeps the ones that
// classify. A 13-card hand has 1287 subsets; cheap enough per turn.
func findAllFives(hand []domain.Card) []ValidMove {
	if len(hand) < 5 {
		return nil
	}
	var moves []ValidMove
	n := len(hand)
	for a := 0; a < n-4; a++ {
		for b := a + 1; b < n-3; b++ {
			for c := b + 1; c < n-2; c++ {
				for d := c + 1; d < n-1; d++ {
					for e := d + 1; e < n; e++ {
						set := []domain.Card{hand[a], hand[b], hand[c], hand[d], hand[e]}
						if domain.Classify(set).Type != domain.Invalid {
							moves = append(moves, ValidMove{Cards: set})
						}
					}
				}
			}
		}
	}
	return moves
}
