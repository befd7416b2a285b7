package bot

import (
	"sort"

	"bigtwo/internal/domain"

	botinternal "bigtwo/internal/bot/internal"
)

// EasyBot always plays the weakest legal combination. It never holds cards
// back, which makes it predictable and easy to bait.
type EasyBot struct{}

func (b *EasyBot) CalculateMove(view View) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{Pass: true}, nil
	}

	validMoves := botinternal.GetValidMoves(view.Hand, view.LastPlay)
	validMoves = filterOpener(validMoves, view)
	if len(validMoves) == 0 {
		return Move{Pass: true}, nil
	}

	// Lowest combo value first. On a lead this naturally sheds the
	// weakest single before weak pairs and so on.
	sort.Slice(validMoves, func(i, j int) bool {
		comboI := domain.Classify(validMoves[i].Cards)
		comboJ := domain.Classify(validMoves[j].Cards)
		if comboI.Count != comboJ.Count {
			return comboI.Count < comboJ.Count
		}
		return comboI.Value < comboJ.Value
	})

	return Move{Cards: validMoves[0].Cards}, nil
}

// filterOpener keeps only moves containing the three of diamonds when the
// view demands an opener. Generated moves always include at least one such
// combination because the opener's hand holds the card as a single.
func filterOpener(moves []botinternal.ValidMove, view View) []botinternal.ValidMove {
	if !view.OpenerRequired {
		return moves
	}
	kept := moves[:0]
	for _, m := range moves {
		for _, c := range m.Cards {
			if c == domain.LowestCard {
				kept = append(kept, m)
				break
			}
		}
	}
	return kept
}
