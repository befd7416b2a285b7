package bot

import (
	"sort"

	"bigtwo/internal/domain"

	botinternal "bigtwo/internal/bot/internal"
)

// FindHint suggests a legal move for a human player. It prefers the cheapest
// combination that does not break up pairs, triples or five-card sets still
// held, and suggests a pass when nothing legal remains.
func FindHint(view View) Move {
	if len(view.Hand) == 0 {
		return Move{Pass: true}
	}

	validMoves := botinternal.GetValidMoves(view.Hand, view.LastPlay)
	validMoves = filterOpener(validMoves, view)
	if len(validMoves) == 0 {
		return Move{Pass: true}
	}

	baseline := botinternal.ProfileHand(view.Hand).StructureScore()

	type candidate struct {
		cards  []domain.Card
		damage int
		value  int
	}
	candidates := make([]candidate, 0, len(validMoves))
	for _, m := range validMoves {
		remaining := domain.RemoveCards(view.Hand, m.Cards)
		combo := domain.Classify(m.Cards)
		damage := baseline - botinternal.ProfileHand(remaining).StructureScore() - len(m.Cards)
		if len(remaining) == 0 {
			damage = -baseline
		}
		candidates = append(candidates, candidate{
			cards:  m.Cards,
			damage: damage,
			value:  combo.Value,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].damage != candidates[j].damage {
			return candidates[i].damage < candidates[j].damage
		}
		return candidates[i].value < candidates[j].value
	})

	return Move{Cards: candidates[0].cards}
}
