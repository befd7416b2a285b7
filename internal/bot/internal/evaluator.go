package internal

import "bigtwo/internal/domain"

const (
	ScoreTwo        = 20.0
	ScoreFiveCard   = 6.0 // per card committed to a five-card set
	ScoreQuadCard   = 7.0
	ScoreTriple     = 10.0
	ScorePair       = 5.0
	ScoreHighSingle = 2.0  // J and above
	ScoreLowSingle  = -2.0 // 3..10
)

// EvaluateHand returns a heuristic strength score for a hand. Higher is
// better: intact structures and 2s are assets, stranded low singles are
// liabilities.
func EvaluateHand(hand []domain.Card) float64 {
	if len(hand) == 0 {
		return 0
	}

	profile := ProfileHand(hand)

	score := 0.0
	score += float64(profile.FiveCardCards) * ScoreFiveCard
	score += float64(profile.Quads) * 4 * ScoreQuadCard
	score += float64(profile.Triples) * ScoreTriple
	score += float64(profile.Pairs) * ScorePair

	// Count loose singles by rank height; structured cards were already
	// valued above, so only score the leftovers.
	cards := make([]domain.Card, len(hand))
	copy(cards, hand)
	domain.SortHand(cards)
	cards, _ = extractFiveCardSets(cards)

	rankCounts := make(map[domain.Rank][]domain.Card)
	for _, c := range cards {
		rankCounts[c.Rank] = append(rankCounts[c.Rank], c)
	}
	for rank, group := range rankCounts {
		if len(group) != 1 {
			continue
		}
		switch {
		case rank == domain.RankTwo:
			score += ScoreTwo
		case rank >= domain.RankJack:
			score += ScoreHighSingle
		default:
			score += ScoreLowSingle
		}
	}

	return score
}
