package internal

import "bigtwo/internal/domain"

// BossStats provides card-counting insight into a hand relative to what
// the table has already seen.
type BossStats struct {
	UnseenCards []domain.Card
	BossSingles []domain.Card // singles no unseen card can beat
	Dominance   float64       // 0..1, how much control the hand holds
}

// AnalyzeHand computes unseen cards and identifies boss singles. played
// lists every committed card so far; the hand itself is excluded too.
func AnalyzeHand(hand []domain.Card, played []domain.Card) BossStats {
	unseen := domain.RemoveCards(domain.NewDeck(), played)
	unseen = domain.RemoveCards(unseen, hand)

	stats := BossStats{UnseenCards: unseen}

	if len(unseen) == 0 {
		stats.Dominance = 1.0
		stats.BossSingles = hand
		return stats
	}

	highestUnseen := -1
	unseenPower := 0
	for _, c := range unseen {
		p := domain.Power(c)
		if p > highestUnseen {
			highestUnseen = p
		}
		unseenPower += p
	}

	handPower := 0
	for _, c := range hand {
		p := domain.Power(c)
		if p > highestUnseen {
			stats.BossSingles = append(stats.BossSingles, c)
		}
		handPower += p
	}

	if len(hand) > 0 {
		avgHand := float64(handPower) / float64(len(hand))
		avgUnseen := float64(unseenPower) / float64(len(unseen))
		stats.Dominance = avgHand / (avgHand + avgUnseen)
	}

	return stats
}
