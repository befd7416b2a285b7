package internal

import "bigtwo/internal/domain"

// HandProfile summarizes a hand's strategic structure for phase-aware
// scoring and hint breakage checks.
type HandProfile struct {
	TotalCards    int
	Singles       int
	Pairs         int
	Triples       int
	Quads         int
	FiveCardSets  int
	FiveCardCards int
	Twos          int
}

// StructureScore is a coarse measure of how much multi-card structure the
// profile holds; playing a move that lowers it more than the cards it
// spends is breaking something up.
func (p HandProfile) StructureScore() int {
	return p.FiveCardCards + p.Quads*4 + p.Triples*3 + p.Pairs*2
}

// ProfileHand analyzes a hand with a greedy structure pass: five-card sets
// first, then quads, triples and pairs over what remains.
func ProfileHand(hand []domain.Card) HandProfile {
	profile := HandProfile{TotalCards: len(hand)}
	if len(hand) == 0 {
		return profile
	}

	cards := make([]domain.Card, len(hand))
	copy(cards, hand)
	domain.SortHand(cards)

	for _, c := range cards {
		if c.Rank == domain.RankTwo {
			profile.Twos++
		}
	}

	var fives int
	cards, fives = extractFiveCardSets(cards)
	profile.FiveCardSets = fives
	profile.FiveCardCards = fives * 5

	rankCounts := make(map[domain.Rank]int)
	for _, c := range cards {
		rankCounts[c.Rank]++
	}
	for _, count := range rankCounts {
		switch count {
		case 4:
			profile.Quads++
		case 3:
			profile.Triples++
		case 2:
			profile.Pairs++
		case 1:
			profile.Singles++
		}
	}

	return profile
}

// extractFiveCardSets greedily removes classifiable five-card sets,
// preferring straights over flushes so rank runs are kept intact.
func extractFiveCardSets(cards []domain.Card) ([]domain.Card, int) {
	count := 0
	for {
		set := findStraightSet(cards)
		if set == nil {
			set = findFlushSet(cards)
		}
		if set == nil {
			break
		}
		cards = domain.RemoveCards(cards, set)
		count++
	}
	return cards, count
}

// findStraightSet returns the lowest five-rank run present, one card per
// rank, or nil. Expects sorted input.
func findStraightSet(cards []domain.Card) []domain.Card {
	byRank := make(map[domain.Rank][]domain.Card)
	for _, c := range cards {
		if c.Rank == domain.RankTwo {
			continue
		}
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}

	for start := domain.RankThree; start <= domain.RankTen; start++ {
		run := make([]domain.Card, 0, 5)
		for r := start; r < start+5; r++ {
			group, ok := byRank[r]
			if !ok {
				break
			}
			run = append(run, group[0])
		}
		if len(run) == 5 {
			return run
		}
	}
	return nil
}

// findFlushSet returns the five lowest cards of any suit holding at least
// five, or nil. Expects sorted input.
func findFlushSet(cards []domain.Card) []domain.Card {
	bySuit := make(map[domain.Suit][]domain.Card)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for s := domain.SuitDiamonds; s <= domain.SuitSpades; s++ {
		if group := bySuit[s]; len(group) >= 5 {
			return group[:5]
		}
	}
	return nil
}
