package domain

// CombinationType classifies a played card set. The order of the five-card
// categories is their precedence: a higher category beats any lower one of
// the same length.
type CombinationType int

const (
	Invalid CombinationType = iota
	Single
	Pair
	Triple
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var comboNames = map[CombinationType]string{
	Invalid:       "invalid",
	Single:        "single",
	Pair:          "pair",
	Triple:        "triple",
	Straight:      "straight",
	Flush:         "flush",
	FullHouse:     "full_house",
	FourOfAKind:   "four_of_a_kind",
	StraightFlush: "straight_flush",
}

func (t CombinationType) String() string {
	if name, ok := comboNames[t]; ok {
		return name
	}
	return "invalid"
}

// CombinationTypeFromString is the inverse of String; unknown names map to Invalid.
func CombinationTypeFromString(name string) CombinationType {
	for t, n := range comboNames {
		if n == name {
			return t
		}
	}
	return Invalid
}

// Combination is a classified card set with a precomputed strength for
// same-length comparisons.
type Combination struct {
	Type  CombinationType
	Cards []Card // sorted ascending by power
	Value int    // strength of the combination within its category
	Count int
}

// Classify analyzes a set of cards and returns its Big Two combination.
// Only sizes 1, 2, 3 and 5 are legal; anything else is Invalid.
func Classify(cards []Card) Combination {
	n := len(cards)
	switch n {
	case 1:
		return Combination{Type: Single, Cards: sorted(cards), Value: Power(cards[0]), Count: 1}
	case 2, 3:
		if !allSameRank(cards) {
			return Combination{Type: Invalid}
		}
		s := sorted(cards)
		t := Pair
		if n == 3 {
			t = Triple
		}
		return Combination{Type: t, Cards: s, Value: Power(s[n-1]), Count: n}
	case 5:
		return classifyFive(cards)
	default:
		return Combination{Type: Invalid}
	}
}

// Beats reports whether next strictly dominates prev. Both must already be
// valid combinations of the same cardinality; among five-card plays a
// higher category always wins, otherwise the category values decide.
func Beats(prev, next Combination) bool {
	if prev.Type == Invalid || next.Type == Invalid {
		return false
	}
	if prev.Count != next.Count {
		return false
	}
	if next.Type != prev.Type {
		return next.Type > prev.Type
	}
	return next.Value > prev.Value
}

func classifyFive(cards []Card) Combination {
	s := sorted(cards)

	flush := allSameSuit(s)
	straight := isStraight(s)

	switch {
	case straight && flush:
		return Combination{Type: StraightFlush, Cards: s, Value: Power(s[4]), Count: 5}
	case isFourOfAKind(s):
		// The quad rank decides; the spade of the quad is always present.
		return Combination{Type: FourOfAKind, Cards: s, Value: quadValue(s), Count: 5}
	case isFullHouse(s):
		return Combination{Type: FullHouse, Cards: s, Value: tripleValue(s), Count: 5}
	case flush:
		// Highest rank first; the top card's suit is the final tiebreak.
		return Combination{Type: Flush, Cards: s, Value: Power(s[4]), Count: 5}
	case straight:
		return Combination{Type: Straight, Cards: s, Value: Power(s[4]), Count: 5}
	default:
		return Combination{Type: Invalid}
	}
}

func sorted(cards []Card) []Card {
	out := make([]Card, len(cards))
	copy(out, cards)
	SortHand(out)
	return out
}

func allSameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	r := cards[0].Rank
	for _, c := range cards {
		if c.Rank != r {
			return false
		}
	}
	return true
}

func allSameSuit(cards []Card) bool {
	s := cards[0].Suit
	for _, c := range cards {
		if c.Suit != s {
			return false
		}
	}
	return true
}

// isStraight expects cards sorted by power. Straights run in the 3..A
// window; 2s never participate.
func isStraight(cards []Card) bool {
	for i, c := range cards {
		if c.Rank == RankTwo {
			return false
		}
		if i > 0 && c.Rank != cards[i-1].Rank+1 {
			return false
		}
	}
	return true
}

// isFourOfAKind expects sorted input: the quad occupies either the first
// or last four positions.
func isFourOfAKind(cards []Card) bool {
	return cards[0].Rank == cards[3].Rank || cards[1].Rank == cards[4].Rank
}

// isFullHouse expects sorted input.
func isFullHouse(cards []Card) bool {
	lowTriple := cards[0].Rank == cards[2].Rank && cards[3].Rank == cards[4].Rank
	highTriple := cards[0].Rank == cards[1].Rank && cards[2].Rank == cards[4].Rank
	return lowTriple || highTriple
}

func quadValue(cards []Card) int {
	rank := cards[1].Rank // second card always belongs to the quad
	return int(rank)*4 + int(SuitSpades)
}

func tripleValue(cards []Card) int {
	rank := cards[2].Rank // middle card always belongs to the triple
	best := 0
	for _, c := range cards {
		if c.Rank == rank && Power(c) > best {
			best = Power(c)
		}
	}
	return best
}
