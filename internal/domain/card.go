package domain

import (
	"fmt"
	"math/rand"
	"sort"
)

// Suit identifies one of the four suits in ascending Big Two strength.
type Suit int

const (
	SuitDiamonds Suit = iota
	SuitClubs
	SuitHearts
	SuitSpades
)

var suitGlyphs = [...]string{"D", "C", "H", "S"}

// String returns the one-letter suit code used in logs and tests.
func (s Suit) String() string {
	if s < SuitDiamonds || s > SuitSpades {
		return "?"
	}
	return suitGlyphs[s]
}

// Rank encodes card ranks 0..12 with 3 lowest and 2 highest:
// 3=0, 4=1, ..., 10=7, J=8, Q=9, K=10, A=11, 2=12.
type Rank int

const (
	RankThree Rank = iota
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
	RankTwo
)

var rankGlyphs = [...]string{"3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "2"}

// String returns the rank glyph.
func (r Rank) String() string {
	if r < RankThree || r > RankTwo {
		return "?"
	}
	return rankGlyphs[r]
}

// Card is a single playing card. Immutable; compare by value.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

// ID returns the card's unique id 0..51. The id doubles as the card's
// power for single-card comparisons: higher id beats lower id.
func (c Card) ID() int {
	return int(c.Rank)*4 + int(c.Suit)
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Power is the single-card strength used for all same-length tiebreaks.
func Power(c Card) int {
	return c.ID()
}

// LowestCard is the mandatory opener for the first play of every match.
var LowestCard = Card{Rank: RankThree, Suit: SuitDiamonds}

// CardFromID converts a 0..51 id back into a Card.
func CardFromID(id int) (Card, error) {
	if id < 0 || id > 51 {
		return Card{}, fmt.Errorf("card id %d out of range", id)
	}
	return Card{Rank: Rank(id / 4), Suit: Suit(id % 4)}, nil
}

// CardsFromIDs converts a list of ids, failing on the first bad id.
func CardsFromIDs(ids []int) ([]Card, error) {
	cards := make([]Card, len(ids))
	for i, id := range ids {
		c, err := CardFromID(id)
		if err != nil {
			return nil, err
		}
		cards[i] = c
	}
	return cards, nil
}

// CardIDs maps cards to their ids.
func CardIDs(cards []Card) []int {
	ids := make([]int, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}

// NewDeck returns the ordered 52-card deck.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for r := RankThree; r <= RankTwo; r++ {
		for s := SuitDiamonds; s <= SuitSpades; s++ {
			deck = append(deck, Card{Rank: r, Suit: s})
		}
	}
	return deck
}

// ShuffledDeck returns a freshly shuffled deck using the supplied rng.
func ShuffledDeck(rng *rand.Rand) []Card {
	deck := NewDeck()
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// SortHand orders cards by ascending power in place.
func SortHand(cards []Card) {
	sort.Slice(cards, func(i, j int) bool {
		return Power(cards[i]) < Power(cards[j])
	})
}

// RemoveCards returns hand without the given cards. Cards not present are
// ignored; each requested card is removed at most once.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}
	return updated
}

// ContainsAll reports whether every card in subset occurs in hand.
func ContainsAll(hand []Card, subset []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, c := range hand {
		counts[c]++
	}
	for _, c := range subset {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}
