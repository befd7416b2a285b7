package internal

import (
	"testing"

	"bigtwo/internal/domain"
)

func card(rank domain.Rank, suit domain.Suit) domain.Card {
	return domain.Card{Rank: rank, Suit: suit}
}

func countByType(t *testing.T, moves []ValidMove) map[domain.CombinationType]int {
	t.Helper()
	counts := map[domain.CombinationType]int{}
	for _, m := range moves {
		combo := domain.Classify(m.Cards)
		if combo.Type == domain.Invalid {
			t.Fatalf("generator produced invalid combination %v", m.Cards)
		}
		counts[combo.Type]++
	}
	return counts
}

func TestGetValidMovesLead(t *testing.T) {
	hand := []domain.Card{
		card(domain.RankThree, domain.SuitDiamonds),
		card(domain.RankThree, domain.SuitHearts),
		card(domain.RankFour, domain.SuitDiamonds),
		card(domain.RankFive, domain.SuitDiamonds),
		card(domain.RankSix, domain.SuitDiamonds),
		card(domain.RankSeven, domain.SuitDiamonds),
	}

	moves := GetValidMoves(hand, domain.Combination{Type: domain.Invalid})
	counts := countByType(t, moves)

	if counts[domain.Single] != 6 {
		t.Errorf("expected 6 singles, got %d", counts[domain.Single])
	}
	if counts[domain.Pair] != 1 {
		t.Errorf("expected 1 pair, got %d", counts[domain.Pair])
	}
	// 3-4-5-6-7 with two threes available: one run per choice of three,
	// and the all-diamond run classifies as a straight flush.
	if counts[domain.Straight]+counts[domain.StraightFlush] != 2 {
		t.Errorf("expected 2 five-card runs, got straight=%d straightflush=%d",
			counts[domain.Straight], counts[domain.StraightFlush])
	}
}

func TestGetValidMovesBeatingSingle(t *testing.T) {
	hand := []domain.Card{
		card(domain.RankThree, domain.SuitSpades),
		card(domain.RankEight, domain.SuitSpades),
		card(domain.RankTwo, domain.SuitSpades),
	}
	prev := domain.Classify([]domain.Card{card(domain.RankFive, domain.SuitSpades)})

	moves := GetValidMoves(hand, prev)

	if len(moves) != 2 {
		t.Fatalf("expected 2 valid moves, got %d", len(moves))
	}
	for _, m := range moves {
		if m.Cards[0].Rank == domain.RankThree {
			t.Errorf("three of spades should not beat five of spades")
		}
	}
}

func TestGetValidMovesSameCountOnly(t *testing.T) {
	hand := []domain.Card{
		card(domain.RankKing, domain.SuitDiamonds),
		card(domain.RankKing, domain.SuitClubs),
		card(domain.RankAce, domain.SuitSpades),
	}
	prev := domain.Classify([]domain.Card{
		card(domain.RankFour, domain.SuitDiamonds),
		card(domain.RankFour, domain.SuitHearts),
	})

	moves := GetValidMoves(hand, prev)

	if len(moves) != 1 {
		t.Fatalf("expected only the king pair, got %d moves", len(moves))
	}
	if len(moves[0].Cards) != 2 || moves[0].Cards[0].Rank != domain.RankKing {
		t.Errorf("expected king pair, got %v", moves[0].Cards)
	}
}

func TestGetValidMovesHigherCategoryBeatsSameCount(t *testing.T) {
	hand := []domain.Card{
		card(domain.RankFour, domain.SuitDiamonds),
		card(domain.RankFour, domain.SuitClubs),
		card(domain.RankFour, domain.SuitHearts),
		card(domain.RankFour, domain.SuitSpades),
		card(domain.RankNine, domain.SuitDiamonds),
	}
	// Ace-high straight on the table.
	prev := domain.Classify([]domain.Card{
		card(domain.RankTen, domain.SuitDiamonds),
		card(domain.RankJack, domain.SuitClubs),
		card(domain.RankQueen, domain.SuitDiamonds),
		card(domain.RankKing, domain.SuitHearts),
		card(domain.RankAce, domain.SuitSpades),
	})

	moves := GetValidMoves(hand, prev)

	if len(moves) != 1 {
		t.Fatalf("expected the quad set to beat the straight, got %d moves", len(moves))
	}
	combo := domain.Classify(moves[0].Cards)
	if combo.Type != domain.FourOfAKind {
		t.Errorf("expected four of a kind, got %v", combo.Type)
	}
}

func TestGetValidMovesNoAnswer(t *testing.T) {
	hand := []domain.Card{
		card(domain.RankThree, domain.SuitClubs),
		card(domain.RankFour, domain.SuitHearts),
	}
	prev := domain.Classify([]domain.Card{card(domain.RankTwo, domain.SuitSpades)})

	if moves := GetValidMoves(hand, prev); len(moves) != 0 {
		t.Errorf("expected no moves against the two of spades, got %d", len(moves))
	}
}
