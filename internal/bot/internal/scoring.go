package internal

import "bigtwo/internal/domain"

// PhaseWeights tune move scoring for a specific phase.
type PhaseWeights struct {
	HandScoreWeight      float64
	FiveCardWeight       float64
	PairWeight           float64
	TripleWeight         float64
	SingleWeight         float64
	TotalCardWeight      float64
	UseTwoPenalty        float64
	UseHighCardPenalty   float64
	FinishBonus          float64
	BlockerHighCardBonus float64
}

// BotTuning defines phase weights and thresholds for a bot difficulty.
type BotTuning struct {
	Opening         PhaseWeights
	Mid             PhaseWeights
	End             PhaseWeights
	PassThreshold   float64
	ThreatThreshold int
}

// ForPhase returns the weights that match the supplied phase.
func (t BotTuning) ForPhase(phase GamePhase) PhaseWeights {
	switch phase {
	case PhaseOpening:
		return t.Opening
	case PhaseEnd:
		return t.End
	default:
		return t.Mid
	}
}

// ScoredMove holds a move with its computed score and supporting metadata.
type ScoredMove struct {
	Move      ValidMove
	Score     float64
	Combo     domain.Combination
	Remaining []domain.Card
}

// ScoreHand evaluates a hand using the configured weights and profile.
func ScoreHand(hand []domain.Card, weights PhaseWeights) float64 {
	return scoreHandWithProfile(hand, ProfileHand(hand), weights)
}

// BuildScoredMoves scores each move by the hand it leaves behind, with
// penalties for spending 2s and high cards and an optional blocking bias.
func BuildScoredMoves(hand []domain.Card, moves []ValidMove, weights PhaseWeights, threat bool) []ScoredMove {
	scored := make([]ScoredMove, 0, len(moves))
	for _, move := range moves {
		remaining := domain.RemoveCards(hand, move.Cards)
		score := scoreHandWithProfile(remaining, ProfileHand(remaining), weights)

		if len(remaining) == 0 {
			score += weights.FinishBonus
		}

		combo := domain.Classify(move.Cards)
		score -= weights.UseHighCardPenalty * float64(combo.Value)

		twosUsed := 0
		for _, c := range move.Cards {
			if c.Rank == domain.RankTwo {
				twosUsed++
			}
		}
		score -= weights.UseTwoPenalty * float64(twosUsed)

		if threat && combo.Type == domain.Single {
			score += weights.BlockerHighCardBonus * float64(combo.Value)
		}

		scored = append(scored, ScoredMove{
			Move:      move,
			Score:     score,
			Combo:     combo,
			Remaining: remaining,
		})
	}
	return scored
}

// DetectThreat reports whether any opponent is at or below the card
// threshold.
func DetectThreat(counts [domain.Seats]int, seat int, threshold int) bool {
	if threshold <= 0 {
		return false
	}
	for s, n := range counts {
		if s == seat || n == 0 {
			continue
		}
		if n <= threshold {
			return true
		}
	}
	return false
}

func scoreHandWithProfile(hand []domain.Card, profile HandProfile, weights PhaseWeights) float64 {
	score := 0.0
	score += weights.HandScoreWeight * EvaluateHand(hand)
	score += weights.FiveCardWeight * float64(profile.FiveCardCards)
	score += weights.PairWeight * float64(profile.Pairs)
	score += weights.TripleWeight * float64(profile.Triples)
	score += weights.SingleWeight * float64(profile.Singles)
	score += weights.TotalCardWeight * float64(profile.TotalCards)
	return score
}
