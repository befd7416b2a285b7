package bot

import (
	"sort"

	"bigtwo/internal/domain"

	botinternal "bigtwo/internal/bot/internal"
)

// HardBot conserves hand structure. It scores each candidate by the hand it
// would leave behind, weighted by game phase, and passes when every legal
// answer would damage the hand more than the trick is worth. When the table
// history is visible it also counts cards to decide when a boss single is
// worth spending.
type HardBot struct{}

func (b *HardBot) CalculateMove(view View) (Move, error) {
	if len(view.Hand) == 0 {
		return Move{Pass: true}, nil
	}

	validMoves := botinternal.GetValidMoves(view.Hand, view.LastPlay)
	validMoves = filterOpener(validMoves, view)
	if len(validMoves) == 0 {
		return Move{Pass: true}, nil
	}

	phase := botinternal.DetectPhase(view.Counts)
	weights := hardBotTuning.ForPhase(phase)
	threat := botinternal.DetectThreat(view.Counts, view.Seat, hardBotTuning.ThreatThreshold)
	scored := botinternal.BuildScoredMoves(view.Hand, validMoves, weights, threat)

	var stats botinternal.BossStats
	if view.Played != nil {
		stats = botinternal.AnalyzeHand(view.Hand, view.Played)
		for i := range scored {
			scored[i].Score += bossAdjustment(scored[i], stats, threat, len(view.Hand))
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// Save higher cards when scores are equal.
		return scored[i].Combo.Value < scored[j].Combo.Value
	})

	best := scored[0]
	if !view.Leading() {
		currentScore := botinternal.ScoreHand(view.Hand, weights)
		if best.Score < currentScore+hardBotTuning.PassThreshold {
			return Move{Pass: true}, nil
		}
	}

	return Move{Cards: best.Move.Cards}, nil
}

// bossAdjustment biases boss singles: hold them while dominant and the
// table is calm, spend them to seize or block when an opponent is short.
func bossAdjustment(m botinternal.ScoredMove, stats botinternal.BossStats, threat bool, handSize int) float64 {
	if m.Combo.Type != domain.Single {
		return 0
	}
	isBoss := false
	for _, bc := range stats.BossSingles {
		if bc == m.Move.Cards[0] {
			isBoss = true
			break
		}
	}
	if !isBoss {
		return 0
	}
	if stats.Dominance > 0.6 && !threat && handSize > 3 {
		return -10.0
	}
	return 20.0
}
