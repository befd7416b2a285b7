package bot

import "fmt"

// Difficulty selects a bot strategy.
type Difficulty string

const (
	DifficultyEasy Difficulty = "easy"
	DifficultyHard Difficulty = "hard"
)

// NewBrain creates the AI brain for the given difficulty.
func NewBrain(difficulty Difficulty) (Brain, error) {
	switch difficulty {
	case DifficultyEasy:
		return &EasyBot{}, nil
	case DifficultyHard:
		return &HardBot{}, nil
	default:
		return nil, fmt.Errorf("unknown bot difficulty: %q", difficulty)
	}
}
