package entity

import (
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-solo/internal/apperror"
)

// Difficulty selects the heuristic the computer uses to pick its move.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Harder Difficulty = "harder"
	Expert Difficulty = "expert"
)

func (that Difficulty) IsValid() bool {
	switch that {
	case Easy, Harder, Expert:
		return true
	default:
		return false
	}
}

func (that Difficulty) String() string {
	return string(that)
}

// ParseDifficulty accepts the wire names regardless of case and surrounding spaces.
func ParseDifficulty(value string) (Difficulty, error) {
	difficulty := Difficulty(strings.ToLower(strings.TrimSpace(value)))
	if !difficulty.IsValid() {
		return "", fmt.Errorf("%w: %q", apperror.ErrUnknownDifficulty, value)
	}

	return difficulty, nil
}
