package tictactoe

import (
	"math/rand/v2"

	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

// Rand is the randomness source behind random moves. *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n) //nolint: gosec // game moves, not secrets
}

// ChooseMove returns the cell the computer takes on board at the given difficulty.
// It reports false when no cell is empty. Unknown difficulties play like Easy.
func ChooseMove(board entity.Board, difficulty entity.Difficulty, rnd Rand) (int, bool) {
	switch difficulty {
	case entity.Harder:
		if cell, ok := FindWinningMove(board, entity.Computer); ok {
			return cell, true
		}
	case entity.Expert:
		if cell, ok := FindWinningMove(board, entity.Computer); ok {
			return cell, true
		}

		// a cell that would complete a human line next turn
		if cell, ok := FindWinningMove(board, entity.Human); ok {
			return cell, true
		}
	}

	return RandomMove(board, rnd)
}

// FindWinningMove scans cells 0..8 and returns the first empty one where player would complete a line.
func FindWinningMove(board entity.Board, player entity.Mark) (int, bool) {
	for _, cell := range board.EmptyCells() {
		if entity.CheckWinner(board.With(cell, player), player) {
			return cell, true
		}
	}

	return 0, false
}

// RandomMove picks uniformly among the empty cells.
func RandomMove(board entity.Board, rnd Rand) (int, bool) {
	availableCells := board.EmptyCells()
	if len(availableCells) == 0 {
		return 0, false
	}

	return availableCells[rnd.IntN(len(availableCells))], true
}
