package entity

import (
	"github.com/samber/lo"
)

type Mark string

const (
	EmptyCell Mark = ""
	Human     Mark = "X"
	Computer  Mark = "O"
)

const BoardSize = 9

// Board is indexed in row-major order: row = cell/3, col = cell%3.
type Board [BoardSize]Mark

// Line is one of the fixed index triples that ends the game when filled by one mark.
type Line [3]int

// WinCombos are checked in this order; the first completed line is the one reported.
var WinCombos = [...]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// GameState is a snapshot of one game within a session. It is replaced wholesale on
// every transition and must not be modified by readers.
type GameState struct {
	Board              Board      `json:"board"`
	CurrentPlayer      Mark       `json:"current_player"`
	Winner             Mark       `json:"winner,omitempty"`
	IsGameOver         bool       `json:"is_game_over"`
	WinningCombination *Line      `json:"winning_combination,omitempty"`
	HumanWins          int        `json:"human_wins"`
	ComputerWins       int        `json:"computer_wins"`
	Ties               int        `json:"ties"`
	HumanStarts        bool       `json:"human_starts"`
	Difficulty         Difficulty `json:"difficulty"`
}

// NewGameState returns the state of a fresh session: empty board, zero score, human to move.
func NewGameState(difficulty Difficulty) GameState {
	return GameState{
		CurrentPlayer: Human,
		HumanStarts:   true,
		Difficulty:    difficulty,
	}
}

// TotalGames is the number of finished games counted in the score.
func (that GameState) TotalGames() int {
	return that.HumanWins + that.ComputerWins + that.Ties
}

func (that Mark) Opponent() Mark {
	switch that {
	case Human:
		return Computer
	case Computer:
		return Human
	default:
		return EmptyCell
	}
}

// IsPlayable reports whether cell is on the board and still empty.
func (that Board) IsPlayable(cell int) bool {
	return cell >= 0 && cell < BoardSize && that[cell] == EmptyCell
}

// EmptyCells returns the indices of all empty cells in ascending order.
func (that Board) EmptyCells() []int {
	return lo.Filter(lo.Range(BoardSize), func(cell int, _ int) bool {
		return that[cell] == EmptyCell
	})
}

func (that Board) IsFull() bool {
	return !lo.Contains(that[:], EmptyCell)
}

// With returns a copy of the board with cell set to mark.
func (that Board) With(cell int, mark Mark) Board {
	that[cell] = mark
	return that
}

// CheckWinner reports whether player fills at least one winning line.
// EmptyCell is not a player and never wins.
func CheckWinner(board Board, player Mark) bool {
	_, ok := FindWinningCombination(board, player)
	return ok
}

// FindWinningCombination returns the first line in WinCombos filled by player.
func FindWinningCombination(board Board, player Mark) (Line, bool) {
	if player == EmptyCell {
		return Line{}, false
	}

	return lo.Find(WinCombos[:], func(combo Line) bool {
		return lo.EveryBy(combo[:], func(cell int) bool {
			return board[cell] == player
		})
	})
}
