package tictactoe

import (
	"math/rand/v2"
	"testing"

	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// heldReply keeps the computer reply until the test releases it.
type heldReply struct {
	pending []func()
}

func (that *heldReply) ScheduleReply(reply func()) {
	that.pending = append(that.pending, reply)
}

func (that *heldReply) release() {
	pending := that.pending
	that.pending = nil
	for _, reply := range pending {
		reply()
	}
}

func stateWithBoard(board entity.Board, player entity.Mark) entity.GameState {
	state := entity.NewGameState(entity.Expert)
	state.Board = board
	state.CurrentPlayer = player

	return state
}

func TestNewEngine(t *testing.T) {
	// When: an engine is created without options
	engine := NewEngine()

	// Then: it holds a fresh expert session
	assert.Equal(t, entity.NewGameState(entity.Expert), engine.State())

	// When: a default difficulty is given
	engine = NewEngine(WithDifficulty(entity.Easy))

	// Then: the initial snapshot carries it
	assert.Equal(t, entity.Easy, engine.State().Difficulty)
}

func TestEngine_ApplyHumanMove(t *testing.T) {
	t.Run("Changes exactly one cell before the reply", func(t *testing.T) {
		// Given: an engine whose reply is held back
		scheduler := &heldReply{}
		engine := NewEngine(WithReplyScheduler(scheduler), WithRand(firstCell()))
		before := engine.State()

		// When: the human takes the center
		after := engine.ApplyHumanMove(4)

		// Then: only cell 4 changed, and it changed from empty to human
		for cell := range entity.BoardSize {
			if cell == 4 {
				assert.Equal(t, entity.EmptyCell, before.Board[cell])
				assert.Equal(t, entity.Human, after.Board[cell])
				continue
			}
			assert.Equal(t, before.Board[cell], after.Board[cell], "cell %d", cell)
		}

		// Then: the computer is to move and the game goes on
		assert.Equal(t, entity.Computer, after.CurrentPlayer)
		assert.False(t, after.IsGameOver)
		require.Len(t, scheduler.pending, 1)

		// When: the reply runs
		scheduler.release()

		// Then: the expert computer answered with the lowest free cell and it is the human's turn again
		reply := engine.State()
		assert.Equal(t, entity.Computer, reply.Board[0])
		assert.Equal(t, entity.Human, reply.CurrentPlayer)
		assert.Len(t, reply.Board.EmptyCells(), 7)
	})

	t.Run("Human completes the top row", func(t *testing.T) {
		// Given: the human holds 0 and 1 and has won twice before
		state := stateWithBoard(entity.Board{h, h, e, e, e, e, e, e, e}, entity.Human)
		state.HumanWins = 2
		engine := NewEngine(WithState(state))

		// When: the human plays 2
		after := engine.ApplyHumanMove(2)

		// Then: the human wins with 0,1,2 and the counter goes up by one
		assert.True(t, entity.CheckWinner(after.Board, entity.Human))
		assert.True(t, after.IsGameOver)
		assert.Equal(t, entity.Human, after.Winner)
		require.NotNil(t, after.WinningCombination)
		assert.Equal(t, entity.Line{0, 1, 2}, *after.WinningCombination)
		assert.Equal(t, 3, after.HumanWins)
		assert.Equal(t, 0, after.ComputerWins)
		assert.Equal(t, 0, after.Ties)
	})

	t.Run("Filling the board without a line is a tie", func(t *testing.T) {
		// Given: one free cell left and no line for anyone once it is filled
		state := stateWithBoard(entity.Board{
			h, c, h,
			h, c, c,
			c, h, e,
		}, entity.Human)
		engine := NewEngine(WithState(state))

		// When: the human fills the last cell
		after := engine.ApplyHumanMove(8)

		// Then: the game is a tie
		assert.True(t, after.IsGameOver)
		assert.Equal(t, entity.EmptyCell, after.Winner)
		assert.Nil(t, after.WinningCombination)
		assert.Equal(t, 1, after.Ties)
		assert.True(t, after.Board.IsFull())
	})

	t.Run("Ignored moves leave the state unchanged", func(t *testing.T) {
		finished := stateWithBoard(entity.Board{h, h, h, c, c, e, e, e, e}, entity.Human)
		finished.IsGameOver = true
		finished.Winner = entity.Human
		finished.WinningCombination = &entity.Line{0, 1, 2}
		finished.HumanWins = 1

		cases := map[string]struct {
			state entity.GameState
			cell  int
		}{
			"occupied cell":   {state: stateWithBoard(entity.Board{h, c, e, e, e, e, e, e, e}, entity.Human), cell: 1},
			"game over":       {state: finished, cell: 5},
			"negative index":  {state: entity.NewGameState(entity.Expert), cell: -1},
			"index too large": {state: entity.NewGameState(entity.Expert), cell: entity.BoardSize},
			"reply pending":   {state: stateWithBoard(entity.Board{h, e, e, e, e, e, e, e, e}, entity.Computer), cell: 4},
		}

		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				// Given: an engine in the prepared state
				engine := NewEngine(WithState(tc.state))
				notified := 0
				engine.Subscribe(func(entity.GameState) { notified++ })

				// When: the move is attempted
				after := engine.ApplyHumanMove(tc.cell)

				// Then: the state is identical and nobody was notified
				assert.Equal(t, tc.state, after)
				assert.Equal(t, tc.state, engine.State())
				assert.Zero(t, notified)
			})
		}
	})

	t.Run("Second click while the reply is pending is ignored", func(t *testing.T) {
		// Given: a human move whose reply has not run yet
		scheduler := &heldReply{}
		engine := NewEngine(WithReplyScheduler(scheduler), WithRand(firstCell()))
		pending := engine.ApplyHumanMove(4)

		// When: the human clicks another cell
		after := engine.ApplyHumanMove(0)

		// Then: nothing changes
		assert.Equal(t, pending, after)
		assert.Equal(t, entity.EmptyCell, after.Board[0])
	})
}

func TestEngine_ComputerMove(t *testing.T) {
	t.Run("Expert wins instead of blocking", func(t *testing.T) {
		// Given: computer 0,1 and human 3,4 with the computer to move
		state := stateWithBoard(entity.Board{c, c, e, h, h, e, e, e, e}, entity.Computer)
		engine := NewEngine(WithState(state), WithRand(lastCell()))

		// When: the computer moves
		after := engine.ComputerMove()

		// Then: cell 2 is taken, not the block at 5
		assert.Equal(t, entity.Computer, after.Board[2])
		assert.Equal(t, entity.EmptyCell, after.Board[5])
		assert.Equal(t, entity.Computer, after.Winner)
		require.NotNil(t, after.WinningCombination)
		assert.Equal(t, entity.Line{0, 1, 2}, *after.WinningCombination)
		assert.Equal(t, 1, after.ComputerWins)
		assert.True(t, after.IsGameOver)
	})

	t.Run("Computer filling the board is a tie", func(t *testing.T) {
		// Given: the last free cell does not complete a line
		state := stateWithBoard(entity.Board{
			h, c, h,
			h, c, c,
			c, h, e,
		}, entity.Computer)
		engine := NewEngine(WithState(state))

		// When: the computer moves
		after := engine.ComputerMove()

		// Then: the game ends in a tie
		assert.Equal(t, entity.Computer, after.Board[8])
		assert.True(t, after.IsGameOver)
		assert.Equal(t, 1, after.Ties)
		assert.Equal(t, entity.EmptyCell, after.Winner)
	})

	t.Run("No move after game over", func(t *testing.T) {
		state := stateWithBoard(entity.Board{h, h, h, c, c, e, e, e, e}, entity.Computer)
		state.IsGameOver = true
		state.Winner = entity.Human
		engine := NewEngine(WithState(state))

		assert.Equal(t, state, engine.ComputerMove())
	})

	t.Run("Uses the difficulty set before the move", func(t *testing.T) {
		// Given: the computer could win at 2 and plays easy with a last-cell source
		state := stateWithBoard(entity.Board{c, c, e, h, h, e, e, e, e}, entity.Computer)
		engine := NewEngine(WithState(state), WithRand(lastCell()))
		engine.SetDifficulty(entity.Easy)

		// When: the computer moves
		after := engine.ComputerMove()

		// Then: the random cell 8 is played
		assert.Equal(t, entity.Computer, after.Board[8])
		assert.False(t, after.IsGameOver)
		assert.Equal(t, entity.Human, after.CurrentPlayer)
	})
}

func TestEngine_StartNewGame(t *testing.T) {
	t.Run("Keeps the score and alternates the opener", func(t *testing.T) {
		// Given: a finished game with some score
		state := stateWithBoard(entity.Board{h, h, h, c, c, e, e, e, e}, entity.Human)
		state.IsGameOver = true
		state.Winner = entity.Human
		state.WinningCombination = &entity.Line{0, 1, 2}
		state.HumanWins, state.ComputerWins, state.Ties = 3, 2, 1
		state.Difficulty = entity.Harder
		engine := NewEngine(WithState(state), WithRand(firstCell()))

		// When: a new game starts
		after := engine.StartNewGame()

		// Then: the computer opens with one move and everything else is reset or kept
		assert.False(t, after.HumanStarts)
		assert.Equal(t, state.TotalGames(), after.TotalGames())
		assert.Equal(t, 3, after.HumanWins)
		assert.Equal(t, entity.Harder, after.Difficulty)
		assert.False(t, after.IsGameOver)
		assert.Equal(t, entity.EmptyCell, after.Winner)
		assert.Nil(t, after.WinningCombination)
		assert.Len(t, after.Board.EmptyCells(), 8)
		assert.Equal(t, entity.Computer, after.Board[0])
		assert.Equal(t, entity.Human, after.CurrentPlayer)

		// When: another game starts
		again := engine.StartNewGame()

		// Then: the human opens on an empty board
		assert.True(t, again.HumanStarts)
		assert.Equal(t, entity.Human, again.CurrentPlayer)
		assert.Len(t, again.Board.EmptyCells(), entity.BoardSize)
		assert.Equal(t, state.TotalGames(), again.TotalGames())
	})

	t.Run("Toggles the opener every time", func(t *testing.T) {
		engine := NewEngine(WithRand(firstCell()))

		for range 6 {
			before := engine.State()
			after := engine.StartNewGame()

			assert.Equal(t, !before.HumanStarts, after.HumanStarts)
			assert.Equal(t, before.TotalGames(), after.TotalGames())
		}
	})

	t.Run("Drops a reply scheduled in the previous game", func(t *testing.T) {
		// Given: a human move whose reply is still pending
		scheduler := &heldReply{}
		engine := NewEngine(WithReplyScheduler(scheduler), WithRand(firstCell()))
		engine.StartNewGame() // computer opens
		engine.StartNewGame() // human opens
		engine.ApplyHumanMove(4)

		// When: a new game starts before the reply runs
		fresh := engine.StartNewGame()
		scheduler.release()

		// Then: the stale reply does not touch the new game
		assert.Equal(t, fresh, engine.State())
	})
}

func TestEngine_SetDifficulty(t *testing.T) {
	t.Run("Only the difficulty changes", func(t *testing.T) {
		// Given: a game in progress
		state := stateWithBoard(entity.Board{h, c, e, e, e, e, e, e, e}, entity.Human)
		state.HumanWins = 1
		engine := NewEngine(WithState(state))

		// When: the difficulty is lowered
		after := engine.SetDifficulty(entity.Easy)

		// Then: board and score are untouched
		expected := state
		expected.Difficulty = entity.Easy
		assert.Equal(t, expected, after)
	})

	t.Run("Unknown and unchanged tiers are no-ops", func(t *testing.T) {
		engine := NewEngine()
		notified := 0
		engine.Subscribe(func(entity.GameState) { notified++ })

		engine.SetDifficulty(entity.Difficulty("nightmare"))
		engine.SetDifficulty(entity.Expert)

		assert.Equal(t, entity.Expert, engine.State().Difficulty)
		assert.Zero(t, notified)
	})

	t.Run("Survives new games", func(t *testing.T) {
		engine := NewEngine(WithRand(firstCell()))
		engine.SetDifficulty(entity.Harder)

		engine.StartNewGame()
		engine.StartNewGame()

		assert.Equal(t, entity.Harder, engine.State().Difficulty)
	})
}

func TestEngine_Subscribe(t *testing.T) {
	// Given: an observer recording snapshots
	engine := NewEngine(WithRand(firstCell()))
	var seen []entity.GameState
	unsubscribe := engine.Subscribe(func(state entity.GameState) {
		seen = append(seen, state)
	})

	// When: the human moves and the computer replies immediately
	final := engine.ApplyHumanMove(4)

	// Then: both transitions were delivered in order
	require.Len(t, seen, 2)
	assert.Equal(t, entity.Human, seen[0].Board[4])
	assert.Equal(t, entity.EmptyCell, seen[0].Board[0])
	assert.Equal(t, final, seen[1])

	// When: the observer unsubscribes
	unsubscribe()
	unsubscribe()
	engine.StartNewGame()

	// Then: nothing more is delivered
	assert.Len(t, seen, 2)
}

func TestEngine_ExpertSelfPlay(t *testing.T) {
	for seed := range uint64(200) {
		// Given: an expert computer and a human playing random legal cells after opening in the center
		engine := NewEngine(WithRand(rand.New(rand.NewPCG(seed, 1))))
		human := rand.New(rand.NewPCG(seed, 2))
		if seed%2 == 1 {
			engine.StartNewGame()
			engine.StartNewGame()
		}

		state := engine.ApplyHumanMove(4)
		previous := state
		for !state.IsGameOver {
			free := state.Board.EmptyCells()
			require.NotEmpty(t, free, "seed %d", seed)

			// When: the human plays and the computer answers
			state = engine.ApplyHumanMove(free[human.IntN(len(free))])

			// Then: counters never go down and marks are never removed
			assert.GreaterOrEqual(t, state.HumanWins, previous.HumanWins)
			assert.GreaterOrEqual(t, state.ComputerWins, previous.ComputerWins)
			assert.GreaterOrEqual(t, state.Ties, previous.Ties)
			for cell, mark := range previous.Board {
				if mark != entity.EmptyCell {
					assert.Equal(t, mark, state.Board[cell], "seed %d cell %d", seed, cell)
				}
			}
			previous = state
		}

		// Then: a full board is always a finished game and exactly one game was counted
		if state.Board.IsFull() {
			assert.True(t, state.IsGameOver, "seed %d", seed)
		}
		assert.Equal(t, 1, state.TotalGames(), "seed %d", seed)
		if state.Winner == entity.EmptyCell {
			assert.True(t, state.Board.IsFull(), "seed %d", seed)
		}
	}
}
