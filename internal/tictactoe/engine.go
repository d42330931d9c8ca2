package tictactoe

import (
	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

// ReplyScheduler decides when the computer answers a human move.
type ReplyScheduler interface {
	ScheduleReply(reply func())
}

// ReplySchedulerFunc adapts a function to ReplyScheduler.
type ReplySchedulerFunc func(reply func())

func (that ReplySchedulerFunc) ScheduleReply(reply func()) {
	that(reply)
}

// Immediate runs the computer reply before ApplyHumanMove returns.
var Immediate ReplyScheduler = ReplySchedulerFunc(func(reply func()) { reply() })

type Option func(engine *Engine)

// WithRand sets the randomness source used for random moves.
func WithRand(rnd Rand) Option {
	return func(engine *Engine) {
		engine.rnd = rnd
	}
}

// WithReplyScheduler sets how the computer reply to a human move is run.
// The scheduler must call reply on the same logical thread that drives the engine.
func WithReplyScheduler(scheduler ReplyScheduler) Option {
	return func(engine *Engine) {
		engine.scheduler = scheduler
	}
}

// WithState starts the engine from the given snapshot instead of a fresh session.
func WithState(state entity.GameState) Option {
	return func(engine *Engine) {
		engine.state = NewStateHolder(state)
	}
}

// WithDifficulty sets the difficulty of the initial snapshot.
func WithDifficulty(difficulty entity.Difficulty) Option {
	return func(engine *Engine) {
		state := engine.state.Get()
		state.Difficulty = difficulty
		engine.state = NewStateHolder(state)
	}
}

// Engine is the game state machine of one session. It is not safe for concurrent
// use; the host must serialize calls.
type Engine struct {
	state     *StateHolder
	rnd       Rand
	scheduler ReplyScheduler

	// round changes on every new game so that replies scheduled for an old game are dropped
	round uint64
}

func NewEngine(opts ...Option) *Engine {
	engine := &Engine{
		state:     NewStateHolder(entity.NewGameState(entity.Expert)),
		rnd:       globalRand{},
		scheduler: Immediate,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// State returns the latest snapshot.
func (that *Engine) State() entity.GameState {
	return that.state.Get()
}

// Subscribe registers observer for every later snapshot and returns a function that removes it.
func (that *Engine) Subscribe(observer Observer) func() {
	return that.state.Subscribe(observer)
}

// ApplyHumanMove places the human mark on cell. Moves on an occupied or out-of-range
// cell, after the game ended, or while the computer reply is pending are ignored.
func (that *Engine) ApplyHumanMove(cell int) entity.GameState {
	current := that.state.Get()
	if current.IsGameOver || current.CurrentPlayer != entity.Human || !current.Board.IsPlayable(cell) {
		return current
	}

	next := advance(current, cell, entity.Human)
	that.state.set(next)

	if next.IsGameOver {
		return next
	}

	round := that.round
	that.scheduler.ScheduleReply(func() {
		if that.round != round {
			return
		}

		that.ComputerMove()
	})

	return that.state.Get()
}

// ComputerMove lets the computer take a cell chosen by the current difficulty.
// It does nothing once the game is over.
func (that *Engine) ComputerMove() entity.GameState {
	current := that.state.Get()
	if current.IsGameOver {
		return current
	}

	cell, ok := ChooseMove(current.Board, current.Difficulty, that.rnd)
	if !ok {
		return current
	}

	next := advance(current, cell, entity.Computer)
	that.state.set(next)

	return next
}

// StartNewGame clears the board, keeps the score and difficulty, and alternates who opens.
// When the computer opens, its first move is made before returning.
func (that *Engine) StartNewGame() entity.GameState {
	current := that.state.Get()
	that.round++

	next := entity.GameState{
		CurrentPlayer: entity.Human,
		HumanWins:     current.HumanWins,
		ComputerWins:  current.ComputerWins,
		Ties:          current.Ties,
		HumanStarts:   !current.HumanStarts,
		Difficulty:    current.Difficulty,
	}

	if !next.HumanStarts {
		next.CurrentPlayer = entity.Computer
	}

	that.state.set(next)

	if !next.HumanStarts {
		return that.ComputerMove()
	}

	return next
}

// SetDifficulty changes the tier used from the next computer move on.
// Unknown tiers are ignored.
func (that *Engine) SetDifficulty(difficulty entity.Difficulty) entity.GameState {
	current := that.state.Get()
	if !difficulty.IsValid() || current.Difficulty == difficulty {
		return current
	}

	current.Difficulty = difficulty
	that.state.set(current)

	return current
}

// advance places player on cell and settles win, tie or hand-over.
func advance(state entity.GameState, cell int, player entity.Mark) entity.GameState {
	state.Board = state.Board.With(cell, player)

	if combo, ok := entity.FindWinningCombination(state.Board, player); ok {
		state.Winner = player
		state.IsGameOver = true
		state.WinningCombination = &combo

		switch player {
		case entity.Human:
			state.HumanWins++
		case entity.Computer:
			state.ComputerWins++
		}

		return state
	}

	if state.Board.IsFull() {
		state.IsGameOver = true
		state.Ties++

		return state
	}

	state.CurrentPlayer = player.Opponent()

	return state
}
