package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-solo/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-solo/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-solo/internal/tictactoe"
)

const defaultPublishTimeout = 2 * time.Second

type snapshotPublisher interface {
	PublishSnapshot(ctx context.Context, sessionID string, state entity.GameState) error
}

type Options struct {
	DefaultDifficulty entity.Difficulty
	// ReplyDelay postpones the computer answer to a human move; zero answers immediately.
	ReplyDelay     time.Duration
	PublishTimeout time.Duration
	SessionTTL     time.Duration
	// Seed makes random moves reproducible when non-zero.
	Seed uint64
}

// session serializes every call into its engine.
type session struct {
	mu         sync.Mutex
	engine     *tictactoe.Engine
	lastAccess time.Time
}

// GameManager keeps one engine per player session.
type GameManager struct {
	logger    *slog.Logger
	publisher snapshotPublisher
	options   Options
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	created  uint64
}

// NewGameManager creates a manager. publisher may be nil when snapshots are not fanned out.
func NewGameManager(logger *slog.Logger, publisher snapshotPublisher, options Options) *GameManager {
	if !options.DefaultDifficulty.IsValid() {
		options.DefaultDifficulty = entity.Expert
	}

	if options.PublishTimeout <= 0 {
		options.PublishTimeout = defaultPublishTimeout
	}

	return &GameManager{
		logger:    logger.With("component", "game_manager"),
		publisher: publisher,
		options:   options,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
}

// GetOrCreateSession returns the session for id, creating it when it does not exist.
// An empty or malformed id gets a freshly generated one.
func (that *GameManager) GetOrCreateSession(_ context.Context, id string) (string, entity.GameState) {
	log := that.logger.With("method", "GetOrCreateSession")

	that.mu.Lock()
	existing, ok := that.sessions[id]
	if !ok {
		if !pkg.IsSessionID(id) {
			id = pkg.GenerateNewSessionID()
		}

		existing = that.newSession(id)
		that.sessions[id] = existing

		log.Info("session created", "session", id, "difficulty", that.options.DefaultDifficulty)
	}
	that.mu.Unlock()

	existing.mu.Lock()
	defer existing.mu.Unlock()

	existing.lastAccess = that.now()

	return id, existing.engine.State()
}

// GetState returns the latest snapshot of the session.
func (that *GameManager) GetState(_ context.Context, id string) (entity.GameState, error) {
	return that.withSession(id, func(engine *tictactoe.Engine) entity.GameState {
		return engine.State()
	})
}

// MakeTurn plays the human move on cell. Ignored moves return the unchanged snapshot.
func (that *GameManager) MakeTurn(_ context.Context, id string, cell int) (entity.GameState, error) {
	log := that.logger.With("method", "MakeTurn", "session", id)

	state, err := that.withSession(id, func(engine *tictactoe.Engine) entity.GameState {
		return engine.ApplyHumanMove(cell)
	})
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to make turn: %w", err)
	}

	if state.IsGameOver {
		log.Info("game finished", "winner", state.Winner, "human_wins", state.HumanWins,
			"computer_wins", state.ComputerWins, "ties", state.Ties)
	}

	return state, nil
}

// NewGame starts the next game of the session.
func (that *GameManager) NewGame(_ context.Context, id string) (entity.GameState, error) {
	state, err := that.withSession(id, func(engine *tictactoe.Engine) entity.GameState {
		return engine.StartNewGame()
	})
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to start new game: %w", err)
	}

	return state, nil
}

// SetDifficulty parses level and applies it to the session.
func (that *GameManager) SetDifficulty(_ context.Context, id, level string) (entity.GameState, error) {
	difficulty, err := entity.ParseDifficulty(level)
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to set difficulty: %w", err)
	}

	state, err := that.withSession(id, func(engine *tictactoe.Engine) entity.GameState {
		return engine.SetDifficulty(difficulty)
	})
	if err != nil {
		return entity.GameState{}, fmt.Errorf("failed to set difficulty: %w", err)
	}

	return state, nil
}

// Subscribe registers observer for every later snapshot of the session.
// The observer runs while the session is locked and must not block or call back into the manager.
func (that *GameManager) Subscribe(_ context.Context, id string, observer tictactoe.Observer) (func(), error) {
	var unsubscribe func()

	if _, err := that.withSession(id, func(engine *tictactoe.Engine) entity.GameState {
		unsubscribe = engine.Subscribe(observer)
		return entity.GameState{}
	}); err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return unsubscribe, nil
}

// CleanupIdle removes sessions not used for longer than the session TTL and returns how many were removed.
func (that *GameManager) CleanupIdle(_ context.Context) int {
	log := that.logger.With("method", "CleanupIdle")

	if that.options.SessionTTL <= 0 {
		return 0
	}

	deadline := that.now().Add(-that.options.SessionTTL)

	that.mu.Lock()
	defer that.mu.Unlock()

	removed := 0
	for id, sess := range that.sessions {
		sess.mu.Lock()
		idle := sess.lastAccess.Before(deadline)
		sess.mu.Unlock()

		if idle {
			delete(that.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		log.Info("idle sessions removed", "removed", removed, "remaining", len(that.sessions))
	}

	return removed
}

func (that *GameManager) withSession(id string, fn func(engine *tictactoe.Engine) entity.GameState) (entity.GameState, error) {
	that.mu.Lock()
	sess, ok := that.sessions[id]
	that.mu.Unlock()

	if !ok {
		return entity.GameState{}, fmt.Errorf("%w: %s", apperror.ErrSessionNotFound, id)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastAccess = that.now()

	return fn(sess.engine), nil
}

// newSession must be called with that.mu held.
func (that *GameManager) newSession(id string) *session {
	that.created++

	sess := &session{lastAccess: that.now()}

	opts := []tictactoe.Option{
		tictactoe.WithDifficulty(that.options.DefaultDifficulty),
		tictactoe.WithReplyScheduler(that.replyScheduler(sess)),
	}

	if that.options.Seed != 0 {
		opts = append(opts, tictactoe.WithRand(rand.New(rand.NewPCG(that.options.Seed, that.created)))) //nolint: gosec // game moves, not secrets
	}

	sess.engine = tictactoe.NewEngine(opts...)
	sess.engine.Subscribe(func(state entity.GameState) {
		that.publish(id, state)
	})

	return sess
}

func (that *GameManager) replyScheduler(sess *session) tictactoe.ReplyScheduler {
	if that.options.ReplyDelay <= 0 {
		return tictactoe.Immediate
	}

	delay := that.options.ReplyDelay

	return tictactoe.ReplySchedulerFunc(func(reply func()) {
		time.AfterFunc(delay, func() {
			sess.mu.Lock()
			defer sess.mu.Unlock()

			reply()
		})
	})
}

func (that *GameManager) publish(id string, state entity.GameState) {
	if that.publisher == nil {
		return
	}

	log := that.logger.With("method", "publish", "session", id)

	ctx, cancel := context.WithTimeout(context.Background(), that.options.PublishTimeout)
	defer cancel()

	if err := that.publisher.PublishSnapshot(ctx, id, state); err != nil {
		log.Error("failed to publish snapshot", "error", err)
	}
}
