package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

const shutdownTimeout = 10 * time.Second

type gameManager interface {
	GetOrCreateSession(ctx context.Context, id string) (string, entity.GameState)
	NewGame(ctx context.Context, id string) (entity.GameState, error)
	MakeTurn(ctx context.Context, id string, cell int) (entity.GameState, error)
	SetDifficulty(ctx context.Context, id, level string) (entity.GameState, error)
}

type Server struct {
	logger  *slog.Logger
	manager gameManager
	limiter *clientLimiter
}

func New(logger *slog.Logger, manager gameManager, rps, burst int) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		manager: manager,
		limiter: newClientLimiter(rps, burst),
	}
}

// Handler returns the routes of the game API.
func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", pingHandler)
	mux.HandleFunc("GET /game", that.handleGetGame)
	mux.Handle("POST /game/new", that.limiter.middleware(http.HandlerFunc(that.handleNewGame)))
	mux.Handle("POST /game/move", that.limiter.middleware(http.HandlerFunc(that.handleMove)))
	mux.Handle("POST /game/difficulty", that.limiter.middleware(http.HandlerFunc(that.handleDifficulty)))

	return mux
}

// Start - serves the API on port until ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
