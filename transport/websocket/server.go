package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-solo/internal/tictactoe"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	sessionCookieName = "user_session"
	writeTimeout      = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type gameManager interface {
	GetOrCreateSession(ctx context.Context, id string) (string, entity.GameState)
	GetState(ctx context.Context, id string) (entity.GameState, error)
	Subscribe(ctx context.Context, id string, observer tictactoe.Observer) (func(), error)
}

// Server pushes the snapshots of one session to a WebSocket client.
type Server struct {
	logger  *slog.Logger
	manager gameManager
}

func New(logger *slog.Logger, manager gameManager) *Server {
	return &Server{
		logger:  logger.With("component", "websocket"),
		manager: manager,
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", that.handleSnapshots)

	return mux
}

// Start - starts WebSocket server and stops it when ctx is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.Handler(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) handleSnapshots(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "handleSnapshots")

	sessionID, _ := that.manager.GetOrCreateSession(req.Context(), requestedSession(req))

	conn, err := websocket.Accept(writer, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		log.Error("failed to accept websocket", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	// the client never sends anything; reading only detects the disconnect
	ctx := conn.CloseRead(req.Context())

	updates := make(chan entity.GameState, 1)
	unsubscribe, err := that.manager.Subscribe(ctx, sessionID, func(state entity.GameState) {
		pushLatest(updates, state)
	})
	if err != nil {
		log.Error("failed to subscribe", "session", sessionID, "error", err)
		_ = conn.Close(websocket.StatusPolicyViolation, "session not found")
		return
	}
	defer unsubscribe()

	state, err := that.manager.GetState(ctx, sessionID)
	if err != nil {
		log.Error("failed to get state", "session", sessionID, "error", err)
		_ = conn.Close(websocket.StatusPolicyViolation, "session not found")
		return
	}

	log.Info("WebSocket connection established", "session", sessionID)

	for {
		if err = that.write(ctx, conn, state); err != nil {
			log.Info("WebSocket connection closed", "session", sessionID, "reason", err)
			return
		}

		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case state = <-updates:
		}
	}
}

func (that *Server) write(ctx context.Context, conn *websocket.Conn, state entity.GameState) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, conn, state); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	return nil
}

// pushLatest never blocks: a snapshot the client has not taken yet is replaced by the newer one.
func pushLatest(updates chan entity.GameState, state entity.GameState) {
	select {
	case updates <- state:
		return
	default:
	}

	select {
	case <-updates:
	default:
	}

	select {
	case updates <- state:
	default:
	}
}

func requestedSession(req *http.Request) string {
	if id := req.URL.Query().Get("session"); id != "" {
		return id
	}

	if cookie, err := req.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}

	return ""
}
