package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rocketscienceinc/tictactoe-solo/internal/config"
	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
	"github.com/rocketscienceinc/tictactoe-solo/internal/repository/storage"
	redistransport "github.com/rocketscienceinc/tictactoe-solo/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-solo/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-solo/transport/rest"
	"github.com/rocketscienceinc/tictactoe-solo/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	difficulty, err := entity.ParseDifficulty(conf.Engine.DefaultDifficulty)
	if err != nil {
		return fmt.Errorf("invalid engine config: %w", err)
	}

	options := usecase.Options{
		DefaultDifficulty: difficulty,
		ReplyDelay:        conf.Engine.ReplyDelay,
		PublishTimeout:    conf.Redis.PublishTimeout,
		SessionTTL:        conf.Session.TTL,
		Seed:              conf.Engine.Seed,
	}

	var gameManager *usecase.GameManager

	if conf.Redis.Enabled {
		redisClient, err := storage.New(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		log.Info("Publishing snapshots to Redis", "addr", conf.Redis.GetRedisAddr(), "prefix", conf.Redis.ChannelPrefix)
		gameManager = usecase.NewGameManager(logger, redistransport.New(redisClient, conf.Redis.ChannelPrefix), options)
	} else {
		gameManager = usecase.NewGameManager(logger, nil, options)
	}

	go runSessionCleanup(ctx, log, gameManager, conf.Session.CleanupInterval)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restServer := rest.New(logger, gameManager, conf.RateLimit.RPS, conf.RateLimit.Burst)
		if httpErr := restServer.Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameManager)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

func runSessionCleanup(ctx context.Context, log *slog.Logger, gameManager *usecase.GameManager, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := gameManager.CleanupIdle(ctx); removed > 0 {
				log.Debug("Session cleanup finished", "removed", removed)
			}
		}
	}
}
