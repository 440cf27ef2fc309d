package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/agentarena/gungi-backend/internal/config"
	"github.com/agentarena/gungi-backend/internal/repository"
	"github.com/agentarena/gungi-backend/internal/repository/ledger"
	"github.com/agentarena/gungi-backend/internal/repository/storage"
	"github.com/agentarena/gungi-backend/internal/service"
	"github.com/agentarena/gungi-backend/internal/usecase"
	"github.com/agentarena/gungi-backend/transport/rest"
	"github.com/agentarena/gungi-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

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

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sqliteStorage, err := storage.NewSQLiteStorage(conf.Ledger.Path)
	if err != nil {
		return fmt.Errorf("could not open ledger storage: %w", err)
	}

	defer func() {
		if err = sqliteStorage.Close(); err != nil {
			log.Error("could not close ledger storage", "error", err)
		}
	}()

	moveLedger, err := ledger.New(ctx, sqliteStorage.Connection)
	if err != nil {
		return fmt.Errorf("could not prepare move ledger: %w", err)
	}

	participantRepo := repository.NewParticipantRepository(redisStorage.Connection)
	archiveRepo := repository.NewArchiveRepository(redisStorage.Connection)

	participantService := service.NewParticipantService(participantRepo)
	agentService := service.NewAgentService(logger, conf.Agent.ThinkDelay)
	events := service.NewBroadcaster(logger)

	registry := usecase.NewMatchRegistry(
		logger,
		agentService,
		moveLedger,
		archiveRepo,
		events,
		conf.Agent.MoveTimeout,
		conf.Ledger.Required,
	)

	restHandlers := rest.NewHandlers(logger, registry, participantService, archiveRepo)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, conf.HTTPPort, restHandlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, registry, events)
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
