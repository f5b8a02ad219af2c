package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/chatroom/presence-api/internal/api"
	"github.com/chatroom/presence-api/internal/config"
	"github.com/chatroom/presence-api/internal/db"
	"github.com/chatroom/presence-api/internal/domain"
	"github.com/chatroom/presence-api/internal/logger"
	"github.com/chatroom/presence-api/internal/repository"
	"github.com/chatroom/presence-api/internal/repository/dao"
	"github.com/chatroom/presence-api/internal/repository/memory"
	"github.com/chatroom/presence-api/internal/service"
	"github.com/chatroom/presence-api/internal/stream"
	"github.com/chatroom/presence-api/internal/worker"
)

const shutdownTimeout = 10 * time.Second

type participantStore interface {
	service.ParticipantRepository
	worker.ParticipantStore
}

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	participants, messages, err := openStores(conf)
	if err != nil {
		return fmt.Errorf("failed to initialize store -> %w", err)
	}

	clock := domain.SystemClock{}
	hub := stream.NewHub(conf.Chat.BroadcastTarget)
	published := stream.NewPublishingStore(messages, hub)

	s := api.NewServer(conf, participants, published, hub, clock)
	reaper := worker.NewReaper(participants, published, hub, clock, conf.Presence, conf.Chat, zap.L())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("presence reaper stopped", zap.Error(err))
		}
	}()

	addr := ":" + s.Config.API.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		zap.L().Info(fmt.Sprintf("starting server at %v", addr), zap.String("store", conf.Store.Driver))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down")
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down the server -> %w", err)
	}

	return nil
}

func openStores(conf *config.AppConfig) (participantStore, stream.MessageStore, error) {
	if conf.Store.Driver == config.StoreDriverMemory {
		return memory.NewParticipantStore(), memory.NewMessageStore(), nil
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	var err error
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database -> %w", err)
	}

	participants := repository.NewParticipantRepository(dao.NewParticipantDAO(postgresDB))
	messages := repository.NewMessageRepository(dao.NewMessageDAO(postgresDB))

	return participants, messages, nil
}
