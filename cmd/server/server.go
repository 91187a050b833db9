package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/thereayou/hr-portal/internal/cache"
	"github.com/thereayou/hr-portal/internal/chat"
	"github.com/thereayou/hr-portal/internal/config"
	"github.com/thereayou/hr-portal/internal/database"
	"github.com/thereayou/hr-portal/internal/handlers"
	"github.com/thereayou/hr-portal/internal/identity"
	"github.com/thereayou/hr-portal/internal/middleware"
	"github.com/thereayou/hr-portal/internal/moderation"
	ws "github.com/thereayou/hr-portal/internal/websocket"
	"github.com/thereayou/hr-portal/pkg/auth"
	"github.com/thereayou/hr-portal/pkg/logger"
)

type Server struct {
	Router     *gin.Engine
	Store      database.Store
	Cache      *cache.Cache
	Events     *cache.EventBus
	Hub        *ws.Hub
	Engine     *chat.Engine
	JWTManager *auth.JWTManager

	cfg config.Config
	log zerolog.Logger
}

func NewServer() (*Server, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogLevel)

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{Store: store, cfg: cfg, log: log}

	if cfg.RedisURL != "" {
		c, err := cache.Connect(context.Background(), cfg.RedisURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis connect failed: %w", err)
		}
		s.Cache = c
		s.Events = c.EventBus(log)
	} else {
		log.Warn().Msg("REDIS_URL not set, presence and events stay local to this instance")
	}

	mask, err := cfg.CensorRune()
	if err != nil {
		return nil, err
	}
	censor, err := moderation.NewCensor(cfg.Words(), mask)
	if err != nil {
		return nil, err
	}

	s.Hub = ws.NewHub(log, s.presenceHook())

	var presence identity.Presence = s.Hub
	notifier := chat.Notifier(s.Hub)
	if s.Cache != nil {
		presence = s.Cache
		notifier = chat.Fanout(s.Hub, s.Events)
	}

	s.Engine = chat.New(store, chat.Options{
		UniqueRoomNames: cfg.RoomUniqueNames,
		Notifier:        notifier,
		Directory:       identity.NewDirectory(store, presence, log),
		Censor:          censor,
		Logger:          log,
	})

	s.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	var revoked middleware.Revocations
	if s.Cache != nil {
		revoked = s.Cache
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	APIEndpoints(router, Handlers{
		Rooms:     handlers.NewRoomHandler(s.Engine),
		Messages:  handlers.NewMessageHandler(s.Engine, cfg.HistoryLimit),
		Health:    handlers.NewHealthHandler(s.Engine),
		WebSocket: handlers.NewWebSocketHandler(s.Hub, handlers.NewFrameHandler(s.Engine, s.Hub), cfg.AllowedOrigins()),
		Auth:      middleware.AuthMiddleware(s.JWTManager, revoked),
	})
	s.Router = router

	return s, nil
}

func openStore(cfg config.Config) (database.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverBadger:
		return database.OpenBadger(cfg.BadgerPath)
	default:
		db, err := database.Connect(cfg.DatabaseURL, cfg.RoomUniqueNames)
		if err != nil {
			return nil, fmt.Errorf("postgres connect failed: %w", err)
		}
		return db, nil
	}
}

// presenceHook mirrors first-connect and last-disconnect into redis.
func (s *Server) presenceHook() ws.PresenceHook {
	if s.Cache == nil {
		return nil
	}
	return func(ctx context.Context, userID uuid.UUID, online bool) {
		var err error
		if online {
			err = s.Cache.SetOnline(ctx, userID, cache.PresenceTTL)
		} else {
			err = s.Cache.SetOffline(ctx, userID)
		}
		if err != nil {
			s.log.Warn().Err(err).Str("user", userID.String()).Msg("presence update failed")
		}
	}
}

func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go s.Hub.Run()
	if s.Events != nil {
		go func() {
			if err := s.Events.Run(ctx, s.Hub); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).Msg("event bus stopped")
			}
		}()
	}

	httpServer := &http.Server{Addr: s.cfg.Addr(), Handler: s.Router}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", httpServer.Addr).Str("store", s.cfg.StoreDriver).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.close()
			return fmt.Errorf("server run error: %w", err)
		}
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.close()
	return err
}

func (s *Server) close() {
	s.Hub.Stop()
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			s.log.Warn().Err(err).Msg("redis close failed")
		}
	}
	if err := s.Store.Close(); err != nil {
		s.log.Warn().Err(err).Msg("store close failed")
	}
}
