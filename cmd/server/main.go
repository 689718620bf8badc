package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/config"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/common/logger"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host"
	orderservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/order/service"
	profileservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/profile/service"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository/memory"
	sessionredis "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/repository/redis"
	sessionservice "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/session/service"
	apphttp "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/http"
	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/metrics"
	redisplatform "github.com/AlexHorzhij/spravzhnya-tg-orders/internal/platform/redis"
)

// @title           Order Mini App API
// @version         1.0
// @description     Backend of the Telegram order mini-app. Sessions work with or without Telegram init data.

// @BasePath  /api/v1

// @tag.name sessions
// @tag.description Order form sessions - hydration, edits and submission

const sweepInterval = time.Minute

func main() {
	// Create cancellable root context for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	logger.Init("spravzhnya-tg-orders", cfg.Debug)

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load order time zone")
	}

	var locker repository.Locker = memory.NewLocker()
	if cfg.Redis.Enabled {
		rdb, err := redisplatform.Open(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		locker = sessionredis.NewLocker(rdb.Client)
		logger.Info().Str("addr", cfg.RedisAddr()).Msg("Redis submit lock enabled")
	}

	store := memory.NewStore[*sessionservice.Session](cfg.Session.TTL,
		memory.WithEvict[*sessionservice.Session](func(_ string, s *sessionservice.Session) { s.Close() }),
		memory.WithSizeObserver[*sessionservice.Session](metrics.SetActiveSessions),
	)
	go store.Run(ctx, sweepInterval)

	webhookClient := &http.Client{Timeout: cfg.Webhooks.Timeout}
	sessions := sessionservice.NewSessionService(
		host.NewDetector(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL, cfg.Debug),
		profileservice.NewHydrator(profileservice.NewFetcher(cfg.Webhooks.ProfileURL, webhookClient)),
		orderservice.NewSubmitter(
			orderservice.NewSender(cfg.Webhooks.OrderURL, webhookClient),
			orderservice.Clock{Locale: cfg.Order.Locale, Location: loc},
		),
		store,
		locker,
		sessionservice.Config{SubmitLockTTL: cfg.Session.SubmitLockTTL},
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:     apphttp.NewRouter(cfg, sessions),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: state event streams stay open for the whole session.
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	sessions.Wait()

	logger.Info().Msg("Server exited")
}
