// @title                       Service Marketplace API
// @version                     1.0
// @description                 Clients request catalog services from providers, converse on each request and rate finished work.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/simplify/marketplace-api/docs"
	"github.com/simplify/marketplace-api/internal/api"
	"github.com/simplify/marketplace-api/internal/api/middleware"
	"github.com/simplify/marketplace-api/internal/core/ports"
	"github.com/simplify/marketplace-api/internal/core/service"
	mongodb "github.com/simplify/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/simplify/marketplace-api/internal/infrastructure/db/redis"
	infrahttp "github.com/simplify/marketplace-api/internal/infrastructure/http"
	"github.com/simplify/marketplace-api/internal/infrastructure/http/handlers"
	"github.com/simplify/marketplace-api/internal/infrastructure/queue"
	"github.com/simplify/marketplace-api/internal/pkg/config"
	"github.com/simplify/marketplace-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("mongo index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	stores := service.Stores{
		Accounts:  mongodb.NewAccountRepository(db),
		Offerings: mongodb.NewOfferingRepository(db),
		Requests:  mongodb.NewRequestRepository(db),
		Messages:  mongodb.NewMessageRepository(db),
		Ratings:   mongodb.NewRatingRepository(db),
		Tx:        mongodb.NewTransactor(mongoClient),
	}

	// --- Lifecycle events ---
	var sink ports.EventSink
	if cfg.AMQP.URL != "" {
		publisher := queue.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.Component("amqp"))
		defer publisher.Close()
		sink = publisher
	} else {
		log.Warn().Msg("AMQP_URL not set, lifecycle events are written to the log")
		sink = queue.NewLogSink(logger.Component("events"))
	}
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.AMQP.Workers, sink, logger.Component("dispatcher"))
	dispatcher.Start(dispatcherCtx)

	// --- Services ---
	authService := service.NewAuthService(stores, cfg.JWTSecret, cfg.TokenTTL, logger.Component("auth"))
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatal().Err(err).Msg("admin bootstrap failed")
		}
	}
	requestService := service.NewRequestService(
		stores,
		dispatcher,
		redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		service.RequestOptions{RetainRejected: cfg.RetainRejected},
		logger.Component("requests"),
	)

	e := api.NewRouter(api.Dependencies{
		Auth:     authService,
		Catalog:  service.NewCatalogService(stores, logger.Component("catalog")),
		Requests: requestService,
		Messages: service.NewMessageService(stores.Requests, stores.Messages, logger.Component("messages")),
		Ratings:  service.NewRatingService(stores, dispatcher, logger.Component("ratings")),
		Redis:    rdb,
		RateLimit: middleware.RateLimitConfig{
			Enabled:        cfg.RateLimit.Enabled,
			Capacity:       cfg.RateLimit.Capacity,
			RefillTokens:   1,
			RefillInterval: cfg.RateLimit.RefillInterval,
		},
		Log: logger.Component("http"),
	})
	infrahttp.RegisterOps(e, prometheus.DefaultGatherer,
		handlers.MongoCheck(db),
		handlers.RedisCheck(rdb),
	)

	// --- Serve ---
	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}

	cancelDispatcher()
	dispatcher.Wait()
	log.Info().Msg("stopped")
}
