package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/labconnect/medtest-booking/internal/config"
	"github.com/labconnect/medtest-booking/internal/handler"
	"github.com/labconnect/medtest-booking/internal/queue"
	"github.com/labconnect/medtest-booking/internal/repository"
	"github.com/labconnect/medtest-booking/internal/router"
	"github.com/labconnect/medtest-booking/internal/service"
	"github.com/labconnect/medtest-booking/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return err
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		return err
	}
	defer db.Close()
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to database")

	policy, err := service.TransitionPolicyFor(cfg.Pipeline.TransitionMode)
	if err != nil {
		return err
	}

	minioClient, err := storage.NewMinioClient(cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("object storage client failed")
		return err
	}
	artifacts := storage.NewMinioStore(minioClient, cfg.Storage, log)

	var events service.EventPublisher = queue.NopPublisher{}
	if cfg.Broker.Enabled {
		events = queue.NewPublisher(cfg.Broker.URL, log)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	offerings := repository.NewOfferingRepo(db)
	bookings := repository.NewBookingRepo(db)
	orders := repository.NewOrderRepo(db)
	catalog := repository.NewCatalogRepo(db)

	pricing := service.NewPricingResolver(offerings)
	bookingSvc := service.NewBookingService(pricing, bookings, events, log)
	orderSvc := service.NewOrderService(orders)
	pipeline := service.NewStatusPipeline(bookings, artifacts, events, policy, cfg.Storage.MaxBytes, log)

	e := router.New(router.Handlers{
		Health:     handler.Health(db),
		Catalog:    handler.NewCatalogHandler(catalog),
		Bookings:   handler.NewBookingHandler(bookingSvc, pricing, orderSvc),
		Superadmin: handler.NewSuperadminHandler(orderSvc, pipeline),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		RateLimit: cfg.RateLimit,
		Cache:     cfg.Cache,
		Redis:     rdb,
		Log:       log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("transition_mode", policy.Mode()).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
