package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/caarlos0/env/v6"
	"github.com/milotrack/milo-price-tracker/cmd/tracker/config"
	"github.com/milotrack/milo-price-tracker/internal/aggregate"
	"github.com/milotrack/milo-price-tracker/internal/cache"
	"github.com/milotrack/milo-price-tracker/internal/extract"
	"github.com/milotrack/milo-price-tracker/internal/handler"
	"github.com/milotrack/milo-price-tracker/internal/match"
	"github.com/milotrack/milo-price-tracker/internal/normalize"
	"github.com/milotrack/milo-price-tracker/internal/platform/rabbitmq"
	"github.com/milotrack/milo-price-tracker/internal/platform/storage"
	"github.com/milotrack/milo-price-tracker/internal/scheduler"
	"github.com/milotrack/milo-price-tracker/internal/scraper"
	"github.com/milotrack/milo-price-tracker/internal/server"
	"github.com/milotrack/milo-price-tracker/internal/tracker"
	"github.com/milotrack/milo-price-tracker/internal/vocab"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	var cfg config.Config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't parse env variables")
	}

	voc, err := vocab.Load(cfg.VocabPath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't load vocabulary")
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		logger.Fatal().
			Err(err).
			Msg("can't open database")
	}

	snapshots := cache.New()

	trk := tracker.NewTracker(
		[]tracker.Platform{
			scraper.NewFairPrice(),
			scraper.NewShopee(),
			scraper.NewLazada(),
			scraper.NewShengSiong(),
			scraper.NewGiant(),
		},
		extract.NewExtractor(voc),
		normalize.NewNormalizer(voc),
		aggregate.NewAggregator(match.NewMatcher(), voc.PlatformPriority),
		db,
		snapshots,
		&logger,
		tracker.WithMaxAge(cfg.CacheMaxAge),
	)

	// consuming refresh commands is optional, the scheduler alone keeps the
	// cache warm
	var amqpConnection *amqp.Connection
	var conn *rabbitmq.RabbitMQ
	if cfg.RabbitMQ.URL != "" {
		amqpConnection, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't open RabbitMQ connection")
		}

		conn, err = rabbitmq.NewRabbitMQ(amqpConnection, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't open RabbitMQ channel")
		}

		han := handler.NewHandler(conn, trk, &logger)
		if err := han.Start(ctx, cfg.RabbitMQ.Queue); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't start consuming")
		}
	}

	go scheduler.NewWorker(trk, cfg.RefreshInterval, cfg.SearchQuery, &logger).Run(ctx)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.NewServer(trk, db, &logger, cfg.SearchQuery).Router(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Msg("http server failed")
			cancel()
		}
	}()

	logger.Info().
		Str("addr", cfg.HTTPAddr).
		Str("query", cfg.SearchQuery).
		Msg("milo price tracker up and running")

	// handle graceful shutdown and context cancellation
	termChan := make(chan os.Signal, 1)
	signal.Notify(termChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-termChan:
		cancel()
	case <-ctx.Done():
	}

	logger.Info().Msg("graceful shutdown start")

	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error().
			Err(err).
			Msg("can't shut down http server")
	}

	// wait for consumer to finish
	if conn != nil {
		<-conn.Done()
	}

	// close connections
	wg := sync.WaitGroup{}
	wg.Add(1)

	go func() {
		defer wg.Done()
		if err := db.Close(); err != nil {
			logger.Fatal().
				Err(err).
				Msg("can't close database")
		}
	}()

	if amqpConnection != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := amqpConnection.Close(); err != nil {
				logger.Fatal().
					Err(err).
					Msg("can't close RabbitMQ connection")
			}
		}()
	}

	wg.Wait()

	logger.Info().Msg("graceful shutdown successful")
}
