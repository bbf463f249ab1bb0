package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/countboard/countboard/internal/events"
	"github.com/countboard/countboard/internal/live"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	config, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := setupDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to setup database")
	}
	defer database.Close()

	if err := migrate(ctx, database); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if config.NATS.Enabled {
		natsPublisher, err := events.NewNATSPublisher(config.NATS.URL, config.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event publisher")
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	hub := live.NewHub(live.DefaultConfig())
	go hub.Start(ctx)

	if config.NATS.Enabled {
		consumer, err := live.NewEventConsumer(hub, config.NATS.URL, config.NATS.SubjectPrefix)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to start live event consumer")
		}
		defer consumer.Close()
	}

	services := setupServices(database, config, publisher)
	server := setupServer(config, services, live.NewHandler(hub))

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
