package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/actout/actout/internal/config"
	"github.com/actout/actout/internal/content"
	"github.com/actout/actout/internal/events"
	"github.com/actout/actout/internal/gateway"
	"github.com/actout/actout/internal/httpapi"
	"github.com/actout/actout/internal/registry"
	"github.com/actout/actout/internal/room"
	"github.com/actout/actout/internal/scoring"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg)

	gameCfg, err := config.LoadGameConfig(cfg.GameConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load game config")
	}
	table, err := scoring.NewTable(gameCfg.ScoringTiers)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid scoring tiers")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Content catalog: Postgres when configured, otherwise the seeded
	// in-memory catalog for local play.
	var store content.Store
	if cfg.DatabaseURL != "" {
		pg, err := content.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pg.Close()
		store = pg
		log.Info().Msg("using postgres content store")
	} else {
		store = content.NewSeededMemoryStore()
		log.Info().Msg("using in-memory content store")
	}

	// Optional event mirror for external consumers.
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATSURL != "" {
		js, err := events.NewJetStreamPublisher(ctx, events.DefaultJetStreamPublisherConfig(cfg.NATSURL))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		defer js.Close()
		publisher = js
		log.Info().Str("nats_url", cfg.NATSURL).Msg("event publishing enabled")
	}

	reg := registry.New(store, registry.Options{
		GameConfig: gameCfg,
		RoomOptions: room.Options{
			Scoring:   table,
			Publisher: publisher,
		},
		LobbyTTL:    cfg.LobbyTTL,
		FinishedTTL: cfg.FinishedTTL,
	})
	hub := gateway.NewHub(reg, gateway.DefaultConnectionConfig())
	reg.Bind(hub, hub)

	go hub.Run(ctx)
	go reg.Run(ctx)

	api := httpapi.New(reg, hub, store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}).Handler)
	api.Routes(r)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	reg.CloseAll()
	cancel()

	log.Info().Msg("server shutdown complete")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
