package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatledger/chatledger/internal/api"
	"github.com/chatledger/chatledger/internal/api/handlers"
	"github.com/chatledger/chatledger/internal/archive"
	"github.com/chatledger/chatledger/internal/category"
	"github.com/chatledger/chatledger/internal/config"
	"github.com/chatledger/chatledger/internal/extract"
	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/ledger/inmemory"
	"github.com/chatledger/chatledger/internal/ledger/mongostore"
	"github.com/chatledger/chatledger/internal/logger"
	"github.com/chatledger/chatledger/internal/normalize"
	"github.com/chatledger/chatledger/internal/recognizer"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file (or set CONFIG_PATH env)")
		listenAddr = flag.String("listen", "", "listen address, overrides config")
		memStore   = flag.Bool("mem-store", false, "use the in-memory store instead of MongoDB (development only)")
	)
	flag.Parse()

	// Secrets usually arrive via a .env file in development.
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve timezone")
	}
	clock := normalize.NewClock(loc)

	ctx := context.Background()

	var store ledger.Store
	if *memStore {
		log.Warn().Msg("using in-memory store, records are lost on shutdown")
		store = inmemory.New(clock)
	} else {
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		mongoStore, err := mongostore.Connect(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, clock)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mongoStore.Close(closeCtx); err != nil {
				log.Warn().Err(err).Msg("failed to close MongoDB client")
			}
		}()

		indexCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = mongoStore.EnsureIndexes(indexCtx)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to ensure indexes")
		}
		store = mongoStore
	}

	rec, err := recognizer.New(ctx, cfg.Recognizer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recognizer")
	}

	archiver, err := archive.New(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create screenshot archiver")
	}
	if archiver == nil {
		log.Warn().Msg("no archive bucket configured, screenshot archival disabled")
	}
	defer archiver.Close()

	classifier := category.New(cfg.Categories)
	pipeline := extract.New(rec, classifier, clock, cfg.Recognizer.Timeout.Std(), log)

	h := handlers.NewLedgerHandler(store, pipeline, archiver, clock, cfg.ListLimit, log)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      api.NewRouter(h, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
