package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/joho/godotenv"

	"github.com/chatledger/chatledger/internal/config"
	"github.com/chatledger/chatledger/internal/ledger/mongostore"
	"github.com/chatledger/chatledger/internal/logger"
	"github.com/chatledger/chatledger/internal/normalize"
	"github.com/chatledger/chatledger/internal/notion"
)

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	scope := flag.String("scope", "", "owning chat scope (required)")
	month := flag.String("month", "", "month to export (YYYY-MM, default current)")
	dryRun := flag.Bool("dry-run", false, "preview what would be exported without writing")
	flag.Parse()

	if *scope == "" {
		log.Fatal().Msg("Error: --scope is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Notion.Token == "" || cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: notion token and database id are required (config or NOTION_TOKEN / NOTION_DATABASE_ID)")
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve timezone")
	}
	clock := normalize.NewClock(loc)

	m := *month
	if m == "" {
		m = clock.CurrentMonth()
	}
	if !monthPattern.MatchString(m) {
		log.Fatal().Str("month", m).Msg("Error: month must look like YYYY-MM")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			log.Warn().Err(err).Msg("failed to close MongoDB client")
		}
	}()

	exporter := notion.NewExporter(store, notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID, log)

	res, err := exporter.Export(ctx, *scope, m, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}

	if *dryRun {
		fmt.Printf("[dry run] would create %d pages, skip %d for %s\n", res.Created, res.Skipped, m)
		return
	}
	fmt.Printf("Created %d pages, skipped %d existing for %s\n", res.Created, res.Skipped, m)
}
