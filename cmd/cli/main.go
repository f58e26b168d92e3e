package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/chatledger/chatledger/internal/category"
	"github.com/chatledger/chatledger/internal/config"
	"github.com/chatledger/chatledger/internal/extract"
	"github.com/chatledger/chatledger/internal/ledger"
	"github.com/chatledger/chatledger/internal/ledger/mongostore"
	"github.com/chatledger/chatledger/internal/logger"
	"github.com/chatledger/chatledger/internal/normalize"
	"github.com/chatledger/chatledger/internal/recognizer"
	"github.com/chatledger/chatledger/internal/report"
)

func main() {
	_ = godotenv.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "add":
		runAdd(log)
	case "list":
		runList(log)
	case "edit":
		runEdit(log)
	case "delete":
		runDelete(log)
	case "report":
		runReport(log)
	case "export":
		runExport(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Chat Ledger CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  add      Record an expense from free text")
	fmt.Println("  list     List records of a month")
	fmt.Println("  edit     Edit fields of a record (key=value pairs)")
	fmt.Println("  delete   Delete records by id")
	fmt.Println("  report   Print the monthly summary")
	fmt.Println("  export   Export a month as CSV")
	fmt.Println("  help     Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

// env bundles what every subcommand needs.
type env struct {
	cfg   *config.Config
	clock *normalize.Clock
	store *mongostore.Store
}

func setup(log zerolog.Logger, configPath string) *env {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve timezone")
	}
	clock := normalize.NewClock(loc)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection, clock)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	return &env{cfg: cfg, clock: clock, store: store}
}

func (e *env) close(log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.store.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to close MongoDB client")
	}
}

func commonFlags(fs *flag.FlagSet) (configPath, scope *string) {
	configPath = fs.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	scope = fs.String("scope", "", "owning chat scope (required)")
	return
}

func requireScope(log zerolog.Logger, scope string) {
	if scope == "" {
		log.Fatal().Msg("Error: --scope is required")
	}
}

func runAdd(log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		log.Fatal().Msg("Error: expense text is required, e.g. cli add -scope home 午饭 麦当劳 32块")
	}

	e := setup(log, *configPath)
	defer e.close(log)

	rec, err := recognizer.New(context.Background(), e.cfg.Recognizer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create recognizer")
	}
	pipeline := extract.New(rec, category.New(e.cfg.Categories), e.clock, e.cfg.Recognizer.Timeout.Std(), log)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cand, err := pipeline.FromText(ctx, text)
	if err != nil {
		log.Fatal().Err(err).Msg("extraction failed")
	}

	stored, err := e.store.Insert(ctx, &ledger.Record{
		OwnerScope: scope,
		Amount:     cand.Amount,
		Category:   cand.Category,
		Payee:      cand.Payee,
		TimeLocal:  cand.TimeLocal,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("insert failed")
	}
	fmt.Println(ledger.Line(stored))
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	month := fs.String("month", "", "month to list (YYYY-MM, default current)")
	limit := fs.Int("limit", 0, "max records (default from config)")
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)

	e := setup(log, *configPath)
	defer e.close(log)

	m := *month
	if m == "" {
		m = e.clock.CurrentMonth()
	}
	n := *limit
	if n <= 0 {
		n = e.cfg.ListLimit
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := e.store.ListMonth(ctx, *scope, m, n)
	if err != nil {
		log.Fatal().Err(err).Msg("list failed")
	}
	if len(recs) == 0 {
		fmt.Printf("No records for %s.\n", m)
		return
	}
	for i, rec := range recs {
		fmt.Printf("%02d. %s\n", i+1, ledger.DisplayLine(rec))
	}
}

func runEdit(log zerolog.Logger) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	id := fs.String("id", "", "record id (required)")
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)
	if *id == "" {
		log.Fatal().Msg("Error: --id is required")
	}

	pairs := normalize.ParseKVPairs(strings.Join(fs.Args(), " "))
	upd, err := ledger.ParseUpdate(pairs)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid update")
	}

	e := setup(log, *configPath)
	defer e.close(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	old, err := e.store.Get(ctx, *id, *scope)
	if err != nil {
		log.Fatal().Err(err).Msg("record not found")
	}

	rec, err := e.store.Update(ctx, *id, *scope, upd)
	if err != nil {
		log.Fatal().Err(err).Msg("update failed")
	}
	fmt.Println("updated:")
	fmt.Printf("old: %s\n", ledger.Line(old))
	fmt.Printf("new: %s\n", ledger.Line(rec))
}

func runDelete(log zerolog.Logger) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)

	ids := splitIDs(fs.Args())
	if len(ids) == 0 {
		log.Fatal().Msg("Error: at least one record id is required")
	}

	e := setup(log, *configPath)
	defer e.close(log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res, err := e.store.Delete(ctx, ids, *scope)
	if err != nil {
		log.Fatal().Err(err).Msg("delete failed")
	}
	fmt.Printf("deleted=%d not_found=%d invalid=%d\n", res.Deleted, res.NotFound, len(res.Invalid))
	for _, id := range res.Invalid {
		fmt.Printf("invalid id: %s\n", id)
	}
}

// splitIDs accepts ids separated by spaces, commas or both.
func splitIDs(args []string) []string {
	var ids []string
	for _, arg := range args {
		for _, id := range strings.Split(arg, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func runReport(log zerolog.Logger) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	month := fs.String("month", "", "month to summarize (YYYY-MM, default current)")
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)

	e := setup(log, *configPath)
	defer e.close(log)

	m := *month
	if m == "" {
		m = e.clock.CurrentMonth()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := e.store.ListMonth(ctx, *scope, m, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("list failed")
	}
	fmt.Println(report.Build(m, recs).Render())
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	configPath, scope := commonFlags(fs)
	month := fs.String("month", "", "month to export (YYYY-MM, default current)")
	out := fs.String("out", "", "output file (default <month>.csv)")
	fs.Parse(os.Args[2:])
	requireScope(log, *scope)

	e := setup(log, *configPath)
	defer e.close(log)

	m := *month
	if m == "" {
		m = e.clock.CurrentMonth()
	}
	path := *out
	if path == "" {
		path = "expenses-" + m + ".csv"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	recs, err := e.store.ListMonth(ctx, *scope, m, 0)
	if err != nil {
		log.Fatal().Err(err).Msg("list failed")
	}

	f, err := os.Create(path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create output file")
	}
	defer f.Close()

	if err := report.WriteCSV(f, recs); err != nil {
		log.Fatal().Err(err).Msg("export failed")
	}
	fmt.Printf("Wrote %d records to %s\n", len(recs), path)
}
