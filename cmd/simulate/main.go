package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MADMAX-9999/reb20app/internal/config"
	"github.com/MADMAX-9999/reb20app/internal/database"
	"github.com/MADMAX-9999/reb20app/internal/feed"
	"github.com/MADMAX-9999/reb20app/internal/logger"
	"github.com/MADMAX-9999/reb20app/internal/market"
	"github.com/MADMAX-9999/reb20app/internal/simulation"
	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "could not load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded", zap.String("simulation", cfg.Simulation.Name))

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := feed.NewClient(&cfg.Feed, log)

	series, err := loadPrices(ctx, client, &cfg.Feed)
	if err != nil {
		log.Fatal("Failed to load price series", zap.Error(err))
	}
	if series.Len() == 0 {
		log.Fatal("Price series has no complete rows", zap.String("currency", cfg.Feed.Currency))
	}
	inflation, err := loadInflation(ctx, client, &cfg.Feed, series)
	if err != nil {
		log.Fatal("Failed to load inflation table", zap.Error(err))
	}
	log.Info("Market data loaded",
		zap.Int("rows", series.Len()),
		zap.Time("first", series.First()),
		zap.Time("last", series.Last()),
		zap.Int("inflation_years", len(inflation)))

	policy, err := simulation.PolicyFromConfig(cfg.Simulation, series)
	if err != nil {
		log.Fatal("Invalid simulation policy", zap.Error(err))
	}

	started := time.Now()
	result, err := simulation.NewEngine(log).Run(ctx, series, policy)
	if err != nil {
		log.Fatal("Simulation failed", zap.Error(err))
	}

	valued, err := simulation.Valuate(result, series, policy.Pricing, inflation)
	if err != nil {
		log.Fatal("Failed to valuate simulation history", zap.Error(err))
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	run, err := database.NewRun(cfg.Simulation, series.Currency, policy, valued)
	if err != nil {
		log.Fatal("Failed to build simulation run", zap.Error(err))
	}
	if err := database.SaveRun(db, run); err != nil {
		log.Fatal("Failed to save simulation run", zap.Error(err))
	}

	log.Info("Simulation finished",
		zap.Uint("run_id", run.ID),
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("records", len(run.Entries)),
		zap.Float64("invested_capital", run.InvestedCapital),
		zap.Float64("market_value", run.MarketValue),
		zap.Float64("real_value", run.RealValue),
		zap.Int("rebalances", run.Rebalances),
		zap.Int("skipped_rebalances", run.SkippedRebalances),
		zap.Float64("fees_collected", run.FeesCollected))
}

// loadPrices downloads the price table when a URL is configured and reads the
// local file otherwise.
func loadPrices(ctx context.Context, client *feed.Client, cfg *config.Feed) (*market.Series, error) {
	if cfg.PricesURL != "" {
		return client.FetchPrices(ctx, cfg.PricesURL)
	}
	return feed.LoadPricesFile(cfg.PricesPath, cfg.Currency)
}

// loadInflation reads the inflation table from the configured source. Without
// one, every year of the series gets zero inflation and real values equal
// nominal values.
func loadInflation(ctx context.Context, client *feed.Client, cfg *config.Feed, series *market.Series) (market.Inflation, error) {
	switch {
	case cfg.InflationURL != "":
		return client.FetchInflation(ctx, cfg.InflationURL)
	case cfg.InflationPath != "":
		return feed.LoadInflationFile(cfg.InflationPath)
	}
	none := market.Inflation{}
	for y := series.First().Year(); y <= series.Last().Year(); y++ {
		none[y] = 0
	}
	return none, nil
}
