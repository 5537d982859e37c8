package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quantscope/equity-analyzer/internal/clients/fmp"
	"github.com/quantscope/equity-analyzer/internal/clients/yahoo"
	"github.com/quantscope/equity-analyzer/internal/config"
	"github.com/quantscope/equity-analyzer/internal/database"
	"github.com/quantscope/equity-analyzer/internal/modules/history"
	"github.com/quantscope/equity-analyzer/internal/modules/market"
	"github.com/quantscope/equity-analyzer/internal/modules/ranking"
	"github.com/quantscope/equity-analyzer/internal/modules/rebalancing"
	"github.com/quantscope/equity-analyzer/internal/modules/reports"
	"github.com/quantscope/equity-analyzer/internal/modules/selection"
	"github.com/quantscope/equity-analyzer/internal/modules/trend"
	"github.com/quantscope/equity-analyzer/internal/scheduler"
	"github.com/quantscope/equity-analyzer/internal/server"
	"github.com/quantscope/equity-analyzer/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New(logger.Config{Level: "info", Pretty: true})
		bootstrap.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting Equity Analyzer")

	// Initialize database (price history cache)
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	// Initialize data provider clients
	fmpClient := fmp.NewClient(fmp.Config{
		BaseURL: cfg.FMPBaseURL,
		APIKey:  cfg.FMPAPIKey,
	}, log)
	yahooClient := yahoo.NewClient(cfg.YahooBaseURL, log)

	priceCache, err := history.NewCache(db, yahooClient, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize price cache")
	}

	strategy := &cfg.Strategy

	// Fundamental ranking engine
	rankingService := ranking.NewService(fmpClient, fmpClient, log)
	rankingRepo := ranking.NewRepository(strategy.Paths.StockScores, log)
	rankingOpts := ranking.Options{
		UniverseLimit: strategy.Ranking.UniverseLimit,
		Years:         strategy.Ranking.Years,
		Weights: ranking.Weights{
			ROCEGrowth:                 strategy.Ranking.Weights.ROCEGrowth,
			ROCECurrentYear:            strategy.Ranking.Weights.ROCECurrentYear,
			OperatingMarginGrowth:      strategy.Ranking.Weights.OperatingMarginGrowth,
			OperatingMarginCurrentYear: strategy.Ranking.Weights.OperatingMarginLevel,
			RevenueGrowthCurrentYear:   strategy.Ranking.Weights.RevenueGrowth,
		},
	}

	// Technical trend detector
	detector := trend.NewDetector(strategy.TrendDetection, log)
	pricePeriod := strategy.TrendDetection.Thresholds.PriceDataPeriod

	// Portfolio rebalancer
	rebalancingService := rebalancing.NewService(priceCache, log)

	// Position selection
	selectionService := selection.NewService(
		rankingRepo,
		fmpClient,
		priceCache,
		fmpClient,
		detector,
		strategy.StockFilters,
		pricePeriod,
		log,
	)
	selectionRepo := selection.NewRepository(log)

	// Market regime and dual momentum
	marketService := market.NewService(priceCache, fmpClient, strategy.Market.Indexes, log)

	// Report output
	formatter := reports.NewFormatter(strategy.Paths.Reports, log)

	// Initialize scheduler
	sched := scheduler.New(log)

	analysisJob := scheduler.NewAnalysisJob(scheduler.AnalysisConfig{
		Log:       log,
		Strategy:  strategy,
		Ranking:   rankingService,
		RankRepo:  rankingRepo,
		Selection: selectionService,
		SelRepo:   selectionRepo,
		Market:    marketService,
		Reports:   formatter,
	})
	rebalanceJob := scheduler.NewRebalanceJob(strategy, rebalancingService, formatter, log)

	// After market close on weekdays, before open on Mondays
	if err := sched.AddJob("0 18 * * MON-FRI", analysisJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register analysis job")
	}
	if err := sched.AddJob("0 7 * * MON", rebalanceJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register rebalance job")
	}

	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,
		Handlers: server.Handlers{
			Ranking:     ranking.NewHandler(rankingService, rankingRepo, rankingOpts, log),
			Trend:       trend.NewHandler(detector, priceCache, pricePeriod, log),
			Rebalancing: rebalancing.NewHandler(rebalancingService, strategy.Portfolio, log),
			Selection:   selection.NewHandler(selectionService, log),
			Market:      market.NewHandler(marketService, log),
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
