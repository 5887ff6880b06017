package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/darkalpha/marketscout/internal/config"
	"github.com/darkalpha/marketscout/internal/dedup"
	"github.com/darkalpha/marketscout/internal/feeds"
	"github.com/darkalpha/marketscout/internal/generator"
	"github.com/darkalpha/marketscout/internal/logger"
	"github.com/darkalpha/marketscout/internal/market"
	"github.com/darkalpha/marketscout/internal/pipeline"
	"github.com/darkalpha/marketscout/internal/scorer"
	"github.com/darkalpha/marketscout/internal/storage"
	"github.com/darkalpha/marketscout/internal/telegram"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Optional .env with provider API keys; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	var journal *storage.Journal
	if cfg.Storage.Enabled {
		journal, err = storage.New(cfg.Storage.MaxCreations, cfg.Storage.DBPath)
		if err != nil {
			logger.Fatal("Failed to initialize journal: %v", err)
		}
		defer func() {
			if err := journal.Close(); err != nil {
				logger.Error("Failed to close journal: %v", err)
			}
		}()
	}

	sources := make([]feeds.Source, 0, len(cfg.Feeds.Sources))
	for _, s := range cfg.Feeds.Sources {
		sources = append(sources, feeds.Source{
			Name:     s.Name,
			URL:      s.URL,
			Keywords: s.Keywords,
			Weight:   s.Weight,
		})
	}

	scoring := scorer.Config{
		KeywordMultiplier:  cfg.Scoring.KeywordMultiplier,
		SourceKeywordBonus: cfg.Scoring.SourceKeywordBonus,
	}
	ingestor := feeds.New(sources, dedup.New(cfg.Feeds.CacheSize), feeds.Config{
		MaxPerSource:  cfg.Feeds.MaxPerSource,
		MinScore:      cfg.Feeds.MinScore,
		RecencyWindow: cfg.Feeds.RecencyWindow,
		MaxCandidates: cfg.Feeds.MaxCandidates,
		MaxEvents:     cfg.Feeds.MaxEvents,
		SummaryLimit:  cfg.Feeds.SummaryLimit,
		FetchTimeout:  cfg.Feeds.FetchTimeout,
		Scoring:       scoring,
	})

	gen := generator.New(generator.Config{
		Provider: cfg.Generator.Provider,
		OpenAI: generator.OpenAIConfig{
			APIKey:   cfg.Generator.OpenAIAPIKey,
			Endpoint: cfg.Generator.OpenAIEndpoint,
			Model:    cfg.Generator.OpenAIModel,
			Timeout:  cfg.Generator.OpenAITimeout,
		},
		Cohere: generator.CohereConfig{
			APIKey:  cfg.Generator.CohereAPIKey,
			Model:   cfg.Generator.CohereModel,
			Timeout: cfg.Generator.CohereTimeout,
		},
		MinDurationDays:   cfg.Generator.MinDurationDays,
		MaxDurationDays:   cfg.Generator.MaxDurationDays,
		MinLiquidity:      cfg.Generator.MinLiquidity,
		MaxLiquidity:      cfg.Generator.MaxLiquidity,
		ConfidenceFloor:   cfg.Generator.ConfidenceFloor,
		ConfidenceCeiling: cfg.Generator.ConfidenceCeiling,
		TopicConfidence:   cfg.Generator.TopicConfidence,
	})

	var creator market.Creator
	if cfg.Market.DryRun {
		creator = market.DryRunCreator{}
		logger.Info("Market creation running in dry-run mode")
	} else {
		creator = market.NewClient(market.ClientConfig{
			BaseURL:        cfg.Market.BaseURL,
			Timeout:        cfg.Market.Timeout,
			MaxRetries:     cfg.Market.MaxRetries,
			RetryDelayBase: cfg.Market.RetryDelayBase,
		})
	}

	var notifier pipeline.Notifier
	if cfg.Telegram.Enabled {
		tg, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram notifier: %v", err)
		}
		notifier = tg
		logger.Info("Telegram notifier initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	pipe := pipeline.New(ingestor, gen, creator, notifier, journal, pipeline.Config{
		Interval:         cfg.Pipeline.ScanInterval,
		TopCandidates:    cfg.Pipeline.TopCandidates,
		GenerateMinScore: cfg.Pipeline.GenerateMinScore,
		MaxCreations:     cfg.Pipeline.MaxCreations,
		CreationDelay:    cfg.Pipeline.CreationDelay,
		HistorySize:      cfg.Pipeline.HistorySize,
		DemoMode:         cfg.Feeds.DemoMode,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	pipe.Run(ctx)
	logger.Info("Service stopped")
}
