// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Feeds     FeedsConfig     `mapstructure:"feeds"`
	Scoring   ScoringConfig   `mapstructure:"scoring"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Market    MarketConfig    `mapstructure:"market"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// FeedSource configures one upstream news feed
type FeedSource struct {
	Name     string   `mapstructure:"name"`
	URL      string   `mapstructure:"url"`
	Keywords []string `mapstructure:"keywords"`
	Weight   float64  `mapstructure:"weight"`
}

// FeedsConfig holds ingestion configuration
type FeedsConfig struct {
	Sources       []FeedSource  `mapstructure:"sources"`
	MaxPerSource  int           `mapstructure:"max_per_source"`
	MinScore      int           `mapstructure:"min_score"`
	RecencyWindow time.Duration `mapstructure:"recency_window"`
	MaxCandidates int           `mapstructure:"max_candidates"`
	MaxEvents     int           `mapstructure:"max_events"`
	SummaryLimit  int           `mapstructure:"summary_limit"`
	FetchTimeout  time.Duration `mapstructure:"fetch_timeout"`
	CacheSize     int           `mapstructure:"cache_size"`
	DemoMode      bool          `mapstructure:"demo_mode"`
}

// ScoringConfig holds relevance scoring policy
type ScoringConfig struct {
	KeywordMultiplier  float64 `mapstructure:"keyword_multiplier"`
	SourceKeywordBonus float64 `mapstructure:"source_keyword_bonus"`
}

// GeneratorConfig holds opportunity generation configuration
type GeneratorConfig struct {
	Provider string `mapstructure:"provider"` // auto, openai, cohere, fallback

	OpenAIAPIKey   string        `mapstructure:"openai_api_key"`
	OpenAIEndpoint string        `mapstructure:"openai_endpoint"`
	OpenAIModel    string        `mapstructure:"openai_model"`
	OpenAITimeout  time.Duration `mapstructure:"openai_timeout"`

	CohereAPIKey  string        `mapstructure:"cohere_api_key"`
	CohereModel   string        `mapstructure:"cohere_model"`
	CohereTimeout time.Duration `mapstructure:"cohere_timeout"`

	MinDurationDays int     `mapstructure:"min_duration_days"`
	MaxDurationDays int     `mapstructure:"max_duration_days"`
	MinLiquidity    float64 `mapstructure:"min_liquidity"`
	MaxLiquidity    float64 `mapstructure:"max_liquidity"`

	ConfidenceFloor   float64 `mapstructure:"confidence_floor"`
	ConfidenceCeiling float64 `mapstructure:"confidence_ceiling"`
	TopicConfidence   float64 `mapstructure:"topic_confidence"`
}

// PipelineConfig holds scan cycle configuration
type PipelineConfig struct {
	ScanInterval     time.Duration `mapstructure:"scan_interval"`
	TopCandidates    int           `mapstructure:"top_candidates"`
	GenerateMinScore int           `mapstructure:"generate_min_score"`
	MaxCreations     int           `mapstructure:"max_creations"`
	CreationDelay    time.Duration `mapstructure:"creation_delay"`
	HistorySize      int           `mapstructure:"history_size"`
}

// MarketConfig holds the market-creation API configuration
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
	DryRun         bool          `mapstructure:"dry_run"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// StorageConfig holds the audit journal configuration
type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DBPath       string `mapstructure:"db_path"`
	MaxCreations int    `mapstructure:"max_creations"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("MARKETSCOUT")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Feeds defaults
	v.SetDefault("feeds.max_per_source", 10)
	v.SetDefault("feeds.min_score", 20)
	v.SetDefault("feeds.recency_window", "24h")
	v.SetDefault("feeds.max_candidates", 10)
	v.SetDefault("feeds.max_events", 100)
	v.SetDefault("feeds.summary_limit", 300)
	v.SetDefault("feeds.fetch_timeout", "15s")
	v.SetDefault("feeds.cache_size", 1000)
	v.SetDefault("feeds.demo_mode", false)

	// Scoring defaults
	v.SetDefault("scoring.keyword_multiplier", 10.0)
	v.SetDefault("scoring.source_keyword_bonus", 5.0)

	// Generator defaults
	v.SetDefault("generator.provider", "auto")
	v.SetDefault("generator.openai_endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("generator.openai_model", "gpt-4o-mini")
	v.SetDefault("generator.openai_timeout", "20s")
	v.SetDefault("generator.cohere_model", "command-r")
	v.SetDefault("generator.cohere_timeout", "30s")
	v.SetDefault("generator.min_duration_days", 1)
	v.SetDefault("generator.max_duration_days", 90)
	v.SetDefault("generator.min_liquidity", 10.0)
	v.SetDefault("generator.max_liquidity", 10000.0)
	v.SetDefault("generator.confidence_floor", 0.50)
	v.SetDefault("generator.confidence_ceiling", 0.95)
	v.SetDefault("generator.topic_confidence", 0.60)

	// Pipeline defaults
	v.SetDefault("pipeline.scan_interval", "2h")
	v.SetDefault("pipeline.top_candidates", 3)
	v.SetDefault("pipeline.generate_min_score", 30)
	v.SetDefault("pipeline.max_creations", 2)
	v.SetDefault("pipeline.creation_delay", "2s")
	v.SetDefault("pipeline.history_size", 20)

	// Market defaults
	v.SetDefault("market.timeout", "30s")
	v.SetDefault("market.max_retries", 3)
	v.SetDefault("market.retry_delay_base", "1s")
	v.SetDefault("market.dry_run", false)

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Storage defaults
	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.max_creations", 500)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Feeds config
	if !c.Feeds.DemoMode && len(c.Feeds.Sources) == 0 {
		return fmt.Errorf("feeds.sources must contain at least one source unless demo_mode is enabled")
	}
	for i, src := range c.Feeds.Sources {
		if src.Name == "" {
			return fmt.Errorf("feeds.sources[%d].name is required", i)
		}
		if src.URL == "" {
			return fmt.Errorf("feeds.sources[%d].url is required", i)
		}
		if src.Weight <= 0 {
			return fmt.Errorf("feeds.sources[%d].weight must be positive", i)
		}
	}
	if c.Feeds.MaxPerSource < 1 {
		return fmt.Errorf("feeds.max_per_source must be at least 1")
	}
	if c.Feeds.MinScore < 0 || c.Feeds.MinScore > 100 {
		return fmt.Errorf("feeds.min_score must be between 0 and 100")
	}
	if c.Feeds.RecencyWindow < time.Minute {
		return fmt.Errorf("feeds.recency_window must be at least 1 minute")
	}
	if c.Feeds.MaxCandidates < 1 {
		return fmt.Errorf("feeds.max_candidates must be at least 1")
	}
	if c.Feeds.MaxEvents < 1 {
		return fmt.Errorf("feeds.max_events must be at least 1")
	}
	if c.Feeds.CacheSize < 2 {
		return fmt.Errorf("feeds.cache_size must be at least 2")
	}

	// Validate Scoring config
	if c.Scoring.KeywordMultiplier <= 0 {
		return fmt.Errorf("scoring.keyword_multiplier must be positive")
	}
	if c.Scoring.SourceKeywordBonus < 0 {
		return fmt.Errorf("scoring.source_keyword_bonus must not be negative")
	}

	// Validate Generator config
	switch c.Generator.Provider {
	case "auto", "openai", "cohere", "fallback":
	default:
		return fmt.Errorf("generator.provider must be one of: auto, openai, cohere, fallback")
	}
	if c.Generator.MinDurationDays < 1 {
		return fmt.Errorf("generator.min_duration_days must be at least 1")
	}
	if c.Generator.MaxDurationDays < c.Generator.MinDurationDays {
		return fmt.Errorf("generator.max_duration_days must be >= min_duration_days")
	}
	if c.Generator.MinLiquidity < 0 {
		return fmt.Errorf("generator.min_liquidity must not be negative")
	}
	if c.Generator.MaxLiquidity < c.Generator.MinLiquidity {
		return fmt.Errorf("generator.max_liquidity must be >= min_liquidity")
	}
	if c.Generator.ConfidenceFloor < 0.0 || c.Generator.ConfidenceFloor > 1.0 {
		return fmt.Errorf("generator.confidence_floor must be between 0.0 and 1.0")
	}
	if c.Generator.ConfidenceCeiling < c.Generator.ConfidenceFloor || c.Generator.ConfidenceCeiling > 1.0 {
		return fmt.Errorf("generator.confidence_ceiling must be between confidence_floor and 1.0")
	}
	if c.Generator.TopicConfidence < 0.0 || c.Generator.TopicConfidence > 1.0 {
		return fmt.Errorf("generator.topic_confidence must be between 0.0 and 1.0")
	}

	// Validate Pipeline config
	if c.Pipeline.ScanInterval < time.Minute {
		return fmt.Errorf("pipeline.scan_interval must be at least 1 minute")
	}
	if c.Pipeline.TopCandidates < 1 {
		return fmt.Errorf("pipeline.top_candidates must be at least 1")
	}
	if c.Pipeline.GenerateMinScore < 0 || c.Pipeline.GenerateMinScore > 100 {
		return fmt.Errorf("pipeline.generate_min_score must be between 0 and 100")
	}
	if c.Pipeline.MaxCreations < 1 {
		return fmt.Errorf("pipeline.max_creations must be at least 1")
	}
	if c.Pipeline.CreationDelay < 0 {
		return fmt.Errorf("pipeline.creation_delay must not be negative")
	}
	if c.Pipeline.HistorySize < 1 {
		return fmt.Errorf("pipeline.history_size must be at least 1")
	}

	// Validate Market config
	if !c.Market.DryRun && c.Market.BaseURL == "" {
		return fmt.Errorf("market.base_url is required unless dry_run is enabled")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Storage config
	if c.Storage.Enabled && c.Storage.MaxCreations < 1 {
		return fmt.Errorf("storage.max_creations must be at least 1")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
