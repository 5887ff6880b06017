// Package generator turns news candidates or bare topics into structured
// market opportunities. One provider is selected at startup by credential
// presence: OpenAI-compatible first, then Cohere, then the deterministic
// fallback. Selection never changes for the process lifetime.
package generator

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/darkalpha/marketscout/internal/logger"
	"github.com/darkalpha/marketscout/internal/models"
)

// Provider is one interchangeable generation strategy.
type Provider interface {
	Name() string
	FromNews(ctx context.Context, candidate models.NewsCandidate) (*models.Opportunity, error)
	FromTopic(ctx context.Context, topic string, category models.Category) (*models.Opportunity, error)
}

// Config carries provider selection and output bounds.
type Config struct {
	Provider string // "auto", "openai", "cohere", or "fallback"

	OpenAI OpenAIConfig
	Cohere CohereConfig

	MinDurationDays int
	MaxDurationDays int
	MinLiquidity    float64
	MaxLiquidity    float64

	ConfidenceFloor   float64
	ConfidenceCeiling float64
	TopicConfidence   float64
}

// DefaultConfig returns the stock generation policy.
func DefaultConfig() Config {
	return Config{
		Provider:          "auto",
		OpenAI:            DefaultOpenAIConfig(),
		Cohere:            DefaultCohereConfig(),
		MinDurationDays:   1,
		MaxDurationDays:   90,
		MinLiquidity:      10,
		MaxLiquidity:      10000,
		ConfidenceFloor:   0.50,
		ConfidenceCeiling: 0.95,
		TopicConfidence:   0.60,
	}
}

// Service wraps the chosen provider with bound enforcement, confidence
// derivation, and the diverse-markets batch contract.
type Service struct {
	provider Provider
	cfg      Config
}

// New selects a provider once and returns the service. Credentials may
// come from config or from the environment (OPENAI_API_KEY,
// COHERE_API_KEY); when neither remote is configured the deterministic
// fallback is used.
func New(cfg Config) *Service {
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Cohere.APIKey == "" {
		cfg.Cohere.APIKey = os.Getenv("COHERE_API_KEY")
	}

	var provider Provider
	switch {
	case cfg.Provider == "openai" || (cfg.Provider == "auto" && cfg.OpenAI.APIKey != ""):
		provider = newOpenAIProvider(cfg)
	case cfg.Provider == "cohere" || (cfg.Provider == "auto" && cfg.Cohere.APIKey != ""):
		provider = newCohereProvider(cfg)
	default:
		provider = newFallbackProvider(cfg)
	}
	logger.Info("Opportunity generator using %s provider", provider.Name())
	return &Service{provider: provider, cfg: cfg}
}

// NewWithProvider wires an explicit provider; used by tests and callers
// that manage selection themselves.
func NewWithProvider(provider Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Name reports the chosen provider variant.
func (s *Service) Name() string { return s.provider.Name() }

// FromNews generates an opportunity seeded by a scored candidate.
// Confidence derives from the candidate's relevance score; duration and
// liquidity are clamped into configured bounds.
func (s *Service) FromNews(ctx context.Context, candidate models.NewsCandidate) (*models.Opportunity, error) {
	opp, err := s.provider.FromNews(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("generate from news %q: %w", candidate.Title, err)
	}
	s.applyBounds(opp)
	opp.Confidence = s.confidenceFromScore(candidate.RelevanceScore)
	opp.SourceRef = models.SourceRef{
		Title:  candidate.Title,
		Source: candidate.Source,
		Link:   candidate.Link,
	}
	opp.CreatedAt = time.Now()
	if err := opp.Validate(); err != nil {
		return nil, fmt.Errorf("generated opportunity invalid: %w", err)
	}
	return opp, nil
}

// FromTopic generates an opportunity from a bare topic string. An empty
// category lets the provider infer one.
func (s *Service) FromTopic(ctx context.Context, topic string, category models.Category) (*models.Opportunity, error) {
	opp, err := s.provider.FromTopic(ctx, topic, category)
	if err != nil {
		return nil, fmt.Errorf("generate from topic %q: %w", topic, err)
	}
	s.applyBounds(opp)
	opp.Confidence = s.cfg.TopicConfidence
	opp.SourceRef = models.SourceRef{Topic: topic}
	opp.CreatedAt = time.Now()
	if err := opp.Validate(); err != nil {
		return nil, fmt.Errorf("generated opportunity invalid: %w", err)
	}
	return opp, nil
}

// diverseTopics seeds DiverseMarkets when no news drives generation.
var diverseTopics = []struct {
	topic    string
	category models.Category
}{
	{"Will a spot Solana ETF be approved this quarter", models.CategoryRegulation},
	{"Will a major exchange list a new privacy coin this month", models.CategoryEvents},
	{"Will institutional stablecoin settlement volume double this year", models.CategoryAdoption},
	{"Will a leading zero-knowledge rollup reach one million daily transactions", models.CategoryTechnology},
	{"Will a G20 country announce a central bank digital currency pilot this quarter", models.CategoryRegulation},
	{"Will bitcoin dominance fall below forty percent this year", models.CategoryEvents},
}

// DiverseMarkets produces count opportunities from the fixed internal
// topic list. Individual failures are carried per item; if every attempt
// fails the curated demo set is substituted so callers always get a
// non-empty, all-success result.
func (s *Service) DiverseMarkets(ctx context.Context, count int) []models.GenerationResult {
	if count > len(diverseTopics) {
		count = len(diverseTopics)
	}
	results := make([]models.GenerationResult, 0, count)
	failed := 0
	for _, seed := range diverseTopics[:count] {
		opp, err := s.FromTopic(ctx, seed.topic, seed.category)
		if err != nil {
			failed++
			logger.Warn("Diverse generation failed for %q: %v", seed.topic, err)
		}
		results = append(results, models.GenerationResult{Opportunity: opp, Err: err})
	}

	// Explicit total-failure branch: substitute the static demo set
	// rather than returning nothing.
	if failed == len(results) && len(results) > 0 {
		logger.Warn("All %d diverse generations failed, substituting demo opportunities", failed)
		return s.demoResults(count)
	}
	return results
}

func (s *Service) demoResults(count int) []models.GenerationResult {
	demos := demoOpportunities(s.cfg)
	if count > len(demos) {
		count = len(demos)
	}
	results := make([]models.GenerationResult, 0, count)
	for i := 0; i < count; i++ {
		opp := demos[i]
		results = append(results, models.GenerationResult{Opportunity: &opp})
	}
	return results
}

func (s *Service) applyBounds(opp *models.Opportunity) {
	opp.SuggestedDurationDays = clampInt(opp.SuggestedDurationDays, s.cfg.MinDurationDays, s.cfg.MaxDurationDays)
	opp.SuggestedLiquidity = clampFloat(opp.SuggestedLiquidity, s.cfg.MinLiquidity, s.cfg.MaxLiquidity)
}

// confidenceFromScore maps relevance monotonically into
// [ConfidenceFloor, ConfidenceCeiling].
func (s *Service) confidenceFromScore(score int) float64 {
	return clampFloat(float64(score)/100.0, s.cfg.ConfidenceFloor, s.cfg.ConfidenceCeiling)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
