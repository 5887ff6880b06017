package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/darkalpha/marketscout/internal/models"
)

// fallbackProvider is the deterministic, credential-free variant. It
// templates questions from keywords and never touches the network.
type fallbackProvider struct {
	cfg Config
}

func newFallbackProvider(cfg Config) Provider {
	return &fallbackProvider{cfg: cfg}
}

func (p *fallbackProvider) Name() string { return "fallback" }

var fallbackDurations = map[models.Urgency]int{
	models.UrgencyBreaking:  3,
	models.UrgencyTimely:    7,
	models.UrgencyEvergreen: 30,
}

var fallbackTemplates = map[models.Category]string{
	models.CategoryRegulation: "Will regulators take formal action on %q within %d days?",
	models.CategoryTechnology: "Will the development behind %q ship or be confirmed within %d days?",
	models.CategoryAdoption:   "Will the adoption move behind %q be completed within %d days?",
	models.CategoryEvents:     "Will the event behind %q take place within %d days?",
}

func (p *fallbackProvider) FromNews(_ context.Context, candidate models.NewsCandidate) (*models.Opportunity, error) {
	days := fallbackDurations[candidate.Urgency]
	if days == 0 {
		days = 7
	}
	question := fmt.Sprintf(fallbackTemplates[candidate.Category], candidate.Title, days)
	return &models.Opportunity{
		Question:              question,
		Category:              candidate.Category,
		Urgency:               candidate.Urgency,
		Reasoning:             fmt.Sprintf("Templated from %s coverage matching %s.", candidate.Source, strings.Join(candidate.MatchedKeywords, ", ")),
		SuggestedDurationDays: days,
		SuggestedLiquidity:    p.suggestedLiquidity(),
	}, nil
}

func (p *fallbackProvider) FromTopic(_ context.Context, topic string, category models.Category) (*models.Opportunity, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("empty topic")
	}
	if category == "" {
		category = inferTopicCategory(topic)
	}

	question := topic
	if !strings.HasPrefix(strings.ToLower(question), "will ") {
		question = "Will " + question
	}
	if !strings.HasSuffix(question, "?") {
		question += "?"
	}

	return &models.Opportunity{
		Question:              question,
		Category:              category,
		Urgency:               models.UrgencyEvergreen,
		Reasoning:             "Templated from a standing topic of interest.",
		SuggestedDurationDays: fallbackDurations[models.UrgencyEvergreen],
		SuggestedLiquidity:    p.suggestedLiquidity(),
	}, nil
}

func (p *fallbackProvider) suggestedLiquidity() float64 {
	return p.cfg.MinLiquidity + (p.cfg.MaxLiquidity-p.cfg.MinLiquidity)/4
}

// inferTopicCategory applies keyword heuristics in fixed order:
// regulation, events, adoption, then technology as the default.
func inferTopicCategory(topic string) models.Category {
	lower := strings.ToLower(topic)
	for _, term := range []string{"sec", "regulat", "approval", "etf", "ban", "law"} {
		if strings.Contains(lower, term) {
			return models.CategoryRegulation
		}
	}
	for _, term := range []string{"launch", "listing", "halving", "conference", "event"} {
		if strings.Contains(lower, term) {
			return models.CategoryEvents
		}
	}
	for _, term := range []string{"adopt", "institution", "partner", "payment", "treasury"} {
		if strings.Contains(lower, term) {
			return models.CategoryAdoption
		}
	}
	return models.CategoryTechnology
}

// demoOpportunities is the curated static set substituted when every
// generation attempt in a batch fails.
func demoOpportunities(cfg Config) []models.Opportunity {
	now := time.Now()
	base := []models.Opportunity{
		{
			Question:              "Will a spot Solana ETF be approved this quarter?",
			Category:              models.CategoryRegulation,
			Urgency:               models.UrgencyTimely,
			Reasoning:             "Standing regulatory question with steady filing activity.",
			SuggestedDurationDays: 90,
			SuggestedLiquidity:    500,
		},
		{
			Question:              "Will a top-ten exchange list a new privacy coin this month?",
			Category:              models.CategoryEvents,
			Urgency:               models.UrgencyTimely,
			Reasoning:             "Listings cluster around privacy tech news cycles.",
			SuggestedDurationDays: 30,
			SuggestedLiquidity:    250,
		},
		{
			Question:              "Will a major payment network settle in stablecoins by year end?",
			Category:              models.CategoryAdoption,
			Urgency:               models.UrgencyEvergreen,
			Reasoning:             "Institutional settlement pilots keep expanding.",
			SuggestedDurationDays: 60,
			SuggestedLiquidity:    400,
		},
		{
			Question:              "Will a zero-knowledge rollup pass one million daily transactions this quarter?",
			Category:              models.CategoryTechnology,
			Urgency:               models.UrgencyEvergreen,
			Reasoning:             "Throughput milestones track mainnet upgrade cadence.",
			SuggestedDurationDays: 90,
			SuggestedLiquidity:    300,
		},
		{
			Question:              "Will a G20 central bank announce a digital currency pilot this quarter?",
			Category:              models.CategoryRegulation,
			Urgency:               models.UrgencyEvergreen,
			Reasoning:             "CBDC pilots are announced on a steady cadence.",
			SuggestedDurationDays: 90,
			SuggestedLiquidity:    350,
		},
		{
			Question:              "Will bitcoin dominance fall below forty percent this year?",
			Category:              models.CategoryEvents,
			Urgency:               models.UrgencyEvergreen,
			Reasoning:             "Dominance rotation is a recurring market theme.",
			SuggestedDurationDays: 90,
			SuggestedLiquidity:    600,
		},
	}
	for i := range base {
		base[i].Confidence = cfg.TopicConfidence
		base[i].SourceRef = models.SourceRef{Topic: base[i].Question}
		base[i].CreatedAt = now
		base[i].SuggestedDurationDays = clampInt(base[i].SuggestedDurationDays, cfg.MinDurationDays, cfg.MaxDurationDays)
		base[i].SuggestedLiquidity = clampFloat(base[i].SuggestedLiquidity, cfg.MinLiquidity, cfg.MaxLiquidity)
	}
	return base
}
