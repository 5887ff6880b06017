// Package scorer rates raw news text for prediction-market relevance.
// Scoring is a pure function: no I/O, no state, deterministic output.
package scorer

import (
	"math"
	"strings"

	"github.com/darkalpha/marketscout/internal/models"
)

// Config carries the tunable scoring policy. Zero values fall back to
// DefaultConfig at call sites that accept a Config.
type Config struct {
	// KeywordMultiplier scales each table weight into score points.
	KeywordMultiplier float64
	// SourceKeywordBonus is added per matched source-specific keyword.
	SourceKeywordBonus float64
}

// DefaultConfig returns the stock scoring policy.
func DefaultConfig() Config {
	return Config{
		KeywordMultiplier:  10.0,
		SourceKeywordBonus: 5.0,
	}
}

// Result is the outcome of scoring one text.
type Result struct {
	Score           int
	MatchedKeywords []string
	Category        models.Category
	Urgency         models.Urgency
}

type weightedTerm struct {
	term   string
	weight float64
}

// relevanceTable weights terms by specificity: narrow protocol and
// regulatory terms outrank generic market vocabulary.
var relevanceTable = []weightedTerm{
	{"zero-knowledge", 3.0},
	{"zk-snark", 3.0},
	{"privacy coin", 2.5},
	{"etf approval", 2.5},
	{"halving", 2.5},
	{"exploit", 2.5},
	{"stablecoin", 2.0},
	{"regulation", 2.0},
	{"sec", 2.0},
	{"lawsuit", 2.0},
	{"etf", 2.0},
	{"solana", 2.0},
	{"hack", 2.0},
	{"mainnet", 2.0},
	{"airdrop", 1.5},
	{"defi", 1.5},
	{"bitcoin", 1.5},
	{"ethereum", 1.5},
	{"privacy", 1.5},
	{"institutional", 1.5},
	{"listing", 1.5},
	{"protocol", 1.2},
	{"token", 1.0},
	{"crypto", 1.0},
	{"blockchain", 1.0},
	{"market", 1.0},
}

var categoryTerms = map[models.Category][]string{
	models.CategoryRegulation: {"sec", "regulation", "regulator", "lawsuit", "congress", "ban", "compliance", "sanction", "legislation"},
	models.CategoryTechnology: {"protocol", "upgrade", "mainnet", "zero-knowledge", "zk-snark", "layer 2", "rollup", "testnet", "privacy"},
	models.CategoryAdoption:   {"adoption", "institutional", "partnership", "payment", "treasury", "integrate", "custody", "merchant"},
	models.CategoryEvents:     {"conference", "halving", "launch", "airdrop", "listing", "summit", "upgrade date", "unlock"},
}

var breakingTerms = []string{"breaking", "just in", "urgent", "hack", "exploit", "crash", "emergency", "halted"}

var timelyTerms = []string{"today", "announces", "announced", "launches", "approval", "files", "this week", "confirms"}

// Score rates text against the weighted relevance table plus the source's
// own keywords. The raw sum is scaled by sourceWeight and clamped to
// [0, 100]. Matched keywords keep insertion order and never repeat.
func Score(text string, sourceKeywords []string, sourceWeight float64, cfg Config) Result {
	if cfg.KeywordMultiplier == 0 && cfg.SourceKeywordBonus == 0 {
		cfg = DefaultConfig()
	}
	lower := strings.ToLower(text)

	raw := 0.0
	var matched []string
	seen := make(map[string]bool)

	for _, entry := range relevanceTable {
		if strings.Contains(lower, entry.term) {
			raw += entry.weight * cfg.KeywordMultiplier
			if !seen[entry.term] {
				seen[entry.term] = true
				matched = append(matched, entry.term)
			}
		}
	}

	for _, kw := range sourceKeywords {
		term := strings.ToLower(strings.TrimSpace(kw))
		if term == "" || seen[term] {
			continue
		}
		if strings.Contains(lower, term) {
			raw += cfg.SourceKeywordBonus
			seen[term] = true
			matched = append(matched, term)
		}
	}

	score := int(math.Round(raw * sourceWeight))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:           score,
		MatchedKeywords: matched,
		Category:        Classify(lower),
		Urgency:         RateUrgency(lower),
	}
}

// Classify picks the category with the most keyword hits. Ties resolve by
// the fixed priority order of models.Categories; no hit at all yields the
// default category.
func Classify(lowerText string) models.Category {
	best := models.DefaultCategory
	bestHits := 0
	for _, cat := range models.Categories {
		hits := 0
		for _, term := range categoryTerms[cat] {
			if strings.Contains(lowerText, term) {
				hits++
			}
		}
		if hits > bestHits {
			best = cat
			bestHits = hits
		}
	}
	return best
}

// RateUrgency tiers text as breaking, timely, or evergreen. Breaking
// indicators are checked before timely ones; first match wins.
func RateUrgency(lowerText string) models.Urgency {
	for _, term := range breakingTerms {
		if strings.Contains(lowerText, term) {
			return models.UrgencyBreaking
		}
	}
	for _, term := range timelyTerms {
		if strings.Contains(lowerText, term) {
			return models.UrgencyTimely
		}
	}
	return models.UrgencyEvergreen
}
