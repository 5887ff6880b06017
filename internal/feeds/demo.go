package feeds

import (
	"github.com/darkalpha/marketscout/internal/models"
	"github.com/darkalpha/marketscout/internal/scorer"
)

// demoEntries are static fixtures used when live fetching is disabled or
// every source failed in a cycle.
var demoEntries = []struct {
	title   string
	summary string
	source  string
	link    string
}{
	{
		title:   "SEC considers new privacy coin regulations",
		summary: "The regulator signalled tighter regulation of privacy-preserving assets this week.",
		source:  "demo",
		link:    "https://example.com/sec-privacy-regulations",
	},
	{
		title:   "Major exchange announces Solana ETF listing plans",
		summary: "Institutional demand drives a spot ETF filing for Solana.",
		source:  "demo",
		link:    "https://example.com/solana-etf-listing",
	},
	{
		title:   "Zero-knowledge rollup hits mainnet after final testnet upgrade",
		summary: "The protocol upgrade completes a year-long zero-knowledge roadmap.",
		source:  "demo",
		link:    "https://example.com/zk-rollup-mainnet",
	},
	{
		title:   "Payments giant expands stablecoin treasury adoption",
		summary: "Merchant partnership brings stablecoin settlement to retail payments.",
		source:  "demo",
		link:    "https://example.com/stablecoin-adoption",
	},
}

// IngestDemo scores the static fixtures and returns them as candidates.
// The dedup cache is bypassed so demo runs stay repeatable.
func (in *Ingestor) IngestDemo() []models.NewsCandidate {
	now := in.now()
	out := make([]models.NewsCandidate, 0, len(demoEntries))
	for _, e := range demoEntries {
		res := scorer.Score(e.title+" "+e.summary, nil, 1.0, in.cfg.Scoring)
		out = append(out, models.NewsCandidate{
			ID:              e.link,
			Title:           e.title,
			Summary:         e.summary,
			Source:          e.source,
			Link:            e.link,
			PublishedAt:     now,
			RelevanceScore:  res.Score,
			MatchedKeywords: res.MatchedKeywords,
			Category:        res.Category,
			Urgency:         res.Urgency,
		})
	}
	in.remember(out)
	return out
}
