// Package feeds fetches configured news feeds and turns entries into
// scored, deduplicated news candidates.
package feeds

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/darkalpha/marketscout/internal/dedup"
	"github.com/darkalpha/marketscout/internal/logger"
	"github.com/darkalpha/marketscout/internal/models"
	"github.com/darkalpha/marketscout/internal/scorer"
)

// Source describes one configured feed.
type Source struct {
	Name     string
	URL      string
	Keywords []string
	Weight   float64
}

// Config carries ingestion policy.
type Config struct {
	MaxPerSource  int           // newest entries considered per source
	MinScore      int           // candidates below this are discarded
	RecencyWindow time.Duration // only entries published within this window survive
	MaxCandidates int           // returned list cap, after sorting
	MaxEvents     int           // recent-events ring buffer capacity
	SummaryLimit  int           // summary truncation length
	FetchTimeout  time.Duration // per-source fetch budget
	Scoring       scorer.Config
}

// DefaultConfig returns the stock ingestion policy.
func DefaultConfig() Config {
	return Config{
		MaxPerSource:  10,
		MinScore:      20,
		RecencyWindow: 24 * time.Hour,
		MaxCandidates: 10,
		MaxEvents:     100,
		SummaryLimit:  300,
		FetchTimeout:  15 * time.Second,
		Scoring:       scorer.DefaultConfig(),
	}
}

// Ingestor fetches all configured sources and maintains the dedup cache
// and the bounded ring buffer of recent candidates. It is not safe for
// concurrent use; the pipeline's single-flight guard serializes access.
type Ingestor struct {
	sources []Source
	cache   *dedup.Cache
	parser  *gofeed.Parser
	events  []models.NewsCandidate
	cfg     Config
	now     func() time.Time
}

// New builds an ingestor over the given sources and shared dedup cache.
func New(sources []Source, cache *dedup.Cache, cfg Config) *Ingestor {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.FetchTimeout}
	return &Ingestor{
		sources: sources,
		cache:   cache,
		parser:  parser,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Ingest fetches every source, scores new entries, and returns the ranked
// candidate list. A failing source contributes nothing and is logged; the
// returned error is non-nil only when every source failed.
func (in *Ingestor) Ingest(ctx context.Context) ([]models.NewsCandidate, error) {
	var merged []models.NewsCandidate
	failures := 0

	for _, src := range in.sources {
		candidates, err := in.ingestSource(ctx, src)
		if err != nil {
			failures++
			logger.Warn("Feed %s failed, continuing without it: %v", src.Name, err)
			continue
		}
		merged = append(merged, candidates...)
	}

	if len(in.sources) > 0 && failures == len(in.sources) {
		return nil, fmt.Errorf("all %d feed sources failed", failures)
	}

	cutoff := in.now().Add(-in.cfg.RecencyWindow)
	fresh := merged[:0]
	for _, c := range merged {
		if c.PublishedAt.After(cutoff) {
			fresh = append(fresh, c)
		}
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].RelevanceScore > fresh[j].RelevanceScore
	})

	in.remember(fresh)

	if len(fresh) > in.cfg.MaxCandidates {
		fresh = fresh[:in.cfg.MaxCandidates]
	}
	logger.Info("Ingest complete: %d candidates from %d sources (%d failed)", len(fresh), len(in.sources), failures)
	return fresh, nil
}

func (in *Ingestor) ingestSource(ctx context.Context, src Source) ([]models.NewsCandidate, error) {
	ctx, cancel := context.WithTimeout(ctx, in.cfg.FetchTimeout)
	defer cancel()

	feed, err := in.parser.ParseURLWithContext(src.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}

	limit := len(feed.Items)
	if limit > in.cfg.MaxPerSource {
		limit = in.cfg.MaxPerSource
	}

	var out []models.NewsCandidate
	for _, item := range feed.Items[:limit] {
		id := entryID(src, item)
		if in.cache.Has(id) {
			continue
		}
		// Register regardless of threshold so low scorers are not
		// rescored every cycle.
		in.cache.Add(id)

		summary := truncate(strings.TrimSpace(firstNonEmpty(item.Description, item.Content)), in.cfg.SummaryLimit)
		res := scorer.Score(item.Title+" "+summary, src.Keywords, src.Weight, in.cfg.Scoring)
		if res.Score < in.cfg.MinScore {
			continue
		}

		out = append(out, models.NewsCandidate{
			ID:              id,
			Title:           item.Title,
			Summary:         summary,
			Source:          src.Name,
			Link:            item.Link,
			PublishedAt:     publishedAt(item, in.now()),
			RelevanceScore:  res.Score,
			MatchedKeywords: res.MatchedKeywords,
			Category:        res.Category,
			Urgency:         res.Urgency,
		})
	}
	return out, nil
}

// entryID prefers the feed-provided GUID, then the permalink, then a
// name-based UUID so the same entry hashes identically across fetches.
func entryID(src Source, item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	if item.Link != "" {
		return item.Link
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(src.Name+"|"+item.Title)).String()
}

func publishedAt(item *gofeed.Item, fallback time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}

// remember appends candidates to the ring buffer, evicting oldest first.
func (in *Ingestor) remember(candidates []models.NewsCandidate) {
	in.events = append(in.events, candidates...)
	if over := len(in.events) - in.cfg.MaxEvents; over > 0 {
		in.events = append(in.events[:0], in.events[over:]...)
	}
}

// RecentEvents returns up to limit of the most recently remembered
// candidates, newest first.
func (in *Ingestor) RecentEvents(limit int) []models.NewsCandidate {
	return in.filterEvents(limit, func(models.NewsCandidate) bool { return true })
}

// EventsByCategory returns recent candidates of one category, newest first.
func (in *Ingestor) EventsByCategory(category models.Category, limit int) []models.NewsCandidate {
	return in.filterEvents(limit, func(c models.NewsCandidate) bool { return c.Category == category })
}

// UrgentEvents returns recent breaking or timely candidates, newest first.
func (in *Ingestor) UrgentEvents(limit int) []models.NewsCandidate {
	return in.filterEvents(limit, func(c models.NewsCandidate) bool {
		return c.Urgency == models.UrgencyBreaking || c.Urgency == models.UrgencyTimely
	})
}

func (in *Ingestor) filterEvents(limit int, keep func(models.NewsCandidate) bool) []models.NewsCandidate {
	out := make([]models.NewsCandidate, 0, limit)
	for i := len(in.events) - 1; i >= 0 && len(out) < limit; i-- {
		if keep(in.events[i]) {
			out = append(out, in.events[i])
		}
	}
	return out
}

// Counters exposes internal sizes for status snapshots.
func (in *Ingestor) Counters() models.IngestCounters {
	return models.IngestCounters{
		Sources:      len(in.sources),
		CacheSize:    in.cache.Len(),
		CachedEvents: len(in.events),
	}
}
