package feeds

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/darkalpha/marketscout/internal/dedup"
	"github.com/darkalpha/marketscout/internal/models"
)

func rssBody(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title>` + items + `</channel></rss>`
}

func rssItem(guid, title, desc string, published time.Time) string {
	return fmt.Sprintf(
		`<item><guid>%s</guid><title>%s</title><description>%s</description><link>https://example.com/%s</link><pubDate>%s</pubDate></item>`,
		guid, title, desc, guid, published.Format(time.RFC1123Z),
	)
}

func serveRSS(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestIngestor(sources []Source) *Ingestor {
	return New(sources, dedup.New(100), DefaultConfig())
}

func TestIngestScoresAndFilters(t *testing.T) {
	now := time.Now()
	srv := serveRSS(t, rssBody(
		rssItem("guid-1", "SEC considers new privacy coin regulations", "New regulation targets privacy tech", now)+
			rssItem("guid-2", "Local bakery wins pie contest", "Flaky crust praised by judges", now),
	))

	in := newTestIngestor([]Source{{Name: "test", URL: srv.URL, Weight: 1.0}})
	candidates, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate above threshold, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ID != "guid-1" {
		t.Errorf("expected guid-based ID, got %q", c.ID)
	}
	if c.RelevanceScore < 20 {
		t.Errorf("expected score >= 20, got %d", c.RelevanceScore)
	}
	if c.Category != models.CategoryRegulation {
		t.Errorf("expected regulation category, got %s", c.Category)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("candidate invalid: %v", err)
	}

	// The low scorer was still registered so it is not rescored later.
	counters := in.Counters()
	if counters.CacheSize != 2 {
		t.Errorf("expected both ids cached, got %d", counters.CacheSize)
	}
}

func TestIngestDeduplicatesAcrossCycles(t *testing.T) {
	now := time.Now()
	srv := serveRSS(t, rssBody(
		rssItem("guid-1", "SEC considers new privacy coin regulations", "regulation privacy", now),
	))

	in := newTestIngestor([]Source{{Name: "test", URL: srv.URL, Weight: 1.0}})

	first, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 candidate in first cycle, got %d", len(first))
	}

	second, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("same guid must not reappear before eviction, got %d candidates", len(second))
	}
}

func TestIngestPartialSourceFailure(t *testing.T) {
	now := time.Now()
	good := serveRSS(t, rssBody(
		rssItem("guid-1", "Exchange announces Solana ETF listing", "institutional etf filing", now),
	))
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	in := newTestIngestor([]Source{
		{Name: "bad", URL: bad.URL, Weight: 1.0},
		{Name: "good", URL: good.URL, Weight: 1.0},
	})

	candidates, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("one bad source must not fail the cycle: %v", err)
	}
	if len(candidates) != 1 {
		t.Errorf("expected the good source's candidate, got %d", len(candidates))
	}
}

func TestIngestAllSourcesFailed(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusInternalServerError)
	}))
	t.Cleanup(bad.Close)

	in := newTestIngestor([]Source{{Name: "bad", URL: bad.URL, Weight: 1.0}})
	if _, err := in.Ingest(context.Background()); err == nil {
		t.Error("expected error when every source failed")
	}
}

func TestIngestRecencyWindow(t *testing.T) {
	now := time.Now()
	srv := serveRSS(t, rssBody(
		rssItem("guid-old", "Old bitcoin etf regulation news", "bitcoin etf regulation", now.Add(-48*time.Hour))+
			rssItem("guid-new", "Fresh bitcoin etf regulation news", "bitcoin etf regulation", now),
	))

	in := newTestIngestor([]Source{{Name: "test", URL: srv.URL, Weight: 1.0}})
	candidates, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(candidates) != 1 || candidates[0].ID != "guid-new" {
		t.Errorf("expected only the fresh entry, got %+v", candidates)
	}
}

func TestIngestSortsByScoreAndTruncates(t *testing.T) {
	now := time.Now()
	srv := serveRSS(t, rssBody(
		rssItem("guid-weak", "New token market update", "crypto token", now)+
			rssItem("guid-strong", "Breaking: exploit hits privacy coin protocol", "hack exploit privacy regulation", now),
	))

	cfg := DefaultConfig()
	cfg.MaxCandidates = 1
	in := New([]Source{{Name: "test", URL: srv.URL, Weight: 1.0}}, dedup.New(100), cfg)

	candidates, err := in.Ingest(context.Background())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected truncation to 1, got %d", len(candidates))
	}
	if candidates[0].ID != "guid-strong" {
		t.Errorf("expected the top scorer first, got %q", candidates[0].ID)
	}

	// Pre-truncation survivors still land in the ring buffer.
	if got := len(in.RecentEvents(10)); got != 2 {
		t.Errorf("expected 2 remembered events, got %d", got)
	}
}

func TestRingBufferQueries(t *testing.T) {
	now := time.Now()
	srv := serveRSS(t, rssBody(
		rssItem("guid-1", "SEC considers new privacy coin regulations", "regulation", now)+
			rssItem("guid-2", "Exchange announces Solana mainnet upgrade support", "protocol upgrade", now),
	))

	in := newTestIngestor([]Source{{Name: "test", URL: srv.URL, Weight: 1.0}})
	if _, err := in.Ingest(context.Background()); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if got := in.EventsByCategory(models.CategoryRegulation, 10); len(got) != 1 {
		t.Errorf("expected 1 regulation event, got %d", len(got))
	}
	urgent := in.UrgentEvents(10)
	for _, c := range urgent {
		if c.Urgency == models.UrgencyEvergreen {
			t.Errorf("evergreen event %q in urgent query", c.ID)
		}
	}
	if len(in.RecentEvents(1)) != 1 {
		t.Error("limit must cap recent events")
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 3
	in := New(nil, dedup.New(100), cfg)

	for i := 0; i < 5; i++ {
		in.remember([]models.NewsCandidate{{ID: fmt.Sprintf("id-%d", i)}})
	}
	events := in.RecentEvents(10)
	if len(events) != 3 {
		t.Fatalf("expected ring capped at 3, got %d", len(events))
	}
	if events[0].ID != "id-4" {
		t.Errorf("expected newest first, got %q", events[0].ID)
	}
}

func TestIngestDemo(t *testing.T) {
	in := newTestIngestor(nil)
	candidates := in.IngestDemo()
	if len(candidates) == 0 {
		t.Fatal("demo ingest must return fixtures")
	}
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			t.Errorf("demo candidate %q invalid: %v", c.ID, err)
		}
		if c.RelevanceScore == 0 {
			t.Errorf("demo candidate %q scored zero", c.ID)
		}
	}
}
