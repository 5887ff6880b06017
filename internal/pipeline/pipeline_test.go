package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/darkalpha/marketscout/internal/models"
)

type stubIngestor struct {
	candidates []models.NewsCandidate
	err        error
	demo       []models.NewsCandidate
	demoCalled bool

	started chan struct{} // closed when Ingest begins, optional
	release chan struct{} // Ingest blocks until closed, optional
}

func (s *stubIngestor) Ingest(ctx context.Context) ([]models.NewsCandidate, error) {
	if s.started != nil {
		close(s.started)
		s.started = nil
	}
	if s.release != nil {
		<-s.release
	}
	return s.candidates, s.err
}

func (s *stubIngestor) IngestDemo() []models.NewsCandidate {
	s.demoCalled = true
	return s.demo
}

func (s *stubIngestor) Counters() models.IngestCounters {
	return models.IngestCounters{}
}

type stubGenerator struct {
	failNews      bool
	newsCalls     int
	diverseCalled bool
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) FromNews(_ context.Context, c models.NewsCandidate) (*models.Opportunity, error) {
	s.newsCalls++
	if s.failNews {
		return nil, fmt.Errorf("generation down")
	}
	return &models.Opportunity{Question: "Will " + c.Title + "?"}, nil
}

func (s *stubGenerator) DiverseMarkets(_ context.Context, count int) []models.GenerationResult {
	s.diverseCalled = true
	results := make([]models.GenerationResult, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, models.GenerationResult{
			Opportunity: &models.Opportunity{Question: fmt.Sprintf("Will diverse market %d resolve yes?", i)},
		})
	}
	return results
}

type stubCreator struct {
	mu      sync.Mutex
	created int
	failAt  int // 1-based call number to fail, 0 means never
}

func (s *stubCreator) CreateMarket(_ context.Context, opp models.Opportunity) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	if s.failAt != 0 && s.created == s.failAt {
		return "", fmt.Errorf("downstream rejected market")
	}
	return fmt.Sprintf("mkt-%d", s.created), nil
}

func candidate(id string, score int) models.NewsCandidate {
	return models.NewsCandidate{
		ID:             id,
		Title:          "headline " + id,
		Source:         "test",
		RelevanceScore: score,
		Category:       models.CategoryRegulation,
		Urgency:        models.UrgencyTimely,
		PublishedAt:    time.Now(),
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CreationDelay = 0
	return cfg
}

func TestScanHappyPath(t *testing.T) {
	ingestor := &stubIngestor{candidates: []models.NewsCandidate{
		candidate("a", 90),
		candidate("b", 70),
		candidate("c", 50),
		candidate("d", 40),
	}}
	gen := &stubGenerator{}
	creator := &stubCreator{}
	p := New(ingestor, gen, creator, nil, nil, testConfig())

	summary := p.Scan(context.Background())

	if summary.Busy {
		t.Fatal("scan reported busy on an idle pipeline")
	}
	if summary.CandidatesFound != 4 {
		t.Errorf("expected 4 candidates, got %d", summary.CandidatesFound)
	}
	// Top 3 generated, creations capped at 2.
	if gen.newsCalls != 3 {
		t.Errorf("expected 3 generation attempts, got %d", gen.newsCalls)
	}
	if summary.OpportunitiesCreated != 2 {
		t.Errorf("expected 2 creations, got %d", summary.OpportunitiesCreated)
	}
	if len(summary.CreatedRefs) != 2 {
		t.Errorf("expected 2 created refs, got %v", summary.CreatedRefs)
	}

	status := p.Status()
	if status.State != "idle" {
		t.Errorf("expected idle after scan, got %s", status.State)
	}
	if status.TotalCreated != 2 {
		t.Errorf("expected 2 total created, got %d", status.TotalCreated)
	}
	if len(status.History) != 1 {
		t.Errorf("expected 1 history record, got %d", len(status.History))
	}
}

func TestScanSecondaryScoreBar(t *testing.T) {
	ingestor := &stubIngestor{candidates: []models.NewsCandidate{
		candidate("a", 25), // above ingest threshold but below generation bar
		candidate("b", 80),
	}}
	gen := &stubGenerator{}
	p := New(ingestor, gen, &stubCreator{}, nil, nil, testConfig())

	p.Scan(context.Background())
	if gen.newsCalls != 1 {
		t.Errorf("expected only the high scorer to reach the generator, got %d calls", gen.newsCalls)
	}
}

func TestScanBusySingleFlight(t *testing.T) {
	ingestor := &stubIngestor{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := ingestor.started
	p := New(ingestor, &stubGenerator{}, &stubCreator{}, nil, nil, testConfig())

	done := make(chan models.ScanSummary, 1)
	go func() { done <- p.Scan(context.Background()) }()
	<-started

	busy := p.Scan(context.Background())
	if !busy.Busy {
		t.Error("second scan must report busy while one is in flight")
	}
	if busy.CandidatesFound != 0 || busy.OpportunitiesCreated != 0 {
		t.Error("busy summary must carry zero counts")
	}
	if p.Status().State != "scanning" {
		t.Error("status must report scanning mid-cycle")
	}

	close(ingestor.release)
	<-done

	if got := len(p.Status().History); got != 1 {
		t.Errorf("busy trigger must not add history, got %d records", got)
	}
	if p.Status().State != "idle" {
		t.Error("pipeline must return to idle")
	}
}

func TestScanCreatorFailureSkipsOne(t *testing.T) {
	ingestor := &stubIngestor{candidates: []models.NewsCandidate{
		candidate("a", 90),
		candidate("b", 80),
	}}
	creator := &stubCreator{failAt: 1}
	p := New(ingestor, &stubGenerator{}, creator, nil, nil, testConfig())

	summary := p.Scan(context.Background())
	if summary.OpportunitiesCreated != 1 {
		t.Errorf("expected the surviving creation only, got %d", summary.OpportunitiesCreated)
	}
}

func TestScanDiverseFallback(t *testing.T) {
	ingestor := &stubIngestor{candidates: []models.NewsCandidate{candidate("a", 90)}}
	gen := &stubGenerator{failNews: true}
	p := New(ingestor, gen, &stubCreator{}, nil, nil, testConfig())

	summary := p.Scan(context.Background())
	if !gen.diverseCalled {
		t.Error("diverse fallback must run when generation fails with candidates present")
	}
	if summary.OpportunitiesCreated != 2 {
		t.Errorf("expected capped diverse creations, got %d", summary.OpportunitiesCreated)
	}
}

func TestScanNoCandidatesNoDiverse(t *testing.T) {
	ingestor := &stubIngestor{}
	gen := &stubGenerator{}
	p := New(ingestor, gen, &stubCreator{}, nil, nil, testConfig())

	summary := p.Scan(context.Background())
	if gen.diverseCalled {
		t.Error("diverse fallback must not run with zero candidates")
	}
	if summary.OpportunitiesCreated != 0 {
		t.Errorf("expected no creations, got %d", summary.OpportunitiesCreated)
	}
}

func TestScanIngestErrorFallsBackToDemo(t *testing.T) {
	ingestor := &stubIngestor{
		err:  fmt.Errorf("all 3 feed sources failed"),
		demo: []models.NewsCandidate{candidate("demo", 90)},
	}
	p := New(ingestor, &stubGenerator{}, &stubCreator{}, nil, nil, testConfig())

	summary := p.Scan(context.Background())
	if !ingestor.demoCalled {
		t.Error("ingest error must fall back to the demo fixtures")
	}
	if summary.CandidatesFound != 1 {
		t.Errorf("expected the demo candidate, got %d", summary.CandidatesFound)
	}
}

func TestScanDemoMode(t *testing.T) {
	ingestor := &stubIngestor{demo: []models.NewsCandidate{candidate("demo", 90)}}
	cfg := testConfig()
	cfg.DemoMode = true
	p := New(ingestor, &stubGenerator{}, &stubCreator{}, nil, nil, cfg)

	p.Scan(context.Background())
	if !ingestor.demoCalled {
		t.Error("demo mode must use the fixture path")
	}
}

func TestHistoryBounded(t *testing.T) {
	ingestor := &stubIngestor{}
	cfg := testConfig()
	cfg.HistorySize = 3
	p := New(ingestor, &stubGenerator{}, &stubCreator{}, nil, nil, cfg)

	for i := 0; i < 5; i++ {
		p.Scan(context.Background())
	}
	if got := len(p.Status().History); got != 3 {
		t.Errorf("expected history capped at 3, got %d", got)
	}
}
