// Package pipeline orchestrates scan cycles: ingest, generate, create,
// record. One cycle runs at a time; scheduled and on-demand triggers
// share the same path and the same single-flight guard.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/darkalpha/marketscout/internal/logger"
	"github.com/darkalpha/marketscout/internal/market"
	"github.com/darkalpha/marketscout/internal/models"
	"github.com/darkalpha/marketscout/internal/storage"
)

// Ingestor supplies scored candidates and ring-buffer counters.
type Ingestor interface {
	Ingest(ctx context.Context) ([]models.NewsCandidate, error)
	IngestDemo() []models.NewsCandidate
	Counters() models.IngestCounters
}

// Generator turns candidates or internal topics into opportunities.
type Generator interface {
	Name() string
	FromNews(ctx context.Context, candidate models.NewsCandidate) (*models.Opportunity, error)
	DiverseMarkets(ctx context.Context, count int) []models.GenerationResult
}

// Notifier reports created markets and cycle health. All methods are
// best-effort; failures are logged and never affect the cycle.
type Notifier interface {
	NotifyCreated(opp models.Opportunity, marketRef string) error
	NotifyError(err error) error
	NotifyRecovery(failureCount int) error
}

// Config carries cycle policy.
type Config struct {
	Interval         time.Duration // wall-clock scan cadence
	TopCandidates    int           // candidates handed to the generator per cycle
	GenerateMinScore int           // secondary, higher score bar for generation
	MaxCreations     int           // downstream creations per cycle
	CreationDelay    time.Duration // pacing between create-market calls
	HistorySize      int           // bounded scan history length
	DemoMode         bool          // force the fixture ingest path
}

// DefaultConfig returns the stock cycle policy.
func DefaultConfig() Config {
	return Config{
		Interval:         2 * time.Hour,
		TopCandidates:    3,
		GenerateMinScore: 30,
		MaxCreations:     2,
		CreationDelay:    2 * time.Second,
		HistorySize:      20,
	}
}

// Pipeline owns all per-process pipeline state: the single-flight flag,
// scan history, and cumulative counters. None of it is persisted; a
// restart clears it.
type Pipeline struct {
	ingestor Ingestor
	gen      Generator
	creator  market.Creator
	notifier Notifier         // optional
	journal  *storage.Journal // optional
	cfg      Config

	mu           sync.Mutex
	scanning     bool
	history      []models.ScanRecord
	lastScan     time.Time
	totalCreated int
	failures     int
}

// New wires the pipeline. notifier and journal may be nil.
func New(ingestor Ingestor, gen Generator, creator market.Creator, notifier Notifier, journal *storage.Journal, cfg Config) *Pipeline {
	return &Pipeline{
		ingestor: ingestor,
		gen:      gen,
		creator:  creator,
		notifier: notifier,
		journal:  journal,
		cfg:      cfg,
	}
}

// Scan runs one cycle. A trigger while a cycle is in flight is a no-op
// returning a busy summary: nothing is queued and history is untouched.
func (p *Pipeline) Scan(ctx context.Context) models.ScanSummary {
	p.mu.Lock()
	if p.scanning {
		p.mu.Unlock()
		logger.Debug("Scan requested while one is in flight, reporting busy")
		return models.ScanSummary{Busy: true, StartedAt: time.Now()}
	}
	p.scanning = true
	p.mu.Unlock()

	// Unconditional return to idle, including on internal failure.
	defer func() {
		p.mu.Lock()
		p.scanning = false
		p.mu.Unlock()
	}()

	return p.runCycle(ctx)
}

func (p *Pipeline) runCycle(ctx context.Context) models.ScanSummary {
	started := time.Now()
	logger.Info("Starting scan cycle")

	candidates := p.collectCandidates(ctx)
	opportunities := p.generate(ctx, candidates)
	createdRefs := p.createMarkets(ctx, opportunities)

	record := models.ScanRecord{
		Timestamp:            started,
		CandidatesFound:      len(candidates),
		OpportunitiesCreated: len(createdRefs),
	}

	p.mu.Lock()
	p.history = append(p.history, record)
	if over := len(p.history) - p.cfg.HistorySize; over > 0 {
		p.history = append(p.history[:0], p.history[over:]...)
	}
	p.lastScan = started
	p.totalCreated += len(createdRefs)
	p.mu.Unlock()

	if p.journal != nil {
		if err := p.journal.RecordScan(record); err != nil {
			logger.Warn("Failed to journal scan record: %v", err)
		}
	}

	duration := time.Since(started)
	logger.Info("Scan cycle completed in %v: %d candidates, %d markets created",
		duration, record.CandidatesFound, record.OpportunitiesCreated)

	return models.ScanSummary{
		CandidatesFound:      record.CandidatesFound,
		OpportunitiesCreated: record.OpportunitiesCreated,
		CreatedRefs:          createdRefs,
		StartedAt:            started,
		Duration:             duration.String(),
	}
}

// collectCandidates runs the live ingest, falling back to the demo
// fixtures when demo mode is on or every live source failed. Consecutive
// live failures produce one error notification and one recovery
// notification, the same way cycle health is reported upstream.
func (p *Pipeline) collectCandidates(ctx context.Context) []models.NewsCandidate {
	if p.cfg.DemoMode {
		return p.ingestor.IngestDemo()
	}

	candidates, err := p.ingestor.Ingest(ctx)
	if err != nil {
		p.failures++
		logger.Error("Live ingest failed, using demo fixtures: %v", err)
		if p.failures == 1 && p.notifier != nil {
			if nerr := p.notifier.NotifyError(err); nerr != nil {
				logger.Warn("Failed to send error notification: %v", nerr)
			}
		}
		return p.ingestor.IngestDemo()
	}

	if p.failures > 0 && p.notifier != nil {
		if nerr := p.notifier.NotifyRecovery(p.failures); nerr != nil {
			logger.Warn("Failed to send recovery notification: %v", nerr)
		}
	}
	p.failures = 0
	return candidates
}

// generate hands the top candidates above the secondary score bar to the
// generator. Per-item failures are logged and dropped. When candidates
// existed but nothing was generated, the diverse-markets fallback keeps
// the cycle from being a complete no-op.
func (p *Pipeline) generate(ctx context.Context, candidates []models.NewsCandidate) []*models.Opportunity {
	var opportunities []*models.Opportunity

	attempted := 0
	for _, candidate := range candidates {
		if attempted >= p.cfg.TopCandidates {
			break
		}
		if candidate.RelevanceScore < p.cfg.GenerateMinScore {
			continue
		}
		attempted++

		opp, err := p.gen.FromNews(ctx, candidate)
		if err != nil {
			logger.Warn("Generation failed for %q: %v", candidate.Title, err)
			continue
		}
		opportunities = append(opportunities, opp)
	}

	if len(opportunities) == 0 && len(candidates) > 0 {
		logger.Info("No opportunities from %d candidates, generating diverse markets", len(candidates))
		for _, res := range p.gen.DiverseMarkets(ctx, p.cfg.MaxCreations) {
			if res.Success() {
				opportunities = append(opportunities, res.Opportunity)
			}
		}
	}
	return opportunities
}

// createMarkets invokes the downstream collaborator once per opportunity,
// serialized with a fixed delay to pace the downstream API. A failed
// creation skips that opportunity only.
func (p *Pipeline) createMarkets(ctx context.Context, opportunities []*models.Opportunity) []string {
	var createdRefs []string
	for i, opp := range opportunities {
		if len(createdRefs) >= p.cfg.MaxCreations {
			break
		}
		if i > 0 && p.cfg.CreationDelay > 0 {
			time.Sleep(p.cfg.CreationDelay)
		}

		ref, err := p.creator.CreateMarket(ctx, *opp)
		if err != nil {
			logger.Error("Create market failed for %q: %v", opp.Question, err)
			continue
		}
		logger.Info("Created market %s: %s", ref, opp.Question)
		createdRefs = append(createdRefs, ref)

		if p.journal != nil {
			if err := p.journal.RecordCreation(*opp, ref); err != nil {
				logger.Warn("Failed to journal creation %s: %v", ref, err)
			}
		}
		if p.notifier != nil {
			if err := p.notifier.NotifyCreated(*opp, ref); err != nil {
				logger.Warn("Failed to notify creation %s: %v", ref, err)
			}
		}
	}
	return createdRefs
}

// Run executes an initial cycle, then repeats on the configured interval
// until ctx is cancelled. On-demand Scan calls during the run share the
// single-flight guard.
func (p *Pipeline) Run(ctx context.Context) {
	logger.Info("Starting scan scheduler (interval: %v, generator: %s)", p.cfg.Interval, p.gen.Name())

	p.Scan(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scan scheduler stopped")
			return
		case <-ticker.C:
			logger.Debug("Starting scheduled scan cycle")
			p.Scan(ctx)
		}
	}
}

// Status returns a point-in-time snapshot of the scheduler.
func (p *Pipeline) Status() models.PipelineStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := "idle"
	if p.scanning {
		state = "scanning"
	}
	history := make([]models.ScanRecord, len(p.history))
	copy(history, p.history)

	return models.PipelineStatus{
		State:        state,
		Generator:    p.gen.Name(),
		LastScan:     p.lastScan,
		TotalCreated: p.totalCreated,
		History:      history,
		Ingest:       p.ingestor.Counters(),
	}
}
