package models

import (
	"errors"
	"strings"
	"time"
)

// SourceRef points an opportunity back at what seeded it: either a news
// candidate or a bare topic string, never both.
type SourceRef struct {
	Title  string `json:"title,omitempty"`
	Source string `json:"source,omitempty"`
	Link   string `json:"link,omitempty"`
	Topic  string `json:"topic,omitempty"`
}

// FromCandidate reports whether the reference carries candidate fields.
func (r SourceRef) FromCandidate() bool { return r.Topic == "" }

// Opportunity is one generated decision record, ready for downstream
// market creation. Not mutated after creation.
type Opportunity struct {
	Question              string    `json:"question"`
	Category              Category  `json:"category"`
	Urgency               Urgency   `json:"urgency"`
	Reasoning             string    `json:"reasoning"`
	SuggestedDurationDays int       `json:"suggested_duration_days"`
	SuggestedLiquidity    float64   `json:"suggested_liquidity"`
	Confidence            float64   `json:"confidence"`
	SourceRef             SourceRef `json:"source_ref"`
	CreatedAt             time.Time `json:"created_at"`
}

// Validate checks opportunity field constraints. Duration and liquidity
// ranges are policy and checked by the generator against its configured
// bounds; here only the hard invariants hold.
func (o *Opportunity) Validate() error {
	if strings.TrimSpace(o.Question) == "" {
		return errors.New("question must not be empty")
	}
	if !strings.HasSuffix(o.Question, "?") {
		return errors.New("question must end in a question mark")
	}
	if _, ok := ParseCategory(string(o.Category)); !ok {
		return errors.New("unknown opportunity category")
	}
	if _, ok := ParseUrgency(string(o.Urgency)); !ok {
		return errors.New("unknown opportunity urgency")
	}
	if o.SuggestedDurationDays < 1 {
		return errors.New("suggested duration must be at least 1 day")
	}
	if o.SuggestedLiquidity < 0 {
		return errors.New("suggested liquidity must not be negative")
	}
	if o.Confidence < 0.0 || o.Confidence > 1.0 {
		return errors.New("confidence must be between 0.0 and 1.0")
	}
	hasTopic := o.SourceRef.Topic != ""
	hasCandidate := o.SourceRef.Title != "" || o.SourceRef.Source != "" || o.SourceRef.Link != ""
	if hasTopic && hasCandidate {
		return errors.New("source ref must carry either a candidate or a topic, not both")
	}
	return nil
}

// GenerationResult wraps one generation attempt so batch callers can count
// failures explicitly instead of losing them.
type GenerationResult struct {
	Opportunity *Opportunity
	Err         error
}

// Success reports whether the attempt produced an opportunity.
func (r GenerationResult) Success() bool { return r.Err == nil && r.Opportunity != nil }

// ScanRecord is one completed pipeline cycle, kept in a bounded history.
type ScanRecord struct {
	Timestamp            time.Time `json:"timestamp"`
	CandidatesFound      int       `json:"candidates_found"`
	OpportunitiesCreated int       `json:"opportunities_created"`
}

// ScanSummary is returned to the caller of a scan cycle.
type ScanSummary struct {
	Busy                 bool      `json:"busy"`
	CandidatesFound      int       `json:"candidates_found"`
	OpportunitiesCreated int       `json:"opportunities_created"`
	CreatedRefs          []string  `json:"created_refs,omitempty"`
	StartedAt            time.Time `json:"started_at"`
	Duration             string    `json:"duration,omitempty"`
}

// IngestCounters exposes the ingestor's internal sizes for status snapshots.
type IngestCounters struct {
	Sources      int `json:"sources"`
	CacheSize    int `json:"cache_size"`
	CachedEvents int `json:"cached_events"`
}

// PipelineStatus is a point-in-time snapshot of the scheduler.
type PipelineStatus struct {
	State        string         `json:"state"`
	Generator    string         `json:"generator"`
	LastScan     time.Time      `json:"last_scan"`
	TotalCreated int            `json:"total_created"`
	History      []ScanRecord   `json:"history"`
	Ingest       IngestCounters `json:"ingest"`
}
