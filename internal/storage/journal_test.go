package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/darkalpha/marketscout/internal/models"
)

func newTestJournal(t *testing.T, maxCreations int) *Journal {
	t.Helper()
	j, err := New(maxCreations, ":memory:")
	if err != nil {
		t.Fatalf("failed to open test journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleOpportunity(question string) models.Opportunity {
	return models.Opportunity{
		Question:              question,
		Category:              models.CategoryRegulation,
		Urgency:               models.UrgencyTimely,
		Reasoning:             "Filing activity is heavy.",
		SuggestedDurationDays: 30,
		SuggestedLiquidity:    250,
		Confidence:            0.8,
		SourceRef:             models.SourceRef{Title: "ETF headline", Source: "test", Link: "https://example.com/etf"},
		CreatedAt:             time.Now(),
	}
}

func TestRecordAndQueryCreations(t *testing.T) {
	j := newTestJournal(t, 100)

	opp := sampleOpportunity("Will a spot ETF be approved this quarter?")
	if err := j.RecordCreation(opp, "mkt-1"); err != nil {
		t.Fatalf("RecordCreation: %v", err)
	}

	creations, err := j.RecentCreations(10)
	if err != nil {
		t.Fatalf("RecentCreations: %v", err)
	}
	if len(creations) != 1 {
		t.Fatalf("expected 1 creation, got %d", len(creations))
	}
	got := creations[0]
	if got.MarketRef != "mkt-1" {
		t.Errorf("expected market ref mkt-1, got %q", got.MarketRef)
	}
	if got.Question != opp.Question {
		t.Errorf("question round-trip failed: %q", got.Question)
	}
	if got.Category != models.CategoryRegulation || got.Urgency != models.UrgencyTimely {
		t.Errorf("enum round-trip failed: %s %s", got.Category, got.Urgency)
	}
	if got.SourceTitle != "ETF headline" || got.SourceLink != "https://example.com/etf" {
		t.Errorf("source ref round-trip failed: %+v", got)
	}
}

func TestCreationsNewestFirst(t *testing.T) {
	j := newTestJournal(t, 100)

	for i := 0; i < 3; i++ {
		opp := sampleOpportunity(fmt.Sprintf("Will market %d resolve yes?", i))
		if err := j.RecordCreation(opp, fmt.Sprintf("mkt-%d", i)); err != nil {
			t.Fatalf("RecordCreation: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	creations, err := j.RecentCreations(2)
	if err != nil {
		t.Fatalf("RecentCreations: %v", err)
	}
	if len(creations) != 2 {
		t.Fatalf("limit not applied, got %d", len(creations))
	}
	if creations[0].MarketRef != "mkt-2" {
		t.Errorf("expected newest first, got %q", creations[0].MarketRef)
	}
}

func TestCreationRotation(t *testing.T) {
	j := newTestJournal(t, 2)

	for i := 0; i < 3; i++ {
		opp := sampleOpportunity(fmt.Sprintf("Will market %d resolve yes?", i))
		if err := j.RecordCreation(opp, fmt.Sprintf("mkt-%d", i)); err != nil {
			t.Fatalf("RecordCreation: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	n, err := j.CreationCount()
	if err != nil {
		t.Fatalf("CreationCount: %v", err)
	}
	if n != 2 {
		t.Errorf("expected rotation to cap at 2, got %d", n)
	}

	creations, err := j.RecentCreations(10)
	if err != nil {
		t.Fatalf("RecentCreations: %v", err)
	}
	for _, c := range creations {
		if c.MarketRef == "mkt-0" {
			t.Error("oldest creation should have been rotated out")
		}
	}
}

func TestRecordScan(t *testing.T) {
	j := newTestJournal(t, 100)

	rec := models.ScanRecord{
		Timestamp:            time.Now(),
		CandidatesFound:      4,
		OpportunitiesCreated: 2,
	}
	if err := j.RecordScan(rec); err != nil {
		t.Fatalf("RecordScan: %v", err)
	}
}
