// Package models defines the core domain entities: news candidates,
// opportunities, and scan records.
package models

import (
	"errors"
	"strings"
	"time"
)

// Category classifies a news item or opportunity by topic.
type Category string

const (
	CategoryRegulation Category = "regulation"
	CategoryTechnology Category = "technology"
	CategoryAdoption   Category = "adoption"
	CategoryEvents     Category = "events"
)

// Categories lists all members in fixed priority order. The order doubles as
// the tie-break rule when classification hit counts are equal.
var Categories = []Category{
	CategoryRegulation,
	CategoryTechnology,
	CategoryAdoption,
	CategoryEvents,
}

// DefaultCategory is assigned when a text matches no category keyword.
const DefaultCategory = CategoryTechnology

// ParseCategory maps a string to a known Category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Urgency ranks how time-sensitive a news item is.
type Urgency string

const (
	UrgencyBreaking  Urgency = "breaking"
	UrgencyTimely    Urgency = "timely"
	UrgencyEvergreen Urgency = "evergreen"
)

// ParseUrgency maps a string to a known Urgency.
func ParseUrgency(s string) (Urgency, bool) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	switch u {
	case UrgencyBreaking, UrgencyTimely, UrgencyEvergreen:
		return u, true
	}
	return "", false
}

// NewsCandidate is one fetched feed entry after parsing and scoring.
// Immutable once built by the ingestor.
type NewsCandidate struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Summary         string    `json:"summary,omitempty"`
	Source          string    `json:"source"`
	Link            string    `json:"link"`
	PublishedAt     time.Time `json:"published_at"`
	RelevanceScore  int       `json:"relevance_score"`
	MatchedKeywords []string  `json:"matched_keywords"`
	Category        Category  `json:"category"`
	Urgency         Urgency   `json:"urgency"`
}

// Validate checks candidate field constraints.
func (c *NewsCandidate) Validate() error {
	if c.ID == "" {
		return errors.New("candidate ID must not be empty")
	}
	if c.Title == "" {
		return errors.New("candidate title must not be empty")
	}
	if c.Source == "" {
		return errors.New("candidate source must not be empty")
	}
	if c.RelevanceScore < 0 || c.RelevanceScore > 100 {
		return errors.New("relevance score must be between 0 and 100")
	}
	if _, ok := ParseCategory(string(c.Category)); !ok {
		return errors.New("unknown candidate category")
	}
	if _, ok := ParseUrgency(string(c.Urgency)); !ok {
		return errors.New("unknown candidate urgency")
	}
	return nil
}
