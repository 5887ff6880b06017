package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/darkalpha/marketscout/internal/models"
)

const systemPrompt = "You design yes/no prediction markets. " +
	"Reply with a single JSON object and nothing else."

// remoteProvider implements Provider on top of any text-completion
// backend. Both remote variants share prompt construction and strict
// decoding of the structured reply.
type remoteProvider struct {
	name     string
	complete func(ctx context.Context, prompt string) (string, error)
}

func (p *remoteProvider) Name() string { return p.name }

func (p *remoteProvider) FromNews(ctx context.Context, candidate models.NewsCandidate) (*models.Opportunity, error) {
	prompt := fmt.Sprintf(
		"News item from %s: %q\nSummary: %s\nDetected category: %s, urgency: %s.\n\n%s",
		candidate.Source, candidate.Title, candidate.Summary,
		candidate.Category, candidate.Urgency, schemaInstruction,
	)
	raw, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseOpportunity(raw)
}

func (p *remoteProvider) FromTopic(ctx context.Context, topic string, category models.Category) (*models.Opportunity, error) {
	catHint := "choose the best fitting category"
	if category != "" {
		catHint = "use category " + string(category)
	}
	prompt := fmt.Sprintf("Topic: %q (%s).\n\n%s", topic, catHint, schemaInstruction)
	raw, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseOpportunity(raw)
}

const schemaInstruction = `Return a JSON object with exactly these fields:
{
  "question": "yes/no question ending in ?",
  "category": "regulation|technology|adoption|events",
  "urgency": "breaking|timely|evergreen",
  "reasoning": "one or two sentences",
  "suggested_duration_days": <integer>,
  "suggested_liquidity": <number>
}`

type opportunityPayload struct {
	Question              string  `json:"question"`
	Category              string  `json:"category"`
	Urgency               string  `json:"urgency"`
	Reasoning             string  `json:"reasoning"`
	SuggestedDurationDays int     `json:"suggested_duration_days"`
	SuggestedLiquidity    float64 `json:"suggested_liquidity"`
}

// parseOpportunity decodes the single JSON object expected in a provider
// reply and enforces the enumerations. Numeric bounds are clamped later
// by the service.
func parseOpportunity(raw string) (*models.Opportunity, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in provider reply")
	}

	var payload opportunityPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("decode provider reply: %w", err)
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		return nil, fmt.Errorf("provider reply missing question")
	}
	if !strings.HasSuffix(question, "?") {
		question += "?"
	}

	category, ok := models.ParseCategory(payload.Category)
	if !ok {
		return nil, fmt.Errorf("provider reply has unknown category %q", payload.Category)
	}
	urgency, ok := models.ParseUrgency(payload.Urgency)
	if !ok {
		return nil, fmt.Errorf("provider reply has unknown urgency %q", payload.Urgency)
	}

	return &models.Opportunity{
		Question:              question,
		Category:              category,
		Urgency:               urgency,
		Reasoning:             strings.TrimSpace(payload.Reasoning),
		SuggestedDurationDays: payload.SuggestedDurationDays,
		SuggestedLiquidity:    payload.SuggestedLiquidity,
	}, nil
}
