package generator

import (
	"context"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
)

// CohereConfig holds settings for the Cohere chat backend.
type CohereConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// DefaultCohereConfig returns the stock Cohere settings.
func DefaultCohereConfig() CohereConfig {
	return CohereConfig{
		Model:   "command-r",
		Timeout: 30 * time.Second,
	}
}

type cohereBackend struct {
	client *cohereclient.Client
	model  string
}

func newCohereProvider(cfg Config) Provider {
	client := cohereclient.NewClient(
		cohereclient.WithToken(cfg.Cohere.APIKey),
		cohereclient.WithHTTPClient(&http.Client{Timeout: cfg.Cohere.Timeout}),
	)
	b := &cohereBackend{client: client, model: cfg.Cohere.Model}
	return &remoteProvider{name: "cohere", complete: b.complete}
}

func (b *cohereBackend) complete(ctx context.Context, prompt string) (string, error) {
	model := b.model
	preamble := systemPrompt
	resp, err := b.client.Chat(ctx, &cohere.ChatRequest{
		Message:  prompt,
		Model:    &model,
		Preamble: &preamble,
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat: %w", err)
	}
	if resp == nil || resp.Text == "" {
		return "", fmt.Errorf("cohere chat returned empty response")
	}
	return resp.Text, nil
}
