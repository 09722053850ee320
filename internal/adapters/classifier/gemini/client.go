// Package gemini classifies locations with Google's Gemini models.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/okian/isp/internal/adapters/classifier"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrMissingAPIKey is returned by NewClient without a key.
var ErrMissingAPIKey = errors.New("gemini api key is required")

// Client implements location.Classifier.
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini API client. baseURL may be empty.
func NewClient(ctx context.Context, apiKey, model, baseURL string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if u := strings.TrimSpace(baseURL); u != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: u}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = DefaultModel
	}
	return &Client{client: client, model: model}, nil
}

// Classify asks the model for the state of loc.
func (c *Client) Classify(ctx context.Context, loc string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(classifier.Prompt(loc)), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(strings.TrimSpace(part.Text))
		}
	}
	return classifier.Sanitize(builder.String())
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }
