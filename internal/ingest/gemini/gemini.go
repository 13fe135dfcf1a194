// Package gemini is an ingest.Model backed by Google's Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dukerupert/larder/internal/ingest"
)

const DefaultModel = "gemini-1.5-flash"

// Client wraps a genai generative model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New connects to Gemini with apiKey.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, ingest.ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	m := client.GenerativeModel(model)
	m.ResponseMIMEType = "application/json"
	return &Client{client: client, model: m}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Complete sends the image, when set, followed by the prompt.
func (c *Client) Complete(ctx context.Context, prompt string, img *ingest.Image) (string, error) {
	var parts []genai.Part
	if img != nil {
		parts = append(parts, genai.ImageData(strings.TrimPrefix(img.MediaType, "image/"), img.Data))
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := c.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: empty response")
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: unexpected response format")
	}
	return sb.String(), nil
}
