// Package anthropic is an ingest.Model backed by the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dukerupert/larder/internal/ingest"
)

const (
	DefaultModel = "claude-sonnet-4-5-20250929"

	maxTokens      = 4096
	requestTimeout = 90 * time.Second
)

// Client wraps the SDK's messages service.
type Client struct {
	messages *sdk.MessageService
	model    string
	keySet   bool
}

// New returns a Client. An empty apiKey is allowed; every call then fails
// with ingest.ErrNotConfigured. opts are passed to the SDK after the key,
// so tests can point it at another host.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(requestTimeout),
	}, opts...)
	client := sdk.NewClient(opts...)
	return &Client{messages: &client.Messages, model: model, keySet: apiKey != ""}
}

// Complete sends prompt, preceded by img when set, and returns the
// concatenated text blocks of the reply.
func (c *Client) Complete(ctx context.Context, prompt string, img *ingest.Image) (string, error) {
	if !c.keySet {
		return "", ingest.ErrNotConfigured
	}

	var blocks []sdk.ContentBlockParamUnion
	if img != nil {
		blocks = append(blocks, sdk.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)))
	}
	blocks = append(blocks, sdk.NewTextBlock(prompt))

	msg, err := c.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(blocks...)},
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("anthropic: status %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return sb.String(), nil
}
