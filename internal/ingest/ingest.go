// Package ingest turns free text, receipt photos and recipe photos into
// structured pantry items and recipe drafts by asking a language model.
//
// The model itself sits behind the Model interface; adapters live in the
// anthropic and gemini subpackages. Everything here is long-latency and
// holds no database state, so callers run it before any pantry mutation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/model"
)

// ErrNotConfigured is returned when no model credentials are available.
var ErrNotConfigured = errors.New("ingestion provider is not configured")

// ErrMalformed is returned when the model's reply does not match the
// expected shape. The whole call fails; nothing is coerced.
var ErrMalformed = errors.New("malformed model output")

// Image is an encoded image ready to send to a model.
type Image struct {
	Data      []byte
	MediaType string
}

// Model sends one user prompt, with an optional image, and returns the
// text of the reply.
type Model interface {
	Complete(ctx context.Context, prompt string, img *Image) (string, error)
}

// Parser implements the ingestion operations on top of a Model.
type Parser struct {
	model  Model
	client *http.Client
	logger *slog.Logger
}

// NewParser returns a Parser. A nil model makes every call fail with
// ErrNotConfigured.
func NewParser(m Model, logger *slog.Logger) *Parser {
	return &Parser{
		model:  m,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// SetHTTPClient replaces the client used to download recipe images.
func (p *Parser) SetHTTPClient(c *http.Client) {
	p.client = c
}

func (p *Parser) complete(ctx context.Context, op, prompt string, img *Image) (string, error) {
	if p.model == nil {
		return "", ErrNotConfigured
	}
	start := time.Now()
	text, err := p.model.Complete(ctx, prompt, img)
	if err != nil {
		p.logger.Error("ingest call failed", "op", op, "error", err, "duration", time.Since(start))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	p.logger.Debug("ingest call", "op", op, "duration", time.Since(start), "reply_bytes", len(text))
	return text, nil
}

// ParseTextList splits a free-text shopping list into items.
func (p *Parser) ParseTextList(ctx context.Context, text string) ([]model.ParsedItem, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperror.Validation("text", "text is required")
	}
	reply, err := p.complete(ctx, "parse text list", textListPrompt(text), nil)
	if err != nil {
		return nil, err
	}
	return decodeItems(reply)
}

// ExtractItemsFromReceipt reads the grocery items off a receipt photo.
func (p *Parser) ExtractItemsFromReceipt(ctx context.Context, img Image) ([]model.ParsedItem, error) {
	reply, err := p.complete(ctx, "extract receipt", receiptPrompt, &img)
	if err != nil {
		return nil, err
	}
	return decodeItems(reply)
}

// ExtractRecipeFromImage downloads the image at imageURL and reads a
// recipe from it.
func (p *Parser) ExtractRecipeFromImage(ctx context.Context, imageURL string) (*model.RecipeDraft, error) {
	if p.model == nil {
		return nil, ErrNotConfigured
	}
	img, err := FetchImage(ctx, p.client, imageURL)
	if err != nil {
		return nil, err
	}
	reply, err := p.complete(ctx, "extract recipe", recipeImagePrompt, img)
	if err != nil {
		return nil, err
	}
	draft, err := decodeRecipe(reply)
	if err != nil {
		return nil, err
	}
	draft.ImageURL = imageURL
	return draft, nil
}

// SearchRecipes asks for recipe ideas matching query, ranked against the
// names of what is in the pantry.
func (p *Parser) SearchRecipes(ctx context.Context, query string, pantry []string) ([]model.RecipeSuggestion, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("query", "query is required")
	}
	reply, err := p.complete(ctx, "search recipes", searchPrompt(query, pantry), nil)
	if err != nil {
		return nil, err
	}
	return decodeSuggestions(reply)
}
