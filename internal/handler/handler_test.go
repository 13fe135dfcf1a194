package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/ingest"
)

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperror.NotFound("recipe", 1), http.StatusNotFound},
		{"validation", apperror.Validation("name", "name is required"), http.StatusBadRequest},
		{"conflict", apperror.Conflict("already in a household"), http.StatusConflict},
		{"forbidden", apperror.Forbidden("no"), http.StatusForbidden},
		{"wrapped not found", fmt.Errorf("consume: %w", apperror.NotFound("recipe", 1)), http.StatusNotFound},
		{"ingest not configured", fmt.Errorf("parse: %w", ingest.ErrNotConfigured), http.StatusServiceUnavailable},
		{"ingest malformed", ingest.ErrMalformed, http.StatusBadGateway},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorStatus(tt.err))
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	rec := httptest.NewRecorder()
	writeError(rec, logger, "list pantry", errors.New("database is locked"), "failed to list pantry")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to list pantry", errorBody(t, rec))
	assert.Contains(t, logs.String(), "database is locked")
}

func TestWriteErrorUsesTaxonomyMessage(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rec := httptest.NewRecorder()
	writeError(rec, logger, "join", apperror.Conflict("Invalid invite code. Please check and try again."), "failed")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Invalid invite code. Please check and try again.", errorBody(t, rec))
}

func TestWriteUpstreamError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"transport failure", errors.New("anthropic: status 529: overloaded"), http.StatusBadGateway},
		{"malformed reply", fmt.Errorf("parse text list: %w", ingest.ErrMalformed), http.StatusBadGateway},
		{"not configured", ingest.ErrNotConfigured, http.StatusServiceUnavailable},
		{"bad input", apperror.Validation("text", "text is required"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeUpstreamError(rec, logger, "ingest", tt.err)
			assert.Equal(t, tt.want, rec.Code)
			assert.NotEmpty(t, errorBody(t, rec))
		})
	}
}

func TestParseIDParam(t *testing.T) {
	tests := []struct {
		value string
		ok    bool
	}{
		{"12", true},
		{"0", false},
		{"-3", false},
		{"abc", false},
		{"", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.SetPathValue("id", tt.value)
		_, err := parseIDParam(req)
		assert.Equal(t, tt.ok, err == nil, "value %q", tt.value)
		if err != nil {
			assert.ErrorIs(t, err, apperror.ErrValidation)
		}
	}
}
