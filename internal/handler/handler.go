package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/larder/internal/apperror"
	"github.com/dukerupert/larder/internal/ingest"
)

const maxJSONBody = 1 << 20

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathID(r, "id")
}

func parsePathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.Validation(name, "invalid "+name)
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for bodies that may be absent. An empty
// body, including an empty chunked one, leaves v untouched.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

// errorStatus maps an error from a store or the ingestion layer to an HTTP
// status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ingest.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, ingest.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes {"error": msg}. Taxonomy errors carry their own message;
// anything else is logged and reported as fallback.
func writeError(w http.ResponseWriter, logger *slog.Logger, op string, err error, fallback string) {
	status := errorStatus(err)
	msg := apperror.Message(err)
	switch {
	case msg != "":
	case status == http.StatusServiceUnavailable:
		msg = "Ingestion is not configured on this server"
	case status == http.StatusInternalServerError:
		logger.Error(op, "error", err)
		msg = fallback
	default:
		logger.Warn(op, "error", err)
		msg = fallback
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError is writeError for calls that went to an ingestion
// model: failures outside the taxonomy are the upstream's fault.
func writeUpstreamError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	if errorStatus(err) != http.StatusInternalServerError {
		writeError(w, logger, op, err, "The ingestion service returned an unusable reply, please try again")
		return
	}
	logger.Error(op, "error", err)
	writeJSON(w, http.StatusBadGateway, map[string]string{"error": "The ingestion service failed, please try again"})
}
