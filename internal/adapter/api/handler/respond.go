package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/V4T54L/voicewatch/internal/domain"
	"github.com/V4T54L/voicewatch/internal/filter"
	"github.com/V4T54L/voicewatch/internal/summary"
	"github.com/V4T54L/voicewatch/internal/usecase"
)

func respondWithJSON(w http.ResponseWriter, logger *slog.Logger, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, filter.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, usecase.ErrCacheDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstream), errors.Is(err, summary.ErrInvalidBucketTime):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, err error, msg string) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	}
	http.Error(w, http.StatusText(code)+": "+msg, code)
}
