package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
	"github.com/tky-kevin/LazyTravelogue-sub000/internal/services"
)

const maxBodyBytes = 1 << 20

var errBadBody = errors.New("invalid json body")

func writeJSON(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && log != nil {
		log.Warn("encode failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, status int, msg string) {
	writeJSON(w, r, log, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain only one JSON object")
	}
	return nil
}

// writeServiceError maps a planning failure to its HTTP status. Internal
// errors are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, ports.ErrOracleUnavailable):
		writeError(w, r, log, http.StatusServiceUnavailable, "routing service unavailable")
	case errors.Is(err, ports.ErrRouteNotFound):
		writeError(w, r, log, http.StatusUnprocessableEntity, "no route found")
	case errors.Is(err, services.ErrInvalidStartTime):
		writeError(w, r, log, http.StatusBadRequest, err.Error())
	default:
		if log != nil {
			log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		writeError(w, r, log, http.StatusInternalServerError, "internal server error")
	}
}
