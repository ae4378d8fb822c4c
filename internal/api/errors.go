package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"taq-bars/internal/sampling"
	"taq-bars/internal/storage"
)

var (
	errInvalidRequest  = errors.New("invalid request")
	errTooManyTrades   = errors.New("too many trades")
	errStoreNotEnabled = errors.New("bar store not configured")
)

// statusFor maps an error to an HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, sampling.ErrInvalidConfiguration):
		return http.StatusBadRequest, "invalid_configuration"
	case errors.Is(err, sampling.ErrMalformedInput):
		return http.StatusUnprocessableEntity, "malformed_input"
	case errors.Is(err, errTooManyTrades):
		return http.StatusRequestEntityTooLarge, "too_many_trades"
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, errStoreNotEnabled):
		return http.StatusNotImplemented, "store_not_enabled"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: msg, Code: code})
}
