package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse acknowledges a successful save.
type OKResponse struct {
	OK bool `json:"ok"`
}

// respondJSON is a helper to write a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("[%s] ERROR: failed to write json response: %v", RequestID(r.Context()), err)
		}
	}
}

// respondError is a helper to write a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, code int, message string) {
	if code != http.StatusNotFound {
		s.logger.Printf("[%s] HTTP %d: %s", RequestID(r.Context()), code, message)
	}
	s.respondJSON(w, r, code, ErrorResponse{Error: message})
}

// statusFor maps a sync error to its status code and client-facing message.
// Storage detail stays in the server log.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, syncstore.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, syncstore.ErrInvalidPayload):
		return http.StatusBadRequest, "Invalid data format"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
