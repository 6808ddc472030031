package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/ieltsmaster/studyplan/internal/chat"
)

// handleChat proxies one conversation turn to the configured model.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		s.respondError(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if s.chat == nil {
		s.respondError(w, r, http.StatusInternalServerError, "Configuration Error: API key is not set")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}

	conv, err := chat.ParseRequest(body)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.chatTimeout)
	defer cancel()

	reply, err := s.chat.Generate(ctx, conv)
	if err != nil {
		s.logger.Printf("[%s] ERROR: %s call failed: %v", reqID, s.chat.Name(), err)
		if errors.Is(err, chat.ErrEmptyConversation) {
			s.respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, r, http.StatusBadGateway, "Gemini API Failed: "+upstreamMessage(err))
		return
	}

	s.respondJSON(w, r, http.StatusOK, chat.NewEnvelope(reply))
}

// upstreamMessage strips the sentinel prefix from a provider error.
func upstreamMessage(err error) string {
	if multi, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range multi.Unwrap() {
			if !errors.Is(e, chat.ErrUpstream) {
				return e.Error()
			}
		}
	}
	return err.Error()
}
