package api

import (
	"errors"
	"io"
	"net/http"
)

// handleSync dispatches /api/sync by method.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
	case http.MethodGet:
		s.handleSyncGet(w, r)
	case http.MethodPost:
		s.handleSyncPost(w, r)
	default:
		s.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSyncGet returns the state split by region, or the stored object as
// is with ?view=raw.
func (s *Server) handleSyncGet(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	if r.URL.Query().Get("view") == "raw" {
		st, err := s.syncer.Load(r.Context())
		if err != nil {
			s.logger.Printf("[%s] ERROR: load failed: %v", reqID, err)
			s.respondError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		s.respondJSON(w, r, http.StatusOK, st)
		return
	}

	regions, err := s.syncer.LoadRegions(r.Context())
	if err != nil {
		s.logger.Printf("[%s] ERROR: load failed: %v", reqID, err)
		s.respondError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	s.respondJSON(w, r, http.StatusOK, regions)
}

// handleSyncPost merges a partial update into the stored state.
func (s *Server) handleSyncPost(w http.ResponseWriter, r *http.Request) {
	reqID := RequestID(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, http.StatusBadRequest, "request body too large")
			return
		}
		s.respondError(w, r, http.StatusBadRequest, "failed to read request body")
		return
	}

	region, err := s.syncer.Save(r.Context(), body)
	if err != nil {
		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.logger.Printf("[%s] ERROR: save failed: %v", reqID, err)
		}
		s.respondError(w, r, code, msg)
		return
	}

	s.logger.Printf("[%s] saved %s", reqID, region)
	s.respondJSON(w, r, http.StatusOK, OKResponse{OK: true})
}
