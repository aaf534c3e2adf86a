package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/reindex"
	"github.com/poiesic/lahza/search"
)

type searchRequest struct {
	Query         string  `json:"query"`
	FilterEpisode core.ID `json:"filter_episode,omitempty"`
}

type searchResponse struct {
	Results []*core.SearchResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleSearch handles POST /api/search requests.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	results, err := s.searcher.Search(r.Context(), req.Query, req.FilterEpisode)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

// handleReindex handles GET /api/reindex requests.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.cronSecret == "" {
		writeError(w, http.StatusInternalServerError, "Missing Config")
		return
	}
	if !secretsEqual(credential(r), s.cronSecret) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(r, "limit", DefaultBatchLimit)
	if err != nil || limit < 1 || limit > s.maxBatchLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(s.maxBatchLimit))
		return
	}

	result, err := s.reindexer.ProcessBatch(r.Context(), offset, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleHealth handles GET /health requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps service errors to status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "Query required")
	case errors.Is(err, reindex.ErrInvalidBatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
