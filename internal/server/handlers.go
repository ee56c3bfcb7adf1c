package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pipscope/pkg/archive"
	"github.com/matzehuels/pipscope/pkg/audit"
)

// auditRequest is the body of POST /api/v1/audits.
type auditRequest struct {
	Package            string `json:"package"`
	Version            string `json:"version,omitempty"`
	MaxDepth           int    `json:"max_depth,omitempty"`
	IncludeConditional bool   `json:"include_conditional,omitempty"`
	IncludeDev         bool   `json:"include_dev,omitempty"`
	Licenses           bool   `json:"licenses,omitempty"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Package) == "" {
		respondError(w, http.StatusBadRequest, "package is required")
		return
	}

	if !s.sem.TryAcquire(1) {
		respondError(w, http.StatusTooManyRequests, "server is at capacity, retry later")
		return
	}
	defer s.sem.Release(1)

	opts := audit.Options{
		Version:            req.Version,
		MaxDepth:           req.MaxDepth,
		IncludeConditional: req.IncludeConditional,
		IncludeDev:         req.IncludeDev,
		Licenses:           req.Licenses,
	}
	run, err := audit.Resolve(r.Context(), s.source, req.Package, opts)
	if err != nil {
		// Resolution only fails when the request context ends, so
		// the client is gone and there is nobody left to answer.
		s.logger.Warn("audit interrupted", "package", req.Package, "err", err)
		return
	}

	if m, ok := run.MissingFor(run.RootName); ok {
		if m.NotFound {
			respondError(w, http.StatusNotFound, fmt.Sprintf("package not found: %s", run.RootName))
		} else {
			respondError(w, http.StatusBadGateway, fmt.Sprintf("registry fetch failed: %s", m.Err))
		}
		return
	}

	rep := run.Export()
	if s.archive != nil {
		if err := s.archive.Save(r.Context(), rep); err != nil {
			s.logger.Warn("archive save failed", "run_id", rep.RunID, "err", err)
		}
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.archive.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("archive list failed", "err", err)
		respondError(w, http.StatusInternalServerError, "archive list failed")
		return
	}
	if entries == nil {
		entries = []archive.Entry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "archive not configured")
		return
	}

	runID := chi.URLParam(r, "runID")
	rep, err := s.archive.Get(r.Context(), runID)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			respondError(w, http.StatusNotFound, fmt.Sprintf("report not found: %s", runID))
			return
		}
		s.logger.Error("archive get failed", "run_id", runID, "err", err)
		respondError(w, http.StatusInternalServerError, "archive get failed")
		return
	}
	respondJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
