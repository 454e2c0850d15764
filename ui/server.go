package ui

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goassay/app"
	"goassay/domain/core"
	"goassay/domain/governance"
	"goassay/internal"
	"goassay/internal/planner"
	"goassay/ports"
)

// Server exposes the decision layer over HTTP: a standalone governance
// audit endpoint, search execution, and archived run forensics.
type Server struct {
	router    *chi.Mux
	search    *app.SearchService
	archive   ports.RunArchivePort
	searchCfg planner.Config
	log       *internal.Logger
}

// NewServer wires the HTTP surface. archive may be nil; the run endpoints
// then answer 503.
func NewServer(search *app.SearchService, archive ports.RunArchivePort, searchCfg planner.Config, log *internal.Logger) *Server {
	if log == nil {
		log = internal.DefaultLogger
	}
	s := &Server{
		router:    chi.NewRouter(),
		search:    search,
		archive:   archive,
		searchCfg: searchCfg,
		log:       log,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/audit", s.handleAudit)
		r.Post("/search", s.handleSearch)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/report", s.handleRunReport)
	})
}

// Handler returns the root handler for mounting or serving.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("serving on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// auditRequest is the standalone governance audit payload: any belief state
// plus optional threshold overrides.
type auditRequest struct {
	governance.Inputs
	Thresholds *governance.Thresholds `json:"thresholds,omitempty"`
}

// auditResponse pairs the decision with the commit-gap forensics.
type auditResponse struct {
	Decision governance.Decision   `json:"decision"`
	Gaps     governance.CommitGaps `json:"gaps"`
}

// handleAudit adjudicates a posted belief state without running a search.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	th := s.searchCfg.Thresholds
	if req.Thresholds != nil {
		th = *req.Thresholds
	}

	decision := governance.Decide(req.Inputs, th)
	resp := auditResponse{Decision: decision}
	if !decision.HasBlocker(governance.BlockerBadInput) {
		resp.Gaps = governance.Gaps(req.Inputs, th)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	SessionID string `json:"session_id"`
	Seed      int64  `json:"seed"`
}

// handleSearch runs one full search and returns its record.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	outcome, err := s.search.RunSearch(r.Context(), app.SearchRequest{
		SessionID: sessionOrDefault(req.SessionID),
		Seed:      req.Seed,
		Config:    s.searchCfg,
	})
	if err != nil {
		s.log.Error("search failed: %v", err)
		s.writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	s.writeJSON(w, http.StatusOK, outcome.Record)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	recs, err := s.archive.ListRuns(r.Context(), r.URL.Query().Get("session_id"), 50)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	s.writeJSON(w, http.StatusOK, recs)
}

// sessionOrDefault assigns a fresh session ID when the caller omits one.
func sessionOrDefault(s string) core.SessionID {
	if strings.TrimSpace(s) == "" {
		return core.SessionID(core.NewID())
	}
	return core.SessionID(s)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	rec, err := s.archive.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}
