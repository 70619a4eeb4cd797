// Package server exposes a loaded phenotype bundle over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kamusis/phenopick/internal/config"
	"github.com/kamusis/phenopick/internal/obograph"
	"github.com/kamusis/phenopick/internal/phenodata"
	"github.com/kamusis/phenopick/internal/picker"
)

// Options configures New.
type Options struct {
	Addr     string
	PageSize int
	Logger   *zap.Logger
}

// Server serves the bundle held by a cache.
type Server struct {
	cache    *phenodata.Cache
	pageSize int
	log      *zap.Logger
	handler  http.Handler
	server   *http.Server
}

// New builds the server and its routes. The cache is loaded lazily by the
// first request that needs it.
func New(cache *phenodata.Cache, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}
	addr := opts.Addr
	if addr == "" {
		addr = config.DefaultAddr
	}
	s := &Server{cache: cache, pageSize: pageSize, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("GET /v1/anatomy", s.handleAnatomy)
	mux.HandleFunc("GET /v1/anatomy/phenotypes", s.handleAnatomyPhenotypes)
	mux.HandleFunc("GET /v1/phenotypes/search", s.handleSearch)
	mux.HandleFunc("POST /v1/reload", s.handleReload)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.handler = s.withLogging(s.withRecovery(mux))
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler { return s.handler }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.server.Addr }

// Start listens until Stop is called.
func (s *Server) Start() error {
	s.log.Info("server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("server stopping")
	return s.server.Shutdown(ctx)
}

// bundle returns the loaded bundle or writes a 503.
func (s *Server) bundle(w http.ResponseWriter, r *http.Request) (*phenodata.Bundle, bool) {
	b, err := s.cache.Get(r.Context())
	if err != nil {
		if r.Context().Err() == nil {
			s.log.Warn("bundle unavailable", zap.Error(err))
		}
		writeError(w, http.StatusServiceUnavailable, "ontologies_unavailable", err.Error())
		return nil, false
	}
	return b, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{State: "loading"}
	if st, ok := s.cache.Peek().(phenodata.Loaded); ok {
		b := st.Bundle
		resp = StatusResponse{
			State:          "loaded",
			Generation:     b.Generation,
			LoadedAt:       b.LoadedAt.UTC().Format(time.RFC3339),
			AnatomyRoot:    b.Anatomy.Root.URI,
			AnatomyTerms:   b.Anatomy.Len(),
			PhenotypeRoot:  b.Phenotype.Root.URI,
			PhenotypeTerms: len(b.Phenotypes),
			IndexedTerms:   b.Index.Len(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnatomy(w http.ResponseWriter, r *http.Request) {
	b, ok := s.bundle(w, r)
	if !ok {
		return
	}
	uri := strings.TrimSpace(r.URL.Query().Get("uri"))
	if uri == "" {
		uri = b.Anatomy.Root.URI
	}
	n, found := b.Anatomy.Get(uri)
	if !found {
		writeError(w, http.StatusNotFound, "unknown_anatomy", uri)
		return
	}
	resp := AnatomyResponse{Term: anatomyTerm(b, n)}
	for _, p := range b.Anatomy.Parents(uri) {
		resp.Parents = append(resp.Parents, anatomyTerm(b, p))
	}
	for _, c := range b.Anatomy.Children(uri) {
		resp.Children = append(resp.Children, anatomyTerm(b, c))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnatomyPhenotypes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	uri := strings.TrimSpace(q.Get("uri"))
	if uri == "" {
		writeError(w, http.StatusBadRequest, "missing_parameter", "uri is required")
		return
	}
	limit, err := s.limit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	b, ok := s.bundle(w, r)
	if !ok {
		return
	}

	c := picker.New(b, picker.Options{PageSize: limit})
	if err := c.SelectAnatomy(uri); err != nil {
		writeError(w, http.StatusNotFound, "unknown_anatomy", uri)
		return
	}
	c.SetFilter(q.Get("filter"))
	writeJSON(w, http.StatusOK, resultsResponse(c))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("q")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "missing_parameter", "q is required")
		return
	}
	limit, err := s.limit(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_limit", err.Error())
		return
	}
	b, ok := s.bundle(w, r)
	if !ok {
		return
	}

	c := picker.New(b, picker.Options{PageSize: limit})
	c.SetQuery(query)
	resp := ResultsResponse{Label: c.Label(), Total: len(c.Results()), Phenotypes: []Term{}}
	for i, m := range c.Results() {
		if i == limit {
			break
		}
		resp.Phenotypes = append(resp.Phenotypes, phenotypeTerm(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Invalidate(); err != nil {
		if errors.Is(err, phenodata.ErrReloadDisabled) {
			writeError(w, http.StatusConflict, "reload_disabled", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

func (s *Server) limit(raw string) (int, error) {
	if raw == "" {
		return s.pageSize, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("limit must be a positive integer")
	}
	return n, nil
}

func resultsResponse(c *picker.Controller) ResultsResponse {
	resp := ResultsResponse{
		Label:      c.Label(),
		Summary:    c.Summary(),
		Total:      len(c.Displayed()),
		Phenotypes: []Term{},
	}
	if n := c.SelectedAnatomy(); n != nil {
		resp.Anatomy = n.URI
	}
	for _, m := range c.Visible() {
		resp.Phenotypes = append(resp.Phenotypes, phenotypeTerm(m))
	}
	return resp
}

func anatomyTerm(b *phenodata.Bundle, n *obograph.Node) Term {
	return Term{
		URI:        n.URI,
		ID:         n.LocalID(),
		Label:      n.DisplayLabel(),
		Phenotypes: b.Index.Count(n.URI),
		Children:   len(b.Anatomy.Children(n.URI)),
	}
}

func phenotypeTerm(m picker.Match) Term {
	return Term{
		URI:        m.URI(),
		ID:         m.Node.LocalID(),
		Label:      m.Label(),
		Usage:      m.Usage,
		Definition: m.Node.Definition(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: msg})
}
