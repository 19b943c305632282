// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server exposes the ingestion and query surface over HTTP: file
// upload (single, batch, raw text), LogFile and LogEntry reads, category
// listing, optional AI analysis, and health.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sparklogio/sparklogd/internal/log"
	"github.com/sparklogio/sparklogd/pkg/analysis"
	"github.com/sparklogio/sparklogd/pkg/config"
	"github.com/sparklogio/sparklogd/pkg/ingestion"
	"github.com/sparklogio/sparklogd/pkg/observability"
	"github.com/sparklogio/sparklogd/pkg/sparklog"
	"github.com/sparklogio/sparklogd/pkg/store"
)

// Server is the HTTP front end over the ingestion coordinator and the
// store. It owns no domain logic: handlers validate, delegate, and map
// the error taxonomy onto status codes.
type Server struct {
	cfg        config.ServerConfig
	ingestCfg  config.IngestionConfig
	store      store.Store
	coord      *ingestion.Coordinator
	rules      *sparklog.Rules
	tracer     observability.Tracer
	analyzer   analysis.Provider
	httpServer *http.Server
}

// New builds a Server. analyzer may be nil; the analyze endpoint then
// reports that no provider is configured.
func New(cfg config.ServerConfig, ingestCfg config.IngestionConfig, st store.Store, coord *ingestion.Coordinator, rules *sparklog.Rules, tracer observability.Tracer) *Server {
	if tracer == nil {
		tracer = observability.NewNoOpTracer()
	}
	s := &Server{
		cfg:       cfg,
		ingestCfg: ingestCfg,
		store:     st,
		coord:     coord,
		rules:     rules,
		tracer:    tracer,
	}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  5 * time.Minute, // large uploads over slow links
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
	return s
}

// SetAnalyzer installs the analysis provider. Must be called before
// Start; not safe for concurrent use.
func (s *Server) SetAnalyzer(p analysis.Provider) {
	s.analyzer = p
}

// Handler returns the fully wired route tree, exported for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("POST /ingestion/upload", s.handleUpload)
	mux.HandleFunc("POST /ingestion/upload/batch", s.handleUploadBatch)
	mux.HandleFunc("POST /ingestion/api-ingest", s.handleAPIIngest)

	mux.HandleFunc("GET /logfiles", s.handleListLogFiles)
	mux.HandleFunc("GET /logfiles/{id}", s.handleGetLogFile)
	mux.HandleFunc("GET /logfiles/{id}/entries", s.handleListEntries)
	mux.HandleFunc("DELETE /logfiles/{id}", s.handleDeleteLogFile)
	mux.HandleFunc("POST /logfiles/{id}/analyze", s.handleAnalyze)

	mux.HandleFunc("GET /categories", s.handleCategories)

	return s.withRequestLogging(mux)
}

// Start begins serving and blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	log.Info("http server listening", zap.String("addr", s.cfg.Addr))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withRequestLogging wraps next with per-request span and access logging.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.tracer.StartSpan(r.Context(), "http.request",
			observability.WithAttribute("method", r.Method),
			observability.WithAttribute("path", r.URL.Path))
		defer s.tracer.EndSpan(span)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r.WithContext(ctx))

		span.SetAttribute("status", sw.status)
		log.Debug("http request",
			zap.String("method", r.Method), zap.String("path", r.URL.Path),
			zap.Int("status", sw.status), zap.Duration("elapsed", time.Since(start)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
