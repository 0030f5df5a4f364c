// Package api provides the HTTP API of ocfviz.
//
// It serves chart descriptions built from ecotoxicity datasets, reconciles
// server-rendered charts with the local presentation defaults, and drives
// browser dashboards over a websocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/config"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/dashboard"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/dataset"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/layout"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/models"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/web"
)

// maxBodySize caps POST bodies.
const maxBodySize = 8 << 20

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	source   *datasource.Client
	defaults layout.Defaults
	wsHub    *WSHub

	// Version is reported by /health.
	Version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	client, err := datasource.NewClient(datasource.OptionsFromConfig(cfg.Source))
	if err != nil {
		return nil, fmt.Errorf("data source setup failed: %w", err)
	}
	return newServer(cfg, client), nil
}

func newServer(cfg *config.Config, client *datasource.Client) *Server {
	srv := &Server{
		cfg:      cfg,
		source:   client,
		defaults: cfg.Presentation.Defaults(),
		wsHub:    NewWSHub(),
		Version:  "dev",
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "source", s.source.BaseURL())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-done:
	}
	logger.Info("shutting down server")
	s.wsHub.Broadcast(WSMessage{Type: "shutdown"})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(ctx)
	s.wsHub.Stop()
	return err
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	// The websocket outlives any request timeout.
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", s.handleHealth)

		r.Get("/substances", s.handleSearch)
		r.Get("/substances/{cas}/chart", s.handleChart)
		r.Get("/substances/{cas}/plots/{kind}", s.handlePlot)
		r.Get("/compare", s.handleCompare)

		r.Post("/build", s.handleBuild)
		r.Post("/reconcile", s.handleReconcile)

		r.Get("/config", s.handleGetConfig)
		r.Get("/config/defaults", s.handleGetDefaults)
		r.Get("/config/keys", s.handleGetConfigKeys)

		r.Delete("/cache", s.handleFlushCache)
	})

	if s.cfg.API.ServeUI {
		s.mountUI(r, web.DistFS())
	}

	return r
}

// mountUI serves the embedded dashboard. Unknown paths fall back to
// index.html.
func (s *Server) mountUI(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServer(http.FS(distFS))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, r)
	})
}

func serveIndexHTML(w http.ResponseWriter, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "dashboard not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// requestLogger logs one line per request through pkg/logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	// NoData distinguishes "nothing to plot" from other not-found errors.
	NoData bool `json:"no_data,omitempty"`
}

// ComparisonResponse is the body of GET /api/v1/compare.
type ComparisonResponse struct {
	Substances []string                 `json:"substances"`
	Chart      *models.ChartDescription `json:"chart"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	source := "ok"
	if err := s.source.Ping(ctx); err != nil {
		source = "unreachable"
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":     "ok",
			"version":    s.Version,
			"source":     source,
			"ws_clients": s.wsHub.ClientCount(),
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	results, err := s.source.Search(r.Context(), q)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if results == nil {
		results = []models.Substance{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: results})
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	mode, err := series.ParseColorMode(r.URL.Query().Get("color"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cd, err := dashboard.PipelineLoader{Source: s.source, Defaults: s.defaults}.Load(r.Context(), dashboard.Selection{
		CAS:   chi.URLParam(r, "cas"),
		Color: mode,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cd})
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	kind := datasource.ChartKind(strings.ToLower(chi.URLParam(r, "kind")))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown chart kind %q (want ssd or ec10eq)", kind))
		return
	}
	cd, err := dashboard.PipelineLoader{Source: s.source, Defaults: s.defaults}.Load(r.Context(), dashboard.Selection{
		CAS:  chi.URLParam(r, "cas"),
		Kind: kind,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cd})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, part := range strings.Split(r.URL.Query().Get("cas"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "query parameter cas is required")
		return
	}

	datasets, err := s.source.FetchDatasets(r.Context(), ids)
	if err != nil {
		writeFailure(w, err)
		return
	}
	cd, err := series.BuildComparison(datasets)
	if err != nil {
		writeFailure(w, err)
		return
	}
	labels := make([]string, len(datasets))
	for i, ds := range datasets {
		labels[i] = ds.Label()
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    ComparisonResponse{Substances: labels, Chart: cd},
	})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	mode, err := series.ParseColorMode(r.URL.Query().Get("color"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if dataset.IsChartPayload(body) {
		// A finished chart description goes to the reconciler instead.
		var src models.ChartDescription
		if err := json.Unmarshal(body, &src); err != nil {
			writeError(w, http.StatusBadRequest, "invalid chart description")
			return
		}
		s.writeReconciled(w, &src)
		return
	}
	ds, err := dataset.Decode(body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	cd, err := series.Build(ds, mode)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cd})
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var src models.ChartDescription
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&src); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.writeReconciled(w, &src)
}

func (s *Server) writeReconciled(w http.ResponseWriter, src *models.ChartDescription) {
	cd, err := layout.Reconcile(src, s.defaults)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: cd})
}

// handleFlushCache drops the cached datasets and charts so the next request
// refetches from the data API.
func (s *Server) handleFlushCache(w http.ResponseWriter, r *http.Request) {
	s.source.FlushCache()
	logger.Info("data source cache flushed")
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: map[string]bool{"flushed": true}})
}

// ============================================================
// Helpers
// ============================================================

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, dataset.ErrInvalidDataset),
		errors.Is(err, dataset.ErrChartPayload),
		errors.Is(err, layout.ErrInvalidDescription):
		return http.StatusUnprocessableEntity
	case errors.Is(err, series.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, series.ErrUnknownColorMode):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	switch datasource.KindOf(err) {
	case datasource.KindNotFound:
		return http.StatusNotFound
	case datasource.KindRateLimited:
		return http.StatusTooManyRequests
	case datasource.KindBadRequest:
		return http.StatusBadRequest
	case datasource.KindNetwork, datasource.KindUpstream, datasource.KindDecode:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeFailure writes err with the status statusFor picks. Clients get the
// public message; upstream bodies only reach the log.
func writeFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := datasource.PublicMessage(err)
	switch {
	case status >= 500:
		logger.Error("request failed", "status", status, "err", err)
	case msg != err.Error():
		logger.Warn("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
		NoData:  errors.Is(err, series.ErrNoData),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
