// Package api provides the HTTP REST API server for NewsLens.
//
// It exposes the stored company reports, on-demand analysis, and Hindi
// text-to-speech of a report's final sentiment, plus the embedded dashboard.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/rahulsidpara/newslens/internal/config"
	"github.com/rahulsidpara/newslens/internal/infra"
	"github.com/rahulsidpara/newslens/internal/store"
	"github.com/rahulsidpara/newslens/pkg/models"
	"github.com/rahulsidpara/newslens/web"
)

// Reports is the read side of the report store.
type Reports interface {
	Get(name string) (*models.CompanyReport, error)
	List() ([]string, error)
}

// Runner triggers a fresh pipeline run for one company.
type Runner interface {
	Run(ctx context.Context, company string) (*models.CompanyReport, error)
}

// Narrator renders text as speech audio. The returned temp directory is
// owned by the caller.
type Narrator interface {
	Narrate(ctx context.Context, text string) (audioPath, tempDir string, err error)
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	cfg        *config.Config
	reports    Reports
	runner     Runner
	narrator   Narrator
	audioCache *infra.Cache
	ttsGroup   singleflight.Group
	log        *logrus.Logger
	serveUI    bool // when true, serve the embedded dashboard at /
}

// ttsEntry is one generated audio file cached under the company key.
type ttsEntry struct {
	path string
	dir  string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, reports Reports, runner Runner, narrator Narrator, log *logrus.Logger) *Server {
	ttl := 10 * time.Minute
	if cfg.Speech.CacheTTL > 0 {
		ttl = time.Duration(cfg.Speech.CacheTTL) * time.Second
	}
	cache := infra.NewCache(ttl)
	cache.OnEvict(func(key string, value any) {
		if entry, ok := value.(ttsEntry); ok {
			if err := os.RemoveAll(entry.dir); err != nil {
				log.WithField("dir", entry.dir).WithError(err).Warn("failed to remove tts temp dir")
			}
		}
	})

	srv := &Server{
		cfg:        cfg,
		reports:    reports,
		runner:     runner,
		narrator:   narrator,
		audioCache: cache,
		log:        log,
		serveUI:    true,
	}
	srv.router = srv.buildRouter()
	return srv
}

// SetServeUI controls whether the embedded dashboard is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown. Cached TTS
// audio is flushed on the way out so no temp directories are left behind.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP server error")
		}
	}()
	s.log.WithField("addr", addr).Info("API server listening")

	<-done
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := httpSrv.Shutdown(ctx)
	s.audioCache.Flush()
	return err
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/companies", s.handleCompanies)
		r.Get("/company/{name}", s.handleCompany)
		r.Get("/tts/{name}", s.handleTTS)
		r.Post("/analyze", s.handleAnalyze)
	})

	if s.serveUI {
		s.mountDashboard(r, web.StaticFS())
	}

	return r
}

// mountDashboard serves the embedded dashboard, with / falling back to
// index.html.
func (s *Server) mountDashboard(r chi.Router, staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))

	r.Get("/*", func(w http.ResponseWriter, req *http.Request) {
		rPath := strings.TrimPrefix(req.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := staticFS.Open(rPath)
		if err != nil {
			http.NotFound(w, req)
			return
		}
		f.Close()

		if strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fileServer.ServeHTTP(w, req)
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
}

// AnalyzeRequest is the body for POST /api/v1/analyze.
type AnalyzeRequest struct {
	Company string `json:"company"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": "dev",
		},
	})
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.reports.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"companies": companies,
		},
	})
}

func (s *Server) handleCompany(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "company name is required")
		return
	}

	report, err := s.reports.Get(name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no report for %s", name))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

// handleTTS streams the spoken final sentiment for a company. Generated
// audio is cached by company key; concurrent requests for the same company
// share one synthesis.
func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "company name is required")
		return
	}
	key := store.NormalizeKey(name)

	v, err, _ := s.ttsGroup.Do(key, func() (interface{}, error) {
		if cached, ok := s.audioCache.Get(key); ok {
			return cached, nil
		}

		report, err := s.reports.Get(name)
		if err != nil {
			return nil, err
		}

		text := report.FinalSentimentAnalysis
		if text == "" {
			text = "No sentiment analysis available"
		}

		ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
		defer cancel()

		path, dir, err := s.narrator.Narrate(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("speech generation failed: %w", err)
		}

		entry := ttsEntry{path: path, dir: dir}
		s.audioCache.Set(key, entry)
		return entry, nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no report for %s", name))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	entry := v.(ttsEntry)
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, entry.path)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Company == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	report, err := s.runner.Run(ctx, req.Company)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// A rerun invalidates any cached narration of the old report.
	s.audioCache.Invalidate(store.NormalizeKey(req.Company))

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    report,
	})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
