package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kafkameter/internal/config"
	"kafkameter/internal/database"
	"kafkameter/internal/logger"
	"kafkameter/internal/models"
	"kafkameter/internal/producer"
)

// ProducerStatus exposes the shared producer's lifecycle to the API
type ProducerStatus interface {
	State() producer.State
	ClientID() string
	ValueSerializer() (string, bool)
}

// RunStore looks up persisted run summaries
type RunStore interface {
	GetRunSummary(ctx context.Context, runID string) (*models.RunSummary, error)
	GetRecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// FailureStore reads back failed samples
type FailureStore interface {
	Count(ctx context.Context) (int64, error)
	Entries(ctx context.Context, start, stop int64) ([]models.SampleResult, error)
}

const (
	defaultLimit = 20
	maxLimit     = 500
)

// Server represents the status API server
type Server struct {
	router   *mux.Router
	producer ProducerStatus
	runs     RunStore
	failures FailureStore
	cfg      *config.APIConfig
	server   *http.Server
}

// New creates a new API server. runs and failures may be nil.
func New(cfg *config.APIConfig, status ProducerStatus, runs RunStore, failures FailureStore) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		producer: status,
		runs:     runs,
		failures: failures,
		cfg:      cfg,
	}

	s.setupRoutes()
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.healthCheck).Methods("GET")
	s.router.HandleFunc("/producer", s.producerStatus).Methods("GET")
	s.router.HandleFunc("/runs", s.getRecentRuns).Methods("GET")
	s.router.HandleFunc("/runs/{id}", s.getRun).Methods("GET")
	s.router.HandleFunc("/failures", s.getFailures).Methods("GET")

	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the API server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Log.Infof("Starting status API on port %s", s.cfg.Port)
	return s.server.ListenAndServe()
}

// Stop gracefully stops the API server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	logger.Log.Info("Shutting down status API...")
	return s.server.Shutdown(ctx)
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type producerResponse struct {
	State           string `json:"state"`
	Ready           bool   `json:"ready"`
	ClientID        string `json:"clientId"`
	ValueSerializer string `json:"valueSerializer,omitempty"`
}

func (s *Server) producerStatus(w http.ResponseWriter, r *http.Request) {
	vs, ready := s.producer.ValueSerializer()
	writeJSON(w, http.StatusOK, producerResponse{
		State:           s.producer.State().String(),
		Ready:           ready,
		ClientID:        s.producer.ClientID(),
		ValueSerializer: vs,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run store not configured", http.StatusNotImplemented)
		return
	}

	runID := mux.Vars(r)["id"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	summary, err := s.runs.GetRunSummary(ctx, runID)
	if errors.Is(err, database.ErrRunNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Log.Errorf("Failed to get run: %v", err)
		http.Error(w, "failed to get run", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) getRecentRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run store not configured", http.StatusNotImplemented)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	runs, err := s.runs.GetRecentRuns(ctx, limit)
	if err != nil {
		logger.Log.Errorf("Failed to get recent runs: %v", err)
		http.Error(w, "failed to get runs", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, runs)
}

type failuresResponse struct {
	Count   int64                 `json:"count"`
	Entries []models.SampleResult `json:"entries"`
}

func (s *Server) getFailures(w http.ResponseWriter, r *http.Request) {
	if s.failures == nil {
		http.Error(w, "failure store not configured", http.StatusNotImplemented)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	count, err := s.failures.Count(ctx)
	if err != nil {
		logger.Log.Errorf("Failed to count failed samples: %v", err)
		http.Error(w, "failed to get failures", http.StatusInternalServerError)
		return
	}

	entries, err := s.failures.Entries(ctx, 0, int64(limit-1))
	if err != nil {
		logger.Log.Errorf("Failed to get failed samples: %v", err)
		http.Error(w, "failed to get failures", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, failuresResponse{Count: count, Entries: entries})
}

// parseLimit reads the optional limit query parameter
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, errors.New("limit must be between 1 and 500")
	}
	return limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Failed to encode response: %v", err)
	}
}
