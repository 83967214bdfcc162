package predict

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"courtvision/internal/features"

	"github.com/rs/zerolog/log"
)

// Recorder persists generated results for later accuracy tracking.
// Recording is best-effort: a persistence failure never fails the request.
type Recorder interface {
	Record(Result) error
}

// Server exposes the pipeline over a thin JSON API. Routing, auth, and the
// rest of the web application live elsewhere; this only serves predictions.
type Server struct {
	pipeline *Pipeline
	recorder Recorder
	server   *http.Server
}

// Request is an incoming prediction request. Date is optional and defaults
// to today.
type Request struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Date     string `json:"date,omitempty"`
}

// Response wraps a Result with request latency.
type Response struct {
	Result
	LatencyMs float64 `json:"latency_ms"`
}

// NewServer creates the prediction HTTP server on the given port.
// recorder may be nil when results should not be persisted.
func NewServer(pipeline *Pipeline, recorder Recorder, port int) *Server {
	s := &Server{pipeline: pipeline, recorder: recorder}

	mux := http.NewServeMux()
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/model/info", s.handleModelInfo)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Handler returns the underlying HTTP handler, useful for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting prediction server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}
	if req.HomeTeam == "" || req.AwayTeam == "" {
		http.Error(w, "home_team and away_team are required", http.StatusBadRequest)
		return
	}
	if req.HomeTeam == req.AwayTeam {
		http.Error(w, "a team cannot play itself", http.StatusBadRequest)
		return
	}

	asOf := time.Now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid date: %v", err), http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.pipeline.Predict(ctx, req.HomeTeam, req.AwayTeam, asOf)
	if err != nil {
		log.Error().Err(err).Str("home", req.HomeTeam).Str("away", req.AwayTeam).Msg("prediction failed")
		status := http.StatusInternalServerError
		if errors.Is(err, features.ErrInsufficientData) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, fmt.Sprintf("prediction failed: %v", err), status)
		return
	}

	if s.recorder != nil {
		if err := s.recorder.Record(res); err != nil {
			log.Warn().Err(err).Msg("failed to persist prediction")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(Response{
		Result:    res,
		LatencyMs: float64(time.Since(start).Milliseconds()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"model_version": s.pipeline.predictor.ModelVersion(),
	})
}

func (s *Server) handleModelInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m := s.pipeline.predictor.model
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"version":  m.Version,
		"features": m.Features,
	})
}
