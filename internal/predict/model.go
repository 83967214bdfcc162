package predict

import (
	"encoding/json"
	"fmt"
	"os"

	"courtvision/internal/features"

	"github.com/rs/zerolog/log"
)

// Head is one linear output of the model: a weight per feature plus a bias.
type Head struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// Model is an immutable trained artifact. It is loaded once at process
// start and passed into the pipeline by handle; a reload constructs a new
// Model and swaps the handle atomically at the call site.
type Model struct {
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Win      Head     `json:"win"`    // logistic head, home win probability
	Margin   Head     `json:"margin"` // linear head, predicted point margin
}

// Load reads and validates a model artifact from disk. Any failure wraps
// ErrModelUnavailable so callers can refuse to start serving.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrModelUnavailable, path, err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrModelUnavailable, path, err)
	}

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	log.Info().
		Str("model_path", path).
		Str("version", m.Version).
		Int("features", len(m.Features)).
		Msg("model loaded")
	return &m, nil
}

func (m *Model) validate() error {
	if m.Version == "" {
		return fmt.Errorf("model has no version")
	}
	if len(m.Features) == 0 {
		return fmt.Errorf("model declares no features")
	}
	if len(m.Win.Weights) != len(m.Features) {
		return fmt.Errorf("win head has %d weights for %d features", len(m.Win.Weights), len(m.Features))
	}
	if len(m.Margin.Weights) != len(m.Features) {
		return fmt.Errorf("margin head has %d weights for %d features", len(m.Margin.Weights), len(m.Features))
	}
	return nil
}

// Default returns the built-in model, a hand-tuned logistic fit over the
// canonical schema (Elo, net rating, Four Factors, home court, rest).
// Used by the backtester and anywhere no trained artifact is configured.
func Default() *Model {
	return &Model{
		Version:  "builtin-1",
		Features: append([]string(nil), features.Schema...),
		Win: Head{
			// elo_diff, net_rating_diff, four_factors_diff, pace_avg,
			// rest_diff, streak_diff, h2h_home_rate, home_court
			Weights: []float64{0.004, 0.08, 5.0, 0.0, 0.04, 0.02, 0.5, 0.25},
			// Neutral matchup (all diffs zero, h2h 0.5, home court set)
			// lands near the historical 54% home win rate.
			Bias: -0.34,
		},
		Margin: Head{
			Weights: []float64{0.01, 1.0, 30.0, 0.0, 0.35, 0.1, 2.0, 3.5},
			Bias:    -1.0,
		},
	}
}
