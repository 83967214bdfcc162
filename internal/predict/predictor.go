package predict

import (
	"fmt"
	"math"
	"time"

	"courtvision/internal/features"
)

// Probability and margin bounds. No NBA team realistically wins more than
// 85% of the time against league opposition, and spreads beyond 25 points
// are noise.
const (
	minWinProb = 0.15
	maxWinProb = 0.85
	maxMargin  = 25.0
)

// MetricsSink receives prediction observability events. All methods must
// be safe for concurrent use.
type MetricsSink interface {
	PredictionsInc()
	PredictionFailuresInc()
	PredictionLatencyObserve(float64)
	ConfidenceObserve(float64)
}

// Outcome is the raw inference result before confidence scoring.
type Outcome struct {
	HomeProb float64
	AwayProb float64
	Margin   float64
}

// Predictor runs inference against a loaded model. It holds no mutable
// state and is safe for concurrent use.
type Predictor struct {
	model   *Model
	metrics MetricsSink
}

// NewPredictor wraps a loaded model. A nil model returns
// ErrModelUnavailable; callers must not construct a serving pipeline
// without one. metrics may be nil.
func NewPredictor(model *Model, metrics MetricsSink) (*Predictor, error) {
	if model == nil {
		return nil, ErrModelUnavailable
	}
	if err := model.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &Predictor{model: model, metrics: metrics}, nil
}

// ModelVersion returns the loaded model's version identifier.
func (p *Predictor) ModelVersion() string { return p.model.Version }

// Infer validates the vector against the model schema and computes the
// outcome distribution and predicted margin. Deterministic: the same
// vector under the same model version always yields the same outcome.
func (p *Predictor) Infer(vec features.FeatureVector) (Outcome, error) {
	start := time.Now()
	defer func() {
		if p.metrics != nil {
			p.metrics.PredictionLatencyObserve(time.Since(start).Seconds())
		}
	}()

	if err := p.checkSchema(vec); err != nil {
		if p.metrics != nil {
			p.metrics.PredictionFailuresInc()
		}
		return Outcome{}, err
	}

	for i, v := range vec.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			if p.metrics != nil {
				p.metrics.PredictionFailuresInc()
			}
			return Outcome{}, fmt.Errorf("predict: feature %q is not finite: %f", vec.Names[i], v)
		}
	}

	homeProb := logistic(dot(p.model.Win.Weights, vec.Values) + p.model.Win.Bias)
	homeProb = clamp(homeProb, minWinProb, maxWinProb)

	margin := dot(p.model.Margin.Weights, vec.Values) + p.model.Margin.Bias
	margin = clamp(margin, -maxMargin, maxMargin)

	if p.metrics != nil {
		p.metrics.PredictionsInc()
	}

	return Outcome{
		HomeProb: homeProb,
		AwayProb: 1 - homeProb,
		Margin:   margin,
	}, nil
}

// checkSchema enforces exact name, order, and count agreement between the
// vector and the model.
func (p *Predictor) checkSchema(vec features.FeatureVector) error {
	if len(vec.Names) != len(vec.Values) {
		return fmt.Errorf("%w: vector has %d names for %d values", ErrSchemaMismatch, len(vec.Names), len(vec.Values))
	}
	if len(vec.Values) != len(p.model.Features) {
		return fmt.Errorf("%w: got %d features, model expects %d", ErrSchemaMismatch, len(vec.Values), len(p.model.Features))
	}
	for i, name := range p.model.Features {
		if vec.Names[i] != name {
			return fmt.Errorf("%w: feature %d is %q, model expects %q", ErrSchemaMismatch, i, vec.Names[i], name)
		}
	}
	return nil
}

func dot(w, x []float64) float64 {
	var s float64
	for i := range w {
		s += w[i] * x[i]
	}
	return s
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
