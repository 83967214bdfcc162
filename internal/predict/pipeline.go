package predict

import (
	"context"
	"math"
	"time"

	"courtvision/internal/features"

	"github.com/rs/zerolog/log"
)

// Result is the pipeline output for one matchup. It is a pure function of
// the inputs and the underlying historical data state: calling Predict
// twice with unchanged data returns a bit-identical Result.
type Result struct {
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	AsOf         time.Time `json:"as_of"`
	HomeWinProb  float64   `json:"home_win_prob"`
	AwayWinProb  float64   `json:"away_win_prob"`
	Margin       float64   `json:"margin"`
	Confidence   float64   `json:"confidence"`
	ModelVersion string    `json:"model_version"`
}

// Pipeline composes feature extraction, inference, and confidence scoring
// into one call. Component errors pass through unchanged; a failed
// prediction never produces a partially populated Result.
type Pipeline struct {
	extractor *features.Extractor
	predictor *Predictor
	scorer    Scorer
	metrics   MetricsSink
}

// NewPipeline wires the three stages together. The predictor carries the
// model handle, so a pipeline can only exist once a model has loaded.
func NewPipeline(extractor *features.Extractor, predictor *Predictor, scorer Scorer, metrics MetricsSink) *Pipeline {
	return &Pipeline{extractor: extractor, predictor: predictor, scorer: scorer, metrics: metrics}
}

// Predict computes the outcome prediction for the matchup as of the given
// date. The extractor is the only suspension point; inference and scoring
// are pure computation.
func (pl *Pipeline) Predict(ctx context.Context, homeID, awayID string, asOf time.Time) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	vec, err := pl.extractor.Vector(homeID, awayID, asOf)
	if err != nil {
		if pl.metrics != nil {
			pl.metrics.PredictionFailuresInc()
		}
		return Result{}, err
	}

	out, err := pl.predictor.Infer(vec)
	if err != nil {
		return Result{}, err
	}

	confidence := pl.scorer.Score(math.Max(out.HomeProb, out.AwayProb))
	if pl.metrics != nil {
		pl.metrics.ConfidenceObserve(confidence)
	}

	res := Result{
		HomeTeam:     homeID,
		AwayTeam:     awayID,
		AsOf:         asOf,
		HomeWinProb:  out.HomeProb,
		AwayWinProb:  out.AwayProb,
		Margin:       out.Margin,
		Confidence:   confidence,
		ModelVersion: pl.predictor.ModelVersion(),
	}

	log.Debug().
		Str("home", homeID).
		Str("away", awayID).
		Time("as_of", asOf).
		Float64("home_win_prob", res.HomeWinProb).
		Float64("margin", res.Margin).
		Float64("confidence", res.Confidence).
		Msg("prediction generated")

	return res, nil
}
