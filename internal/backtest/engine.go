// Package backtest evaluates prediction accuracy by replaying recorded
// games in chronological order. Each game is predicted from the state
// strictly before it, then folded into the evolving team aggregates
// through the same update path ingestion uses, so the replay matches what
// live operation would have produced.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"courtvision/internal/features"
	"courtvision/internal/ingest"
	"courtvision/internal/nba"
	"courtvision/internal/predict"

	"github.com/rs/zerolog/log"
)

// Engine replays a set of final games against the pipeline.
type Engine struct {
	games    []nba.Game
	hist     *memoryHistory
	pipeline *predict.Pipeline
}

// Bucket is one calibration band over the predicted winner probability.
type Bucket struct {
	Low, High float64
	Count     int
	Hits      int
}

// HitRate is the observed win rate of predicted winners in the band.
func (b Bucket) HitRate() float64 {
	if b.Count == 0 {
		return 0
	}
	return float64(b.Hits) / float64(b.Count)
}

// Results holds the aggregate evaluation of one replay.
type Results struct {
	TotalGames       int
	Predicted        int
	Skipped          int // games with no prior history to predict from
	Correct          int
	Accuracy         float64
	BrierScore       float64
	MeanAbsMarginErr float64
	Buckets          []Bucket
	StartDate        time.Time
	EndDate          time.Time
	ModelVersion     string
}

// NewEngine builds a replay over the given final games. The games are
// copied and sorted chronologically; non-final games are ignored.
func NewEngine(games []nba.Game, model *predict.Model, params features.Params, scorer predict.Scorer) (*Engine, error) {
	predictor, err := predict.NewPredictor(model, nil)
	if err != nil {
		return nil, err
	}

	finals := make([]nba.Game, 0, len(games))
	for _, g := range games {
		if g.Status == nba.StatusFinal && g.Margin() != 0 {
			finals = append(finals, g)
		}
	}
	sort.Slice(finals, func(i, j int) bool { return finals[i].Date.Before(finals[j].Date) })

	hist := newMemoryHistory()
	extractor := features.NewExtractor(hist, params, nil)

	return &Engine{
		games:    finals,
		hist:     hist,
		pipeline: predict.NewPipeline(extractor, predictor, scorer, nil),
	}, nil
}

// Run executes the replay and returns the aggregate results.
func (e *Engine) Run(ctx context.Context) (*Results, error) {
	if len(e.games) == 0 {
		return nil, fmt.Errorf("backtest: no final games to replay")
	}

	res := &Results{
		TotalGames: len(e.games),
		Buckets:    newBuckets(),
		StartDate:  e.games[0].Date,
		EndDate:    e.games[len(e.games)-1].Date,
	}

	var brierSum, marginErrSum float64

	log.Info().
		Time("start", res.StartDate).
		Time("end", res.EndDate).
		Int("games", len(e.games)).
		Msg("starting backtest")

	for _, g := range e.games {
		pred, err := e.pipeline.Predict(ctx, g.HomeTeam, g.AwayTeam, g.Date)
		switch {
		case errors.Is(err, features.ErrInsufficientData):
			res.Skipped++
		case err != nil:
			return nil, fmt.Errorf("backtest: predict %s@%s on %s: %w",
				g.AwayTeam, g.HomeTeam, g.Date.Format("2006-01-02"), err)
		default:
			res.Predicted++
			res.ModelVersion = pred.ModelVersion
			e.score(res, &brierSum, &marginErrSum, g, pred)
		}

		e.hist.apply(g)
	}

	if res.Predicted > 0 {
		res.Accuracy = float64(res.Correct) / float64(res.Predicted)
		res.BrierScore = brierSum / float64(res.Predicted)
		res.MeanAbsMarginErr = marginErrSum / float64(res.Predicted)
	}
	return res, nil
}

func (e *Engine) score(res *Results, brierSum, marginErrSum *float64, g nba.Game, pred predict.Result) {
	homeWon := g.HomeWon()
	predictedHome := pred.HomeWinProb >= 0.5
	correct := predictedHome == homeWon
	if correct {
		res.Correct++
	}

	actual := 0.0
	if homeWon {
		actual = 1.0
	}
	*brierSum += (pred.HomeWinProb - actual) * (pred.HomeWinProb - actual)
	*marginErrSum += math.Abs(pred.Margin - float64(g.Margin()))

	winnerProb := math.Max(pred.HomeWinProb, pred.AwayWinProb)
	for i := range res.Buckets {
		b := &res.Buckets[i]
		if winnerProb >= b.Low && winnerProb < b.High {
			b.Count++
			if correct {
				b.Hits++
			}
			break
		}
	}
}

// newBuckets covers the winner probability range [0.5, 1.0] in five bands.
// The last band is closed at the top so a clamped 0.85 still lands in it.
func newBuckets() []Bucket {
	return []Bucket{
		{Low: 0.50, High: 0.60},
		{Low: 0.60, High: 0.70},
		{Low: 0.70, High: 0.80},
		{Low: 0.80, High: 0.90},
		{Low: 0.90, High: 1.01},
	}
}

// memoryHistory is an in-memory features.History that evolves as games are
// replayed. Mutation happens only between predictions, never during one.
type memoryHistory struct {
	teams map[string]nba.Team
	games []nba.Game // chronological
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{teams: make(map[string]nba.Team)}
}

func (h *memoryHistory) apply(g nba.Game) {
	home, ok := h.teams[g.HomeTeam]
	if !ok {
		home = features.BaselineTeam(g.HomeTeam)
	}
	away, ok := h.teams[g.AwayTeam]
	if !ok {
		away = features.BaselineTeam(g.AwayTeam)
	}

	ingest.ApplyFinal(&home, &away, g)

	h.teams[g.HomeTeam] = home
	h.teams[g.AwayTeam] = away
	h.games = append(h.games, g)
}

func (h *memoryHistory) Team(abbr string) (nba.Team, bool, error) {
	t, ok := h.teams[abbr]
	return t, ok, nil
}

func (h *memoryHistory) GamesBefore(abbr string, before time.Time, limit int) ([]nba.Game, error) {
	return h.scan(before, limit, func(g nba.Game) bool { return g.Involves(abbr) })
}

func (h *memoryHistory) Meetings(a, b string, before time.Time, limit int) ([]nba.Game, error) {
	return h.scan(before, limit, func(g nba.Game) bool { return g.Involves(a) && g.Involves(b) })
}

func (h *memoryHistory) Empty() (bool, error) {
	return len(h.games) == 0, nil
}

func (h *memoryHistory) scan(before time.Time, limit int, match func(nba.Game) bool) ([]nba.Game, error) {
	var out []nba.Game
	for i := len(h.games) - 1; i >= 0; i-- {
		g := h.games[i]
		if !g.Date.Before(before) {
			continue
		}
		if !match(g) {
			continue
		}
		out = append(out, g)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
