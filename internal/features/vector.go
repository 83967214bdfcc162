// Package features derives the fixed-length numeric feature vector for a
// matchup from team snapshots and historical game records. Extraction is a
// pure read plus computation; it is the only part of the pipeline that
// touches the data store.
package features

import "errors"

// ErrInsufficientData is returned when the league has no recorded history
// at all. Per-team gaps are not errors; cold-start teams fall back to
// league-baseline defaults.
var ErrInsufficientData = errors.New("features: no historical data available")

// Schema is the canonical feature order. The predictor validates incoming
// vectors against its own copy of this schema before inference; any
// disagreement is a hard error, never a silent default.
var Schema = []string{
	"elo_diff",
	"net_rating_diff",
	"four_factors_diff",
	"pace_avg",
	"rest_diff",
	"streak_diff",
	"h2h_home_rate",
	"home_court",
}

// FeatureVector is an ordered sequence of named numeric features for one
// matchup. It is ephemeral: computed per prediction request and never
// persisted independently of the prediction it feeds.
type FeatureVector struct {
	Names  []string
	Values []float64
}

// Len returns the number of features in the vector.
func (v FeatureVector) Len() int { return len(v.Values) }

// Get returns the value for a named feature. The bool is false when the
// name is not part of the vector.
func (v FeatureVector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}
