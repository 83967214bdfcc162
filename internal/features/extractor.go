package features

import (
	"time"

	"courtvision/internal/nba"

	"github.com/rs/zerolog/log"
)

// League baselines used for cold-start teams with no recorded games.
const (
	baselineOffRating = 114.0
	baselineDefRating = 114.0
	baselinePace      = 100.0
	baselineEFG       = 0.500
	baselineTOV       = 0.130
	baselineORB       = 0.250
	baselineFTR       = 0.250
	baselinePoints    = 110.0
)

// History is the read-only accessor the extractor needs from the
// persistence layer. Implementations must be safe for concurrent reads.
type History interface {
	// Team returns the season snapshot; false when the team is unknown.
	Team(abbr string) (nba.Team, bool, error)
	// GamesBefore returns up to limit games involving the team strictly
	// before the date, most recent first.
	GamesBefore(abbr string, before time.Time, limit int) ([]nba.Game, error)
	// Meetings returns up to limit games between the two teams strictly
	// before the date, most recent first.
	Meetings(a, b string, before time.Time, limit int) ([]nba.Game, error)
	// Empty reports whether the league has no recorded games at all.
	Empty() (bool, error)
}

// MetricsTracker counts extraction failures for observability.
type MetricsTracker interface {
	FeatureErrorsInc()
}

// Params are the tunable extraction constants. These are configuration,
// not contracts: the model schema stays the same whatever their values.
type Params struct {
	MaxRestDays     int // cap on rest days, keeps season breaks from skewing the feature
	DefaultRestDays int // assumed rest when a team has no prior game
	H2HLookback     int // bounded head-to-head window
	StreakLookback  int // how many recent games a streak can span
	LeaguePace      float64
}

// DefaultParams returns the extraction constants used in production.
func DefaultParams() Params {
	return Params{
		MaxRestDays:     7,
		DefaultRestDays: 2,
		H2HLookback:     10,
		StreakLookback:  10,
		LeaguePace:      baselinePace,
	}
}

// Extractor derives matchup feature vectors from historical data.
type Extractor struct {
	hist    History
	params  Params
	metrics MetricsTracker
}

// NewExtractor creates an extractor over the given history. metrics may be
// nil.
func NewExtractor(hist History, params Params, metrics MetricsTracker) *Extractor {
	if params.LeaguePace <= 0 {
		params.LeaguePace = baselinePace
	}
	if params.MaxRestDays <= 0 {
		params.MaxRestDays = 7
	}
	return &Extractor{hist: hist, params: params, metrics: metrics}
}

// Vector computes the feature vector for the home/away matchup as of the
// reference date. Cold-start teams use baseline defaults; the only fatal
// condition is a league with no recorded history at all.
func (e *Extractor) Vector(homeID, awayID string, asOf time.Time) (FeatureVector, error) {
	empty, err := e.hist.Empty()
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}
	if empty {
		e.countError()
		return FeatureVector{}, ErrInsufficientData
	}

	home, err := e.team(homeID)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}
	away, err := e.team(awayID)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}

	homeRest, err := e.restDays(homeID, asOf)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}
	awayRest, err := e.restDays(awayID, asOf)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}

	homeStreak, err := e.streak(homeID, asOf)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}
	awayStreak, err := e.streak(awayID, asOf)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}

	h2h, err := e.headToHead(homeID, awayID, asOf)
	if err != nil {
		e.countError()
		return FeatureVector{}, err
	}

	values := []float64{
		home.EloRating - away.EloRating,
		home.NetRating() - away.NetRating(),
		fourFactorsScore(home) - fourFactorsScore(away),
		(home.Pace + away.Pace) / 2 / e.params.LeaguePace,
		float64(homeRest - awayRest),
		float64(homeStreak - awayStreak),
		h2h,
		1.0,
	}

	return FeatureVector{Names: Schema, Values: values}, nil
}

// team returns the snapshot, substituting the league baseline for unknown
// or gameless teams.
func (e *Extractor) team(abbr string) (nba.Team, error) {
	t, found, err := e.hist.Team(abbr)
	if err != nil {
		return nba.Team{}, err
	}
	if !found || t.GamesPlayed() == 0 {
		log.Warn().Str("team", abbr).Msg("no recorded games, using baseline defaults")
		return BaselineTeam(abbr), nil
	}
	return t, nil
}

func (e *Extractor) restDays(abbr string, asOf time.Time) (int, error) {
	games, err := e.hist.GamesBefore(abbr, asOf, 1)
	if err != nil {
		return 0, err
	}
	if len(games) == 0 {
		return e.params.DefaultRestDays, nil
	}
	rest := int(asOf.Sub(games[0].Date).Hours() / 24)
	if rest < 0 {
		rest = 0
	}
	if rest > e.params.MaxRestDays {
		rest = e.params.MaxRestDays
	}
	return rest, nil
}

// streak returns the signed win/loss run: +3 means three straight wins,
// -2 two straight losses.
func (e *Extractor) streak(abbr string, asOf time.Time) (int, error) {
	games, err := e.hist.GamesBefore(abbr, asOf, e.params.StreakLookback)
	if err != nil {
		return 0, err
	}
	streak := 0
	for _, g := range games {
		won := g.Winner() == abbr
		if streak == 0 {
			if won {
				streak = 1
			} else {
				streak = -1
			}
			continue
		}
		if won && streak > 0 {
			streak++
		} else if !won && streak < 0 {
			streak--
		} else {
			break
		}
	}
	return streak, nil
}

// headToHead returns the home side's win rate over the bounded lookback
// window, 0.5 when the teams have never met.
func (e *Extractor) headToHead(homeID, awayID string, asOf time.Time) (float64, error) {
	meetings, err := e.hist.Meetings(homeID, awayID, asOf, e.params.H2HLookback)
	if err != nil {
		return 0, err
	}
	if len(meetings) == 0 {
		return 0.5, nil
	}
	wins := 0
	for _, g := range meetings {
		if g.Winner() == homeID {
			wins++
		}
	}
	return float64(wins) / float64(len(meetings)), nil
}

func (e *Extractor) countError() {
	if e.metrics != nil {
		e.metrics.FeatureErrorsInc()
	}
}

// fourFactorsScore is Dean Oliver's weighted shooting/turnover/rebounding/
// free-throw composite, offense minus the defense the team allows.
func fourFactorsScore(t nba.Team) float64 {
	off := t.EFGPct*0.40 + (1-t.TOVPct)*0.25 + t.ORBPct*0.20 + t.FTRate*0.15
	def := t.OppEFGPct*0.40 + (1-t.OppTOVPct)*0.25 + t.OppORBPct*0.20 + t.OppFTRate*0.15
	return off - def
}

// BaselineTeam is the documented cold-start snapshot: league-average Four
// Factors, ratings, and pace, and the starting Elo. Ingestion also uses it
// as the seed for newly discovered teams.
func BaselineTeam(abbr string) nba.Team {
	return nba.Team{
		Abbreviation: abbr,
		EFGPct:       baselineEFG,
		TOVPct:       baselineTOV,
		ORBPct:       baselineORB,
		FTRate:       baselineFTR,
		OppEFGPct:    baselineEFG,
		OppTOVPct:    baselineTOV,
		OppORBPct:    baselineORB,
		OppFTRate:    baselineFTR,
		OffRating:    baselineOffRating,
		DefRating:    baselineDefRating,
		Pace:         baselinePace,
		EloRating:    EloBaseline,

		AvgPointsScored:  baselinePoints,
		AvgPointsAllowed: baselinePoints,
	}
}
