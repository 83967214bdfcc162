// Package nba defines the domain records for the prediction pipeline and a
// read-only client for the balldontlie stats API. Teams carry rolling
// season aggregates maintained by ingestion; games are append-only records
// of completed matchups.
package nba

import "time"

// Conference values as stored on Team records.
const (
	ConferenceEast = "EAST"
	ConferenceWest = "WEST"
)

// Game status values. Only final games enter the historical record.
const (
	StatusScheduled = "scheduled"
	StatusFinal     = "final"
)

// Team is a per-season snapshot of a team's identity and rolling aggregates.
// Ingestion is the only writer; the prediction pipeline reads it.
type Team struct {
	Abbreviation string `json:"abbreviation"`
	Name         string `json:"name"`
	City         string `json:"city"`
	Conference   string `json:"conference"`
	Division     string `json:"division,omitempty"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`

	// Four Factors, own and opponent sides.
	EFGPct    float64 `json:"efg_pct"`
	TOVPct    float64 `json:"tov_pct"`
	ORBPct    float64 `json:"orb_pct"`
	FTRate    float64 `json:"ft_rate"`
	OppEFGPct float64 `json:"opp_efg_pct"`
	OppTOVPct float64 `json:"opp_tov_pct"`
	OppORBPct float64 `json:"opp_orb_pct"`
	OppFTRate float64 `json:"opp_ft_rate"`

	OffRating float64 `json:"off_rating"`
	DefRating float64 `json:"def_rating"`
	Pace      float64 `json:"pace"`

	EloRating float64 `json:"elo_rating"`

	AvgPointsScored  float64 `json:"avg_points_scored"`
	AvgPointsAllowed float64 `json:"avg_points_allowed"`

	// Positive for a win streak, negative for a losing streak.
	CurrentStreak int        `json:"current_streak"`
	LastGameDate  *time.Time `json:"last_game_date,omitempty"`
}

// NetRating is points per 100 possessions above or below opponents.
func (t Team) NetRating() float64 {
	return t.OffRating - t.DefRating
}

// GamesPlayed returns the number of recorded decisions for the team.
func (t Team) GamesPlayed() int {
	return t.Wins + t.Losses
}

// Game is a single matchup record. Once a game is final its scores never
// change; the historical store treats it as append-only.
type Game struct {
	ID        int64     `json:"id"`
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Status    string    `json:"status"`
}

// HomeWon reports whether the home side won a final game.
func (g Game) HomeWon() bool {
	return g.HomeScore > g.AwayScore
}

// Winner returns the abbreviation of the winning side.
func (g Game) Winner() string {
	if g.HomeWon() {
		return g.HomeTeam
	}
	return g.AwayTeam
}

// Margin is the home-side score differential (negative when the away side won).
func (g Game) Margin() int {
	return g.HomeScore - g.AwayScore
}

// Involves reports whether the team played in this game.
func (g Game) Involves(abbr string) bool {
	return g.HomeTeam == abbr || g.AwayTeam == abbr
}
