package features

import (
	"testing"
	"time"

	"courtvision/internal/nba"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHistory is an in-memory History for extractor tests. Games are held
// in chronological order.
type stubHistory struct {
	teams map[string]nba.Team
	games []nba.Game
}

func (h *stubHistory) Team(abbr string) (nba.Team, bool, error) {
	t, ok := h.teams[abbr]
	return t, ok, nil
}

func (h *stubHistory) GamesBefore(abbr string, before time.Time, limit int) ([]nba.Game, error) {
	return h.scan(before, limit, func(g nba.Game) bool { return g.Involves(abbr) })
}

func (h *stubHistory) Meetings(a, b string, before time.Time, limit int) ([]nba.Game, error) {
	return h.scan(before, limit, func(g nba.Game) bool { return g.Involves(a) && g.Involves(b) })
}

func (h *stubHistory) Empty() (bool, error) { return len(h.games) == 0, nil }

func (h *stubHistory) scan(before time.Time, limit int, match func(nba.Game) bool) ([]nba.Game, error) {
	var out []nba.Game
	for i := len(h.games) - 1; i >= 0; i-- {
		g := h.games[i]
		if !g.Date.Before(before) || !match(g) {
			continue
		}
		out = append(out, g)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

type countingTracker struct{ errors int }

func (c *countingTracker) FeatureErrorsInc() { c.errors++ }

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func finalGame(d int, home, away string, homeScore, awayScore int) nba.Game {
	return nba.Game{
		Date:      day(d),
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: homeScore,
		AwayScore: awayScore,
		Status:    nba.StatusFinal,
	}
}

func testTeam(abbr string, elo float64) nba.Team {
	t := BaselineTeam(abbr)
	t.EloRating = elo
	t.Wins = 10
	t.Losses = 10
	return t
}

func TestExtractor_EmptyLeagueFails(t *testing.T) {
	t.Parallel()

	tracker := &countingTracker{}
	e := NewExtractor(&stubHistory{teams: map[string]nba.Team{}}, DefaultParams(), tracker)

	_, err := e.Vector("BOS", "LAL", day(20))
	require.ErrorIs(t, err, ErrInsufficientData)
	assert.Equal(t, 1, tracker.errors)
}

func TestExtractor_ColdStartUsesBaseline(t *testing.T) {
	t.Parallel()

	// League has history, but neither requested team has played.
	hist := &stubHistory{
		teams: map[string]nba.Team{},
		games: []nba.Game{finalGame(1, "NYK", "CHI", 110, 100)},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)
	require.Equal(t, Schema, vec.Names)
	require.Equal(t, len(Schema), vec.Len())

	eloDiff, _ := vec.Get("elo_diff")
	assert.Zero(t, eloDiff)
	h2h, _ := vec.Get("h2h_home_rate")
	assert.Equal(t, 0.5, h2h)
	restDiff, _ := vec.Get("rest_diff")
	assert.Zero(t, restDiff)
	homeCourt, _ := vec.Get("home_court")
	assert.Equal(t, 1.0, homeCourt)
}

func TestExtractor_EloAndRatingDifferentials(t *testing.T) {
	t.Parallel()

	home := testTeam("BOS", 1600)
	home.OffRating = 118
	home.DefRating = 110
	away := testTeam("LAL", 1550)

	hist := &stubHistory{
		teams: map[string]nba.Team{"BOS": home, "LAL": away},
		games: []nba.Game{finalGame(1, "BOS", "LAL", 112, 104)},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)

	eloDiff, _ := vec.Get("elo_diff")
	assert.InDelta(t, 50.0, eloDiff, 1e-9)
	netDiff, _ := vec.Get("net_rating_diff")
	assert.InDelta(t, 8.0, netDiff, 1e-9)
	paceAvg, _ := vec.Get("pace_avg")
	assert.InDelta(t, 1.0, paceAvg, 1e-9)
}

func TestExtractor_RestDaysCappedAndDiffed(t *testing.T) {
	t.Parallel()

	hist := &stubHistory{
		teams: map[string]nba.Team{
			"BOS": testTeam("BOS", 1500),
			"LAL": testTeam("LAL", 1500),
		},
		games: []nba.Game{
			finalGame(1, "BOS", "CHI", 100, 90),  // BOS long layoff, capped
			finalGame(19, "LAL", "NYK", 100, 90), // LAL played yesterday
		},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)

	restDiff, _ := vec.Get("rest_diff")
	// BOS rest capped at 7, LAL rested 1 day.
	assert.InDelta(t, 6.0, restDiff, 1e-9)
}

func TestExtractor_StreaksSigned(t *testing.T) {
	t.Parallel()

	hist := &stubHistory{
		teams: map[string]nba.Team{
			"BOS": testTeam("BOS", 1500),
			"LAL": testTeam("LAL", 1500),
		},
		games: []nba.Game{
			// BOS: loss then three straight wins -> +3
			finalGame(10, "BOS", "CHI", 90, 100),
			finalGame(12, "BOS", "NYK", 100, 90),
			finalGame(14, "CHI", "BOS", 90, 100),
			finalGame(16, "BOS", "MIA", 100, 90),
			// LAL: two straight losses -> -2
			finalGame(15, "LAL", "NYK", 90, 100),
			finalGame(17, "NYK", "LAL", 100, 90),
		},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)

	streakDiff, _ := vec.Get("streak_diff")
	assert.InDelta(t, 5.0, streakDiff, 1e-9) // +3 - (-2)
}

func TestExtractor_HeadToHeadWindow(t *testing.T) {
	t.Parallel()

	hist := &stubHistory{
		teams: map[string]nba.Team{
			"BOS": testTeam("BOS", 1500),
			"LAL": testTeam("LAL", 1500),
		},
		games: []nba.Game{
			finalGame(2, "BOS", "LAL", 100, 90),  // BOS win
			finalGame(5, "LAL", "BOS", 100, 90),  // LAL win
			finalGame(8, "BOS", "LAL", 110, 100), // BOS win
		},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)

	h2h, _ := vec.Get("h2h_home_rate")
	assert.InDelta(t, 2.0/3.0, h2h, 1e-9)
}

func TestExtractor_AsOfExcludesLaterGames(t *testing.T) {
	t.Parallel()

	hist := &stubHistory{
		teams: map[string]nba.Team{
			"BOS": testTeam("BOS", 1500),
			"LAL": testTeam("LAL", 1500),
		},
		games: []nba.Game{
			finalGame(2, "BOS", "LAL", 100, 90),
			finalGame(25, "LAL", "BOS", 120, 90), // after the reference date
		},
	}
	e := NewExtractor(hist, DefaultParams(), nil)

	vec, err := e.Vector("BOS", "LAL", day(20))
	require.NoError(t, err)

	h2h, _ := vec.Get("h2h_home_rate")
	assert.InDelta(t, 1.0, h2h, 1e-9, "games on or after as-of date must not leak in")
}
