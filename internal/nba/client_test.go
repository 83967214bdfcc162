package nba

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_TeamsPagination(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/teams", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("cursor") == "" {
			fmt.Fprint(w, `{
				"data": [
					{"id": 1, "abbreviation": "BOS", "city": "Boston", "full_name": "Boston Celtics", "conference": "East", "division": "Atlantic"},
					{"id": 2, "abbreviation": "LAL", "city": "Los Angeles", "full_name": "Los Angeles Lakers", "conference": "West", "division": "Pacific"}
				],
				"meta": {"next_cursor": 25}
			}`)
			return
		}
		require.Equal(t, "25", r.URL.Query().Get("cursor"))
		fmt.Fprint(w, `{
			"data": [
				{"id": 3, "abbreviation": "MIA", "city": "Miami", "full_name": "Miami Heat", "conference": "east", "division": "Southeast"}
			],
			"meta": {"next_cursor": null}
		}`)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, 5*time.Second)
	teams, err := c.Teams(context.Background())
	require.NoError(t, err)
	require.Len(t, teams, 3, "both pages must be collected")

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "BOS", teams[0].Abbreviation)
	assert.Equal(t, "Boston Celtics", teams[0].Name)
	assert.Equal(t, ConferenceEast, teams[0].Conference)
	assert.Equal(t, ConferenceWest, teams[1].Conference)
	assert.Equal(t, ConferenceEast, teams[2].Conference, "conference matching is case-insensitive")
}

func TestClient_Games(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/games", r.URL.Path)
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2024-01-07", r.URL.Query().Get("end_date"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"data": [
				{
					"id": 100, "date": "2024-01-02", "status": "Final",
					"home_team": {"abbreviation": "BOS"}, "visitor_team": {"abbreviation": "LAL"},
					"home_team_score": 112, "visitor_team_score": 104
				},
				{
					"id": 101, "date": "2024-01-05T00:00:00.000Z", "status": "7:30 PM ET",
					"home_team": {"abbreviation": "NYK"}, "visitor_team": {"abbreviation": "CHI"},
					"home_team_score": 0, "visitor_team_score": 0
				}
			],
			"meta": {"next_cursor": null}
		}`)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, 5*time.Second)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)

	games, err := c.Games(context.Background(), start, end)
	require.NoError(t, err)
	require.Len(t, games, 2)

	assert.Equal(t, int64(100), games[0].ID)
	assert.Equal(t, StatusFinal, games[0].Status)
	assert.Equal(t, "BOS", games[0].HomeTeam)
	assert.Equal(t, "LAL", games[0].AwayTeam)
	assert.Equal(t, 112, games[0].HomeScore)
	assert.True(t, games[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, StatusScheduled, games[1].Status, "non-final statuses stay scheduled")
	assert.True(t, games[1].Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)), "RFC 3339 dates are truncated to the day")
}

func TestClient_GamesBadDate(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"data": [{"id": 1, "date": "yesterday", "status": "Final",
				"home_team": {"abbreviation": "BOS"}, "visitor_team": {"abbreviation": "LAL"}}],
			"meta": {"next_cursor": null}
		}`)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, 5*time.Second)
	_, err := c.Games(context.Background(), time.Now(), time.Now())
	assert.Error(t, err)
}

func TestClient_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("", srv.URL, 5*time.Second)
	_, err := c.Teams(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
