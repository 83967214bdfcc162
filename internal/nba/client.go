package nba

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the balldontlie API root.
const DefaultBaseURL = "https://api.balldontlie.io/v1"

const perPage = 100

// Client is a read-only HTTP client for the stats provider. It is used by
// ingestion only; the prediction pipeline never talks to the network.
type Client struct {
	key, base string
	rest      *resty.Client
}

// NewClient creates a provider client. An empty base falls back to the
// public API root. The key is sent as the Authorization header when set.
func NewClient(key, base string, timeout time.Duration) *Client {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(10 * time.Second)
	}
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{key, strings.TrimSuffix(base, "/"), r}
}

type apiTeam struct {
	ID           int64  `json:"id"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Conference   string `json:"conference"`
	Division     string `json:"division"`
}

type apiGame struct {
	ID               int64   `json:"id"`
	Date             string  `json:"date"`
	Status           string  `json:"status"`
	HomeTeam         apiTeam `json:"home_team"`
	VisitorTeam      apiTeam `json:"visitor_team"`
	HomeTeamScore    int     `json:"home_team_score"`
	VisitorTeamScore int     `json:"visitor_team_score"`
}

type teamsResp struct {
	Data []apiTeam `json:"data"`
	Meta struct {
		NextCursor *int64 `json:"next_cursor"`
	} `json:"meta"`
}

type gamesResp struct {
	Data []apiGame `json:"data"`
	Meta struct {
		NextCursor *int64 `json:"next_cursor"`
	} `json:"meta"`
}

// Teams fetches all teams from the provider.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var out []Team
	var cursor *int64
	for {
		params := map[string]string{"per_page": strconv.Itoa(perPage)}
		if cursor != nil {
			params["cursor"] = strconv.FormatInt(*cursor, 10)
		}

		body := &teamsResp{}
		resp, err := c.req(ctx).
			SetQueryParams(params).
			SetResult(body).
			Get(c.base + "/teams")
		if err != nil {
			return nil, fmt.Errorf("fetch teams: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("fetch teams: status %d, body: %s", resp.StatusCode(), resp.String())
		}

		for _, t := range body.Data {
			out = append(out, mapTeam(t))
		}
		if body.Meta.NextCursor == nil {
			return out, nil
		}
		cursor = body.Meta.NextCursor
	}
}

// Games fetches games in the inclusive date range, following pagination.
func (c *Client) Games(ctx context.Context, start, end time.Time) ([]Game, error) {
	var out []Game
	var cursor *int64
	for {
		params := map[string]string{
			"per_page":   strconv.Itoa(perPage),
			"start_date": start.Format("2006-01-02"),
			"end_date":   end.Format("2006-01-02"),
		}
		if cursor != nil {
			params["cursor"] = strconv.FormatInt(*cursor, 10)
		}

		body := &gamesResp{}
		resp, err := c.req(ctx).
			SetQueryParams(params).
			SetResult(body).
			Get(c.base + "/games")
		if err != nil {
			return nil, fmt.Errorf("fetch games: %w", err)
		}
		if resp.StatusCode() != 200 {
			return nil, fmt.Errorf("fetch games: status %d, body: %s", resp.StatusCode(), resp.String())
		}

		for _, g := range body.Data {
			mapped, err := mapGame(g)
			if err != nil {
				return nil, err
			}
			out = append(out, mapped)
		}
		if body.Meta.NextCursor == nil {
			return out, nil
		}
		cursor = body.Meta.NextCursor
	}
}

func (c *Client) req(ctx context.Context) *resty.Request {
	r := c.rest.R().SetContext(ctx)
	if c.key != "" {
		r.SetHeader("Authorization", c.key)
	}
	return r
}

func mapTeam(t apiTeam) Team {
	conf := ConferenceEast
	if strings.EqualFold(t.Conference, "West") {
		conf = ConferenceWest
	}
	name := t.FullName
	if name == "" {
		name = t.Name
	}
	return Team{
		Abbreviation: t.Abbreviation,
		Name:         name,
		City:         t.City,
		Conference:   conf,
		Division:     t.Division,
	}
}

func mapGame(g apiGame) (Game, error) {
	// Provider dates arrive as either a bare date or RFC 3339.
	date, err := time.Parse("2006-01-02", g.Date)
	if err != nil {
		date, err = time.Parse(time.RFC3339, g.Date)
		if err != nil {
			return Game{}, fmt.Errorf("parse game %d date %q: %w", g.ID, g.Date, err)
		}
	}

	status := StatusScheduled
	if strings.EqualFold(g.Status, "Final") {
		status = StatusFinal
	}

	return Game{
		ID:        g.ID,
		Date:      date.UTC().Truncate(24 * time.Hour),
		HomeTeam:  g.HomeTeam.Abbreviation,
		AwayTeam:  g.VisitorTeam.Abbreviation,
		HomeScore: g.HomeTeamScore,
		AwayScore: g.VisitorTeamScore,
		Status:    status,
	}, nil
}
