// Package ingest pulls teams and finished games from the stats provider
// into the historical store and maintains the per-team rolling aggregates
// the feature extractor reads: win/loss record, streak, scoring averages,
// last game date, and Elo rating. It is the only writer to the store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"courtvision/internal/features"
	"courtvision/internal/nba"
	"courtvision/internal/storage"

	"github.com/rs/zerolog/log"
)

// Sink receives ingestion observability events.
type Sink interface {
	GamesIngestedAdd(n int)
	ProviderErrorsInc()
}

// Provider is the slice of the stats client the syncer needs.
type Provider interface {
	Teams(ctx context.Context) ([]nba.Team, error)
	Games(ctx context.Context, start, end time.Time) ([]nba.Game, error)
}

// Syncer keeps the historical store up to date with the provider.
type Syncer struct {
	provider Provider
	store    *storage.Store
	metrics  Sink
}

// NewSyncer creates a syncer. metrics may be nil.
func NewSyncer(provider Provider, store *storage.Store, metrics Sink) *Syncer {
	return &Syncer{provider: provider, store: store, metrics: metrics}
}

// SyncTeams upserts team identities from the provider. Existing aggregates
// are preserved; newly discovered teams start from the league baseline.
func (s *Syncer) SyncTeams(ctx context.Context) (int, error) {
	apiTeams, err := s.provider.Teams(ctx)
	if err != nil {
		s.providerError()
		return 0, fmt.Errorf("sync teams: %w", err)
	}

	created := 0
	for _, t := range apiTeams {
		existing, found, err := s.store.Team(t.Abbreviation)
		if err != nil {
			return created, err
		}
		if found {
			// Only identity fields come from the provider.
			existing.Name = t.Name
			existing.City = t.City
			existing.Conference = t.Conference
			existing.Division = t.Division
			if err := s.store.PutTeam(existing); err != nil {
				return created, err
			}
			continue
		}

		fresh := features.BaselineTeam(t.Abbreviation)
		fresh.Name = t.Name
		fresh.City = t.City
		fresh.Conference = t.Conference
		fresh.Division = t.Division
		if err := s.store.PutTeam(fresh); err != nil {
			return created, err
		}
		created++
	}

	log.Info().Int("teams", len(apiTeams)).Int("created", created).Msg("teams synced")
	return created, nil
}

// SyncGames records final games in the date range and applies each new one
// to both teams' aggregates. Already-recorded games are skipped, so the
// sync is idempotent and aggregates are never applied twice.
func (s *Syncer) SyncGames(ctx context.Context, start, end time.Time) (int, error) {
	apiGames, err := s.provider.Games(ctx, start, end)
	if err != nil {
		s.providerError()
		return 0, fmt.Errorf("sync games: %w", err)
	}

	recorded := 0
	for _, g := range apiGames {
		if g.Status != nba.StatusFinal {
			continue
		}
		if g.HomeScore == g.AwayScore {
			// NBA games cannot end tied; a zero-zero "final" is provider noise.
			log.Warn().Int64("game_id", g.ID).Msg("skipping final game with tied score")
			continue
		}

		exists, err := s.store.HasGame(g)
		if err != nil {
			return recorded, err
		}
		if exists {
			continue
		}

		if err := s.record(g); err != nil {
			return recorded, err
		}
		recorded++
	}

	if s.metrics != nil && recorded > 0 {
		s.metrics.GamesIngestedAdd(recorded)
	}
	log.Info().
		Time("start", start).
		Time("end", end).
		Int("fetched", len(apiGames)).
		Int("recorded", recorded).
		Msg("games synced")
	return recorded, nil
}

func (s *Syncer) record(g nba.Game) error {
	home, found, err := s.store.Team(g.HomeTeam)
	if err != nil {
		return err
	}
	if !found {
		home = features.BaselineTeam(g.HomeTeam)
	}
	away, found, err := s.store.Team(g.AwayTeam)
	if err != nil {
		return err
	}
	if !found {
		away = features.BaselineTeam(g.AwayTeam)
	}

	ApplyFinal(&home, &away, g)

	// One transaction: a stored game must never exist without its
	// aggregate updates.
	return s.store.RecordFinal(g, home, away)
}

func (s *Syncer) providerError() {
	if s.metrics != nil {
		s.metrics.ProviderErrorsInc()
	}
}

// ApplyFinal folds a final game into both teams' aggregates: record,
// streak, scoring averages, last game date, and Elo. The Elo exchange is
// zero-sum. Shared with the backtester, which replays history through the
// same update path.
func ApplyFinal(home, away *nba.Team, g nba.Game) {
	margin := float64(g.Margin())
	if margin < 0 {
		margin = -margin
	}

	if g.HomeWon() {
		delta := features.EloDelta(home.EloRating, away.EloRating, margin, true)
		home.EloRating += delta
		away.EloRating -= delta
		home.Wins++
		away.Losses++
		home.CurrentStreak = extendStreak(home.CurrentStreak, true)
		away.CurrentStreak = extendStreak(away.CurrentStreak, false)
	} else {
		delta := features.EloDelta(away.EloRating, home.EloRating, margin, false)
		away.EloRating += delta
		home.EloRating -= delta
		away.Wins++
		home.Losses++
		away.CurrentStreak = extendStreak(away.CurrentStreak, true)
		home.CurrentStreak = extendStreak(home.CurrentStreak, false)
	}

	updateScoring(home, g.HomeScore, g.AwayScore)
	updateScoring(away, g.AwayScore, g.HomeScore)

	date := g.Date
	home.LastGameDate = &date
	away.LastGameDate = &date
}

func extendStreak(streak int, won bool) int {
	switch {
	case won && streak > 0:
		return streak + 1
	case won:
		return 1
	case streak < 0:
		return streak - 1
	default:
		return -1
	}
}

// updateScoring folds one game into the running points-for/against means.
func updateScoring(t *nba.Team, scored, allowed int) {
	games := float64(t.GamesPlayed()) // already includes this game
	if games <= 1 {
		t.AvgPointsScored = float64(scored)
		t.AvgPointsAllowed = float64(allowed)
		return
	}
	t.AvgPointsScored += (float64(scored) - t.AvgPointsScored) / games
	t.AvgPointsAllowed += (float64(allowed) - t.AvgPointsAllowed) / games
}
