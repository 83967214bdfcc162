// Package storage provides persistent historical data for the prediction
// pipeline. It uses BoltDB as the underlying storage engine to store team
// season snapshots, completed game records, and generated predictions for
// later accuracy tracking.
//
// Game keys are date-prefixed so chronological range scans are a single
// cursor pass. The pipeline only reads; ingestion is the only writer.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"courtvision/internal/nba"

	"go.etcd.io/bbolt"
)

const (
	teamsBucket       = "teams"       // Team snapshots keyed by abbreviation
	gamesBucket       = "games"       // Game records keyed by date_away@home
	predictionsBucket = "predictions" // PredictionRecord keyed by date_away@home
)

// Store provides persistent storage for historical NBA data using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the database under dataPath and ensures all
// buckets exist.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, "courtvision.db")

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{teamsBucket, gamesBucket, predictionsBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection gracefully.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutTeam upserts a team season snapshot.
func (s *Store) PutTeam(t nba.Team) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(teamsBucket))

		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal team: %w", err)
		}
		return b.Put([]byte(t.Abbreviation), data)
	})
}

// Team returns the snapshot for an abbreviation. The bool is false when the
// team has never been recorded.
func (s *Store) Team(abbr string) (nba.Team, bool, error) {
	var t nba.Team
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(teamsBucket)).Get([]byte(abbr))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("unmarshal team %s: %w", abbr, err)
		}
		found = true
		return nil
	})
	return t, found, err
}

// Teams returns all recorded team snapshots.
func (s *Store) Teams() ([]nba.Team, error) {
	var teams []nba.Team
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(teamsBucket)).ForEach(func(_, v []byte) error {
			var t nba.Team
			if err := json.Unmarshal(v, &t); err != nil {
				return nil // skip malformed records
			}
			teams = append(teams, t)
			return nil
		})
	})
	return teams, err
}

// gameKey orders games chronologically and disambiguates same-day games.
func gameKey(g nba.Game) []byte {
	return []byte(fmt.Sprintf("%s_%s@%s", g.Date.Format("2006-01-02"), g.AwayTeam, g.HomeTeam))
}

// PutGame stores a completed game record. Re-storing the same matchup on the
// same date overwrites in place, so repeated syncs stay idempotent.
func (s *Store) PutGame(g nba.Game) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(gamesBucket))

		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal game: %w", err)
		}
		return b.Put(gameKey(g), data)
	})
}

// RecordFinal stores a final game together with both updated team
// snapshots in a single transaction. Either all three writes land or none
// do: a recorded game without its aggregate updates would never be
// re-applied (the sync skips known games), so the divergence would be
// permanent.
func (s *Store) RecordFinal(g nba.Game, home, away nba.Team) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(g)
		if err != nil {
			return fmt.Errorf("marshal game: %w", err)
		}
		if err := tx.Bucket([]byte(gamesBucket)).Put(gameKey(g), data); err != nil {
			return err
		}

		teams := tx.Bucket([]byte(teamsBucket))
		for _, t := range []nba.Team{home, away} {
			data, err := json.Marshal(t)
			if err != nil {
				return fmt.Errorf("marshal team: %w", err)
			}
			if err := teams.Put([]byte(t.Abbreviation), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasGame reports whether the matchup is already recorded.
func (s *Store) HasGame(g nba.Game) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		found = tx.Bucket([]byte(gamesBucket)).Get(gameKey(g)) != nil
		return nil
	})
	return found, err
}

// Empty reports whether no game has ever been recorded for the league.
func (s *Store) Empty() (bool, error) {
	empty := true
	err := s.db.View(func(tx *bbolt.Tx) error {
		k, _ := tx.Bucket([]byte(gamesBucket)).Cursor().First()
		empty = k == nil
		return nil
	})
	return empty, err
}

// Games returns all game records in chronological order.
func (s *Store) Games() ([]nba.Game, error) {
	var games []nba.Game
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(gamesBucket)).ForEach(func(_, v []byte) error {
			var g nba.Game
			if err := json.Unmarshal(v, &g); err != nil {
				return nil
			}
			games = append(games, g)
			return nil
		})
	})
	return games, err
}

// GamesBefore returns up to limit games involving the team strictly before
// the given date, most recent first.
func (s *Store) GamesBefore(abbr string, before time.Time, limit int) ([]nba.Game, error) {
	return s.scanBefore(before, limit, func(g nba.Game) bool {
		return g.Involves(abbr)
	})
}

// Meetings returns up to limit games between the two teams strictly before
// the given date, most recent first. Either side may have been at home.
func (s *Store) Meetings(a, b string, before time.Time, limit int) ([]nba.Game, error) {
	return s.scanBefore(before, limit, func(g nba.Game) bool {
		return g.Involves(a) && g.Involves(b)
	})
}

// scanBefore walks the games bucket backwards from the date boundary and
// collects records matching the filter.
func (s *Store) scanBefore(before time.Time, limit int, match func(nba.Game) bool) ([]nba.Game, error) {
	var games []nba.Game
	boundary := []byte(before.Format("2006-01-02") + "_")

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(gamesBucket)).Cursor()

		k, v := c.Seek(boundary)
		if k == nil {
			k, v = c.Last()
		} else {
			k, v = c.Prev()
		}

		for ; k != nil; k, v = c.Prev() {
			if bytes.Compare(k, boundary) >= 0 {
				continue
			}
			var g nba.Game
			if err := json.Unmarshal(v, &g); err != nil {
				continue // skip malformed records
			}
			if !match(g) {
				continue
			}
			games = append(games, g)
			if limit > 0 && len(games) >= limit {
				break
			}
		}
		return nil
	})
	return games, err
}
