package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// PredictionRecord is a generated prediction persisted for later accuracy
// tracking. It mirrors the pipeline output without importing it, keeping
// the storage layer free of pipeline dependencies.
type PredictionRecord struct {
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
	GameDate     time.Time `json:"game_date"`
	HomeWinProb  float64   `json:"home_win_prob"`
	AwayWinProb  float64   `json:"away_win_prob"`
	Margin       float64   `json:"margin"`
	Confidence   float64   `json:"confidence"`
	ModelVersion string    `json:"model_version"`
	GeneratedAt  time.Time `json:"generated_at"`
}

func predictionKey(r PredictionRecord) []byte {
	return []byte(fmt.Sprintf("%s_%s@%s", r.GameDate.Format("2006-01-02"), r.AwayTeam, r.HomeTeam))
}

// PutPrediction stores a prediction record, overwriting any earlier
// prediction for the same matchup.
func (s *Store) PutPrediction(r PredictionRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}
		return b.Put(predictionKey(r), data)
	})
}

// Prediction returns the stored record for a matchup, if any.
func (s *Store) Prediction(homeTeam, awayTeam string, gameDate time.Time) (PredictionRecord, bool, error) {
	var r PredictionRecord
	found := false

	key := predictionKey(PredictionRecord{HomeTeam: homeTeam, AwayTeam: awayTeam, GameDate: gameDate})
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(predictionsBucket)).Get(key)
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("unmarshal prediction: %w", err)
		}
		found = true
		return nil
	})
	return r, found, err
}
