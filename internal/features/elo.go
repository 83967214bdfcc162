package features

import "math"

// Elo system parameters. The home bonus is worth roughly a 64% expected
// win rate for otherwise even teams.
const (
	EloBaseline      = 1500.0
	EloKFactor       = 20.0
	EloHomeAdvantage = 100.0
)

// EloExpect returns the expected score for the home side given raw ratings.
// The home-court bonus is applied internally.
func EloExpect(homeElo, awayElo float64) float64 {
	diff := (homeElo + EloHomeAdvantage) - awayElo
	return 1 / (1 + math.Pow(10, -diff/400))
}

// EloDelta computes the rating change awarded to the winner of a final
// game. The margin-of-victory multiplier dampens blowout inflation and is
// clamped to [1, 3]. The loser loses the same amount, keeping the league
// rating pool constant.
func EloDelta(winnerElo, loserElo, margin float64, winnerHome bool) float64 {
	we, le := winnerElo, loserElo
	if winnerHome {
		we += EloHomeAdvantage
	} else {
		le += EloHomeAdvantage
	}

	expected := 1 / (1 + math.Pow(10, (le-we)/400))

	if margin < 1 {
		margin = 1
	}
	mov := math.Log(margin+1) * (2.2 / ((we-le)*0.001 + 2.2))
	mov = math.Max(1.0, math.Min(mov, 3.0))

	return EloKFactor * mov * (1 - expected)
}
