package predict

// Scorer maps a winning-side probability onto a bounded display scale.
// The mapping is a monotonic linear rescale of [0.5, 1.0] into
// [Floor, Ceiling]: a higher raw probability never yields a lower
// confidence. The winning-side probability cannot fall below 0.5 by
// construction, so Floor is the minimum displayable value.
type Scorer struct {
	Floor   float64
	Ceiling float64
}

// DefaultScorer returns the production display scale: toss-ups read as
// 50, near-certain games top out at 95.
func DefaultScorer() Scorer {
	return Scorer{Floor: 50, Ceiling: 95}
}

// Score converts the winning-side probability to a confidence value.
// Inputs outside [0.5, 1.0] are clamped to the valid range first.
func (s Scorer) Score(winProb float64) float64 {
	winProb = clamp(winProb, 0.5, 1.0)
	return s.Floor + (winProb-0.5)/0.5*(s.Ceiling-s.Floor)
}
