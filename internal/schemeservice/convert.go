package schemeservice

import (
	"fmt"
	"math"

	"github.com/spboyer/kansan/internal/scheme"
)

// InvalidBaseError is returned when a subject ends up with a non-positive base.
type InvalidBaseError struct {
	Subject string
	Base    int
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base for %s: %d", e.Subject, e.Base)
}

// Convert applies the weighting of s to raw scores. For each subject the
// score is clamped to [0, base], scaled to the subject's points and rounded
// half-to-even to two decimals; the total is the rounded sum. Subjects
// without a score count as 0, and scores for unknown subjects are ignored.
func Convert(s *scheme.Scheme, scores map[string]float64, bases map[string]int) (float64, map[string]float64, error) {
	breakdown := make(map[string]float64, len(s.Subjects()))
	total := 0.0

	for _, subj := range s.Subjects() {
		base := subj.Base
		if override, ok := bases[subj.Name]; ok {
			base = override
		}
		if base <= 0 {
			return 0, nil, &InvalidBaseError{Subject: subj.Name, Base: base}
		}

		score := scores[subj.Name]
		if math.IsNaN(score) {
			score = 0
		}
		score = math.Max(0, math.Min(score, float64(base)))

		weighted := round2(score / float64(base) * subj.Points)
		breakdown[subj.Name] = weighted
		total += weighted
	}
	return round2(total), breakdown, nil
}

// round2 rounds to two decimals with ties going to the even digit.
func round2(f float64) float64 {
	return math.RoundToEven(f*100) / 100
}
