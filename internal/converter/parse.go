package converter

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// ParseScore reads a raw score. Empty, non-numeric, negative and non-finite
// input all read as 0; malformed input is never an error. Full-width digits
// such as "８０" are accepted.
func ParseScore(raw string) float64 {
	s := normalize(raw)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// OverrideBase reads a user-supplied base against the scheme default. It
// returns the base and true only when raw is a positive integer that differs
// from def; anything else means "use the default".
func OverrideBase(raw string, def int) (int, bool) {
	s := normalize(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 || v == def {
		return 0, false
	}
	return v, true
}

func normalize(raw string) string {
	return strings.TrimSpace(width.Narrow.String(raw))
}
