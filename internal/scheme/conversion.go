package scheme

import "sort"

// ConversionRequest is the body of POST /convert.
type ConversionRequest struct {
	SchemeKey string             `json:"scheme_key"`
	Scores    map[string]float64 `json:"scores"`
	// Bases holds only the subjects whose base differs from the scheme
	// default. An empty map is dropped from the encoded request.
	Bases map[string]int `json:"bases,omitempty"`
}

// ConversionResult is the response of POST /convert.
type ConversionResult struct {
	SchemeKey string             `json:"scheme_key,omitempty"`
	Total     float64            `json:"total"`
	MaxTotal  float64            `json:"max_total"`
	Breakdown map[string]float64 `json:"breakdown"`
}

// BreakdownOrder returns the breakdown subjects ordered by the scheme
// definition when s is given, followed by any remaining subjects sorted by
// name.
func (r *ConversionResult) BreakdownOrder(s *Scheme) []string {
	seen := make(map[string]bool, len(r.Breakdown))
	var names []string
	if s != nil {
		for _, subj := range s.subjects {
			if _, ok := r.Breakdown[subj.Name]; ok {
				names = append(names, subj.Name)
				seen[subj.Name] = true
			}
		}
	}
	var rest []string
	for name := range r.Breakdown {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
