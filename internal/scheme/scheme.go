// Package scheme holds the grading scheme model shared by the client, the
// converter and the scheme service: schemes, their subjects, the immutable
// catalog and the conversion request/result wire types.
package scheme

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/tidwall/gjson"
)

// SubjectDef is the weighting of a single subject.
type SubjectDef struct {
	// Points is the weighted value awarded when the base score is achieved.
	Points float64 `json:"points"`
	// Base is the default maximum raw score.
	Base int `json:"base"`
}

// Subject is a named SubjectDef. Schemes keep subjects in definition order.
type Subject struct {
	Name string
	SubjectDef
}

// Scheme is a named rule set of subjects and their weightings.
// A Scheme is immutable once constructed.
type Scheme struct {
	Key      string
	MaxTotal float64

	subjects []Subject
	index    map[string]int
}

// New builds a scheme from subjects in the given order. Subject names must be
// unique and non-empty.
func New(key string, maxTotal float64, subjects ...Subject) (*Scheme, error) {
	if key == "" {
		return nil, errors.New("scheme key is required")
	}
	s := &Scheme{
		Key:      key,
		MaxTotal: maxTotal,
		subjects: make([]Subject, 0, len(subjects)),
		index:    make(map[string]int, len(subjects)),
	}
	for _, subj := range subjects {
		if subj.Name == "" {
			return nil, fmt.Errorf("scheme %q: subject name is required", key)
		}
		if _, dup := s.index[subj.Name]; dup {
			return nil, fmt.Errorf("scheme %q: duplicate subject %q", key, subj.Name)
		}
		s.index[subj.Name] = len(s.subjects)
		s.subjects = append(s.subjects, subj)
	}
	return s, nil
}

// Subjects returns the subjects in definition order. The returned slice is a copy.
func (s *Scheme) Subjects() []Subject {
	out := make([]Subject, len(s.subjects))
	copy(out, s.subjects)
	return out
}

// Def returns the definition of the named subject.
func (s *Scheme) Def(name string) (SubjectDef, bool) {
	i, ok := s.index[name]
	if !ok {
		return SubjectDef{}, false
	}
	return s.subjects[i].SubjectDef, true
}

// Has reports whether the scheme defines the named subject.
func (s *Scheme) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Validate checks that every base is a positive integer and every points
// value is non-negative.
func (s *Scheme) Validate() error {
	var errs []error
	for _, subj := range s.subjects {
		if subj.Base <= 0 {
			errs = append(errs, fmt.Errorf("scheme %q: subject %q: base must be positive, got %d", s.Key, subj.Name, subj.Base))
		}
		if subj.Points < 0 || math.IsNaN(subj.Points) {
			errs = append(errs, fmt.Errorf("scheme %q: subject %q: points must be non-negative, got %v", s.Key, subj.Name, subj.Points))
		}
	}
	return errors.Join(errs...)
}

// MarshalJSON encodes the scheme in the service wire format, keeping the
// subject object in definition order.
func (s *Scheme) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"key":`)
	key, err := json.Marshal(s.Key)
	if err != nil {
		return nil, err
	}
	buf.Write(key)
	fmt.Fprintf(&buf, `,"max_total":%s,"subjects":{`, formatNumber(s.MaxTotal))
	for i, subj := range s.subjects {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(subj.Name)
		if err != nil {
			return nil, err
		}
		def, err := json.Marshal(subj.SubjectDef)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(def)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the service wire format. Subjects are read in
// document order so the service's ordering survives the round trip.
func (s *Scheme) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return errors.New("invalid scheme JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return errors.New("scheme must be a JSON object")
	}

	key := doc.Get("key")
	if key.Type != gjson.String || key.Str == "" {
		return errors.New("scheme: missing key")
	}
	maxTotal := doc.Get("max_total")
	if maxTotal.Type != gjson.Number {
		return fmt.Errorf("scheme %q: missing max_total", key.Str)
	}
	subjectsDoc := doc.Get("subjects")
	if !subjectsDoc.IsObject() {
		return fmt.Errorf("scheme %q: subjects must be an object", key.Str)
	}

	var (
		subjects []Subject
		parseErr error
	)
	subjectsDoc.ForEach(func(name, def gjson.Result) bool {
		points := def.Get("points")
		base := def.Get("base")
		if points.Type != gjson.Number || base.Type != gjson.Number {
			parseErr = fmt.Errorf("scheme %q: subject %q: points and base must be numbers", key.Str, name.Str)
			return false
		}
		if base.Num != math.Trunc(base.Num) {
			parseErr = fmt.Errorf("scheme %q: subject %q: base must be an integer, got %v", key.Str, name.Str, base.Num)
			return false
		}
		subjects = append(subjects, Subject{
			Name:       name.Str,
			SubjectDef: SubjectDef{Points: points.Num, Base: int(base.Num)},
		})
		return true
	})
	if parseErr != nil {
		return parseErr
	}

	parsed, err := New(key.Str, maxTotal.Num, subjects...)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

func formatNumber(f float64) string {
	b, err := json.Marshal(f)
	if err != nil {
		return "0"
	}
	return string(b)
}
