package scheme

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScheme(t *testing.T) *Scheme {
	t.Helper()
	s, err := New("A", 500,
		Subject{Name: "Math", SubjectDef: SubjectDef{Points: 200, Base: 100}},
		Subject{Name: "English", SubjectDef: SubjectDef{Points: 300, Base: 150}},
	)
	require.NoError(t, err)
	return s
}

func TestNew_RejectsDuplicateSubjects(t *testing.T) {
	_, err := New("A", 100,
		Subject{Name: "Math", SubjectDef: SubjectDef{Points: 50, Base: 100}},
		Subject{Name: "Math", SubjectDef: SubjectDef{Points: 50, Base: 100}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate subject")
}

func TestNew_RequiresKey(t *testing.T) {
	_, err := New("", 100)
	require.Error(t, err)
}

func TestScheme_Def(t *testing.T) {
	s := sampleScheme(t)

	def, ok := s.Def("English")
	require.True(t, ok)
	assert.Equal(t, SubjectDef{Points: 300, Base: 150}, def)

	_, ok = s.Def("History")
	assert.False(t, ok)
	assert.True(t, s.Has("Math"))
}

func TestScheme_SubjectsIsCopy(t *testing.T) {
	s := sampleScheme(t)
	subjects := s.Subjects()
	subjects[0].Name = "changed"

	assert.Equal(t, "Math", s.Subjects()[0].Name)
}

func TestScheme_Validate(t *testing.T) {
	tests := []struct {
		name    string
		def     SubjectDef
		wantErr string
	}{
		{"valid", SubjectDef{Points: 10, Base: 100}, ""},
		{"zero points", SubjectDef{Points: 0, Base: 100}, ""},
		{"zero base", SubjectDef{Points: 10, Base: 0}, "base must be positive"},
		{"negative base", SubjectDef{Points: 10, Base: -5}, "base must be positive"},
		{"negative points", SubjectDef{Points: -1, Base: 100}, "points must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New("k", 100, Subject{Name: "x", SubjectDef: tt.def})
			require.NoError(t, err)

			err = s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScheme_JSONKeepsSubjectOrder(t *testing.T) {
	raw := `{"key":"理系","max_total":450,"subjects":{"数学":{"points":100,"base":200},"英語":{"points":150,"base":200},"国語":{"points":50,"base":200}}}`

	var s Scheme
	require.NoError(t, json.Unmarshal([]byte(raw), &s))

	assert.Equal(t, "理系", s.Key)
	assert.Equal(t, 450.0, s.MaxTotal)
	names := []string{}
	for _, subj := range s.Subjects() {
		names = append(names, subj.Name)
	}
	assert.Equal(t, []string{"数学", "英語", "国語"}, names)

	out, err := json.Marshal(&s)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
	assert.Less(t, strings.Index(string(out), "数学"), strings.Index(string(out), "国語"))
}

func TestScheme_UnmarshalRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"not json":          `{`,
		"array":             `[]`,
		"missing key":       `{"max_total":1,"subjects":{}}`,
		"missing max_total": `{"key":"a","subjects":{}}`,
		"subjects array":    `{"key":"a","max_total":1,"subjects":[]}`,
		"string points":     `{"key":"a","max_total":1,"subjects":{"x":{"points":"1","base":1}}}`,
		"fractional base":   `{"key":"a","max_total":1,"subjects":{"x":{"points":1,"base":1.5}}}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			var s Scheme
			assert.Error(t, json.Unmarshal([]byte(raw), &s))
		})
	}
}

func TestCatalog_GetAndKeys(t *testing.T) {
	a := sampleScheme(t)
	b, err := New("B", 100, Subject{Name: "Art", SubjectDef: SubjectDef{Points: 100, Base: 50}})
	require.NoError(t, err)

	c, err := NewCatalog(b, a)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "A"}, c.Keys())
	assert.Equal(t, 2, c.Len())

	got, ok := c.Get("A")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCatalog_DuplicateKey(t *testing.T) {
	a := sampleScheme(t)
	_, err := NewCatalog(a, a)
	require.Error(t, err)
}

func TestCatalog_NilIsEmpty(t *testing.T) {
	var c *Catalog
	_, ok := c.Get("A")
	assert.False(t, ok)
	assert.Empty(t, c.Keys())
	assert.Zero(t, c.Len())
}

func TestHolder_ReplaceIsWholesale(t *testing.T) {
	var h Holder
	assert.Nil(t, h.Load())

	first, err := NewCatalog(sampleScheme(t))
	require.NoError(t, err)
	h.Replace(first)
	assert.Same(t, first, h.Load())

	second, err := NewCatalog()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := h.Load()
			assert.True(t, c == first || c == second)
		}()
	}
	h.Replace(second)
	wg.Wait()
	assert.Same(t, second, h.Load())
}

func TestConversionRequest_OmitsEmptyBases(t *testing.T) {
	req := ConversionRequest{
		SchemeKey: "A",
		Scores:    map[string]float64{"Math": 80},
		Bases:     map[string]int{},
	}
	out, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "bases")
}

func TestConversionResult_BreakdownOrder(t *testing.T) {
	s := sampleScheme(t)
	res := &ConversionResult{Breakdown: map[string]float64{"English": 1, "Math": 2, "Extra": 3}}

	assert.Equal(t, []string{"Math", "English", "Extra"}, res.BreakdownOrder(s))
	assert.Equal(t, []string{"English", "Extra", "Math"}, res.BreakdownOrder(nil))
}
