// Package form runs the interactive terminal form: pick a scheme, then type
// a raw score and, when it differs, the maximum score for every subject.
package form

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/kansan/internal/converter"
	"github.com/spboyer/kansan/internal/render"
	"github.com/spboyer/kansan/internal/scheme"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user aborts the form.
var ErrCancelled = errors.New("cancelled")

// ErrUnexpectedEOF is returned when piped input ends before every prompt
// has been answered.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// Form reads answers from in and draws prompts on out.
type Form struct {
	in         io.Reader
	out        io.Writer
	accessible bool
	lines      *lineReader
}

// New creates a Form. Non-TTY input (tests, pipes) uses huh's accessible
// mode, which reads one plain line per prompt.
func New(in io.Reader, out io.Writer) *Form {
	f := &Form{in: in, out: out}
	if file, ok := in.(*os.File); !ok || !term.IsTerminal(int(file.Fd())) {
		f.accessible = true
		f.lines = newLineReader(in)
		f.in = f.lines
	}
	return f
}

// SelectScheme asks for a scheme. A single-scheme catalog is selected
// without asking.
func (f *Form) SelectScheme(cat *scheme.Catalog, initialKey string) (*scheme.Scheme, error) {
	keys := cat.Keys()
	switch len(keys) {
	case 0:
		return nil, errors.New("the scheme service offers no schemes")
	case 1:
		s, _ := cat.Get(keys[0])
		return s, nil
	}

	key := initialKey
	if _, ok := cat.Get(key); !ok {
		key = keys[0]
	}

	options := make([]huh.Option[string], 0, len(keys))
	for _, k := range keys {
		s, _ := cat.Get(k)
		options = append(options, huh.NewOption(fmt.Sprintf("%s (max %s)", k, render.Number(s.MaxTotal)), k))
	}

	err := f.run(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Scheme").
			Options(options...).
			Value(&key),
	))
	if err != nil {
		return nil, err
	}

	s, ok := cat.Get(key)
	if !ok {
		return nil, fmt.Errorf("unknown scheme %q", key)
	}
	return s, nil
}

// CollectInputs asks for the score and base of every subject of s.
func (f *Form) CollectInputs(s *scheme.Scheme) (map[string]converter.RawInput, error) {
	fields := newSubjectFields(s)

	groups := make([]*huh.Group, 0, len(fields))
	for _, fld := range fields {
		groups = append(groups, huh.NewGroup(
			huh.NewInput().
				Title(fld.name+" score").
				Description(fmt.Sprintf("Raw score out of the maximum below (worth %s points). Blank counts as 0.", render.Number(fld.points))).
				Placeholder("0").
				Value(&fld.score),
			huh.NewInput().
				Title(fld.name+" maximum score").
				Description(fmt.Sprintf("Change only if your paper was not out of %d.", fld.defaultBase)).
				Value(&fld.base),
		))
	}

	if err := f.run(groups...); err != nil {
		return nil, err
	}
	return toInputs(fields), nil
}

func (f *Form) run(groups ...*huh.Group) error {
	form := huh.NewForm(groups...).
		WithInput(f.in).
		WithOutput(f.out).
		WithAccessible(f.accessible)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrCancelled
		}
		return fmt.Errorf("form failed: %w", err)
	}
	if f.lines != nil && f.lines.exhausted {
		return fmt.Errorf("form failed: %w", ErrUnexpectedEOF)
	}
	return nil
}

// lineReader hands out at most one line per Read. huh starts a fresh
// scanner for every accessible prompt, so a plain reader would let the first
// prompt buffer every remaining answer.
type lineReader struct {
	r       *bufio.Reader
	pending []byte
	// partial is set while the last line handed out had no newline yet.
	partial bool
	// exhausted is set once a prompt found no input left to read.
	exhausted bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReader(r)}
}

func (l *lineReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(l.pending) == 0 {
		line, err := l.r.ReadBytes('\n')
		if len(line) == 0 {
			if errors.Is(err, io.EOF) {
				if l.partial {
					l.partial = false
				} else {
					l.exhausted = true
				}
			}
			return 0, err
		}
		l.pending = line
		l.partial = line[len(line)-1] != '\n'
	}
	n := copy(p, l.pending)
	l.pending = l.pending[n:]
	return n, nil
}

type subjectField struct {
	name        string
	points      float64
	defaultBase int
	score       string
	base        string
}

func newSubjectFields(s *scheme.Scheme) []*subjectField {
	subjects := s.Subjects()
	fields := make([]*subjectField, 0, len(subjects))
	for _, subj := range subjects {
		fields = append(fields, &subjectField{
			name:        subj.Name,
			points:      subj.Points,
			defaultBase: subj.Base,
			base:        strconv.Itoa(subj.Base),
		})
	}
	return fields
}

func toInputs(fields []*subjectField) map[string]converter.RawInput {
	inputs := make(map[string]converter.RawInput, len(fields))
	for _, fld := range fields {
		inputs[fld.name] = converter.RawInput{Score: fld.score, Base: fld.base}
	}
	return inputs
}
