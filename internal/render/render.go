// Package render prints scheme catalogs and conversion results for the
// terminal. Column widths account for East Asian wide characters so subject
// names such as 地理歴史 line up.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/kansan/internal/scheme"
)

// Number formats f the way the service sends it: no trailing zeros.
func Number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Result writes the breakdown and total of res. When s is non-nil subjects
// are listed in scheme order with the base each was weighted against.
func Result(w io.Writer, res *scheme.ConversionResult, s *scheme.Scheme) error {
	names := res.BreakdownOrder(s)

	width := runewidth.StringWidth("Subject")
	for _, name := range names {
		width = max(width, runewidth.StringWidth(name))
	}

	var b strings.Builder
	if res.SchemeKey != "" {
		fmt.Fprintf(&b, "Scheme: %s\n\n", res.SchemeKey)
	}
	fmt.Fprintf(&b, "%s  %10s", runewidth.FillRight("Subject", width), "Score")
	if s != nil {
		fmt.Fprintf(&b, "  %8s", "Points")
	}
	b.WriteByte('\n')

	for _, name := range names {
		fmt.Fprintf(&b, "%s  %10s", runewidth.FillRight(name, width), Number(res.Breakdown[name]))
		if s != nil {
			points := ""
			if def, ok := s.Def(name); ok {
				points = Number(def.Points)
			}
			fmt.Fprintf(&b, "  %8s", points)
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "\nTotal %s / %s\n", Number(res.Total), Number(res.MaxTotal))
	_, err := io.WriteString(w, b.String())
	return err
}

// Catalog writes every scheme with its subjects, weighted points and default base.
func Catalog(w io.Writer, cat *scheme.Catalog) error {
	var b strings.Builder
	for i, s := range cat.Schemes() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s (max %s)\n", s.Key, Number(s.MaxTotal))

		subjects := s.Subjects()
		width := 0
		for _, subj := range subjects {
			width = max(width, runewidth.StringWidth(subj.Name))
		}
		for _, subj := range subjects {
			fmt.Fprintf(&b, "  %s  %6s pts / base %d\n", runewidth.FillRight(subj.Name, width), Number(subj.Points), subj.Base)
		}
	}
	if cat.Len() == 0 {
		b.WriteString("No schemes available.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
