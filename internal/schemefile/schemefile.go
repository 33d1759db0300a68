// Package schemefile loads scheme definitions from YAML files for the scheme
// service. Files are validated against an embedded JSON Schema before they
// are decoded.
package schemefile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spboyer/kansan/internal/scheme"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default.yaml
var defaultYAML []byte

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

const schemaName = "schemes.schema.json"

var fileSchema = func() *jsonschema.Schema {
	sch, err := compileFileSchema()
	if err != nil {
		panic(fmt.Sprintf("embedded %s: %v", schemaName, err))
	}
	return sch
}()

// ValidationError lists every schema violation found in a scheme file.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	name := e.Path
	if name == "" {
		name = "scheme file"
	}
	return fmt.Sprintf("%s is invalid:\n  %s", name, strings.Join(e.Problems, "\n  "))
}

type fileDoc struct {
	Schemes []schemeDoc `yaml:"schemes"`
}

type schemeDoc struct {
	Key      string       `yaml:"key"`
	MaxTotal float64      `yaml:"max_total"`
	Subjects []subjectDoc `yaml:"subjects"`
}

type subjectDoc struct {
	Name   string  `yaml:"name"`
	Points float64 `yaml:"points"`
	Base   int     `yaml:"base"`
}

// Load reads and parses the scheme file at path.
func Load(path string) (*scheme.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scheme file: %w", err)
	}
	cat, err := parse(path, data)
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// Parse parses scheme definitions from YAML bytes.
func Parse(data []byte) (*scheme.Catalog, error) {
	return parse("", data)
}

// Default returns the built-in sample catalog.
func Default() *scheme.Catalog {
	cat, err := parse("default.yaml", defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default.yaml: %v", err))
	}
	return cat
}

func parse(path string, data []byte) (*scheme.Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing scheme file: %w", err)
	}
	if problems := validate(raw); len(problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: problems}
	}

	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing scheme file: %w", err)
	}

	schemes := make([]*scheme.Scheme, 0, len(doc.Schemes))
	for _, sd := range doc.Schemes {
		subjects := make([]scheme.Subject, 0, len(sd.Subjects))
		for _, subj := range sd.Subjects {
			subjects = append(subjects, scheme.Subject{
				Name:       subj.Name,
				SubjectDef: scheme.SubjectDef{Points: subj.Points, Base: subj.Base},
			})
		}
		s, err := scheme.New(sd.Key, sd.MaxTotal, subjects...)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}

	cat, err := scheme.NewCatalog(schemes...)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// validate checks doc against the file schema and describes every
// violation by scheme key and subject name.
func validate(doc any) []string {
	err := fileSchema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{fmt.Sprintf("file: %v", err)}
	}

	var problems []string
	for _, leaf := range leafErrors(ve) {
		problems = append(problems, fmt.Sprintf("%s: %s",
			locate(doc, leaf.InstanceLocation), leaf.ErrorKind.LocalizedString(defaultPrinter)))
	}
	return problems
}

func leafErrors(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var leaves []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		leaves = append(leaves, leafErrors(c)...)
	}
	return leaves
}

// locate names the scheme and subject an instance location points into,
// e.g. `scheme "A", subject "Math", base`.
func locate(doc any, loc []string) string {
	if len(loc) == 0 {
		return "file"
	}

	var parts []string
	if loc[0] == "schemes" && len(loc) >= 2 {
		root, _ := doc.(map[string]any)
		sch := element(root["schemes"], loc[1])
		parts = append(parts, label("scheme", sch, "key", loc[1]))
		loc = loc[2:]

		if len(loc) >= 2 && loc[0] == "subjects" {
			subj := element(sch["subjects"], loc[1])
			parts = append(parts, label("subject", subj, "name", loc[1]))
			loc = loc[2:]
		}
	}
	if len(loc) > 0 {
		parts = append(parts, strings.Join(loc, "."))
	}
	return strings.Join(parts, ", ")
}

// element returns list[index] when it is a mapping.
func element(list any, index string) map[string]any {
	items, _ := list.([]any)
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(items) {
		return nil
	}
	m, _ := items[i].(map[string]any)
	return m
}

// label prefers the entry's own name and falls back to its 1-based position.
func label(kind string, entry map[string]any, field, index string) string {
	if name, ok := entry[field].(string); ok && name != "" {
		return fmt.Sprintf("%s %q", kind, name)
	}
	i, _ := strconv.Atoi(index)
	return fmt.Sprintf("%s #%d", kind, i+1)
}

func compileFileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaName, doc); err != nil {
		return nil, err
	}
	return c.Compile(schemaName)
}
