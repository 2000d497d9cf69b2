package spec

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// EvalSpec is a locally authored eval definition. It is the contract
// between a human-written YAML file and the remote eval resource.
type EvalSpec struct {
	Name   string
	Schema map[string]FieldType
	Tests  []Test
}

// FieldType is a primitive type name for a declared schema field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
)

// Test is a single test definition. Only the "string" variant exists
// today: an input template compared against exactly one of the
// eq/ne/like/ilike reference templates.
type Test struct {
	Type  string  `yaml:"type"`
	Name  string  `yaml:"name"`
	Input string  `yaml:"input"`
	Eq    *string `yaml:"eq"`
	Ne    *string `yaml:"ne"`
	Like  *string `yaml:"like"`
	Ilike *string `yaml:"ilike"`
}

// UnmarshalYAML accepts "input" as an alias for "schema", which older
// spec files use.
func (s *EvalSpec) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name   string               `yaml:"name"`
		Schema map[string]FieldType `yaml:"schema"`
		Input  map[string]FieldType `yaml:"input"`
		Tests  []Test               `yaml:"tests"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.Name = raw.Name
	s.Schema = raw.Schema
	if s.Schema == nil {
		s.Schema = raw.Input
	}
	s.Tests = raw.Tests
	return nil
}

// SortedFields returns the declared schema field names in sorted order.
// All schema iteration goes through this so derived output is
// deterministic.
func (s EvalSpec) SortedFields() []string {
	fields := make([]string, 0, len(s.Schema))
	for name := range s.Schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

// ValidationError represents a single validation failure in a spec.
type ValidationError struct {
	Spec    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Spec == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Spec, e.Field, e.Message)
}

// Validate checks an EvalSpec for structural correctness.
func Validate(s EvalSpec) error {
	if s.Name == "" {
		return ValidationError{Field: "name", Message: "required"}
	}
	for name, t := range s.Schema {
		switch t {
		case FieldString, FieldNumber, FieldBoolean:
		default:
			return ValidationError{
				Spec:    s.Name,
				Field:   fmt.Sprintf("schema.%s", name),
				Message: fmt.Sprintf("unknown field type %q", t),
			}
		}
	}
	for i, t := range s.Tests {
		if t.Type != "string" {
			return ValidationError{
				Spec:    s.Name,
				Field:   fmt.Sprintf("tests[%d].type", i),
				Message: fmt.Sprintf("unknown test type %q", t.Type),
			}
		}
		if n := countOperators(t); n != 1 {
			return ValidationError{
				Spec:    s.Name,
				Field:   fmt.Sprintf("tests[%d]", i),
				Message: fmt.Sprintf("string test requires exactly one of eq/ne/like/ilike, got %d", n),
			}
		}
	}
	return nil
}

func countOperators(t Test) int {
	n := 0
	for _, op := range []*string{t.Eq, t.Ne, t.Like, t.Ilike} {
		if op != nil {
			n++
		}
	}
	return n
}
