package spec

import (
	"regexp"
	"sort"
	"strings"

	"github.com/xeval-dev/xeval/pkg/openai"
)

// defaultGraderName is used when a string test has no name.
const defaultGraderName = "String check grader"

// Convert lowers an EvalSpec to the remote wire representation. It is
// pure over well-formed input; a test with other than exactly one
// comparison operator is a validation error. The returned eval carries
// a placeholder id and a zero created_at — those are server-assigned
// on creation.
func Convert(s EvalSpec) (openai.Eval, error) {
	if err := Validate(s); err != nil {
		return openai.Eval{}, err
	}

	itemProps := make(map[string]any, len(s.Schema))
	required := make([]string, 0, len(s.Schema))
	for _, name := range s.SortedFields() {
		itemProps[name] = fieldTypeSchema(s.Schema[name])
		required = append(required, name)
	}

	// Tests may reference bare identifiers the author never declared
	// (e.g. an expected value). Infer each as a required string field.
	for _, name := range sortedSet(collectItemVars(s.Tests)) {
		if _, declared := itemProps[name]; declared {
			continue
		}
		itemProps[name] = map[string]any{"type": "string"}
		required = append(required, name)
	}

	graders := make([]openai.Grader, 0, len(s.Tests))
	for _, t := range s.Tests {
		g, err := stringTestToGrader(s.Name, t)
		if err != nil {
			return openai.Eval{}, err
		}
		graders = append(graders, g)
	}

	schema := openai.SchemaValue{
		"type": "object",
		"properties": map[string]any{
			"item": map[string]any{
				"type":       "object",
				"properties": itemProps,
				"required":   required,
			},
			"sample": sampleSchema(),
		},
		"required": []any{"item", "sample"},
	}

	return openai.Eval{
		Object:    "eval",
		ID:        "local_eval_" + Slug(s.Name),
		Name:      s.Name,
		CreatedAt: 0,
		DataSourceConfig: openai.DataSourceConfig{
			Custom: &openai.CustomDataSourceConfig{
				Type:   "custom",
				Schema: schema,
			},
		},
		TestingCriteria: graders,
	}, nil
}

// Slug lowers a spec name to an alphanumeric-and-hyphen identifier:
// runs of other characters collapse to a single hyphen, with no
// leading or trailing hyphen. Used only as a placeholder id before a
// remote resource exists.
func Slug(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	return b.String()
}

func fieldTypeSchema(t FieldType) map[string]any {
	return map[string]any{"type": string(t)}
}

// bareVarPattern matches {{identifier}} placeholders with no dotted
// path.
var bareVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// pathVarPattern additionally matches a single dotted segment, e.g.
// {{response.text}}.
var pathVarPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)?)\s*\}\}`)

// collectItemVars gathers bare placeholder identifiers referenced by
// the tests' templates, excluding the reserved roots.
func collectItemVars(tests []Test) map[string]struct{} {
	vars := make(map[string]struct{})
	collect := func(template string) {
		for _, m := range bareVarPattern.FindAllStringSubmatch(template, -1) {
			name := m[1]
			if name == "sample" || name == "item" || name == "response" {
				continue
			}
			vars[name] = struct{}{}
		}
	}
	for _, t := range tests {
		collect(t.Input)
		for _, ref := range []*string{t.Eq, t.Ne, t.Like, t.Ilike} {
			if ref != nil {
				collect(*ref)
			}
		}
	}
	return vars
}

// translatePlaceholders rewrites template placeholders to the paths
// the remote grader evaluates against:
//
//   - {{response.text}} becomes {{sample.output_text}}
//   - a bare identifier {{foo}} becomes {{item.foo}}
//   - {{sample.*}} and {{item.*}} pass through unchanged
//   - anything else passes through unchanged
func translatePlaceholders(s string) string {
	return pathVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		path := pathVarPattern.FindStringSubmatch(match)[1]
		switch {
		case path == "response.text":
			return "{{sample.output_text}}"
		case strings.HasPrefix(path, "sample.") || strings.HasPrefix(path, "item."):
			return "{{" + path + "}}"
		case !strings.Contains(path, ".") && path != "sample" && path != "item" && path != "response":
			return "{{item." + path + "}}"
		}
		return "{{" + path + "}}"
	})
}

func stringTestToGrader(specName string, t Test) (openai.Grader, error) {
	name := t.Name
	if name == "" {
		name = defaultGraderName
	}

	var op openai.StringCheckOperation
	var reference string
	switch {
	case t.Eq != nil && t.Ne == nil && t.Like == nil && t.Ilike == nil:
		op, reference = openai.OpEq, *t.Eq
	case t.Eq == nil && t.Ne != nil && t.Like == nil && t.Ilike == nil:
		op, reference = openai.OpNe, *t.Ne
	case t.Eq == nil && t.Ne == nil && t.Like != nil && t.Ilike == nil:
		op, reference = openai.OpLike, *t.Like
	case t.Eq == nil && t.Ne == nil && t.Like == nil && t.Ilike != nil:
		op, reference = openai.OpIlike, *t.Ilike
	default:
		return openai.Grader{}, ValidationError{
			Spec:    specName,
			Field:   "tests",
			Message: "string test requires exactly one of eq/ne/like/ilike",
		}
	}

	return openai.Grader{
		StringCheck: &openai.StringCheckGrader{
			Type:      "string_check",
			Name:      name,
			Operation: op,
			Input:     translatePlaceholders(t.Input),
			Reference: translatePlaceholders(reference),
		},
	}, nil
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sampleSchema is the fixed shape of a model's response envelope,
// versioned with the remote custom data source contract.
func sampleSchema() map[string]any {
	functionCallProps := map[string]any{
		"properties": map[string]any{
			"arguments": map[string]any{"type": "string"},
			"name":      map[string]any{"type": "string"},
		},
		"required": []any{"name", "arguments"},
	}

	message := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"content": map[string]any{"type": []any{"string", "array", "null"}},
			"function_call": map[string]any{
				"properties": functionCallProps["properties"],
				"required":   functionCallProps["required"],
				"type":       []any{"object", "null"},
			},
			"refusal": map[string]any{"type": []any{"boolean", "null"}},
			"role":    map[string]any{"enum": []any{"assistant"}, "type": "string"},
			"tool_calls": map[string]any{
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"function": map[string]any{
							"properties": functionCallProps["properties"],
							"required":   functionCallProps["required"],
							"type":       "object",
						},
						"id":   map[string]any{"type": "string"},
						"type": map[string]any{"enum": []any{"function"}, "type": "string"},
					},
					"required": []any{"type", "function", "id"},
				},
				"type": []any{"array", "null"},
			},
		},
		"required": []any{"role"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"choices": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"finish_reason": map[string]any{"type": "string"},
						"message":       message,
					},
					"required": []any{"index", "message", "finish_reason"},
				},
			},
			"input_tools":              map[string]any{"items": map[string]any{"type": "object"}, "type": "array"},
			"model":                    map[string]any{"type": "string"},
			"output_audio":             map[string]any{"type": []any{"object", "null"}},
			"output_json":              map[string]any{"type": "object"},
			"output_reasoning_summary": map[string]any{"type": []any{"string", "null"}},
			"output_text":              map[string]any{"type": "string"},
			"output_tools":             map[string]any{"items": map[string]any{"type": "object"}, "type": "array"},
		},
		"required": []any{"model", "choices"},
	}
}
