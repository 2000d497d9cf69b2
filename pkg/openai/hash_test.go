package openai

import (
	"encoding/json"
	"testing"
)

func sampleEval() Eval {
	return Eval{
		Object:    "eval",
		ID:        "eval_123",
		Name:      "math",
		CreatedAt: 1700000000,
		Metadata:  map[string]string{"xeval_name": "math"},
		DataSourceConfig: DataSourceConfig{
			Custom: &CustomDataSourceConfig{
				Type: "custom",
				Schema: SchemaValue{
					"type": "object",
					"properties": map[string]any{
						"item": map[string]any{"type": "object"},
					},
				},
			},
		},
		TestingCriteria: []Grader{
			{StringCheck: &StringCheckGrader{
				Type: "string_check", Name: "g", Operation: OpEq,
				Input: "{{sample.output_text}}", Reference: "{{item.answer}}",
			}},
		},
	}
}

func TestIdentityHashStableAcrossRoundTrip(t *testing.T) {
	e := sampleEval()
	h1, err := IdentityHash(e)
	if err != nil {
		t.Fatalf("IdentityHash: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Eval
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	h2, err := IdentityHash(decoded)
	if err != nil {
		t.Fatalf("IdentityHash after round trip: %v", err)
	}

	if h1 != h2 {
		t.Errorf("hash changed across serialize/deserialize: %s vs %s", h1, h2)
	}
}

func TestIdentityHashIgnoresBookkeeping(t *testing.T) {
	a := sampleEval()
	b := sampleEval()
	b.ID = "eval_456"
	b.CreatedAt = 1800000000
	b.Metadata = map[string]string{"other": "value"}

	ha, _ := IdentityHash(a)
	hb, _ := IdentityHash(b)
	if ha != hb {
		t.Error("hash should ignore id, created_at, and metadata")
	}
}

func TestIdentityHashDetectsContentDrift(t *testing.T) {
	a := sampleEval()
	b := sampleEval()
	b.TestingCriteria[0].StringCheck.Reference = "{{item.other}}"

	ha, _ := IdentityHash(a)
	hb, _ := IdentityHash(b)
	if ha == hb {
		t.Error("hash should change when testing criteria change")
	}

	c := sampleEval()
	c.Name = "renamed"
	hc, _ := IdentityHash(c)
	if ha == hc {
		t.Error("hash should change when name changes")
	}
}

func TestIdentityHashNumericLiteralsPreserved(t *testing.T) {
	// A wire schema containing numbers must hash identically after
	// being decoded and re-hashed.
	wire := []byte(`{
		"object": "eval", "id": "e1", "name": "n", "created_at": 5,
		"data_source_config": {"type": "custom", "schema": {"maxLength": 100, "weight": 0.5}},
		"testing_criteria": []
	}`)
	var e1, e2 Eval
	if err := json.Unmarshal(wire, &e1); err != nil {
		t.Fatal(err)
	}
	again, err := json.Marshal(e1)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(again, &e2); err != nil {
		t.Fatal(err)
	}

	h1, err := IdentityHash(e1)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := IdentityHash(e2)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("numeric schema fields drifted: %s vs %s", h1, h2)
	}
}
