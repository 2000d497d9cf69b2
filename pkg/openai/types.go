package openai

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Eval is the service's canonical eval resource.
type Eval struct {
	Object           string            `json:"object"`
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	CreatedAt        int64             `json:"created_at"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	DataSourceConfig DataSourceConfig  `json:"data_source_config"`
	TestingCriteria  []Grader          `json:"testing_criteria"`
}

// List is one page of a paginated listing response.
type List[T any] struct {
	Object  string `json:"object"`
	Data    []T    `json:"data"`
	HasMore bool   `json:"has_more"`
}

// SchemaValue holds an arbitrary JSON object with numeric literals
// preserved verbatim (json.Number), so re-encoding a decoded value is
// byte-deterministic. Map keys marshal in sorted order.
type SchemaValue map[string]any

func (v *SchemaValue) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*v = m
	return nil
}

// DataSourceConfig is the closed sum over data source config variants.
// Exactly one member is set.
type DataSourceConfig struct {
	Custom            *CustomDataSourceConfig
	Logs              *LogsDataSourceConfig
	StoredCompletions *StoredCompletionsDataSourceConfig
}

// CustomDataSourceConfig carries a full custom item+sample JSON schema.
type CustomDataSourceConfig struct {
	Type   string      `json:"type"` // "custom"
	Schema SchemaValue `json:"schema"`
}

type LogsDataSourceConfig struct {
	Type     string            `json:"type"` // "logs"
	Metadata map[string]string `json:"metadata,omitempty"`
}

type StoredCompletionsDataSourceConfig struct {
	Type     string            `json:"type"` // "stored_completions"
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (c DataSourceConfig) MarshalJSON() ([]byte, error) {
	switch {
	case c.Custom != nil:
		return json.Marshal(c.Custom)
	case c.Logs != nil:
		return json.Marshal(c.Logs)
	case c.StoredCompletions != nil:
		return json.Marshal(c.StoredCompletions)
	}
	return nil, fmt.Errorf("data_source_config: no variant set")
}

// UnmarshalJSON tries the variants in a fixed priority order (custom,
// logs, stored_completions); each accepts only its own type marker.
func (c *DataSourceConfig) UnmarshalJSON(data []byte) error {
	tag, err := typeTag(data)
	if err != nil {
		return fmt.Errorf("data_source_config: %w", err)
	}
	*c = DataSourceConfig{}
	switch tag {
	case "custom":
		c.Custom = new(CustomDataSourceConfig)
		return json.Unmarshal(data, c.Custom)
	case "logs":
		c.Logs = new(LogsDataSourceConfig)
		return json.Unmarshal(data, c.Logs)
	case "stored_completions":
		c.StoredCompletions = new(StoredCompletionsDataSourceConfig)
		return json.Unmarshal(data, c.StoredCompletions)
	}
	return fmt.Errorf("data_source_config: unknown type %q", tag)
}

// Grader is the closed sum over testing criteria variants. Only
// string_check is produced locally; the rest decode and re-encode
// unchanged.
type Grader struct {
	StringCheck    *StringCheckGrader
	TextSimilarity *TextSimilarityGrader
	LabelModel     *LabelModelGrader
	ScoreModel     *ScoreModelGrader
	Python         *PythonGrader
}

type StringCheckGrader struct {
	Type      string               `json:"type"` // "string_check"
	Name      string               `json:"name"`
	Operation StringCheckOperation `json:"operation"`
	Input     string               `json:"input"`
	Reference string               `json:"reference"`
}

// StringCheckOperation is the comparison applied by a string_check
// grader.
type StringCheckOperation string

const (
	OpEq    StringCheckOperation = "eq"
	OpNe    StringCheckOperation = "ne"
	OpLike  StringCheckOperation = "like"
	OpIlike StringCheckOperation = "ilike"
)

type TextSimilarityGrader struct {
	Type             string      `json:"type"` // "text_similarity"
	Name             string      `json:"name"`
	EvaluationMetric string      `json:"evaluation_metric"`
	Input            string      `json:"input"`
	Reference        string      `json:"reference"`
	PassThreshold    json.Number `json:"pass_threshold"`
}

type LabelModelGrader struct {
	Type          string       `json:"type"` // "label_model"
	Name          string       `json:"name"`
	Model         string       `json:"model"`
	Labels        []string     `json:"labels"`
	PassingLabels []string     `json:"passing_labels"`
	Input         []ModelInput `json:"input"`
}

type ScoreModelGrader struct {
	Type           string         `json:"type"` // "score_model"
	Name           string         `json:"name"`
	Model          string         `json:"model"`
	PassThreshold  json.Number    `json:"pass_threshold"`
	Range          [2]json.Number `json:"range"`
	SamplingParams SchemaValue    `json:"sampling_params"`
	Input          []ModelInput   `json:"input"`
}

type PythonGrader struct {
	Type          string      `json:"type"` // "python"
	Name          string      `json:"name"`
	Source        string      `json:"source"`
	ImageTag      string      `json:"image_tag"`
	PassThreshold json.Number `json:"pass_threshold"`
}

func (g Grader) MarshalJSON() ([]byte, error) {
	switch {
	case g.StringCheck != nil:
		return json.Marshal(g.StringCheck)
	case g.TextSimilarity != nil:
		return json.Marshal(g.TextSimilarity)
	case g.LabelModel != nil:
		return json.Marshal(g.LabelModel)
	case g.ScoreModel != nil:
		return json.Marshal(g.ScoreModel)
	case g.Python != nil:
		return json.Marshal(g.Python)
	}
	return nil, fmt.Errorf("grader: no variant set")
}

func (g *Grader) UnmarshalJSON(data []byte) error {
	tag, err := typeTag(data)
	if err != nil {
		return fmt.Errorf("grader: %w", err)
	}
	*g = Grader{}
	switch tag {
	case "string_check":
		g.StringCheck = new(StringCheckGrader)
		return json.Unmarshal(data, g.StringCheck)
	case "text_similarity":
		g.TextSimilarity = new(TextSimilarityGrader)
		return json.Unmarshal(data, g.TextSimilarity)
	case "label_model":
		g.LabelModel = new(LabelModelGrader)
		return json.Unmarshal(data, g.LabelModel)
	case "score_model":
		g.ScoreModel = new(ScoreModelGrader)
		return json.Unmarshal(data, g.ScoreModel)
	case "python":
		g.Python = new(PythonGrader)
		return json.Unmarshal(data, g.Python)
	}
	return fmt.Errorf("grader: unknown type %q", tag)
}

// ModelInput is one message in a model grader's prompt.
type ModelInput struct {
	Type    string            `json:"type"` // "message"
	Role    string            `json:"role"`
	Content ModelInputContent `json:"content"`
}

// ModelInputContent is untagged on the wire: a bare string, a single
// typed content item, or an array of content items. Decode tries those
// shapes in that order.
type ModelInputContent struct {
	Text  string
	Item  *ModelContentItem
	Items []ModelContentItem
	// isItems distinguishes an empty array from a bare string.
	isItems bool
}

// ModelContentItem is a typed content part: input_text, input_image,
// input_audio, or output_text.
type ModelContentItem struct {
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	ImageURL   string          `json:"image_url,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	InputAudio *ModelAudioData `json:"input_audio,omitempty"`
}

type ModelAudioData struct {
	Data   string `json:"data"`
	Format string `json:"format"`
}

// StringContent wraps a plain string as message content.
func StringContent(s string) ModelInputContent {
	return ModelInputContent{Text: s}
}

func (c ModelInputContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.Item != nil:
		return json.Marshal(c.Item)
	case c.isItems:
		return json.Marshal(c.Items)
	}
	return json.Marshal(c.Text)
}

func (c *ModelInputContent) UnmarshalJSON(data []byte) error {
	*c = ModelInputContent{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("content: empty")
	}
	switch trimmed[0] {
	case '"':
		return json.Unmarshal(data, &c.Text)
	case '[':
		c.isItems = true
		return json.Unmarshal(data, &c.Items)
	case '{':
		c.Item = new(ModelContentItem)
		return json.Unmarshal(data, c.Item)
	}
	return fmt.Errorf("content: unrecognized shape")
}

// typeTag extracts the "type" discriminant from a JSON object.
func typeTag(data []byte) (string, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return "", err
	}
	return probe.Type, nil
}
