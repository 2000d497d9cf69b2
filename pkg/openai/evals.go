package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// pageSize is the fixed page size for full listings.
const pageSize = 100

// ListEvalsParams are the query parameters for one listing page. Empty
// fields are omitted from the query string.
type ListEvalsParams struct {
	Project string
	After   string
	Limit   int
	Order   string
	OrderBy string
}

// ListEvalsPage fetches a single page of evals.
func (c *Client) ListEvalsPage(ctx context.Context, p ListEvalsParams) (List[Eval], error) {
	const op = "GET /evals"

	q := url.Values{}
	if p.After != "" {
		q.Set("after", p.After)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Order != "" {
		q.Set("order", p.Order)
	}
	if p.OrderBy != "" {
		q.Set("order_by", p.OrderBy)
	}

	u := c.baseURL + "/evals"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return List[Eval]{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	if p.Project != "" {
		req.Header.Set(projectHeader, p.Project)
	}

	var page List[Eval]
	if err := c.do(req, op, &page); err != nil {
		return List[Eval]{}, err
	}
	return page, nil
}

// ListAllEvals fetches every eval, following the cursor one page at a
// time with the last item's id as the next "after". It terminates as
// soon as a page comes back empty, even if the server still claims
// has_more.
func (c *Client) ListAllEvals(ctx context.Context, project, order, orderBy string) ([]Eval, error) {
	var all []Eval
	after := ""

	for {
		page, err := c.ListEvalsPage(ctx, ListEvalsParams{
			Project: project,
			After:   after,
			Limit:   pageSize,
			Order:   order,
			OrderBy: orderBy,
		})
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		after = page.Data[len(page.Data)-1].ID
		all = append(all, page.Data...)
		if !page.HasMore {
			break
		}
	}

	return all, nil
}

// EvalDraft is the create-request body. The create endpoint takes the
// item schema alone and asks the server to attach the sample schema,
// so the draft config differs in shape from the resource's.
type EvalDraft struct {
	Name             string                `json:"name"`
	Metadata         map[string]string     `json:"metadata,omitempty"`
	DataSourceConfig DataSourceConfigDraft `json:"data_source_config"`
	TestingCriteria  []Grader              `json:"testing_criteria"`
}

// DataSourceConfigDraft mirrors DataSourceConfig for create requests.
type DataSourceConfigDraft struct {
	Custom            *CustomDataSourceConfigDraft
	Logs              *LogsDataSourceConfig
	StoredCompletions *StoredCompletionsDataSourceConfig
}

type CustomDataSourceConfigDraft struct {
	Type                string      `json:"type"` // "custom"
	ItemSchema          SchemaValue `json:"item_schema"`
	IncludeSampleSchema bool        `json:"include_sample_schema,omitempty"`
}

func (c DataSourceConfigDraft) MarshalJSON() ([]byte, error) {
	switch {
	case c.Custom != nil:
		return json.Marshal(c.Custom)
	case c.Logs != nil:
		return json.Marshal(c.Logs)
	case c.StoredCompletions != nil:
		return json.Marshal(c.StoredCompletions)
	}
	return nil, fmt.Errorf("data_source_config draft: no variant set")
}

func (c *DataSourceConfigDraft) UnmarshalJSON(data []byte) error {
	tag, err := typeTag(data)
	if err != nil {
		return fmt.Errorf("data_source_config draft: %w", err)
	}
	*c = DataSourceConfigDraft{}
	switch tag {
	case "custom":
		c.Custom = new(CustomDataSourceConfigDraft)
		return json.Unmarshal(data, c.Custom)
	case "logs":
		c.Logs = new(LogsDataSourceConfig)
		return json.Unmarshal(data, c.Logs)
	case "stored_completions":
		c.StoredCompletions = new(StoredCompletionsDataSourceConfig)
		return json.Unmarshal(data, c.StoredCompletions)
	}
	return fmt.Errorf("data_source_config draft: unknown type %q", tag)
}

// DraftFromEval projects a locally converted eval into a create-request
// body. For a custom config the item subschema is extracted and the
// server is asked to re-attach the sample schema; core fields carry
// over as-is.
func DraftFromEval(e Eval) (EvalDraft, error) {
	draft := EvalDraft{
		Name:            e.Name,
		Metadata:        e.Metadata,
		TestingCriteria: e.TestingCriteria,
	}
	switch {
	case e.DataSourceConfig.Custom != nil:
		item, err := itemSchema(e.DataSourceConfig.Custom.Schema)
		if err != nil {
			return EvalDraft{}, fmt.Errorf("eval %s: %w", e.Name, err)
		}
		draft.DataSourceConfig.Custom = &CustomDataSourceConfigDraft{
			Type:                "custom",
			ItemSchema:          item,
			IncludeSampleSchema: true,
		}
	case e.DataSourceConfig.Logs != nil:
		cfg := *e.DataSourceConfig.Logs
		draft.DataSourceConfig.Logs = &cfg
	case e.DataSourceConfig.StoredCompletions != nil:
		cfg := *e.DataSourceConfig.StoredCompletions
		draft.DataSourceConfig.StoredCompletions = &cfg
	default:
		return EvalDraft{}, fmt.Errorf("eval %s: no data source config", e.Name)
	}
	return draft, nil
}

// itemSchema pulls properties.item out of a full custom schema.
func itemSchema(schema SchemaValue) (SchemaValue, error) {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("custom schema has no properties object")
	}
	item, ok := props["item"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("custom schema has no item schema")
	}
	return SchemaValue(item), nil
}

// CreateEval creates a new remote eval from a draft.
func (c *Client) CreateEval(ctx context.Context, project string, draft EvalDraft) (Eval, error) {
	const op = "POST /evals"

	body, err := json.Marshal(draft)
	if err != nil {
		return Eval{}, fmt.Errorf("%s: encode draft: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evals", bytes.NewReader(body))
	if err != nil {
		return Eval{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if project != "" {
		req.Header.Set(projectHeader, project)
	}

	var eval Eval
	if err := c.do(req, op, &eval); err != nil {
		return Eval{}, err
	}
	return eval, nil
}

// UpdateEvalMetadata patches only an eval's name and metadata. Core
// fields (schema, graders) are immutable server-side; this request
// shape cannot carry them.
func (c *Client) UpdateEvalMetadata(ctx context.Context, project, id, name string, metadata map[string]string) (Eval, error) {
	op := "POST /evals/" + id

	patch := make(map[string]any, 2)
	if name != "" {
		patch["name"] = name
	}
	if metadata != nil {
		patch["metadata"] = metadata
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return Eval{}, fmt.Errorf("%s: encode patch: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evals/"+id, bytes.NewReader(body))
	if err != nil {
		return Eval{}, fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if project != "" {
		req.Header.Set(projectHeader, project)
	}

	var eval Eval
	if err := c.do(req, op, &eval); err != nil {
		return Eval{}, err
	}
	return eval, nil
}

// do executes a request and decodes a success body into out, mapping
// each failure mode to its own error kind.
func (c *Client) do(req *http.Request, op string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
