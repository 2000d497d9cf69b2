package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// projectHeader scopes a request to an organization project.
const projectHeader = "OpenAI-Project"

// Client talks to the evals API with bearer token authentication. It
// owns no state beyond the transport; retries, if any, are the
// caller's concern.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client against the production API.
func NewClient(token string) (*Client, error) {
	return NewClientForURL(token, DefaultBaseURL)
}

// NewClientForURL creates a client against an explicit API root.
func NewClientForURL(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("openai token is required")
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &tokenTransport{token: token},
		},
	}, nil
}

// tokenTransport adds Bearer token auth to every request.
type tokenTransport struct {
	token string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

// Verify checks the credential against a lightweight endpoint before
// it is trusted for real work.
func (c *Client) Verify(ctx context.Context) error {
	const op = "GET /models"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}
