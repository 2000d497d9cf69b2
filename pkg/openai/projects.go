package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Project is an organization project.
type Project struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
	ArchivedAt *int64 `json:"archived_at"`
}

// ListProjectsPage fetches one page of organization projects.
func (c *Client) ListProjectsPage(ctx context.Context, after string, includeArchived bool, limit int) (List[Project], error) {
	const op = "GET /organization/projects"

	q := url.Values{}
	if after != "" {
		q.Set("after", after)
	}
	q.Set("include_archived", strconv.FormatBool(includeArchived))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/organization/projects?"+q.Encode(), nil)
	if err != nil {
		return List[Project]{}, fmt.Errorf("%s: create request: %w", op, err)
	}

	var page List[Project]
	if err := c.do(req, op, &page); err != nil {
		return List[Project]{}, err
	}
	return page, nil
}

// ListAllProjects fetches every organization project, following the
// cursor the same way ListAllEvals does.
func (c *Client) ListAllProjects(ctx context.Context, includeArchived bool) ([]Project, error) {
	var all []Project
	after := ""

	for {
		page, err := c.ListProjectsPage(ctx, after, includeArchived, pageSize)
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
