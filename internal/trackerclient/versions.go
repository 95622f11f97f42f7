package trackerclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// ListProjects returns every project visible to the authenticated user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	body, err := c.doRequest(ctx, "GET", c.url("/project"), nil)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("parse project list: %w", err)
	}
	return projects, nil
}

// ListVersions returns every version (release) defined on a project. The
// engine does not call it; release lookups go through the release
// mappings.
func (c *Client) ListVersions(ctx context.Context, projectKey string) ([]VersionRef, error) {
	body, err := c.doRequest(ctx, "GET", c.url("/project/"+escapeKey(projectKey)+"/versions"), nil)
	if err != nil {
		return nil, fmt.Errorf("list versions for %s: %w", projectKey, err)
	}
	var versions []VersionRef
	if err := json.Unmarshal(body, &versions); err != nil {
		return nil, fmt.Errorf("parse version list: %w", err)
	}
	return versions, nil
}

// CreateVersion provisions a new project version. releaseDate, when
// non-empty, is an ISO-8601 date (yyyy-MM-dd).
func (c *Client) CreateVersion(ctx context.Context, projectID, name, releaseDate string, released bool) (*VersionRef, error) {
	payload := map[string]interface{}{
		"project":  projectID,
		"name":     name,
		"released": released,
	}
	if releaseDate != "" {
		payload["releaseDate"] = releaseDate
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal version request: %w", err)
	}
	body, err := c.doRequest(ctx, "POST", c.url("/version"), data)
	if err != nil {
		return nil, fmt.Errorf("create version %q on project %s: %w", name, projectID, err)
	}
	var version VersionRef
	if err := json.Unmarshal(body, &version); err != nil {
		return nil, fmt.Errorf("parse version response: %w", err)
	}
	return &version, nil
}

// ListComponents returns every component defined on a project.
func (c *Client) ListComponents(ctx context.Context, projectKey string) ([]NamedRef, error) {
	body, err := c.doRequest(ctx, "GET", c.url("/project/"+escapeKey(projectKey)+"/components"), nil)
	if err != nil {
		return nil, fmt.Errorf("list components for %s: %w", projectKey, err)
	}
	var components []NamedRef
	if err := json.Unmarshal(body, &components); err != nil {
		return nil, fmt.Errorf("parse component list: %w", err)
	}
	return components, nil
}
