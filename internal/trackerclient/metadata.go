package trackerclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// AllowedValue is one option in a select/multi-select field's option set.
type AllowedValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// FieldMeta describes one field the Tracker will accept when creating an
// issue of a given type.
type FieldMeta struct {
	Required      bool           `json:"required"`
	Name          string         `json:"name"`
	AllowedValues []AllowedValue `json:"allowedValues"`
}

// IssueTypeMeta is the create-metadata for one issue type within a
// project: the field catalog keyed by wire field name (including
// customfield_NNNNN entries).
type IssueTypeMeta struct {
	ID     string               `json:"id"`
	Name   string               `json:"name"`
	Fields map[string]FieldMeta `json:"fields"`
}

// ProjectMeta is the create-metadata for one project.
type ProjectMeta struct {
	ID         string          `json:"id"`
	Key        string          `json:"key"`
	IssueTypes []IssueTypeMeta `json:"issuetypes"`
}

// CreateMetadata is the full create-metadata document, grouped by
// project then issue type.
type CreateMetadata struct {
	Projects []ProjectMeta `json:"projects"`
}

// IssueType looks up metadata for one (projectKey, issueTypeID) pair.
func (m *CreateMetadata) IssueType(projectKey, issueTypeID string) (*IssueTypeMeta, bool) {
	for i := range m.Projects {
		if m.Projects[i].Key != projectKey {
			continue
		}
		for j := range m.Projects[i].IssueTypes {
			if m.Projects[i].IssueTypes[j].ID == issueTypeID {
				return &m.Projects[i].IssueTypes[j], true
			}
		}
	}
	return nil, false
}

// GetCreateMetadata fetches the Tracker's field catalog, optionally
// scoped to one project.
func (c *Client) GetCreateMetadata(ctx context.Context, projectKey string) (*CreateMetadata, error) {
	params := url.Values{"expand": {"projects.issuetypes.fields"}}
	if projectKey != "" {
		params.Set("projectKeys", projectKey)
	}
	apiURL := fmt.Sprintf("%s?%s", c.url("/issue/createmeta"), params.Encode())

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get create metadata: %w", err)
	}
	var meta CreateMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("parse create metadata: %w", err)
	}
	return &meta, nil
}
