package trackerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

const searchFields = "summary,description,status,priority,resolution,issuetype,project,reporter,assignee,environment,created,updated,duedate,resolutiondate,versions,fixVersions,components,security"

// Search runs one page of a JQL search, returning raw keys only; callers
// re-fetch each full issue by key afterward to keep search responses small.
func (c *Client) Search(ctx context.Context, jql string, startAt, pageSize int) (keys []string, total int, err error) {
	params := url.Values{
		"jql":        {jql},
		"fields":     {"key"},
		"startAt":    {fmt.Sprintf("%d", startAt)},
		"maxResults": {fmt.Sprintf("%d", pageSize)},
	}
	apiURL := fmt.Sprintf("%s?%s", c.url("/search"), params.Encode())

	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("search issues: %w", err)
	}
	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, 0, fmt.Errorf("parse search response: %w", err)
	}
	keys = make([]string, len(result.Issues))
	for i, issue := range result.Issues {
		keys[i] = issue.Key
	}
	return keys, result.Total, nil
}

// SearchAll pages through Search until fewer than pageSize records are
// returned.
func (c *Client) SearchAll(ctx context.Context, jql string, pageSize int) ([]string, error) {
	var all []string
	startAt := 0
	for {
		keys, total, err := c.Search(ctx, jql, startAt, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, keys...)
		startAt += len(keys)
		if len(keys) < pageSize || startAt >= total {
			break
		}
	}
	return all, nil
}

// GetIssueByKey fetches the full record including comments, attachments,
// and fixed fields; customfield_* reconstruction happens in the
// valuetransform package against IssueFields.Raw.
func (c *Client) GetIssueByKey(ctx context.Context, key string) (*Issue, error) {
	apiURL := fmt.Sprintf("%s?fields=%s&expand=%s", c.url("/issue/"+escapeKey(key)), "*all", "comments,attachments")
	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", key, err)
	}
	var issue Issue
	if err := json.Unmarshal(body, &issue); err != nil {
		return nil, fmt.Errorf("parse issue response: %w", err)
	}
	return &issue, nil
}

// CreateIssue posts a new issue. fields is expected to already be shaped
// to the target project/issue type's field catalog — this method does no
// further filtering.
func (c *Client) CreateIssue(ctx context.Context, fields map[string]interface{}) (*Issue, error) {
	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal create request: %w", err)
	}

	body, err := c.doRequest(ctx, "POST", c.url("/issue"), data)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	var created struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("parse create response: %w", err)
	}
	return c.GetIssueByKey(ctx, created.Key)
}

// UpdateIssue PUTs field changes to an existing issue.
func (c *Client) UpdateIssue(ctx context.Context, key string, fields map[string]interface{}) error {
	payload := map[string]interface{}{"fields": fields}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal update request: %w", err)
	}
	_, err = c.doRequest(ctx, "PUT", c.url("/issue/"+escapeKey(key)), data)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", key, err)
	}
	return nil
}

// FetchUpdatedAt implements mapping.TrackerTimestampFetcher for the
// conflict-detection diagnostic.
func (c *Client) FetchUpdatedAt(ctx context.Context, key string) (time.Time, error) {
	apiURL := fmt.Sprintf("%s?fields=updated", c.url("/issue/"+escapeKey(key)))
	body, err := c.doRequest(ctx, "GET", apiURL, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("fetch issue %s: %w", key, err)
	}
	var result struct {
		Fields struct {
			Updated string `json:"updated"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return time.Time{}, fmt.Errorf("parse issue response: %w", err)
	}
	return ParseTimestamp(result.Fields.Updated)
}

// AddAttachment uploads a file attachment, carrying the X-Atlassian-Token
// header the Tracker's XSRF check requires for multipart uploads.
func (c *Client) AddAttachment(ctx context.Context, key, filename string, data []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write attachment body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url("/issue/"+escapeKey(key)+"/attachments"), &buf)
	if err != nil {
		return fmt.Errorf("build attachment request: %w", err)
	}
	c.setAuth(req)
	req.Header.Set("X-Atlassian-Token", "nocheck")
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload attachment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("attachment upload returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// FetchAttachmentContent downloads an attachment's bytes from its content
// URL, carrying the same auth header as any other request, so the engine
// can mirror a Tracker attachment onto a pulled Hub artifact as a document.
func (c *Client) FetchAttachmentContent(ctx context.Context, contentURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", contentURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build attachment download request: %w", err)
	}
	c.setAuth(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("attachment download returned %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// AddWebLink attaches a remote web link, used both for attachment-as-URL
// transport and for cross-system cyclic linking back to the Hub record.
func (c *Client) AddWebLink(ctx context.Context, key, targetURL, label string) error {
	payload := map[string]interface{}{
		"object": map[string]interface{}{
			"url":   targetURL,
			"title": label,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal weblink: %w", err)
	}
	_, err = c.doRequest(ctx, "POST", c.url("/issue/"+escapeKey(key)+"/remotelink"), data)
	if err != nil {
		return fmt.Errorf("create weblink on %s: %w", key, err)
	}
	return nil
}

// AddIssueLink links two issues with the given link type, used to mirror
// intra-Hub artifact associations on the Tracker side.
func (c *Client) AddIssueLink(ctx context.Context, linkType, fromKey, toKey, comment string) error {
	payload := map[string]interface{}{
		"type":         map[string]interface{}{"name": linkType},
		"inwardIssue":  map[string]interface{}{"key": fromKey},
		"outwardIssue": map[string]interface{}{"key": toKey},
	}
	if comment != "" {
		payload["comment"] = map[string]interface{}{"body": comment}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal issuelink: %w", err)
	}
	_, err = c.doRequest(ctx, "POST", c.url("/issueLink"), data)
	if err != nil {
		return fmt.Errorf("create issuelink %s->%s: %w", fromKey, toKey, err)
	}
	return nil
}
