package trackerclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUnencryptedTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "alice", "s3cret")
	return srv, c
}

func TestSearchAllPagesUntilShortPage(t *testing.T) {
	pages := [][]string{
		{"PROJ-1", "PROJ-2"},
		{"PROJ-3"},
	}
	callCount := 0
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		page := pages[callCount]
		callCount++
		issues := make([]Issue, len(page))
		for i, key := range page {
			issues[i] = Issue{Key: key}
		}
		resp := SearchResult{StartAt: 0, MaxResults: 2, Total: 3, Issues: issues}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	defer srv.Close()

	keys, err := c.SearchAll(t.Context(), "project = PROJ", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"PROJ-1", "PROJ-2", "PROJ-3"}, keys)
	assert.Equal(t, 2, callCount)
}

func TestGetIssueByKeyParsesCustomFieldRaw(t *testing.T) {
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "10001",
			"key": "PROJ-1",
			"fields": {
				"summary": "crash on startup",
				"customfield_10010": "staging",
				"customfield_10020": {"id": "5", "value": "Critical"}
			}
		}`))
	})
	defer srv.Close()

	issue, err := c.GetIssueByKey(t.Context(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, "crash on startup", issue.Fields.Summary)
	require.Contains(t, issue.Fields.Raw, "customfield_10010")
	require.Contains(t, issue.Fields.Raw, "customfield_10020")
}

func TestCreateIssueFetchesFullRecordAfterPost(t *testing.T) {
	var postedBody map[string]interface{}
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == "POST":
			_ = json.NewDecoder(r.Body).Decode(&postedBody)
			_, _ = w.Write([]byte(`{"id":"10002","key":"PROJ-2"}`))
		default:
			_, _ = w.Write([]byte(`{"id":"10002","key":"PROJ-2","fields":{"summary":"new bug"}}`))
		}
	})
	defer srv.Close()

	issue, err := c.CreateIssue(t.Context(), map[string]interface{}{"summary": "new bug"})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-2", issue.Key)
	assert.Equal(t, "new bug", issue.Fields.Summary)

	fields, ok := postedBody["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "new bug", fields["summary"])
}

func TestUpdateIssueSendsPut(t *testing.T) {
	var gotMethod string
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	err := c.UpdateIssue(t.Context(), "PROJ-3", map[string]interface{}{"summary": "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "PUT", gotMethod)
}

func TestFetchUpdatedAtParsesTimestamp(t *testing.T) {
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fields":{"updated":"2026-07-29T10:15:00.000-0700"}}`))
	})
	defer srv.Close()

	updated, err := c.FetchUpdatedAt(t.Context(), "PROJ-4")
	require.NoError(t, err)
	assert.Equal(t, 2026, updated.Year())
}

func TestAddAttachmentSendsMultipartWithAtlassianToken(t *testing.T) {
	var gotToken string
	var gotContentType string
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Atlassian-Token")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	err := c.AddAttachment(t.Context(), "PROJ-5", "trace.log", []byte("boom"))
	require.NoError(t, err)
	assert.Equal(t, "nocheck", gotToken)
	assert.Contains(t, gotContentType, "multipart/form-data")
}

func TestAddIssueLinkIncludesComment(t *testing.T) {
	var posted map[string]interface{}
	srv, c := newUnencryptedTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&posted)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	err := c.AddIssueLink(t.Context(), "Relates", "PROJ-1", "PROJ-2", "see also")
	require.NoError(t, err)
	comment, ok := posted["comment"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "see also", comment["body"])
}
