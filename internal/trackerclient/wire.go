package trackerclient

import "encoding/json"

// Issue is the Tracker's wire representation of an issue. IDs are
// serialized as decimal strings even when semantically integers, and
// dates are ISO-8601 with offset.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the fixed (non-custom) fields plus a raw map for
// customfield_* entries, which are reconstructed dynamically by
// inspecting each field's JSON shape against the issue type's metadata.
type IssueFields struct {
	Summary      string          `json:"summary"`
	Description  json.RawMessage `json:"description"` // ADF or plain text
	Status       *NamedRef       `json:"status"`
	Priority     *NamedRef       `json:"priority"`
	Resolution   *NamedRef       `json:"resolution"`
	IssueType    *NamedRef       `json:"issuetype"`
	Project      *ProjectRef     `json:"project"`
	Reporter     *UserRef        `json:"reporter"`
	Assignee     *UserRef        `json:"assignee"`
	Environment  string          `json:"environment"`
	Created      string          `json:"created"`
	Updated      string          `json:"updated"`
	DueDate      string          `json:"duedate"`
	ResolutionDate string        `json:"resolutiondate"`
	Versions     []VersionRef    `json:"versions"`
	FixVersions  []VersionRef    `json:"fixVersions"`
	Components   []NamedRef      `json:"components"`
	Security     *NamedRef       `json:"security"`
	Comment      *CommentPage    `json:"comment"`
	Attachment   []Attachment    `json:"attachment"`

	// Raw holds the full decoded fields object so custom-field
	// reconstruction can inspect customfield_* keys by shape.
	Raw map[string]json.RawMessage `json:"-"`
}

// CommentPage is the paginated comment container the Tracker nests under
// fields.comment when an issue is fetched with expand=comments.
type CommentPage struct {
	Comments []Comment `json:"comments"`
}

// UnmarshalJSON decodes the fixed fields normally, then separately keeps
// the raw object around for customfield_* extraction.
func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type alias IssueFields
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*f = IssueFields(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Raw = raw
	return nil
}

// NamedRef is an {id, name} pair: status, priority, resolution, issue
// type, component, or security level.
type NamedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProjectRef identifies a Tracker project.
type ProjectRef struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

// UserRef identifies a Tracker user by login name.
type UserRef struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
}

// VersionRef is a project version/release as embedded in an issue's
// versions/fixVersions arrays.
type VersionRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"releaseDate"`
	Released    bool   `json:"released"`
	Archived    bool   `json:"archived"`
}

// SearchResult is one page of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Project is a Tracker project summary.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Comment is a Tracker issue comment.
type Comment struct {
	ID      string   `json:"id"`
	Author  *UserRef `json:"author"`
	Updated *UserRef `json:"updateAuthor"`
	Body    json.RawMessage `json:"body"`
	Created string   `json:"created"`
}

// Attachment is a Tracker issue attachment.
type Attachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"` // download URL
	MimeType string `json:"mimeType"`
}
