// Package types defines the shared data model reconciled between the
// Hub project-tracking service and the external Tracker issue tracker.
package types

import "time"

// Scope identifies which kind of entity a Mapping links.
type Scope int

const (
	ScopeProject Scope = iota
	ScopeUser
	ScopeArtifactIncident
	ScopeArtifactRequirement
	ScopeArtifactRelease
	ScopeCustomProperty
	ScopeCustomPropertyValue
)

func (s Scope) String() string {
	switch s {
	case ScopeProject:
		return "project"
	case ScopeUser:
		return "user"
	case ScopeArtifactIncident:
		return "artifact.incident"
	case ScopeArtifactRequirement:
		return "artifact.requirement"
	case ScopeArtifactRelease:
		return "artifact.release"
	case ScopeCustomProperty:
		return "custom_property"
	case ScopeCustomPropertyValue:
		return "custom_property_value"
	default:
		return "unknown"
	}
}

// Mapping links an internal Hub numeric identifier to an external Tracker
// key within a scope, optionally constrained to one Hub project.
//
// (scope, hubProjectId, internalId) uniquely identifies a primary entry;
// non-primary entries are alias keys sharing the same internalId.
type Mapping struct {
	Scope        Scope
	HubProjectID int
	InternalID   int
	ExternalKey  string
	Primary      bool
}

// ProjectPair links one Hub project to one Tracker project. Administratively
// configured; the engine never mutates it.
type ProjectPair struct {
	HubProjectID      int
	TrackerProjectKey string
}

// ValueKind tags which branch of a TypedValue is populated.
type ValueKind int

const (
	KindText ValueKind = iota
	KindInteger
	KindDecimal
	KindBoolean
	KindDate
	KindList
	KindMultiList
	KindUser
)

// TypedValue is a tagged union over the eight custom-property value shapes
// the Hub and Tracker both need to express. Exactly one branch is populated,
// selected by Kind.
type TypedValue struct {
	Kind ValueKind

	Text      string
	Integer   int64
	Decimal   float64
	Boolean   bool
	Date      time.Time
	ListValue string   // option id or name, kind-dependent on caller
	MultiList []string // option ids or names
	User      string   // login
}

// IsZero reports whether no branch carries a meaningful value. Absent
// values (as opposed to zero values) are represented by a nil *TypedValue
// at the call site, not by this method.
func (v TypedValue) IsZero() bool {
	switch v.Kind {
	case KindText:
		return v.Text == ""
	case KindInteger:
		return v.Integer == 0
	case KindDecimal:
		return v.Decimal == 0
	case KindBoolean:
		return !v.Boolean
	case KindDate:
		return v.Date.IsZero()
	case KindList:
		return v.ListValue == ""
	case KindMultiList:
		return len(v.MultiList) == 0
	case KindUser:
		return v.User == ""
	default:
		return true
	}
}

// CustomPropertySlot is the Hub's closed custom-property numbering (1..30).
type CustomPropertySlot int

// HubIncident is the Hub-side defect artifact.
type HubIncident struct {
	ID                     int
	ProjectID              int
	Name                   string
	Description            string // HTML
	StatusID               int
	TypeID                 int
	PriorityID             int
	SeverityID             *int
	OpenerID               int
	OwnerID                *int
	CreationDate           time.Time // UTC
	LastUpdateDate         time.Time // UTC
	StartDate              *time.Time
	ClosedDate             *time.Time
	DetectedReleaseID      *int
	ResolvedReleaseID      *int
	ComponentIDs           []int
	CustomProperties       map[int]TypedValue // slot 1..30
	Comments               []Comment
	Attachments            []Attachment
	IncidentAssociationIDs []int // other incident ids linked to this one
}

// HubRequirement is the Hub-side requirement artifact, structurally
// identical to HubIncident for the fields the engine touches.
type HubRequirement struct {
	ID                int
	ProjectID          int
	Name               string
	Description        string
	StatusID           int
	TypeID             int
	AuthorID           int
	OwnerID            *int
	CreationDate       time.Time
	LastUpdateDate     time.Time
	DetectedReleaseID  *int
	ComponentIDs       []int
	CustomProperties   map[int]TypedValue
	Comments           []Comment
	Attachments        []Attachment
}

// FieldRef names a single Hub↔Tracker field reference (status, priority,
// issue type, ...): the Hub carries a numeric id, the Tracker carries an
// id/name pair.
type FieldRef struct {
	ID   string
	Name string
}

// TrackerIssue is the Tracker-side issue.
type TrackerIssue struct {
	Key            string // "PROJ-N"
	ProjectKey     string
	IssueType      FieldRef
	Status         FieldRef
	Priority       *FieldRef
	Resolution     *FieldRef
	ReporterLogin  string
	AssigneeLogin  string
	Summary        string
	Description    string // plain text
	Environment    string
	Created        time.Time
	Updated        time.Time
	DueDate        *time.Time
	ResolutionDate *time.Time
	Versions       []TrackerVersion
	FixVersions    []TrackerVersion
	Components     []string
	Attachments    []Attachment
	Comments       []Comment
	CustomFields   map[int]TypedValue // keyed by Tracker custom field id
	SecurityLevelID string
}

// TrackerVersion is a Tracker project version/release.
type TrackerVersion struct {
	ID          string
	Name        string
	ReleaseDate *time.Time
	Released    bool
	Archived    bool
}

// Release is the Hub-side release/version, the mirror of TrackerVersion.
type Release struct {
	ID              int
	ProjectID       int
	Name            string
	VersionNumber   string // <= 10 chars
	Active          bool
	StartDate       time.Time
	EndDate         time.Time
	Released        bool
	Archived        bool
	ReleaseStatusID int
	ReleaseTypeID   int
}

// MaxVersionNumberLen is the Hub's hard ceiling on release version numbers.
const MaxVersionNumberLen = 10

// TruncateVersionNumber enforces MaxVersionNumberLen.
func TruncateVersionNumber(s string) string {
	if len(s) <= MaxVersionNumberLen {
		return s
	}
	return s[:MaxVersionNumberLen]
}

// Comment is de-duplicated solely on Body equality across systems.
type Comment struct {
	AuthorLogin string
	Body        string
	Created     time.Time // UTC
}

// Attachment is a file or URL attached to an artifact or issue.
type Attachment struct {
	Filename string
	URL      string // set instead of Data for URL-type attachments
	Data     []byte
	MimeType string
}

// User is the minimal Hub/Tracker user identity the resolver deals in.
type User struct {
	InternalID int
	Login      string
}
