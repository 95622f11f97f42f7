// Package valuetransform converts custom-property values between the
// Hub's closed, typed custom-property slots and the Tracker's
// metadata-driven customfield_* model, and shapes outbound issue
// payloads against the Tracker's create-metadata.
package valuetransform

// Sentinel external-key values recognized on a Hub custom-property
// mapping instead of a literal Tracker custom-field id.
const (
	SentinelEnvironment   = "Environment"
	SentinelComponent     = "Component"
	SentinelResolution    = "Resolution"
	SentinelSecurityLevel = "SecurityLevel"
	SentinelJiraIssueKey  = "JiraIssueKey"
)

// IsSentinel reports whether externalKey names one of the five
// recognized sentinel fields rather than a literal Tracker
// customfield_NNNNN id.
func IsSentinel(externalKey string) bool {
	switch externalKey {
	case SentinelEnvironment, SentinelComponent, SentinelResolution, SentinelSecurityLevel, SentinelJiraIssueKey:
		return true
	default:
		return false
	}
}
