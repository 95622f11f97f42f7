// Package artifact transforms Hub incidents and requirements into Tracker
// issue payloads and back, composing the mapping resolver and the value
// transformer into the two directional shapes the reconciliation engine
// pushes and pulls.
package artifact

// Reserved hubProjectID buckets namespace the Hub-instance-global enum
// mappings (status, priority, issue type, requirement type, severity) that
// share types.ScopeCustomPropertyValue with real per-project custom-field
// option mappings. Real project ids are always positive, and the mapping
// resolver already reserves hubProjectID 0 for user identity (see
// Resolver.FindUserByInternalID); these negative buckets can't collide
// with either.
const (
	statusBucket          = -1
	priorityBucket        = -2
	incidentTypeBucket    = -3
	requirementTypeBucket = -4
	severityBucket        = -5
)

// Fallback ids the pull phase applies when a Tracker status/type has no
// recorded mapping, per the defaulting rule for requirements.
const (
	DefaultRequirementStatusID = 1 // "Requested"
	DefaultRequirementTypeID   = 4 // "User Story"
)

// Hub release defaults applied to every auto-provisioned release.
const (
	ReleaseStatusPlanned = 1
	ReleaseTypeMajor     = 1
)
