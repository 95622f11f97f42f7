package valuetransform

import "github.com/hubforge/sync-core/internal/types"

// HubSlot is one entry of a project's custom-property catalog: a Hub
// slot's declared type and the external key that names what it maps to
// on the Tracker side (a sentinel, or a literal customfield_NNNNN id).
type HubSlot struct {
	Slot        types.CustomPropertySlot
	Kind        types.ValueKind
	ExternalKey string
}

// IsCustomFieldID reports whether a slot's external key is a literal
// Tracker custom-field id rather than one of the five sentinels.
func (s HubSlot) IsCustomFieldID() bool {
	return !IsSentinel(s.ExternalKey)
}
