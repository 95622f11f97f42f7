package valuetransform

import "github.com/hubforge/sync-core/internal/types"

// SeverityFromTracker maps a Tracker severity custom-field value into the
// Hub's native severityId via the severity enum mapping. The Tracker
// field can in principle carry a multi-select value; only the first
// selected option is honored, matching the single-valued severityId slot
// on the Hub side — later options are silently ignored.
func SeverityFromTracker(field types.TypedValue) (trackerOptionValue string, ok bool) {
	switch field.Kind {
	case types.KindList:
		if field.ListValue == "" {
			return "", false
		}
		return field.ListValue, true
	case types.KindMultiList:
		if len(field.MultiList) == 0 {
			return "", false
		}
		return field.MultiList[0], true
	default:
		return "", false
	}
}
