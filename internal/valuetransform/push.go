package valuetransform

import (
	"context"
	"strconv"

	"github.com/hubforge/sync-core/internal/types"
)

// ComponentLookup resolves a Tracker component by name to its id, used
// when pushing a multi-list Hub slot mapped to the Component sentinel.
type ComponentLookup func(name string) (id string, ok bool)

// PushResult is the outbound contribution one custom-property slot makes
// to a Tracker create payload: at most one of Components/Resolution/
// SecurityLevel/CustomField is set, selected by the slot's sentinel.
type PushResult struct {
	Components    []string // component ids to merge into Fields.Components
	Resolution    string   // Tracker resolution option id
	SecurityLevel int
	HasCustomField bool
	CustomFieldKey string // wire name, e.g. "customfield_10010"
	CustomFieldVal interface{}
}

// PushValue implements the pushed (Hub→Tracker) custom-value branch table.
func PushValue(ctx context.Context, enums EnumMapper, hubProjectID int, slot HubSlot, value types.TypedValue, components ComponentLookup) (PushResult, error) {
	switch slot.Kind {
	case types.KindList:
		switch slot.ExternalKey {
		case SentinelComponent:
			if value.ListValue == "" {
				return PushResult{}, nil
			}
			if id, ok := components(value.ListValue); ok {
				return PushResult{Components: []string{id}}, nil
			}
			return PushResult{}, nil
		case SentinelResolution:
			trackerValue, ok, err := optionIDToTracker(ctx, enums, hubProjectID, mustAtoi(value.ListValue))
			if err != nil || !ok {
				return PushResult{}, err
			}
			return PushResult{Resolution: trackerValue}, nil
		case SentinelSecurityLevel:
			n, err := strconv.Atoi(value.ListValue)
			if err != nil {
				return PushResult{}, nil
			}
			return PushResult{SecurityLevel: n}, nil
		default:
			trackerValue, ok, err := optionIDToTracker(ctx, enums, hubProjectID, mustAtoi(value.ListValue))
			if err != nil || !ok {
				return PushResult{}, err
			}
			return PushResult{HasCustomField: true, CustomFieldKey: slot.ExternalKey, CustomFieldVal: map[string]string{"id": trackerValue}}, nil
		}

	case types.KindMultiList:
		switch slot.ExternalKey {
		case SentinelComponent:
			ids := make([]string, 0, len(value.MultiList))
			for _, name := range value.MultiList {
				if id, ok := components(name); ok {
					ids = append(ids, id)
				}
			}
			return PushResult{Components: ids}, nil
		default:
			ids := make([]map[string]string, 0, len(value.MultiList))
			for _, optionID := range value.MultiList {
				trackerValue, ok, err := optionIDToTracker(ctx, enums, hubProjectID, mustAtoi(optionID))
				if err != nil {
					return PushResult{}, err
				}
				if ok {
					ids = append(ids, map[string]string{"id": trackerValue})
				}
			}
			return PushResult{HasCustomField: true, CustomFieldKey: slot.ExternalKey, CustomFieldVal: ids}, nil
		}

	case types.KindUser:
		if value.User == "" {
			return PushResult{}, nil
		}
		return PushResult{HasCustomField: true, CustomFieldKey: slot.ExternalKey, CustomFieldVal: map[string]string{"name": value.User}}, nil

	default:
		return PushResult{HasCustomField: true, CustomFieldKey: slot.ExternalKey, CustomFieldVal: rawScalar(value)}, nil
	}
}

func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func rawScalar(value types.TypedValue) interface{} {
	switch value.Kind {
	case types.KindBoolean:
		return value.Boolean
	case types.KindInteger:
		return value.Integer
	case types.KindDecimal:
		return value.Decimal
	case types.KindDate:
		return value.Date.UTC().Format("2006-01-02")
	default:
		return value.Text
	}
}
