package valuetransform

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/hubforge/sync-core/internal/types"
)

// UserLookup resolves a Tracker login to a Hub user, used for User-kind
// Hub slots. Satisfied by *mapping.Resolver.
type UserLookup interface {
	FindUserByExternalKey(ctx context.Context, login string) (*types.Mapping, error)
}

// PullInput bundles the Tracker-side facts a single custom-property pull
// needs: the issue's fixed fields relevant to sentinels, plus its
// reconstructed customfield_* map keyed by wire name.
type PullInput struct {
	Environment   string
	ResolutionID  string // Fields.Resolution.ID, empty if unresolved
	SecurityLevel string // Fields.Security.ID
	IssueKey      string
	Components    []string
	CustomFields  map[string]types.TypedValue
}

// PullValue implements the pulled (Tracker→Hub) custom-value branch table.
// A nil *types.TypedValue with ok=false means the slot should be left
// absent: either the Tracker side had nothing to map (sentinel unset, no
// regular field value), or a value was present but carried no enum/user
// mapping (spec.md §7 MappingMissing). Callers warn on the latter; this
// function doesn't distinguish the two cases in its return, so a caller
// that warns on every ok=false (internal/artifact.pullCustomProperties)
// accepts some over-logging of the former as the simpler, honest trade.
func PullValue(ctx context.Context, enums EnumMapper, users UserLookup, hubProjectID int, slot HubSlot, in PullInput) (*types.TypedValue, bool, error) {
	switch slot.Kind {
	case types.KindList:
		switch slot.ExternalKey {
		case SentinelResolution:
			if in.ResolutionID == "" {
				return nil, false, nil
			}
			hubOptionID, ok, err := optionIDToHub(ctx, enums, hubProjectID, in.ResolutionID)
			if err != nil || !ok {
				return nil, false, err
			}
			return &types.TypedValue{Kind: types.KindList, ListValue: strconv.Itoa(hubOptionID)}, true, nil
		case SentinelSecurityLevel:
			// Hub→Tracker only; ignored inbound.
			return nil, false, nil
		default:
			field, ok := in.CustomFields[slot.ExternalKey]
			if !ok || field.Kind != types.KindList {
				return nil, false, nil
			}
			hubOptionID, ok, err := optionIDToHub(ctx, enums, hubProjectID, field.ListValue)
			if err != nil || !ok {
				return nil, false, err
			}
			return &types.TypedValue{Kind: types.KindList, ListValue: strconv.Itoa(hubOptionID)}, true, nil
		}

	case types.KindMultiList:
		switch slot.ExternalKey {
		case SentinelComponent:
			if len(in.Components) == 0 {
				return nil, false, nil
			}
			return &types.TypedValue{Kind: types.KindMultiList, MultiList: append([]string(nil), in.Components...)}, true, nil
		default:
			field, ok := in.CustomFields[slot.ExternalKey]
			if !ok || field.Kind != types.KindMultiList {
				return nil, false, nil
			}
			mapped := make([]string, 0, len(field.MultiList))
			for _, optionValue := range field.MultiList {
				hubOptionID, ok, err := optionIDToHub(ctx, enums, hubProjectID, optionValue)
				if err != nil {
					return nil, false, err
				}
				if ok {
					mapped = append(mapped, strconv.Itoa(hubOptionID))
				}
			}
			return &types.TypedValue{Kind: types.KindMultiList, MultiList: mapped}, true, nil
		}

	case types.KindUser:
		field, ok := in.CustomFields[slot.ExternalKey]
		if !ok || field.Kind != types.KindUser || field.User == "" {
			return nil, false, nil
		}
		m, err := users.FindUserByExternalKey(ctx, field.User)
		if err != nil || m == nil {
			return nil, false, err
		}
		return &types.TypedValue{Kind: types.KindUser, User: m.ExternalKey}, true, nil

	default: // scalar Hub slots: Text, Integer, Decimal, Boolean, Date
		switch slot.ExternalKey {
		case SentinelEnvironment:
			if in.Environment == "" {
				return nil, false, nil
			}
			return &types.TypedValue{Kind: types.KindText, Text: in.Environment}, true, nil
		case SentinelJiraIssueKey:
			if in.IssueKey == "" {
				return nil, false, nil
			}
			return &types.TypedValue{Kind: types.KindText, Text: in.IssueKey}, true, nil
		default:
			field, ok := in.CustomFields[slot.ExternalKey]
			if !ok {
				return nil, false, nil
			}
			return coerceScalar(slot.Kind, field)
		}
	}
}

// coerceScalar implements the "branch on the Tracker value's runtime
// type" rule for scalar Hub slots: Boolean/Date/Decimal/Integer copy
// directly when the Tracker value is already that kind; Text is coerced
// into the Hub slot's declared kind via parsing (dates normalized to
// UTC); anything else is copied as a string.
func coerceScalar(wantKind types.ValueKind, field types.TypedValue) (*types.TypedValue, bool, error) {
	if field.Kind == wantKind {
		return &field, true, nil
	}
	if field.Kind != types.KindText {
		return &types.TypedValue{Kind: types.KindText, Text: scalarAsString(field)}, true, nil
	}

	text := strings.TrimSpace(field.Text)
	switch wantKind {
	case types.KindBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return nil, false, nil
		}
		return &types.TypedValue{Kind: types.KindBoolean, Boolean: b}, true, nil
	case types.KindInteger:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, false, nil
		}
		return &types.TypedValue{Kind: types.KindInteger, Integer: n}, true, nil
	case types.KindDecimal:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, false, nil
		}
		return &types.TypedValue{Kind: types.KindDecimal, Decimal: f}, true, nil
	case types.KindDate:
		t, err := parseFlexibleDate(text)
		if err != nil {
			return nil, false, nil
		}
		return &types.TypedValue{Kind: types.KindDate, Date: t.UTC()}, true, nil
	default:
		return &types.TypedValue{Kind: types.KindText, Text: text}, true, nil
	}
}

func parseFlexibleDate(s string) (time.Time, error) {
	formats := []string{time.RFC3339, "2006-01-02", "2006-01-02T15:04:05.000-0700", "2006-01-02T15:04:05Z"}
	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

func scalarAsString(field types.TypedValue) string {
	switch field.Kind {
	case types.KindBoolean:
		return strconv.FormatBool(field.Boolean)
	case types.KindInteger:
		return strconv.FormatInt(field.Integer, 10)
	case types.KindDecimal:
		return strconv.FormatFloat(field.Decimal, 'f', -1, 64)
	case types.KindDate:
		return field.Date.UTC().Format(time.RFC3339)
	case types.KindList:
		return field.ListValue
	default:
		return field.Text
	}
}
