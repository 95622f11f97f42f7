package valuetransform

import (
	"encoding/json"
	"strings"

	"github.com/hubforge/sync-core/internal/types"
)

// optionRef is the {id,[value|name]} shape a select/multi-select/user
// custom field uses on the wire.
type optionRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// OptionNameByID resolves an option id to its display name/value using
// the Tracker's create-metadata allowed-values table for one field.
type OptionNameByID func(fieldKey, optionID string) (string, bool)

// ReconstructCustomFields classifies every customfield_* entry in raw by
// its JSON value shape and returns a map keyed by wire field name
// ("customfield_10010"). Null and missing shapes are silently omitted;
// unrecognized shapes are also omitted from the map but their keys are
// returned in unknownKeys (spec.md §7 UnknownFieldShape) for the caller
// to warn on.
func ReconstructCustomFields(raw map[string]json.RawMessage, optionName OptionNameByID) (values map[string]types.TypedValue, unknownKeys []string) {
	values = make(map[string]types.TypedValue)
	for key, data := range raw {
		if !strings.HasPrefix(key, "customfield_") {
			continue
		}
		if len(data) == 0 || string(data) == "null" {
			continue
		}
		v, ok := reconstructOne(key, data, optionName)
		if !ok {
			unknownKeys = append(unknownKeys, key)
			continue
		}
		values[key] = v
	}
	return values, unknownKeys
}

func reconstructOne(fieldKey string, data json.RawMessage, optionName OptionNameByID) (types.TypedValue, bool) {
	// Array of objects each with an id: MultiList of option names.
	var refs []optionRef
	if err := json.Unmarshal(data, &refs); err == nil {
		names := make([]string, 0, len(refs))
		for _, ref := range refs {
			if ref.ID == "" {
				continue
			}
			if name, ok := optionName(fieldKey, ref.ID); ok {
				names = append(names, name)
			} else {
				names = append(names, ref.Value)
			}
		}
		return types.TypedValue{Kind: types.KindMultiList, MultiList: names}, true
	}

	// Single object: either {id} (List) or {name} (User).
	var ref optionRef
	if err := json.Unmarshal(data, &ref); err == nil && (ref.ID != "" || ref.Name != "") {
		if ref.Name != "" && ref.ID == "" {
			return types.TypedValue{Kind: types.KindUser, User: ref.Name}, true
		}
		if ref.ID != "" {
			name := ref.Value
			if resolved, ok := optionName(fieldKey, ref.ID); ok {
				name = resolved
			}
			return types.TypedValue{Kind: types.KindList, ListValue: name}, true
		}
	}

	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		return types.TypedValue{Kind: types.KindBoolean, Boolean: b}, true
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		if f == float64(int64(f)) {
			return types.TypedValue{Kind: types.KindInteger, Integer: int64(f)}, true
		}
		return types.TypedValue{Kind: types.KindDecimal, Decimal: f}, true
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return types.TypedValue{Kind: types.KindText, Text: s}, true
	}
	return types.TypedValue{}, false
}
