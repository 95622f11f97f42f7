package valuetransform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/types"
)

func TestPushValueResolutionSentinel(t *testing.T) {
	r := newResolverWithEnums(t, 1, map[string]int{"10": 3})
	slot := HubSlot{Kind: types.KindList, ExternalKey: SentinelResolution}

	result, err := PushValue(t.Context(), r, 1, slot, types.TypedValue{Kind: types.KindList, ListValue: "3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "10", result.Resolution)
}

func TestPushValueComponentSingleList(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindList, ExternalKey: SentinelComponent}
	lookup := func(name string) (string, bool) {
		if name == "backend" {
			return "1001", true
		}
		return "", false
	}

	result, err := PushValue(t.Context(), r, 1, slot, types.TypedValue{Kind: types.KindList, ListValue: "backend"}, lookup)
	require.NoError(t, err)
	assert.Equal(t, []string{"1001"}, result.Components)
}

func TestPushValueSecurityLevel(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindList, ExternalKey: SentinelSecurityLevel}

	result, err := PushValue(t.Context(), r, 1, slot, types.TypedValue{Kind: types.KindList, ListValue: "5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, result.SecurityLevel)
}

func TestPushValueUserField(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindUser, ExternalKey: "customfield_10050"}

	result, err := PushValue(t.Context(), r, 1, slot, types.TypedValue{Kind: types.KindUser, User: "alice"}, nil)
	require.NoError(t, err)
	require.True(t, result.HasCustomField)
	assert.Equal(t, map[string]string{"name": "alice"}, result.CustomFieldVal)
}

func TestPushValueScalarRawCopy(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindBoolean, ExternalKey: "customfield_10060"}

	result, err := PushValue(t.Context(), r, 1, slot, types.TypedValue{Kind: types.KindBoolean, Boolean: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, true, result.CustomFieldVal)
}
