package valuetransform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/types"
)

func newResolverWithEnums(t *testing.T, hubProjectID int, pairs map[string]int) *mapping.Resolver {
	t.Helper()
	store := mapping.NewMemoryStore()
	r := mapping.New(store, nil, false)
	for trackerValue, hubID := range pairs {
		r.AddMappings(types.Mapping{
			Scope:        types.ScopeCustomPropertyValue,
			HubProjectID: hubProjectID,
			InternalID:   hubID,
			ExternalKey:  trackerValue,
			Primary:      true,
		})
	}
	require.NoError(t, r.Flush(context.Background()))
	return r
}

func TestPullValueResolutionSentinel(t *testing.T) {
	r := newResolverWithEnums(t, 1, map[string]int{"10": 3})
	slot := HubSlot{Kind: types.KindList, ExternalKey: SentinelResolution}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{ResolutionID: "10"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "3", v.ListValue)
}

func TestPullValueSecurityLevelIgnoredInbound(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindList, ExternalKey: SentinelSecurityLevel}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestPullValueEnvironmentSentinel(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindText, ExternalKey: SentinelEnvironment}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{Environment: "staging"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "staging", v.Text)
}

func TestPullValueComponentMultiList(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindMultiList, ExternalKey: SentinelComponent}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{Components: []string{"backend", "api"}})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"backend", "api"}, v.MultiList)
}

func TestPullValueScalarCoercesTextToInteger(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindInteger, ExternalKey: "customfield_10099"}
	in := PullInput{CustomFields: map[string]types.TypedValue{
		"customfield_10099": {Kind: types.KindText, Text: "42"},
	}}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, in)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Integer)
}

func TestPullValueJiraIssueKeySentinel(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindText, ExternalKey: SentinelJiraIssueKey}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{IssueKey: "PROJ-7"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PROJ-7", v.Text)
}

func TestPullValueMissingCustomFieldReturnsAbsent(t *testing.T) {
	r := newResolverWithEnums(t, 1, nil)
	slot := HubSlot{Kind: types.KindList, ExternalKey: "customfield_99999"}

	v, ok, err := PullValue(t.Context(), r, r, 1, slot, PullInput{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
}
