package valuetransform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hubforge/sync-core/internal/types"
)

func TestSeverityFromTrackerUsesFirstValueOnlyForMultiList(t *testing.T) {
	v, ok := SeverityFromTracker(types.TypedValue{Kind: types.KindMultiList, MultiList: []string{"Critical", "High"}})
	assert.True(t, ok)
	assert.Equal(t, "Critical", v)
}

func TestSeverityFromTrackerHandlesSingleList(t *testing.T) {
	v, ok := SeverityFromTracker(types.TypedValue{Kind: types.KindList, ListValue: "Critical"})
	assert.True(t, ok)
	assert.Equal(t, "Critical", v)
}

func TestSeverityFromTrackerAbsentWhenEmpty(t *testing.T) {
	_, ok := SeverityFromTracker(types.TypedValue{Kind: types.KindMultiList})
	assert.False(t, ok)
}
