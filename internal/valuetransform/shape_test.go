package valuetransform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubforge/sync-core/internal/trackerclient"
)

func sampleMeta() *trackerclient.CreateMetadata {
	return &trackerclient.CreateMetadata{
		Projects: []trackerclient.ProjectMeta{
			{
				Key: "PROJ",
				IssueTypes: []trackerclient.IssueTypeMeta{
					{
						ID:   "1",
						Name: "Bug",
						Fields: map[string]trackerclient.FieldMeta{
							"summary":     {Required: true, Name: "Summary"},
							"description": {Required: false, Name: "Description"},
							"customfield_10010": {
								Required:      false,
								Name:          "Environment",
								AllowedValues: []trackerclient.AllowedValue{{ID: "1", Value: "staging"}},
							},
						},
					},
				},
			},
		},
	}
}

func TestShapePayloadDropsUndeclaredFieldsAndKeepsIssueType(t *testing.T) {
	out, err := ShapePayload(sampleMeta(), "PROJ", "1",
		map[string]interface{}{"issuetype": map[string]string{"id": "1"}, "summary": "bug", "environment": "leftover"},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "bug", out["summary"])
	assert.NotContains(t, out, "environment")
	assert.Contains(t, out, "issuetype")
}

func TestShapePayloadFailsOnMissingRequired(t *testing.T) {
	_, err := ShapePayload(sampleMeta(), "PROJ", "1", map[string]interface{}{"issuetype": map[string]string{"id": "1"}}, nil)
	require.Error(t, err)
	var missing *MissingRequiredError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Summary", missing.FieldName)
}

func TestShapePayloadResolvesAllowedValueAndDropsMismatch(t *testing.T) {
	out, err := ShapePayload(sampleMeta(), "PROJ", "1",
		map[string]interface{}{"issuetype": map[string]string{"id": "1"}, "summary": "bug"},
		map[string]interface{}{
			"customfield_10010": map[string]string{"id": "1"},
			"customfield_99999": map[string]string{"id": "2"}, // not declared, dropped
		},
	)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"id": "1"}, out["customfield_10010"])
	assert.NotContains(t, out, "customfield_99999")
}

func TestShapePayloadPassesThroughWhenNoMetadataNode(t *testing.T) {
	out, err := ShapePayload(sampleMeta(), "OTHER", "99", map[string]interface{}{"summary": "whatever"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "whatever", out["summary"])
}
