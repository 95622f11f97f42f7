package trackerclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainTextFromDescriptionExtractsParagraphs(t *testing.T) {
	adf := json.RawMessage(`{
		"type": "doc",
		"version": 1,
		"content": [
			{"type": "paragraph", "content": [{"type": "text", "text": "line one"}]},
			{"type": "paragraph", "content": [{"type": "text", "text": "line two"}]}
		]
	}`)
	assert.Equal(t, "line one\nline two", PlainTextFromDescription(adf))
}

func TestPlainTextFromDescriptionHandlesPlainString(t *testing.T) {
	assert.Equal(t, "already plain", PlainTextFromDescription(json.RawMessage(`"already plain"`)))
}

func TestPlainTextFromDescriptionHandlesEmpty(t *testing.T) {
	assert.Equal(t, "", PlainTextFromDescription(nil))
	assert.Equal(t, "", PlainTextFromDescription(json.RawMessage(`null`)))
}

func TestDescriptionFromPlainTextRoundTrips(t *testing.T) {
	adf := DescriptionFromPlainText("para one\npara two")
	assert.Equal(t, "para one\npara two", PlainTextFromDescription(adf))
}

func TestDescriptionFromPlainTextEmptyYieldsNil(t *testing.T) {
	assert.Nil(t, DescriptionFromPlainText(""))
}
