package artifact

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

func plainBody(s string) json.RawMessage {
	b, _ := json.Marshal(s)
	return b
}

func TestConvertTrackerCommentsFallsBackToUpdateAuthor(t *testing.T) {
	comments := []trackerclient.Comment{
		{
			Updated: &trackerclient.UserRef{Name: "carol"},
			Body:    plainBody("edited by someone else"),
			Created: "2026-07-30T12:00:00.000+0000",
		},
	}
	out := ConvertTrackerComments(comments)
	assert.Equal(t, "carol", out[0].AuthorLogin)
	assert.Equal(t, "edited by someone else", out[0].Body)
}

func TestConvertTrackerCommentsPrefersAuthor(t *testing.T) {
	comments := []trackerclient.Comment{
		{
			Author:  &trackerclient.UserRef{Name: "alice"},
			Updated: &trackerclient.UserRef{Name: "carol"},
			Body:    plainBody("original"),
			Created: "2026-07-30T12:00:00.000+0000",
		},
	}
	out := ConvertTrackerComments(comments)
	assert.Equal(t, "alice", out[0].AuthorLogin)
}

func TestDedupeNewCommentsDropsBodyMatches(t *testing.T) {
	existing := []types.Comment{
		{AuthorLogin: "alice", Body: "already synced", Created: time.Now()},
	}
	incoming := []types.Comment{
		{AuthorLogin: "bob", Body: "already synced", Created: time.Now()},
		{AuthorLogin: "bob", Body: "new comment", Created: time.Now()},
	}

	out := DedupeNewComments(existing, incoming)
	assert.Len(t, out, 1)
	assert.Equal(t, "new comment", out[0].Body)
}
