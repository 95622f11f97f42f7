package artifact

import (
	"github.com/hubforge/sync-core/internal/trackerclient"
	"github.com/hubforge/sync-core/internal/types"
)

// ConvertTrackerComments projects Tracker comments onto the Hub's comment
// shape: the author falls back to the update author when the comment was
// never attributed to its original author, the body collapses ADF to
// plain text, and the created timestamp is carried through unmodified
// (already UTC on the wire).
func ConvertTrackerComments(comments []trackerclient.Comment) []types.Comment {
	out := make([]types.Comment, 0, len(comments))
	for _, c := range comments {
		author := ""
		if c.Author != nil {
			author = c.Author.Name
		} else if c.Updated != nil {
			author = c.Updated.Name
		}
		created, _ := trackerclient.ParseTimestamp(c.Created)
		out = append(out, types.Comment{
			AuthorLogin: author,
			Body:        trackerclient.PlainTextFromDescription(c.Body),
			Created:     created.UTC(),
		})
	}
	return out
}

// DedupeNewComments returns the subset of incoming Tracker-derived comments
// whose body doesn't already match any existing Hub comment. Comments are
// deduplicated by body equality only — differing authorship or timestamp
// between the two systems is expected and not a distinguishing factor.
func DedupeNewComments(existing, incoming []types.Comment) []types.Comment {
	seen := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		seen[c.Body] = struct{}{}
	}
	out := make([]types.Comment, 0, len(incoming))
	for _, c := range incoming {
		if _, ok := seen[c.Body]; ok {
			continue
		}
		out = append(out, c)
		seen[c.Body] = struct{}{}
	}
	return out
}
