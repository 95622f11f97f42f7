package hubclient

import (
	"context"
)

type addFileDocumentArgs struct {
	SessionToken string
	ArtifactID   int
	ArtifactKind string
	Filename     string
	Data         []byte
	MimeType     string
}

// AddFileDocument uploads binary content as a new Hub document, used to
// mirror a Tracker attachment onto the pulled artifact.
func (c *Client) AddFileDocument(ctx context.Context, artifactID int, artifactKind, filename string, data []byte, mimeType string) error {
	return c.call(ctx, "Document_AddFile", addFileDocumentArgs{
		SessionToken: c.sessionToken,
		ArtifactID:   artifactID,
		ArtifactKind: artifactKind,
		Filename:     filename,
		Data:         data,
		MimeType:     mimeType,
	}, &struct{}{})
}

type addURLDocumentArgs struct {
	SessionToken string
	ArtifactID   int
	ArtifactKind string
	Title        string
	URL          string
}

// AddURLDocument attaches a document entry that links to an external URL
// (the `~` web-server placeholder has already been resolved by the
// caller), used to record the cross-system link back to the Tracker
// issue on a newly pushed incident.
func (c *Client) AddURLDocument(ctx context.Context, artifactID int, artifactKind, title, url string) error {
	return c.call(ctx, "Document_AddURL", addURLDocumentArgs{
		SessionToken: c.sessionToken,
		ArtifactID:   artifactID,
		ArtifactKind: artifactKind,
		Title:        title,
		URL:          url,
	}, &struct{}{})
}
