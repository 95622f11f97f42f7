package artifact

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// textPolicy strips every tag back to its text content; used to recover
// the Tracker-side plain text from a Hub HTML description.
var textPolicy = bluemonday.StrictPolicy()

// plainTextToHTML converts plain text pulled from the Tracker into the
// paragraph-per-line HTML the Hub stores, mirroring the paragraph-split
// approach trackerclient.DescriptionFromPlainText uses for ADF.
func plainTextToHTML(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		paragraphs = append(paragraphs, "<p>"+html.EscapeString(line)+"</p>")
	}
	return strings.Join(paragraphs, "\n")
}

// paragraphBreaks normalizes the block-level tags plainTextToHTML emits
// back into newlines before tag stripping, since bluemonday's strict
// policy removes tags without inserting line breaks of its own.
var paragraphBreaks = strings.NewReplacer("</p>", "\n", "<br>", "\n", "<br/>", "\n", "<br />", "\n")

// htmlToPlainText recovers plain text from a Hub HTML description for the
// push path: restore paragraph breaks, strip tags, then unescape the
// entities bluemonday leaves behind.
func htmlToPlainText(htmlBody string) string {
	if htmlBody == "" {
		return ""
	}
	stripped := textPolicy.Sanitize(paragraphBreaks.Replace(htmlBody))
	stripped = html.UnescapeString(stripped)
	return strings.TrimSpace(stripped)
}
