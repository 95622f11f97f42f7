package trackerclient

import (
	"fmt"
	"strings"
	"time"
)

// IsExternalRef reports whether a URL is a Tracker issue-browse link for
// the configured Tracker instance.
func IsExternalRef(externalRef, baseURL string) bool {
	if !strings.Contains(externalRef, "/browse/") {
		return false
	}
	if baseURL != "" {
		baseURL = strings.TrimSuffix(baseURL, "/")
		if !strings.HasPrefix(externalRef, baseURL) {
			return false
		}
	}
	return true
}

// ExtractKey pulls "PROJ-123" out of ".../browse/PROJ-123".
func ExtractKey(externalRef string) string {
	idx := strings.LastIndex(externalRef, "/browse/")
	if idx == -1 {
		return ""
	}
	return externalRef[idx+len("/browse/"):]
}

// BuildExternalRef builds the browse URL callers write back to the Hub
// as a document/URL attachment, so the Hub record links to its Tracker
// counterpart.
func BuildExternalRef(baseURL, key string) string {
	return fmt.Sprintf("%s/browse/%s", strings.TrimSuffix(baseURL, "/"), key)
}

// timestampFormats are the ISO-8601 variants the Tracker emits for
// created/updated/resolutiondate fields.
var timestampFormats = []string{
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseTimestamp parses any of the Tracker's timestamp formats.
func ParseTimestamp(ts string) (time.Time, error) {
	if ts == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format: %s", ts)
}

// FormatJQLTimestamp renders a UTC time shifted by offsetHours into the
// "yyyy/MM/dd HH:mm" shape JQL's `updated >=` clause expects. The
// Tracker's JQL timestamp comparisons run in a project-configured
// timezone that cannot be queried over the REST API, so offsetHours is
// accepted as explicit configuration rather than discovered.
func FormatJQLTimestamp(utc time.Time, offsetHours int) string {
	shifted := utc.Add(time.Duration(offsetHours) * time.Hour)
	return shifted.Format("2006/01/02 15:04")
}
