package valuetransform

import (
	"fmt"
	"strings"

	"github.com/hubforge/sync-core/internal/trackerclient"
)

// MissingRequiredError reports a create-metadata required field absent
// from a shaped payload.
type MissingRequiredError struct {
	FieldName   string
	ProjectKey  string
	IssueTypeID string
}

func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("missing required field %q for %s/%s", e.FieldName, e.ProjectKey, e.IssueTypeID)
}

// ShapePayload implements the metadata-driven payload shaping algorithm
// for createIssue: locate the (project, issue type) metadata node, drop
// fields the metadata doesn't declare (except "issuetype"), require
// metadata-required non-custom fields, then merge in custom fields gated
// on the metadata declaring them for this issue type, resolving List/
// MultiList values against the metadata's allowedValues table.
func ShapePayload(meta *trackerclient.CreateMetadata, projectKey, issueTypeID string, fixedFields map[string]interface{}, customFields map[string]interface{}) (map[string]interface{}, error) {
	issueType, ok := meta.IssueType(projectKey, issueTypeID)
	if !ok {
		// No metadata node: skip validation, pass the payload through.
		out := make(map[string]interface{}, len(fixedFields)+len(customFields))
		for k, v := range fixedFields {
			out[k] = v
		}
		for k, v := range customFields {
			out[k] = v
		}
		return out, nil
	}

	out := make(map[string]interface{})
	out["issuetype"] = fixedFields["issuetype"]

	for fieldKey, fieldMeta := range issueType.Fields {
		if strings.HasPrefix(fieldKey, "customfield_") {
			continue
		}
		if fieldKey == "issuetype" {
			continue
		}
		value, present := fixedFields[fieldKey]
		if fieldMeta.Required && !present {
			return nil, &MissingRequiredError{FieldName: fieldMeta.Name, ProjectKey: projectKey, IssueTypeID: issueTypeID}
		}
		if present {
			out[fieldKey] = value
		}
	}

	for fieldKey, value := range customFields {
		fieldMeta, declared := issueType.Fields[fieldKey]
		if !declared {
			continue
		}
		resolved := resolveAllowedValue(fieldMeta, value)
		if resolved == nil {
			continue
		}
		out[fieldKey] = resolved
	}

	return out, nil
}

// resolveAllowedValue looks up List/MultiList option values in the
// metadata's allowedValues table; a value with no match is silently
// dropped. Non-option values (scalars, user refs) pass through unchanged.
func resolveAllowedValue(fieldMeta trackerclient.FieldMeta, value interface{}) interface{} {
	if len(fieldMeta.AllowedValues) == 0 {
		return value
	}
	switch v := value.(type) {
	case map[string]string:
		return resolveOne(fieldMeta, v)
	case []map[string]string:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			if resolved := resolveOne(fieldMeta, item); resolved != nil {
				out = append(out, resolved)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return value
	}
}

func resolveOne(fieldMeta trackerclient.FieldMeta, ref map[string]string) interface{} {
	id := ref["id"]
	for _, allowed := range fieldMeta.AllowedValues {
		if allowed.ID == id {
			return map[string]string{"id": allowed.ID}
		}
	}
	return nil
}
