package artifact

import "github.com/hubforge/sync-core/internal/trackerclient"

// OptionNameResolver builds a valuetransform.OptionNameByID closure over a
// project's create-metadata, used to resolve a pulled custom field's option
// id to its display value. It scans every issue type's field catalog for a
// matching field key, since the inbound issue's actual issue type isn't
// known to the reconstruction step that needs this closure.
func OptionNameResolver(meta *trackerclient.CreateMetadata, projectKey string) func(fieldKey, optionID string) (string, bool) {
	return func(fieldKey, optionID string) (string, bool) {
		if meta == nil {
			return "", false
		}
		for _, p := range meta.Projects {
			if projectKey != "" && p.Key != projectKey {
				continue
			}
			for _, it := range p.IssueTypes {
				field, ok := it.Fields[fieldKey]
				if !ok {
					continue
				}
				for _, av := range field.AllowedValues {
					if av.ID == optionID {
						return av.Value, true
					}
				}
			}
		}
		return "", false
	}
}
