package engine

import (
	"github.com/hubforge/sync-core/internal/hubclient"
	"github.com/hubforge/sync-core/internal/valuetransform"
)

// filterCatalog drops the SecurityLevel sentinel slot when
// Options.PropagateSecurityLevel (custom02) is off, so a Hub project
// that happens to declare that slot doesn't silently propagate security
// levels the operator never opted into.
func (e *Engine) filterCatalog(catalog []hubclient.CustomProperty) []hubclient.CustomProperty {
	if e.Options.PropagateSecurityLevel {
		return catalog
	}
	out := make([]hubclient.CustomProperty, 0, len(catalog))
	for _, cp := range catalog {
		if cp.ExternalKey == valuetransform.SentinelSecurityLevel {
			continue
		}
		out = append(out, cp)
	}
	return out
}
