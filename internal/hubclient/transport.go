// Package hubclient provides typed wrappers over the Hub's RPC service:
// authenticate, connect-to-project, artifact/user/custom-property mapping
// fetches, paginated artifact retrieval, incident and requirement
// create/update, release creation, and document/URL attachment. The RPC transport itself (the host-provided SOAP bindings)
// is an external collaborator supplied by the host process; this package
// only depends on the Transport interface below.
package hubclient

import "context"

// Transport issues one RPC against the Hub service and decodes the
// response into reply. method names the Hub operation exactly as the
// WSDL exposes it (e.g. "Login", "Incident_Retrieve"); args and
// reply are operation-specific structs defined alongside each Client
// method that uses them.
type Transport interface {
	Call(ctx context.Context, method string, args, reply interface{}) error
}
