// Package tlslatch implements the process-wide TLS protocol-preference
// latch the Tracker client negotiates once against the permissions probe
// and reuses for the remainder of the process.
package tlslatch

import (
	"crypto/tls"
	"fmt"
	"sync"
)

// candidates lists the protocol versions attempted, in order: TLS 1.2,
// then 1.1, then 1.0. A legacy SSLv3 rung is intentionally absent:
// crypto/tls dropped SSLv3 support entirely (it has been disabled
// network-wide since Go 1.14 and removed as a MinVersion option), so
// there is no reachable implementation of it in this runtime.
var candidates = []uint16{
	tls.VersionTLS12,
	tls.VersionTLS11,
	tls.VersionTLS10,
}

// Latch is process-wide init-once, read-many state: the first TLS
// version that succeeds against the Tracker's permissions probe is
// latched for every subsequent connection in the process.
type Latch struct {
	mu      sync.RWMutex
	version uint16
	latched bool
}

var global = &Latch{}

// Global returns the process-wide latch.
func Global() *Latch { return global }

// ResetGlobalForTest clears the process-wide latch. It exists only so
// tests that exercise negotiation can run independently of each other
// within the same test binary; production code never calls this.
func ResetGlobalForTest() {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.latched = false
	global.version = 0
}

// Version returns the latched version and whether a version has been
// latched yet.
func (l *Latch) Version() (uint16, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version, l.latched
}

// Set latches a version. Once latched, the latch never changes for the
// lifetime of the process — later calls to Set are no-ops, so the first
// protocol that succeeds is the one every subsequent connection uses.
func (l *Latch) Set(version uint16) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.latched {
		l.version = version
		l.latched = true
	}
}

// Candidates returns the protocol negotiation order the Tracker client
// probe attempts: TLS 1.2, then 1.1, then 1.0.
func Candidates() []uint16 {
	out := make([]uint16, len(candidates))
	copy(out, candidates)
	return out
}

// ClientConfig builds a *tls.Config pinned to MinVersion==MaxVersion==version,
// so a single connection attempt tests exactly one protocol.
// insecureSkipVerify must be an explicit opt-in per engine instance —
// accepting self-signed certificates globally is a deliberate trust
// relaxation, not a default.
func ClientConfig(version uint16, insecureSkipVerify bool) *tls.Config {
	return &tls.Config{
		MinVersion:         version,
		MaxVersion:         version,
		InsecureSkipVerify: insecureSkipVerify, //nolint:gosec // explicit opt-in, documented above
	}
}

// VersionName renders a tls.VersionTLS* constant for logging.
func VersionName(version uint16) string {
	switch version {
	case tls.VersionTLS13:
		return "TLS1.3"
	case tls.VersionTLS12:
		return "TLS1.2"
	case tls.VersionTLS11:
		return "TLS1.1"
	case tls.VersionTLS10:
		return "TLS1.0"
	default:
		return fmt.Sprintf("0x%04x", version)
	}
}
