//go:build !cgo

package mapping

import (
	"context"
	"fmt"
)

// newEmbeddedMode is unavailable without CGO; run with ServerMode: true
// against a sql server instead (see store_sql.go:newServerMode).
func newEmbeddedMode(_ context.Context, _ *Config) (*SQLStore, error) {
	return nil, fmt.Errorf("embedded mapping store requires CGO; set Config.ServerMode=true to use a sql server instead")
}
