//go:build cgo

package mapping

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/dolthub/driver"
)

// newEmbeddedMode opens an in-process Dolt database via the CGO-only
// dolthub/driver, requiring no separate server process.
func newEmbeddedMode(ctx context.Context, cfg *Config) (*SQLStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("embedded mode requires Path")
	}
	dsn := fmt.Sprintf("file://%s?commitname=sync-core&commitemail=sync-core@local&database=%s", cfg.Path, cfg.Database)
	db, err := sql.Open("dolt", dsn)
	if err != nil {
		return nil, fmt.Errorf("open embedded dolt database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping embedded dolt database: %w", err)
	}
	store := &SQLStore{db: db, serverMode: false}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}
