// store_sql.go implements Store against a SQL-backed mapping table, with
// an embedded/server dual connection mode, a retry-on-transient-error
// wrapper, and OTel instrumentation, trimmed down to the one table this
// engine actually needs plus a config key/value table.
package mapping

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hubforge/sync-core/internal/types"
)

// Config configures the SQL-backed MSA.
type Config struct {
	Path     string // embedded mode: directory holding the database
	Database string // database name (default "hub_sync")

	ServerMode     bool // connect to a running SQL server (e.g. dolt sql-server) instead of embedding
	ServerHost     string
	ServerPort     int
	ServerUser     string
	ServerPassword string
	ServerTLS      bool
}

func applyDefaults(cfg *Config) {
	if cfg.Database == "" {
		cfg.Database = "hub_sync"
	}
	if cfg.ServerMode {
		if cfg.ServerHost == "" {
			cfg.ServerHost = "127.0.0.1"
		}
		if cfg.ServerPort == 0 {
			cfg.ServerPort = 3307
		}
		if cfg.ServerUser == "" {
			cfg.ServerUser = "root"
		}
	}
}

// SQLStore is the database/sql-backed Store and mapping.HubUserLookup-free
// config table owner.
type SQLStore struct {
	db         *sql.DB
	serverMode bool
}

var (
	sqlTracer = otel.Tracer("github.com/hubforge/sync-core/mapping")

	sqlMetrics struct {
		retryCount metric.Int64Counter
	}
)

func init() {
	m := otel.Meter("github.com/hubforge/sync-core/mapping")
	sqlMetrics.retryCount, _ = m.Int64Counter("sync.mapping.retry_count",
		metric.WithDescription("mapping-store SQL operations retried due to transient errors"),
		metric.WithUnit("{retry}"),
	)
}

// Open opens a SQL-backed mapping store. In server mode it connects over
// the MySQL wire protocol (pure Go, no CGO); otherwise it embeds the
// Dolt engine directly via the CGO-only dolthub/driver, exactly as the
// teacher's storage/dolt package splits this by build tag.
func Open(ctx context.Context, cfg *Config) (*SQLStore, error) {
	applyDefaults(cfg)
	if cfg.ServerMode {
		return newServerMode(ctx, cfg)
	}
	return newEmbeddedMode(ctx, cfg)
}

func newServerMode(ctx context.Context, cfg *Config) (*SQLStore, error) {
	addr := net.JoinHostPort(cfg.ServerHost, fmt.Sprintf("%d", cfg.ServerPort))
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("sql server unreachable at %s: %w", addr, err)
	}
	_ = conn.Close()

	dsn := buildServerDSN(cfg, cfg.Database)
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql server connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	initDSN := buildServerDSN(cfg, "")
	initDB, err := sql.Open("mysql", initDSN)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open init connection: %w", err)
	}
	defer func() { _ = initDB.Close() }()

	if err := validateDatabaseName(cfg.Database); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid database name %q: %w", cfg.Database, err)
	}
	if _, err := initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database)); err != nil { //nolint:gosec // validated above
		errLower := strings.ToLower(err.Error())
		if !strings.Contains(errLower, "database exists") && !strings.Contains(errLower, "1007") {
			_ = db.Close()
			return nil, fmt.Errorf("create database: %w", err)
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	if err := backoff.Retry(func() error {
		pingErr := db.PingContext(ctx)
		if pingErr != nil && isRetryableError(pingErr) {
			return pingErr
		}
		if pingErr != nil {
			return backoff.Permanent(pingErr)
		}
		return nil
	}, backoff.WithContext(bo, ctx)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database %q not available: %w", cfg.Database, err)
	}

	store := &SQLStore{db: db, serverMode: true}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func buildServerDSN(cfg *Config, database string) string {
	var userPart string
	if cfg.ServerPassword != "" {
		userPart = fmt.Sprintf("%s:%s", cfg.ServerUser, cfg.ServerPassword)
	} else {
		userPart = cfg.ServerUser
	}
	dbPart := "/"
	if database != "" {
		dbPart = "/" + database
	}
	params := "parseTime=true"
	if cfg.ServerTLS {
		params += "&tls=true"
	}
	return fmt.Sprintf("%s@tcp(%s:%d)%s?%s", userPart, cfg.ServerHost, cfg.ServerPort, dbPart, params)
}

func validateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name is empty")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return fmt.Errorf("database name contains invalid character %q", r)
		}
	}
	return nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, substr := range []string{
		"driver: bad connection", "invalid connection", "broken pipe",
		"connection reset", "connection refused", "database is read only",
		"lost connection", "gone away", "i/o timeout", "unknown database",
	} {
		if strings.Contains(errStr, substr) {
			return true
		}
	}
	return false
}

// withRetry retries transient server-mode errors; embedded mode already
// has driver-level retry, so it skips this wrapper entirely.
func (s *SQLStore) withRetry(ctx context.Context, op func() error) error {
	if !s.serverMode {
		return op()
	}
	attempts := 0
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second
	err := backoff.Retry(func() error {
		attempts++
		err := op()
		if err != nil && isRetryableError(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if attempts > 1 {
		sqlMetrics.retryCount.Add(ctx, int64(attempts-1))
	}
	return err
}

func spanAttrs(s *SQLStore) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("db.system", "sql"),
		attribute.Bool("db.server_mode", s.serverMode),
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *SQLStore) execContext(ctx context.Context, op string, query string, args ...any) (sql.Result, error) {
	ctx, span := sqlTracer.Start(ctx, "mapping."+op, trace.WithAttributes(spanAttrs(s)...))
	var result sql.Result
	err := s.withRetry(ctx, func() error {
		var execErr error
		result, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	})
	endSpan(span, err)
	return result, err
}

func (s *SQLStore) queryContext(ctx context.Context, op string, query string, args ...any) (*sql.Rows, error) {
	ctx, span := sqlTracer.Start(ctx, "mapping."+op, trace.WithAttributes(spanAttrs(s)...))
	var rows *sql.Rows
	err := s.withRetry(ctx, func() error {
		var queryErr error
		rows, queryErr = s.db.QueryContext(ctx, query, args...)
		return queryErr
	})
	endSpan(span, err)
	return rows, err
}

func (s *SQLStore) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mappings (
			scope INT NOT NULL,
			hub_project_id INT NOT NULL,
			internal_id INT NOT NULL,
			external_key VARCHAR(255) NOT NULL,
			is_primary BOOL NOT NULL,
			seq INT AUTO_INCREMENT,
			PRIMARY KEY (seq),
			INDEX idx_internal (scope, hub_project_id, internal_id),
			INDEX idx_external (scope, hub_project_id, external_key)
		)`,
		`CREATE TABLE IF NOT EXISTS config (
			` + "`key`" + ` VARCHAR(255) NOT NULL PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying connection.
func (s *SQLStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindByInternalID implements Store.
func (s *SQLStore) FindByInternalID(ctx context.Context, scope types.Scope, hubProjectID, internalID int) (*types.Mapping, error) {
	var m types.Mapping
	var scopeInt int
	err := s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `
			SELECT scope, hub_project_id, internal_id, external_key, is_primary
			FROM mappings WHERE scope = ? AND hub_project_id = ? AND internal_id = ? AND is_primary = TRUE
			ORDER BY seq LIMIT 1`, int(scope), hubProjectID, internalID)
		return row.Scan(&scopeInt, &m.HubProjectID, &m.InternalID, &m.ExternalKey, &m.Primary)
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mapping by internal id: %w", err)
	}
	m.Scope = types.Scope(scopeInt)
	return &m, nil
}

// FindByExternalKey implements Store.
func (s *SQLStore) FindByExternalKey(ctx context.Context, scope types.Scope, hubProjectID int, externalKey string, onlyPrimary bool) (*types.Mapping, error) {
	query := `
		SELECT scope, hub_project_id, internal_id, external_key, is_primary
		FROM mappings WHERE scope = ? AND hub_project_id = ? AND external_key = ?`
	if onlyPrimary {
		query += " AND is_primary = TRUE"
	}
	query += " ORDER BY seq LIMIT 1"

	var m types.Mapping
	var scopeInt int
	err := s.withRetry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, query, int(scope), hubProjectID, externalKey)
		return row.Scan(&scopeInt, &m.HubProjectID, &m.InternalID, &m.ExternalKey, &m.Primary)
	})
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mapping by external key: %w", err)
	}
	m.Scope = types.Scope(scopeInt)
	return &m, nil
}

// AddMappings implements Store, inserting the rows one statement at a
// time; the first failed insert stops the loop, and rows inserted before
// it stay written.
func (s *SQLStore) AddMappings(ctx context.Context, mappings []types.Mapping) error {
	if len(mappings) == 0 {
		return nil
	}
	for _, m := range mappings {
		_, err := s.execContext(ctx, "add_mapping", `
			INSERT INTO mappings (scope, hub_project_id, internal_id, external_key, is_primary)
			VALUES (?, ?, ?, ?, ?)`,
			int(m.Scope), m.HubProjectID, m.InternalID, m.ExternalKey, m.Primary)
		if err != nil {
			return fmt.Errorf("insert mapping: %w", err)
		}
	}
	return nil
}

// All implements Store.
func (s *SQLStore) All(ctx context.Context, scope types.Scope, hubProjectID int) ([]types.Mapping, error) {
	rows, err := s.queryContext(ctx, "list_mappings", `
		SELECT scope, hub_project_id, internal_id, external_key, is_primary
		FROM mappings WHERE scope = ? AND hub_project_id = ? ORDER BY seq`, int(scope), hubProjectID)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var out []types.Mapping
	for rows.Next() {
		var m types.Mapping
		var scopeInt int
		if err := rows.Scan(&scopeInt, &m.HubProjectID, &m.InternalID, &m.ExternalKey, &m.Primary); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		m.Scope = types.Scope(scopeInt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetConfig / SetConfig implement a simple key-value table, used to hold
// lastSyncAt for standalone/CLI runs. In production the host owns
// lastSyncAt and passes it directly to Execute.
func (s *SQLStore) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.withRetry(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE `key` = ?", key).Scan(&value)
	})
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get config %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.execContext(ctx, "set_config", `
		INSERT INTO config (`+"`key`"+`, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`, key, value)
	if err != nil {
		return fmt.Errorf("set config %s: %w", key, err)
	}
	return nil
}
