package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// SQLStore keeps cache rows in a single relational table, for deployments
// that already run a database but no Redis.
type SQLStore struct {
	db      *sql.DB
	backend string
}

// NewSQLStore opens the database for the given backend (sqlite or postgres)
// and creates the cache table if it does not exist. For sqlite the DSN is a
// file path; for postgres a connection string.
func NewSQLStore(backend, dsn string) (*SQLStore, error) {
	var driver, ddl string
	switch backend {
	case BackendSQLite:
		driver = "sqlite"
		ddl = `CREATE TABLE IF NOT EXISTS location_cache (
			cache_key TEXT PRIMARY KEY,
			cache_value BLOB NOT NULL
		)`
	case BackendPostgres:
		driver = "pgx"
		ddl = `CREATE TABLE IF NOT EXISTS location_cache (
			cache_key TEXT PRIMARY KEY,
			cache_value BYTEA NOT NULL
		)`
	default:
		return nil, fmt.Errorf("cache: sql store does not support backend %q", backend)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == BackendSQLite {
		// modernc's driver serializes writes; a single connection avoids
		// SQLITE_BUSY under concurrent refreshes.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}

	return &SQLStore{db: db, backend: backend}, nil
}

// Get implements Store.
func (ss *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := ss.db.QueryRowContext(ctx,
		ss.rebind("SELECT cache_value FROM location_cache WHERE cache_key = ?"), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", key, err)
	}
	return value, nil
}

// Set implements Store.
func (ss *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	_, err := ss.db.ExecContext(ctx,
		ss.rebind(`INSERT INTO location_cache (cache_key, cache_value) VALUES (?, ?)
			ON CONFLICT (cache_key) DO UPDATE SET cache_value = excluded.cache_value`),
		key, value,
	)
	if err != nil {
		return fmt.Errorf("upsert %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (ss *SQLStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := ss.db.ExecContext(ctx,
			ss.rebind("DELETE FROM location_cache WHERE cache_key = ?"), key,
		); err != nil {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}
	return nil
}

// Ping implements Store.
func (ss *SQLStore) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (ss *SQLStore) Close() error {
	return ss.db.Close()
}

// rebind rewrites ? placeholders to the $n form postgres expects. SQLite
// takes ? as is.
func (ss *SQLStore) rebind(query string) string {
	if ss.backend != BackendPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
