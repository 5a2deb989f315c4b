package kvcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"

	"ma-zone/internal/migrations"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// NotifyChannel is the Postgres channel durable-tier writes are announced on
	NotifyChannel = "kv_changes"
)

// SQLStore is the durable tier. It survives restarts and is shared by every
// process pointed at the same database.
type SQLStore struct {
	db       *sql.DB
	driver   string
	origin   string
	notifier *Notifier
}

// OpenSQL opens the durable tier and applies pending migrations.
// For sqlite, dsn is a file path; for postgres, a lib/pq connection string.
func OpenSQL(driver, dsn string) (*SQLStore, error) {
	var connStr string
	switch driver {
	case DriverSQLite:
		connStr = fmt.Sprintf("file:%s?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", url.PathEscape(dsn))
	case DriverPostgres:
		connStr = dsn
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", driver)
	}

	db, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping cache database: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(4)
	}

	if err := migrations.NewMigrator(db, driver).RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache database: %w", err)
	}

	log.Printf("Durable cache opened with driver %s", driver)
	return &SQLStore{
		db:       db,
		driver:   driver,
		origin:   uuid.NewString(),
		notifier: NewNotifier(),
	}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// DB exposes the connection for migrations tooling
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Driver() string {
	return s.driver
}

func (s *SQLStore) Origin() string {
	return s.origin
}

// Ping checks the connection, used by the readiness probe
func (s *SQLStore) Ping() error {
	return s.db.Ping()
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT cache_value FROM kv_entries WHERE cache_key = $1`), key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte) error {
	return s.apply(ctx, Change{Key: key, Value: value, Origin: s.origin}, true)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	return s.apply(ctx, Change{Key: key, Deleted: true, Origin: s.origin}, true)
}

func (s *SQLStore) Subscribe(fn func(Change)) func() {
	return s.notifier.Subscribe(fn)
}

// ApplyRemote writes a change relayed by a change feed. Changes whose value
// was not relayed are only announced, the row is already shared.
func (s *SQLStore) ApplyRemote(ctx context.Context, c Change) error {
	if c.Value == nil && !c.Deleted {
		s.notifier.Publish(c)
		return nil
	}
	return s.apply(ctx, c, false)
}

// Keys returns the stored keys with the given prefix
func (s *SQLStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT cache_key FROM kv_entries WHERE cache_key LIKE $1 ORDER BY cache_key`), prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLStore) apply(ctx context.Context, c Change, announce bool) error {
	var err error
	if c.Deleted {
		_, err = s.db.ExecContext(ctx, s.rebind(`DELETE FROM kv_entries WHERE cache_key = $1`), c.Key)
	} else {
		_, err = s.db.ExecContext(ctx, s.rebind(`
			INSERT INTO kv_entries (cache_key, cache_value, updated_at)
			VALUES ($1, $2, CURRENT_TIMESTAMP)
			ON CONFLICT (cache_key) DO UPDATE SET
				cache_value = EXCLUDED.cache_value,
				updated_at = CURRENT_TIMESTAMP
		`), c.Key, string(c.Value))
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", c.Key, err)
	}

	if announce && s.driver == DriverPostgres {
		s.notifyPostgres(ctx, c)
	}
	s.notifier.Publish(c)
	return nil
}

// notifyPostgres announces the key to other processes sharing the database.
// The value is not sent; NOTIFY payloads are limited in size.
func (s *SQLStore) notifyPostgres(ctx context.Context, c Change) {
	payload, err := json.Marshal(Change{Key: c.Key, Deleted: c.Deleted, Origin: c.Origin})
	if err != nil {
		return
	}
	if _, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, string(payload)); err != nil {
		log.Printf("Error announcing cache change for %s: %v", c.Key, err)
	}
}

func (s *SQLStore) rebind(query string) string {
	return migrations.Rebind(s.driver, query)
}
