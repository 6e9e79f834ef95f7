// Package postgres implements an optional drivers.PersistenceBackend
// backed by PostgreSQL, for deployments that prefer a database of record
// over a local file. The document is stored as a single row, upserted on
// every save.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Config holds the connection parameters, matching the fields the
// teacher's database config carried for its own Postgres connection.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

// Backend persists the controller's document as a single row in a
// ledcore_document table, identified by a fixed singleton id.
type Backend struct {
	db *sql.DB
}

const singletonID = 1

const schemaSQL = `
CREATE TABLE IF NOT EXISTS ledcore_document (
	id INTEGER PRIMARY KEY,
	payload BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Connect opens the database, verifies connectivity, and ensures the
// backing table exists.
func Connect(ctx context.Context, cfg Config) (*Backend, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	sqlDB, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := sqlDB.ExecContext(ctx, schemaSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ensure ledcore_document table: %w", err)
	}

	return &Backend{db: sqlDB}, nil
}

// Close releases the underlying connection pool.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Save implements drivers.PersistenceBackend with an upsert.
func (b *Backend) Save(ctx context.Context, data []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO ledcore_document (id, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		singletonID, data)
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	return nil
}

// Load implements drivers.PersistenceBackend. No row yet is not an error;
// it returns a nil slice so the caller keeps its defaults.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := b.db.QueryRowContext(ctx, `SELECT payload FROM ledcore_document WHERE id = $1`, singletonID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return payload, nil
}

// Reconnect attempts to reconnect with exponential backoff, adapted from
// the same retry loop the teacher's db package used for its own
// connection pool.
func Reconnect(ctx context.Context, cfg Config, maxRetries int, initialDelay time.Duration) (*Backend, error) {
	delay := initialDelay
	attempt := 0

	for {
		attempt++
		backend, err := Connect(ctx, cfg)
		if err == nil {
			return backend, nil
		}

		if maxRetries > 0 && attempt >= maxRetries {
			return nil, fmt.Errorf("postgres reconnect failed after %d attempts: %w", attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 60*time.Second {
			delay = 60 * time.Second
		}
	}
}
