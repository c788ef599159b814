// Package sqlite implements storage.KV on a single-file embedded SQLite
// database. The file plays the role a browser profile's localStorage plays
// for the original storefront: durable, local, shared by every execution
// context that opens the same path.
package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	_ "modernc.org/sqlite"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store is a SQLite-backed record store.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the record store at path and applies the schema.
// WAL mode and a busy timeout let several processes share the file; writes
// still follow last-writer-wins at the record level.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := sqlDB.Exec(db.Schema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "apply schema")
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Ping reports whether the underlying database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM records WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read record %q", key)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO records (key, value, rev, updated_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   value = excluded.value,
		   rev = records.rev + 1,
		   updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return &storage.WriteError{Key: key, Err: err}
	}
	return nil
}

func (s *Store) Revisions(ctx context.Context) (map[string]int64, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT key, rev FROM records`)
	if err != nil {
		return nil, errors.Wrap(err, "read revisions")
	}
	defer rows.Close()

	revs := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			rev int64
		)
		if err := rows.Scan(&key, &rev); err != nil {
			return nil, errors.Wrap(err, "scan revision")
		}
		revs[key] = rev
	}
	return revs, rows.Err()
}
