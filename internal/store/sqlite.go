package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var _ KV = (*SQLite)(nil)

// SQLite is a KV backed by an embedded SQLite database file.
//
// The database runs in WAL mode so the purge loop and CLI commands can read
// while the server writes. Each value is one row; a write replaces the row in
// a single statement, so a value is never observed half written.
//
// Expiry instants are stored as Unix milliseconds (NULL = never expires).
type SQLite struct {
	conn *sql.DB
	path string
	now  func() time.Time
}

// Open creates or opens the database at path and initializes its schema.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	kv, err := store.Open("/var/lib/ielts/state.db")
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
func Open(path string, opts ...Option) (*SQLite, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(8)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &SQLite{
		conn: conn,
		path: path,
		now:  o.now,
	}

	// Enable WAL mode for concurrent reads
	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set busy timeout to 5 seconds
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		expires_at INTEGER,  -- unix millis, NULL = never
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_kv_expires ON kv(expires_at);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Get implements KV.Get.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.conn == nil {
		return nil, false, ErrClosed
	}

	var value []byte
	var expiresAt sql.NullInt64
	err := s.conn.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get %s: %w", key, err)
	}

	if expired(millisToTime(expiresAt), s.now()) {
		return nil, false, nil
	}
	return value, true, nil
}

// Set implements KV.Set.
func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.conn == nil {
		return ErrClosed
	}

	now := s.now()
	query := `
	INSERT INTO kv (key, value, expires_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		value = excluded.value,
		expires_at = excluded.expires_at,
		updated_at = excluded.updated_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		key,
		value,
		timeToMillis(expiry(now, ttl)),
		now.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete implements KV.Delete.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if s.conn == nil {
		return ErrClosed
	}

	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PurgeExpired implements KV.PurgeExpired.
func (s *SQLite) PurgeExpired(ctx context.Context) (int, error) {
	if s.conn == nil {
		return 0, ErrClosed
	}

	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired values: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged values: %w", err)
	}
	return int(n), nil
}

// Close checkpoints the WAL and closes the database.
func (s *SQLite) Close() error {
	if s.conn == nil {
		return nil
	}

	// Checkpoint WAL before closing
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

func timeToMillis(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func millisToTime(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.UnixMilli(n.Int64)
}
