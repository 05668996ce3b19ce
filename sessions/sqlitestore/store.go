package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/counsellor-web/sessions"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS session_state (
	key_hash   TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	updated_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
)`

var _ sessions.Repo = (*Store)(nil)

// Store provides SQLite-backed persistence for session state.
type Store struct {
	sqlDB *sql.DB
	ttl   time.Duration
	now   func() time.Time
}

type Option func(*Store)

// WithTTL sets how long a saved state stays loadable. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Open opens (creating if needed) and migrates a session SQLite store.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{sqlDB: sqlDB, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load returns the state saved under key unless it has expired.
func (s *Store) Load(ctx context.Context, key string) (sessions.State, bool, error) {
	if s == nil || s.sqlDB == nil {
		return sessions.State{}, false, fmt.Errorf("storage is not configured")
	}
	if key == "" {
		return sessions.State{}, false, fmt.Errorf("key is required")
	}

	var payload []byte
	var expiresAt int64
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload, expires_at FROM session_state WHERE key_hash = ?`,
		hashKey(key),
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return sessions.State{}, false, nil
	}
	if err != nil {
		return sessions.State{}, false, fmt.Errorf("get session state: %w", err)
	}

	if expiresAt > 0 && s.now().UnixMilli() >= expiresAt {
		return sessions.State{}, false, nil
	}

	st, err := sessions.Unmarshal(payload)
	if err != nil {
		return sessions.State{}, false, err
	}
	return st, true, nil
}

// Save upserts the state under key.
func (s *Store) Save(ctx context.Context, key string, state sessions.State) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}

	payload, err := sessions.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	now := s.now()
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl).UnixMilli()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO session_state (key_hash, payload, updated_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(key_hash) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		hashKey(key), payload, now.UnixMilli(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("put session state: %w", err)
	}
	return nil
}

// Delete removes the state saved under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if key == "" {
		return fmt.Errorf("key is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM session_state WHERE key_hash = ?`, hashKey(key)); err != nil {
		return fmt.Errorf("delete session state: %w", err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were removed.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	res, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM session_state WHERE expires_at > 0 AND expires_at <= ?`,
		s.now().UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge session state: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the underlying SQLite connection.
// Health pings the database
func (s *Store) Health(ctx context.Context) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func hashKey(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
