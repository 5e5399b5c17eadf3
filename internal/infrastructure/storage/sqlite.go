package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/GriffinCanCode/dicthub/internal/shared/paths"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Values at least this long are zstd-compressed when compression is on.
// Plugin sources dominate the store and compress well.
const compressThreshold = 1024

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	Path     string
	Compress bool
}

// SQLite is a Store persisted in a single kv table.
type SQLite struct {
	db       *sql.DB
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// OpenSQLite opens (and creates if needed) the database at cfg.Path.
func OpenSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if cfg.Path != ":memory:" {
		if err := paths.EnsureDir(cfg.Path); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps ":memory:" databases coherent and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		compressed INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &SQLite{
		db:       db,
		compress: cfg.Compress,
		encoder:  encoder,
		decoder:  decoder,
	}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, error) {
	var (
		raw        []byte
		compressed bool
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, compressed FROM kv WHERE key = ?`, key).Scan(&raw, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return s.decode(raw, compressed)
}

func (s *SQLite) GetMany(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")

	rows, err := s.db.QueryContext(ctx, `SELECT key, value, compressed FROM kv WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("get many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			key        string
			raw        []byte
			compressed bool
		)
		if err := rows.Scan(&key, &raw, &compressed); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		value, err := s.decode(raw, compressed)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	raw := []byte(value)
	compressed := false
	if s.compress && len(raw) >= compressThreshold {
		raw = s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
		compressed = true
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO kv (key, value, compressed, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, compressed = excluded.compressed, updated_at = excluded.updated_at`,
		key, raw, compressed, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	s.decoder.Close()
	_ = s.encoder.Close()
	return s.db.Close()
}

func (s *SQLite) decode(raw []byte, compressed bool) (string, error) {
	if !compressed {
		return string(raw), nil
	}
	out, err := s.decoder.DecodeAll(raw, nil)
	if err != nil {
		return "", fmt.Errorf("decompress value: %w", err)
	}
	return string(out), nil
}
