package pricecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
	"mandiprice/internal/agmarknet"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS market_cache (
    state        TEXT NOT NULL,
    commodity    TEXT NOT NULL,
    data         TEXT NOT NULL,
    timestamp    INTEGER NOT NULL,
    last_updated TEXT NOT NULL,
    PRIMARY KEY (state, commodity)
);`

// SQLiteStore persists durable cache records in a local SQLite database,
// one row per (state, commodity).
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (and creates if needed) the database at path.
// A "file:" URI is passed through untouched so tests can use in-memory
// databases.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if !strings.HasPrefix(path, "file:") {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("resolve store path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
		path = abs
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// modernc sqlite is single-writer; a small pool avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping store: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Read(ctx context.Context, state, commodity string) (*DurableRecord, error) {
	var (
		data        string
		timestamp   int64
		lastUpdated string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, timestamp, last_updated FROM market_cache WHERE state = ? AND commodity = ?`,
		state, commodity,
	).Scan(&data, &timestamp, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read market cache: %w", err)
	}

	var payload agmarknet.Response
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return nil, fmt.Errorf("decode cached payload: %w", err)
	}
	return &DurableRecord{Data: &payload, Timestamp: timestamp, LastUpdated: lastUpdated}, nil
}

func (s *SQLiteStore) Write(ctx context.Context, state, commodity string, payload *agmarknet.Response) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO market_cache (state, commodity, data, timestamp, last_updated)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (state, commodity) DO UPDATE SET
		     data = excluded.data,
		     timestamp = excluded.timestamp,
		     last_updated = excluded.last_updated`,
		state, commodity, string(data), now.UnixMilli(), now.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("write market cache: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
