package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"notifier/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_records (
	key         TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	identity    TEXT NOT NULL,
	seen        INTEGER NOT NULL DEFAULT 0,
	accepted    INTEGER NOT NULL DEFAULT 0,
	answer      TEXT NOT NULL DEFAULT '',
	recorded_at TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS settings (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteStorage persists seen records in a local SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the configured DSN,
// enables WAL mode and creates the schema.
func NewSQLiteStorage(config Config) (*SQLiteStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for SQLite storage")
	}

	db, err := sql.Open("sqlite", config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer; unless told otherwise keep one connection.
	maxOpen := config.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// GetSeen returns the record stored for key
func (ss *SQLiteStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	var (
		seen, accepted int
		answer, at     string
	)
	err := ss.db.QueryRowContext(ctx,
		`SELECT seen, accepted, answer, recorded_at FROM seen_records WHERE key = ?`,
		key.String(),
	).Scan(&seen, &accepted, &answer, &at)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get seen record %s: %w", key, err)
	}

	recordedAt, err := parseTimestamp(at)
	if err != nil {
		return nil, err
	}

	return &models.SeenRecord{
		Seen:       seen != 0,
		Accepted:   accepted != 0,
		Answer:     models.RateAnswer(answer),
		RecordedAt: recordedAt,
	}, nil
}

// SetSeen stores or replaces the record for key
func (ss *SQLiteStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO seen_records (key, kind, identity, seen, accepted, answer, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			seen = excluded.seen,
			accepted = excluded.accepted,
			answer = excluded.answer,
			recorded_at = excluded.recorded_at`,
		key.String(), string(key.Kind), key.Identity,
		boolToInt(record.Seen), boolToInt(record.Accepted),
		string(record.Answer), formatTimestamp(record.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save seen record %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the value stored under name
func (ss *SQLiteStorage) GetSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := ss.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", name, err)
	}
	return value, nil
}

// SetSetting stores value under name
func (ss *SQLiteStorage) SetSetting(ctx context.Context, name, value string) error {
	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO settings (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (ss *SQLiteStorage) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

// Close closes the storage connection
func (ss *SQLiteStorage) Close() error {
	return ss.db.Close()
}
