package storage

import (
	"context"
	"errors"
	"fmt"
	"notifier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seen_records (
	key         TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	identity    TEXT NOT NULL,
	seen        BOOLEAN NOT NULL DEFAULT FALSE,
	accepted    BOOLEAN NOT NULL DEFAULT FALSE,
	answer      TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS settings (
	name  TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// PostgresStorage persists seen records in PostgreSQL through a pgx pool.
// Useful when several host processes share one seen-state.
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// NewPostgresStorage creates a new PostgreSQL storage instance and ensures the schema exists.
func NewPostgresStorage(config Config) (*PostgresStorage, error) {
	if config.ConnectionString == "" {
		return nil, fmt.Errorf("connection string is required for PostgreSQL storage")
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if config.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = config.ConnMaxLifetime
	}

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// GetSeen returns the record stored for key.
func (ps *PostgresStorage) GetSeen(ctx context.Context, key models.SeenKey) (*models.SeenRecord, error) {
	var (
		rec    models.SeenRecord
		answer string
	)
	err := ps.pool.QueryRow(ctx,
		`SELECT seen, accepted, answer, recorded_at FROM seen_records WHERE key = $1`,
		key.String(),
	).Scan(&rec.Seen, &rec.Accepted, &answer, &rec.RecordedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get seen record %s: %w", key, err)
	}
	rec.Answer = models.RateAnswer(answer)
	rec.RecordedAt = rec.RecordedAt.UTC()
	return &rec, nil
}

// SetSeen stores or replaces the record for key (upsert pattern).
func (ps *PostgresStorage) SetSeen(ctx context.Context, key models.SeenKey, record models.SeenRecord) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO seen_records (key, kind, identity, seen, accepted, answer, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (key) DO UPDATE SET
			seen = EXCLUDED.seen,
			accepted = EXCLUDED.accepted,
			answer = EXCLUDED.answer,
			recorded_at = EXCLUDED.recorded_at`,
		key.String(), string(key.Kind), key.Identity,
		record.Seen, record.Accepted, string(record.Answer), record.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save seen record %s: %w", key, err)
	}
	return nil
}

// GetSetting returns the value stored under name.
func (ps *PostgresStorage) GetSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := ps.pool.QueryRow(ctx, `SELECT value FROM settings WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get setting %s: %w", name, err)
	}
	return value, nil
}

// SetSetting stores value under name.
func (ps *PostgresStorage) SetSetting(ctx context.Context, name, value string) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO settings (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`,
		name, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", name, err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (ps *PostgresStorage) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

// Close closes the connection pool.
func (ps *PostgresStorage) Close() error {
	ps.pool.Close()
	return nil
}
