package db

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/epanner/shipfast-hack-25/internal/models"
)

// Store persists finished calls and their transcripts. Live session state
// stays in memory; rows are written at teardown.
type Store struct {
	Pool *pgxpool.Pool
}

// New connects with exponential backoff so the service survives the database
// coming up after it in a compose stack.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, policy); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SaveCall writes the call record and its transcript in one transaction.
func (s *Store) SaveCall(ctx context.Context, rec models.CallRecord, messages []models.TranscriptMessage) error {
	return s.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO calls (id, phone_number, caller_name, location, language, emergency_type, priority, duration_seconds, summary, dispatched_services, started_at, ended_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			rec.ID, rec.PhoneNumber, rec.CallerName, rec.Location, rec.Language, rec.EmergencyType,
			string(rec.Priority), rec.DurationSeconds, rec.Summary, rec.DispatchedServices, rec.StartedAt, rec.EndedAt)
		if err != nil {
			return err
		}

		rows := make([][]any, 0, len(messages))
		for i, m := range messages {
			rows = append(rows, []any{m.ID, rec.ID, i, string(m.Speaker), m.Text, m.Timestamp, m.OriginalLanguage, m.IsTranslated})
		}
		_, err = tx.CopyFrom(ctx, pgx.Identifier{"transcript_messages"},
			[]string{"id", "call_id", "position", "speaker", "text", "spoken_at", "original_language", "is_translated"},
			pgx.CopyFromRows(rows))
		return err
	})
}

// ListRecentCalls returns finished calls, newest first.
func (s *Store) ListRecentCalls(ctx context.Context, limit int) ([]models.CallRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, phone_number, caller_name, location, language, emergency_type, priority, duration_seconds, summary, dispatched_services, started_at, ended_at
		FROM calls ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CallRecord
	for rows.Next() {
		var rec models.CallRecord
		var priority string
		if err := rows.Scan(&rec.ID, &rec.PhoneNumber, &rec.CallerName, &rec.Location, &rec.Language,
			&rec.EmergencyType, &priority, &rec.DurationSeconds, &rec.Summary, &rec.DispatchedServices,
			&rec.StartedAt, &rec.EndedAt); err != nil {
			return nil, err
		}
		rec.Priority = models.Priority(priority)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// EnsureSchema creates the tables on first boot.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS calls (
			id TEXT PRIMARY KEY,
			phone_number TEXT NOT NULL,
			caller_name TEXT,
			location TEXT,
			language TEXT,
			emergency_type TEXT,
			priority TEXT,
			duration_seconds INT NOT NULL DEFAULT 0,
			summary TEXT,
			dispatched_services TEXT[],
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS transcript_messages (
			id TEXT PRIMARY KEY,
			call_id TEXT NOT NULL REFERENCES calls(id),
			position INT NOT NULL,
			speaker TEXT NOT NULL,
			text TEXT NOT NULL,
			spoken_at TEXT,
			original_language TEXT,
			is_translated BOOLEAN NOT NULL DEFAULT FALSE
		);
	`)
	return err
}
