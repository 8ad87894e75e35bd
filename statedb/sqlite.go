package statedb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ruteri/image-copyright-registry/interfaces"
	_ "modernc.org/sqlite"
)

// SQLiteJournal stores registry events in a SQLite database.
type SQLiteJournal struct {
	db  *sql.DB
	log *slog.Logger
}

var _ interfaces.EventJournal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens (or creates) the database at path and applies pending migrations.
func NewSQLiteJournal(path string, log *slog.Logger) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Debug("sqlite journal opened", "path", path)
	return &SQLiteJournal{db: db, log: log}, nil
}

func (j *SQLiteJournal) Append(ctx context.Context, ev interfaces.RegistryEvent) (interfaces.RegistryEvent, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return ev, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if ev.Seq == 0 {
		var last uint64
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM registry_events").Scan(&last); err != nil {
			return ev, fmt.Errorf("failed to read last sequence: %w", err)
		}
		ev.Seq = last + 1
	}

	payload, err := interfaces.EncodeEvent(ev)
	if err != nil {
		return ev, err
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO registry_events (seq, kind, image_id, payload) VALUES (?, ?, ?, ?)",
		ev.Seq, string(ev.Kind), ev.ID, payload)
	if err != nil {
		return ev, fmt.Errorf("failed to insert event %d: %w", ev.Seq, err)
	}

	if err := tx.Commit(); err != nil {
		return ev, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return ev, nil
}

func (j *SQLiteJournal) Replay(ctx context.Context, fn func(interfaces.RegistryEvent) error) error {
	events, err := j.query(ctx, "SELECT payload FROM registry_events ORDER BY seq ASC")
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := fn(ev); err != nil {
			return err
		}
	}
	return nil
}

func (j *SQLiteJournal) Since(ctx context.Context, afterSeq uint64, limit int) ([]interfaces.RegistryEvent, error) {
	if afterSeq >= maxSeq {
		return []interfaces.RegistryEvent{}, nil
	}
	if limit > 0 {
		return j.query(ctx, "SELECT payload FROM registry_events WHERE seq > ? ORDER BY seq ASC LIMIT ?", int64(afterSeq), limit)
	}
	return j.query(ctx, "SELECT payload FROM registry_events WHERE seq > ? ORDER BY seq ASC", int64(afterSeq))
}

func (j *SQLiteJournal) query(ctx context.Context, query string, args ...any) ([]interfaces.RegistryEvent, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []interfaces.RegistryEvent{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		ev, err := interfaces.DecodeEvent(payload)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
