package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"crypto_tycoon/internal/domain"
	"crypto_tycoon/internal/event"
)

// MemoryDSN keeps the journal inside the process.
const MemoryDSN = ":memory:"

const sessionKeyPrefix = "session:"

// ErrSessionNotFound is returned when no metadata exists for a session id.
var ErrSessionNotFound = errors.New("session not found")

// EventStore is the SQLite session journal. Every event is appended before the
// session applies it, so a session can be rebuilt from its seed and events.
type EventStore struct {
	db       *sql.DB
	inMemory bool
}

// NewEventStore opens the journal. An empty dsn means MemoryDSN.
func NewEventStore(dsn string) (*EventStore, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// A single connection serializes writers from all sessions and keeps an
	// in-memory database alive for the life of the pool.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;", // 2MB cache
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			type INTEGER NOT NULL,
			ts INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (session_id, seq)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create events table: %w", err)
	}

	return &EventStore{db: db, inMemory: dsn == MemoryDSN}, nil
}

// InMemory reports whether the journal dies with the process.
func (s *EventStore) InMemory() bool {
	return s.inMemory
}

// SaveEvent appends an event to the session's journal.
func (s *EventStore) SaveEvent(ctx context.Context, sessionID string, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO events (session_id, seq, type, ts, payload) VALUES (?, ?, ?, ?, ?)",
		sessionID, ev.GetSeq(), ev.GetType(), ev.GetTs(), payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *EventStore) UpsertMetadata(ctx context.Context, key, value string, ts int64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		key, value, ts,
	)
	return err
}

// GetMetadata retrieves a value from the metadata table.
func (s *EventStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SaveSessionInfo records what is needed to rebuild a session.
func (s *EventStore) SaveSessionInfo(ctx context.Context, info domain.SessionInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal session info: %w", err)
	}
	if err := s.UpsertMetadata(ctx, sessionKeyPrefix+info.ID, string(b), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to save session info: %w", err)
	}
	return nil
}

// LoadSessionInfo returns the stored session info or ErrSessionNotFound.
func (s *EventStore) LoadSessionInfo(ctx context.Context, sessionID string) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	raw, err := s.GetMetadata(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		return info, fmt.Errorf("failed to read session info: %w", err)
	}
	if raw == "" {
		return info, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return info, fmt.Errorf("failed to unmarshal session info: %w", err)
	}
	return info, nil
}

// Sessions lists every journaled session, oldest first.
func (s *EventStore) Sessions(ctx context.Context) ([]domain.SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM metadata WHERE key LIKE ? ORDER BY updated_at ASC, key ASC",
		sessionKeyPrefix+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionInfo
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		var info domain.SessionInfo
		if err := json.Unmarshal([]byte(value), &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", strings.TrimPrefix(key, sessionKeyPrefix), err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

// GetLastSeq returns the highest sequence number journaled for a session.
// Returns 0 if no events exist.
func (s *EventStore) GetLastSeq(ctx context.Context, sessionID string) (uint64, error) {
	var lastSeq sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT MAX(seq) FROM events WHERE session_id = ?", sessionID).Scan(&lastSeq)
	if err != nil {
		return 0, fmt.Errorf("failed to get last seq: %w", err)
	}
	if !lastSeq.Valid {
		return 0, nil
	}
	return uint64(lastSeq.Int64), nil
}

// LoadEvents loads a session's events starting from fromSeq (inclusive), in
// sequence order. Used by the Replayer to reconstruct state.
func (s *EventStore) LoadEvents(ctx context.Context, sessionID string, fromSeq uint64) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT seq, type, payload FROM events WHERE session_id = ? AND seq >= ? ORDER BY seq ASC",
		sessionID, fromSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var seq int64
		var evType int
		var payload []byte

		if err := rows.Scan(&seq, &evType, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		ev, err := event.Decode(event.Type(evType), payload)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", seq, err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return events, nil
}

// DeleteSession drops a session's events and metadata in one transaction.
func (s *EventStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM events WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete events: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM metadata WHERE key = ?", sessionKeyPrefix+sessionID); err != nil {
		return fmt.Errorf("failed to delete session info: %w", err)
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *EventStore) Close() error {
	return s.db.Close()
}
