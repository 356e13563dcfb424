package checkpoint

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"tripagent/agent"
)

// SQLiteStore is a durable checkpointer backed by SQLite. Thread state is
// stored as one JSON document per thread id. All public methods are safe
// for concurrent use (SQLite serializes writes).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the checkpoint database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS thread_checkpoints (
		thread_id  TEXT PRIMARY KEY,
		state      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the stored state for a thread, or (nil, nil) when the
// thread has never been saved.
func (s *SQLiteStore) Load(threadID string) (*agent.ThreadState, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT state FROM thread_checkpoints WHERE thread_id = ?`, threadID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", threadID, err)
	}

	var state agent.ThreadState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("load %s: decode state: %w", threadID, err)
	}
	return &state, nil
}

// Save upserts the state snapshot for a thread.
func (s *SQLiteStore) Save(threadID string, state *agent.ThreadState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("save %s: encode state: %w", threadID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO thread_checkpoints (thread_id, state, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (thread_id) DO UPDATE
		 SET state = excluded.state, updated_at = excluded.updated_at`,
		threadID, string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", threadID, err)
	}
	return nil
}
