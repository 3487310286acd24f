package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome values recorded for a turn
const (
	OutcomeOK = "ok"
)

// Entry represents a single query history entry
type Entry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Turn        int       `json:"turn"`
	Utterance   string    `json:"utterance"`
	Instruction string    `json:"instruction,omitempty"`
	Course      string    `json:"course,omitempty"`
	Filter      string    `json:"filter,omitempty"`
	UserList    bool      `json:"user_list"`
	// Outcome is OutcomeOK or the error code of the failure
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Store persists query history in SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// GetHistoryPath returns the default path to the history database
func GetHistoryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".learnq", "history.db"), nil
}

// Open opens or creates the history database at dbPath
func Open(dbPath string) (*Store, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the database schema
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER NOT NULL,
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		utterance TEXT NOT NULL,
		instruction TEXT NOT NULL DEFAULT '',
		course TEXT NOT NULL DEFAULT '',
		filter TEXT NOT NULL DEFAULT '',
		user_list INTEGER NOT NULL DEFAULT 0,
		outcome TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_queries_ts ON queries(ts);
	CREATE INDEX IF NOT EXISTS idx_queries_session ON queries(session_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Add records an entry. A zero Timestamp is set to now
func (s *Store) Add(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeOK
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (ts, session_id, turn, utterance, instruction, course, filter, user_list, outcome, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Timestamp.UnixNano(), e.SessionID, e.Turn, e.Utterance, e.Instruction, e.Course, e.Filter,
		boolToInt(e.UserList), e.Outcome, e.Error)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 20
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, session_id, turn, utterance, instruction, course, filter, user_list, outcome, error
		FROM queries
		ORDER BY ts DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var ts int64
		var userList int
		if err := rows.Scan(&e.ID, &ts, &e.SessionID, &e.Turn, &e.Utterance, &e.Instruction,
			&e.Course, &e.Filter, &userList, &e.Outcome, &e.Error); err != nil {
			return nil, fmt.Errorf("failed to read history row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.UserList = userList != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Count returns the number of stored entries
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queries`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Clear removes all entries
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM queries`)
	return err
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
