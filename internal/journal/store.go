// Package journal keeps per-session chat transcripts in a private
// in-memory SQLite database. Nothing survives a restart.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Roles accepted by Append.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidEntry is returned for a blank session id or an unknown role.
var ErrInvalidEntry = errors.New("journal: invalid entry")

// ─── Types ───────────────────────────────────────────────────────────────────

// Entry is one transcript turn.
type Entry struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// SessionSummary is a compact view of a session with its turn count.
type SessionSummary struct {
	ID        string `json:"id"`
	StartedAt string `json:"started_at"`
	Turns     int    `json:"turns"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	// MaxTurns is how many turns are kept per session; older ones are pruned.
	MaxTurns int
	// MaxContentLength truncates long turns.
	MaxContentLength int
}

// DefaultConfig returns the default journal configuration.
func DefaultConfig() Config {
	return Config{
		MaxTurns:         40,
		MaxContentLength: 4000,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the transcript journal.
type Store struct {
	db  *sql.DB
	cfg Config
}

// New opens a fresh in-memory database.
func New(cfg Config) (*Store, error) {
	def := DefaultConfig()
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = def.MaxTurns
	}
	if cfg.MaxContentLength <= 0 {
		cfg.MaxContentLength = def.MaxContentLength
	}

	db, err := openDB("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	// Every pooled connection to :memory: would be its own database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT PRIMARY KEY,
			started_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS turns (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			role       TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
			content    TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Turns ───────────────────────────────────────────────────────────────────

// Append records one turn and prunes the session to MaxTurns.
func (s *Store) Append(ctx context.Context, sessionID, role, content string) (int64, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return 0, fmt.Errorf("%w: session id is required", ErrInvalidEntry)
	}
	if role != RoleUser && role != RoleAssistant {
		return 0, fmt.Errorf("%w: role %q", ErrInvalidEntry, role)
	}
	content = Truncate(content, s.cfg.MaxContentLength)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("journal: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO sessions (id) VALUES (?)`, sessionID); err != nil {
		return 0, fmt.Errorf("journal: create session: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID, role, content,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: insert turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("journal: turn id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM turns
		WHERE session_id = ? AND id NOT IN (
			SELECT id FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?
		)`,
		sessionID, sessionID, s.cfg.MaxTurns,
	); err != nil {
		return 0, fmt.Errorf("journal: prune: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("journal: commit: %w", err)
	}
	return id, nil
}

// History returns the last limit turns of a session, oldest first.
// A non-positive limit means MaxTurns. Unknown sessions have no history.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.cfg.MaxTurns {
		limit = s.cfg.MaxTurns
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at
			FROM turns WHERE session_id = ?
			ORDER BY id DESC LIMIT ?
		) ORDER BY id ASC`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Role, &e.Content, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sessions lists every session, most recently active first.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, COUNT(t.id) AS turns
		FROM sessions s
		LEFT JOIN turns t ON t.session_id = s.id
		GROUP BY s.id
		ORDER BY MAX(COALESCE(t.id, 0)) DESC, s.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("journal: sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionSummary
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.StartedAt, &ss.Turns); err != nil {
			return nil, err
		}
		out = append(out, ss)
	}
	return out, rows.Err()
}

// Clear deletes a session and its turns.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("journal: clear: %w", err)
	}
	return nil
}

// Truncate shortens a string to max bytes with an ellipsis, keeping
// whole UTF-8 runes.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
