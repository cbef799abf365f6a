package transcript

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

// Index is a local cache of discovered sessions so repeated listings do not
// rescan every transcript file. It holds no extraction state.
type Index struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenIndex opens (and if needed creates) the session index database. An
// empty path defaults to ~/.handoff/sessions.db.
func OpenIndex(path string) (*Index, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, ".handoff", "sessions.db")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (i *Index) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		tool        TEXT NOT NULL,
		work_dir    TEXT,
		repo        TEXT,
		branch      TEXT,
		line_count  INTEGER NOT NULL DEFAULT 0,
		byte_count  INTEGER NOT NULL DEFAULT 0,
		created_at  TIMESTAMP,
		updated_at  TIMESTAMP,
		path        TEXT NOT NULL,
		summary     TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at DESC);
	`
	if _, err := i.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return nil
}

// Upsert inserts or refreshes one session row. Idempotent for identical input.
func (i *Index) Upsert(s Session) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	_, err := i.db.Exec(`
		INSERT INTO sessions (id, tool, work_dir, repo, branch, line_count, byte_count, created_at, updated_at, path, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			tool = excluded.tool,
			work_dir = excluded.work_dir,
			repo = excluded.repo,
			branch = excluded.branch,
			line_count = excluded.line_count,
			byte_count = excluded.byte_count,
			updated_at = excluded.updated_at,
			path = excluded.path,
			summary = excluded.summary`,
		s.ID, s.Tool, s.WorkDir, s.Repo, s.Branch, s.LineCount, s.ByteCount,
		s.CreatedAt, s.UpdatedAt, s.Path, s.Summary)
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", s.ID, err)
	}
	return nil
}

// List returns cached sessions, most recently updated first.
func (i *Index) List(limit int) ([]Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	query := `SELECT id, tool, work_dir, repo, branch, line_count, byte_count, created_at, updated_at, path, summary
		FROM sessions ORDER BY updated_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := i.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		var created, updated sql.NullTime
		var workDir, repo, branch, summary sql.NullString
		if err := rows.Scan(&s.ID, &s.Tool, &workDir, &repo, &branch,
			&s.LineCount, &s.ByteCount, &created, &updated, &s.Path, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		s.WorkDir = workDir.String
		s.Repo = repo.String
		s.Branch = branch.String
		s.Summary = summary.String
		s.CreatedAt = created.Time
		s.UpdatedAt = updated.Time
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Get returns one cached session by ID.
func (i *Index) Get(id string) (*Session, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	row := i.db.QueryRow(`SELECT id, tool, work_dir, repo, branch, line_count, byte_count, created_at, updated_at, path, summary
		FROM sessions WHERE id = ?`, id)

	var s Session
	var created, updated sql.NullTime
	var workDir, repo, branch, summary sql.NullString
	err := row.Scan(&s.ID, &s.Tool, &workDir, &repo, &branch,
		&s.LineCount, &s.ByteCount, &created, &updated, &s.Path, &summary)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}
	s.WorkDir = workDir.String
	s.Repo = repo.String
	s.Branch = branch.String
	s.Summary = summary.String
	s.CreatedAt = created.Time
	s.UpdatedAt = updated.Time
	return &s, nil
}

// Prune removes sessions whose backing transcript no longer exists or that
// have not been updated within ttl.
func (i *Index) Prune(ttl time.Duration) (int64, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	res, err := i.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}
