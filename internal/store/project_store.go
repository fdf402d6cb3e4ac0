// Package store persists canvasmind projects in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"canvasmind/internal/logging"
	"canvasmind/internal/types"
)

// =============================================================================
// PROJECT STORE
// =============================================================================

// ProjectStore implements types.ProjectPersistence on SQLite.
// Timestamps are stored as Unix nanoseconds so they round-trip exactly.
type ProjectStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewProjectStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func NewProjectStore(path string) (*ProjectStore, error) {
	timer := logging.StartTimer(logging.CategoryStore, "NewProjectStore")
	defer timer.Stop()

	logging.Store("Initializing ProjectStore at path: %s", path)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			logging.StoreError("Failed to create directory %s: %v", dir, err)
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		logging.StoreError("Failed to open database at %s: %v", path, err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.StoreDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.StoreDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logging.StoreDebug("Failed to enable foreign keys: %v", err)
	}

	s := &ProjectStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		logging.StoreError("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.StoreDebug("Project schema initialized")
	return s, nil
}

func (s *ProjectStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		title TEXT NOT NULL,
		concept TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		revision INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_projects_session ON projects(session_id);

	CREATE TABLE IF NOT EXISTS artifacts (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		PRIMARY KEY (project_id, seq)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create project schema: %w", err)
	}
	return runMigrations(s.db)
}

// Close closes the database.
func (s *ProjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveProject upserts the project and replaces its artifact list in one
// transaction. A snapshot with a lower revision than the stored row is
// skipped, so overlapping saves of one project cannot roll it back.
func (s *ProjectStore) SaveProject(ctx context.Context, p *types.Project) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("save project: missing id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	logging.StoreDebug("Saving project %s (session=%s artifacts=%d)", p.ID, p.SessionID, len(p.Artifacts))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO projects (id, session_id, title, concept, created_at, updated_at, revision)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   session_id = excluded.session_id,
		   title = excluded.title,
		   concept = excluded.concept,
		   updated_at = excluded.updated_at,
		   revision = excluded.revision
		 WHERE excluded.revision >= projects.revision`,
		p.ID, p.SessionID, p.Title, p.Concept, toUnix(p.CreatedAt), toUnix(p.UpdatedAt), p.Revision,
	)
	if err != nil {
		logging.StoreError("Failed to upsert project %s: %v", p.ID, err)
		return fmt.Errorf("upsert project: %w", err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	if changed == 0 {
		logging.StoreDebug("Skipping stale save of project %s (revision %d)", p.ID, p.Revision)
		return nil
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM artifacts WHERE project_id = ?", p.ID); err != nil {
		return fmt.Errorf("clear artifacts: %w", err)
	}
	for i, a := range p.Artifacts {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO artifacts (project_id, seq, type, description, created_at) VALUES (?, ?, ?, ?, ?)",
			p.ID, i, string(a.Type), a.Description, toUnix(a.CreatedAt),
		)
		if err != nil {
			logging.StoreError("Failed to insert artifact %d of %s: %v", i, p.ID, err)
			return fmt.Errorf("insert artifact: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// LoadProjects returns every project of the session ordered by creation.
func (s *ProjectStore) LoadProjects(ctx context.Context, sessionID string) ([]*types.Project, error) {
	timer := logging.StartTimer(logging.CategoryStore, "LoadProjects")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, title, concept, created_at, updated_at, revision
		 FROM projects WHERE session_id = ?
		 ORDER BY created_at, id`,
		sessionID,
	)
	if err != nil {
		logging.StoreError("Failed to query projects for %s: %v", sessionID, err)
		return nil, fmt.Errorf("query projects: %w", err)
	}

	var projects []*types.Project
	byID := make(map[string]*types.Project)
	for rows.Next() {
		var p types.Project
		var created, updated int64
		if err := rows.Scan(&p.ID, &p.SessionID, &p.Title, &p.Concept, &created, &updated, &p.Revision); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = fromUnix(created)
		p.UpdatedAt = fromUnix(updated)
		p.Artifacts = []types.Artifact{}
		projects = append(projects, &p)
		byID[p.ID] = &p
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	rows.Close()

	if len(projects) == 0 {
		return nil, nil
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT a.project_id, a.type, a.description, a.created_at
		 FROM artifacts a JOIN projects p ON p.id = a.project_id
		 WHERE p.session_id = ?
		 ORDER BY a.project_id, a.seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var projectID, kind, desc string
		var created int64
		if err := arows.Scan(&projectID, &kind, &desc, &created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		if p, ok := byID[projectID]; ok {
			p.Artifacts = append(p.Artifacts, types.Artifact{
				Type:        types.ArtifactType(kind),
				Description: desc,
				CreatedAt:   fromUnix(created),
			})
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}

	logging.StoreDebug("Loaded %d projects for session %s", len(projects), sessionID)
	return projects, nil
}

// CountProjects returns the number of stored projects.
func (s *ProjectStore) CountProjects(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
