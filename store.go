package folioadmin

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/eringen/folioadmin/entity"
)

// atLayout is fixed-width so timestamps sort as text.
const atLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Journal is where successful mutations are recorded for the home page.
type Journal interface {
	entity.Journal
	Recent(ctx context.Context, limit int) ([]entity.Activity, error)
	Close() error
}

// Store wraps a SQLite database holding the activity journal.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, eris.Wrapf(err, "creating directory for %s", path)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "opening %s", path)
	}
	// WAL lets the home page read while a mutation writes; writers wait
	// instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "configuring sqlite")
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS activity (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    entity TEXT NOT NULL,
    action TEXT NOT NULL,
    row_id TEXT NOT NULL,
    actor TEXT NOT NULL DEFAULT '',
    at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS activity_at ON activity (at DESC);
`)
	if err != nil {
		return eris.Wrap(err, "creating activity table")
	}
	return nil
}

// Record appends a to the journal.
func (s *Store) Record(ctx context.Context, a entity.Activity) error {
	if a.At.IsZero() {
		a.At = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity (entity, action, row_id, actor, at) VALUES (?, ?, ?, ?, ?)`,
		a.Entity, a.Action, a.RowID, a.Actor, a.At.UTC().Format(atLayout),
	)
	if err != nil {
		return eris.Wrap(err, "recording activity")
	}
	return nil
}

// Recent returns the latest limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]entity.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity, action, row_id, actor, at FROM activity ORDER BY at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "listing activity")
	}
	defer rows.Close()

	var out []entity.Activity
	for rows.Next() {
		var (
			a  entity.Activity
			at string
		)
		if err := rows.Scan(&a.Entity, &a.Action, &a.RowID, &a.Actor, &at); err != nil {
			return nil, eris.Wrap(err, "scanning activity")
		}
		a.At, _ = time.Parse(atLayout, at)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "listing activity")
	}
	return out, nil
}
