package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
	_ "modernc.org/sqlite"

	"lexdesk/internal/types"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	payload BLOB NOT NULL,
	PRIMARY KEY (collection, id)
)`

type sqliteRepository struct {
	collections
	db *sql.DB
}

func NewSQLiteRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 2000`); err != nil {
		return nil, multierr.Append(fmt.Errorf("configure sqlite: %w", err), db.Close())
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, multierr.Append(fmt.Errorf("create records table: %w", err), db.Close())
	}
	return &sqliteRepository{
		db: db,
		collections: collections{
			cases:     &SQLiteEntityStore[*types.Case]{db: db, schema: CaseSchema},
			clients:   &SQLiteEntityStore[*types.Client]{db: db, schema: ClientSchema},
			documents: &SQLiteEntityStore[*types.Document]{db: db, schema: DocumentSchema},
			tasks:     &SQLiteEntityStore[*types.Task]{db: db, schema: TaskSchema},
		},
	}, nil
}

func (r *sqliteRepository) Backend() string {
	return RepositoryBackendSQLite
}

func (r *sqliteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

type SQLiteEntityStore[T types.Entity] struct {
	db     *sql.DB
	schema Schema[T]
}

func (s *SQLiteEntityStore[T]) List(ctx context.Context) ([]T, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE collection = ? ORDER BY created_at, id`, s.schema.Name)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.schema.Name, err)
	}
	defer func() { _ = rows.Close() }()
	out := make([]T, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		item := s.schema.New()
		if err := json.Unmarshal(payload, item); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.schema.Name, err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (s *SQLiteEntityStore[T]) Get(ctx context.Context, id string) (T, bool, error) {
	var zero T
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE collection = ? AND id = ?`, s.schema.Name, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	item := s.schema.New()
	if err := json.Unmarshal(payload, item); err != nil {
		return zero, false, fmt.Errorf("decode %s: %w", s.schema.Name, err)
	}
	return item, true, nil
}

func (s *SQLiteEntityStore[T]) Upsert(ctx context.Context, item T) (T, error) {
	var zero T
	id, err := s.schema.key(item)
	if err != nil {
		return zero, err
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return zero, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO records (collection, id, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET created_at = excluded.created_at, payload = excluded.payload`,
		s.schema.Name, id, createdOrder(s.schema.Created(item)), payload)
	if err != nil {
		return zero, fmt.Errorf("upsert %s: %w", s.schema.Name, err)
	}
	return s.schema.Clone(item), nil
}

func (s *SQLiteEntityStore[T]) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, s.schema.Name, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.schema.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func createdOrder(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}
