package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"ytrss/internal/model"
	"ytrss/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Cache backed by a SQLite database. A zero TTL means
// entries never go stale.
type SQLite struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string, ttl time.Duration) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, ttl: ttl, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Lookup returns the identifier stored for a reference. An entry older than
// the TTL reads as a miss; the row itself stays until a revalidated Store
// overwrites it.
func (s *SQLite) Lookup(ctx context.Context, reference string) (model.ResolvedID, bool, error) {
	key := model.NormalizeReference(reference)
	row := s.db.QueryRowContext(ctx,
		`SELECT kind, identifier, resolved_at FROM resolutions WHERE reference = ?`, key,
	)

	var kindStr, value, resolvedStr string
	err := row.Scan(&kindStr, &value, &resolvedStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ResolvedID{}, false, nil
	}
	if err != nil {
		return model.ResolvedID{}, false, fmt.Errorf("scan resolution: %w", err)
	}

	if s.ttl > 0 {
		resolvedAt, err := time.Parse(timeLayout, resolvedStr)
		if err != nil || s.now().UTC().Sub(resolvedAt) > s.ttl {
			return model.ResolvedID{}, false, nil
		}
	}

	return model.ResolvedID{Kind: model.Kind(kindStr), Value: value}, true, nil
}

// Store records a resolution, replacing any previous entry for the key.
func (s *SQLite) Store(ctx context.Context, reference string, id model.ResolvedID) error {
	key := model.NormalizeReference(reference)
	now := s.now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolutions (reference, kind, identifier, resolved_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(reference) DO UPDATE SET
		   kind = excluded.kind, identifier = excluded.identifier, resolved_at = excluded.resolved_at`,
		key, string(id.Kind), id.Value, now,
	)
	if err != nil {
		return fmt.Errorf("store resolution: %w", err)
	}
	return nil
}

// Remove deletes the entry for a reference, if present.
func (s *SQLite) Remove(ctx context.Context, reference string) error {
	key := model.NormalizeReference(reference)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolutions WHERE reference = ?`, key); err != nil {
		return fmt.Errorf("remove resolution: %w", err)
	}
	return nil
}

// List returns all entries ordered by reference.
func (s *SQLite) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT reference, kind, identifier, resolved_at FROM resolutions ORDER BY reference`,
	)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kindStr, resolvedStr string
		if err := rows.Scan(&e.Reference, &kindStr, &e.ID.Value, &resolvedStr); err != nil {
			return nil, fmt.Errorf("scan resolution: %w", err)
		}
		e.ID.Kind = model.Kind(kindStr)
		e.ResolvedAt, _ = time.Parse(timeLayout, resolvedStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry.
func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resolutions`); err != nil {
		return fmt.Errorf("clear resolutions: %w", err)
	}
	return nil
}
