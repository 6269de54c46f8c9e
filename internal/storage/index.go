package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/movie-picker/internal/similarity"
)

// SaveIndex stores idx under meta.Name in a single transaction. Kind, Dim
// and CreatedAt are taken from the index and the clock; an empty BuildID is
// filled with a new UUID. The stored metadata is returned.
func (s *SQLiteStore) SaveIndex(ctx context.Context, idx *similarity.Index, meta Meta) (Meta, error) {
	if meta.Name == "" {
		return Meta{}, errors.New("index name is required")
	}
	db, err := s.conn()
	if err != nil {
		return Meta{}, err
	}

	meta.Kind = string(idx.Kind())
	meta.Dim = idx.Dim()
	meta.CreatedAt = time.Now().UTC().Truncate(time.Second)
	if meta.BuildID == "" {
		meta.BuildID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Meta{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_rows WHERE name = ?", meta.Name); err != nil {
		return Meta{}, fmt.Errorf("failed to clear index rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM indexes WHERE name = ?", meta.Name); err != nil {
		return Meta{}, fmt.Errorf("failed to clear index: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO indexes (name, kind, dim, build_id, threshold, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, meta.Name, meta.Kind, meta.Dim, meta.BuildID, meta.Threshold, meta.CreatedAt.Format(time.RFC3339)); err != nil {
		return Meta{}, fmt.Errorf("failed to insert index: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO index_rows (name, pos, title, vector) VALUES (?, ?, ?, ?)")
	if err != nil {
		return Meta{}, fmt.Errorf("failed to prepare row insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < idx.Dim(); i++ {
		vector, err := vectorToJSON(idx.Row(i))
		if err != nil {
			return Meta{}, err
		}
		if _, err := stmt.ExecContext(ctx, meta.Name, i, idx.Title(i), vector); err != nil {
			return Meta{}, fmt.Errorf("failed to insert row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Meta{}, fmt.Errorf("failed to commit index: %w", err)
	}

	s.logger.Info().
		Str("name", meta.Name).
		Str("kind", meta.Kind).
		Int("dim", meta.Dim).
		Str("build_id", meta.BuildID).
		Msg("index saved")

	return meta, nil
}

// LoadIndex reads the index stored under name and validates it.
func (s *SQLiteStore) LoadIndex(ctx context.Context, name string) (*similarity.Index, Meta, error) {
	db, err := s.conn()
	if err != nil {
		return nil, Meta{}, err
	}

	meta, err := scanMeta(db.QueryRowContext(ctx, `
		SELECT name, kind, dim, build_id, threshold, created_at
		FROM indexes WHERE name = ?
	`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Meta{}, fmt.Errorf("%w: %q", ErrIndexNotFound, name)
	}
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read index metadata: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT pos, title, vector FROM index_rows WHERE name = ? ORDER BY pos", name)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to query index rows: %w", err)
	}
	defer rows.Close()

	titles := make([]string, 0, meta.Dim)
	values := make([]float64, 0, meta.Dim*meta.Dim)
	for rows.Next() {
		var pos int
		var title, vectorJSON string
		if err := rows.Scan(&pos, &title, &vectorJSON); err != nil {
			return nil, Meta{}, fmt.Errorf("failed to scan index row: %w", err)
		}
		if pos != len(titles) {
			return nil, Meta{}, fmt.Errorf("index %q: missing row %d", name, len(titles))
		}

		vector, err := jsonToVector(vectorJSON)
		if err != nil {
			return nil, Meta{}, fmt.Errorf("index %q row %d: %w", name, pos, err)
		}
		if len(vector) != meta.Dim {
			return nil, Meta{}, fmt.Errorf("index %q row %d: %d values, want %d", name, pos, len(vector), meta.Dim)
		}

		titles = append(titles, title)
		values = append(values, vector...)
	}
	if err := rows.Err(); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read index rows: %w", err)
	}
	if len(titles) != meta.Dim {
		return nil, Meta{}, fmt.Errorf("index %q: %d rows, want %d", name, len(titles), meta.Dim)
	}

	idx, err := similarity.New(similarity.Kind(meta.Kind), titles, values)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("index %q is invalid: %w", name, err)
	}

	return idx, meta, nil
}

// ListIndexes returns metadata of every stored index, newest first.
func (s *SQLiteStore) ListIndexes(ctx context.Context) ([]Meta, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, kind, dim, build_id, threshold, created_at
		FROM indexes ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	metas := []Meta{}
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan index: %w", err)
		}
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}

// DeleteIndex removes the index stored under name.
func (s *SQLiteStore) DeleteIndex(ctx context.Context, name string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM index_rows WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete index rows: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM indexes WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %q", ErrIndexNotFound, name)
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMeta(row scanner) (Meta, error) {
	var meta Meta
	var createdAt string
	if err := row.Scan(&meta.Name, &meta.Kind, &meta.Dim, &meta.BuildID, &meta.Threshold, &createdAt); err != nil {
		return Meta{}, err
	}

	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Meta{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	meta.CreatedAt = t
	return meta, nil
}
