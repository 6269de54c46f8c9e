/*
Package storage provides tests for the index store.
*/
package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/khanglvm/movie-picker/internal/similarity"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "index.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testIndex(t *testing.T, kind similarity.Kind) *similarity.Index {
	t.Helper()
	third := 1.0 / 3.0
	idx, err := similarity.New(kind, []string{"Toy Story (1995)", "Heat (1995)", "Aladdin (1992)"}, []float64{
		1, 0.1, third,
		0.1, 1, -0.7071067811865476,
		third, -0.7071067811865476, 1,
	})
	if err != nil {
		t.Fatalf("similarity.New failed: %v", err)
	}
	return idx
}

// TestInit verifies database initialization and schema creation.
func TestInit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store := NewStore(dbPath)

	if err := store.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}

	// Second Init is a no-op.
	if err := store.Init(); err != nil {
		t.Errorf("second Init failed: %v", err)
	}

	var version int
	if err := store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		t.Fatalf("failed to read migration version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected migration version 1, got %d", version)
	}
}

func TestInitEmptyPath(t *testing.T) {
	if err := NewStore("").Init(); err == nil {
		t.Error("expected error for empty path")
	}
}

// TestSaveLoadRoundTrip verifies values come back bit-for-bit.
func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	idx := testIndex(t, similarity.KindCosine)

	saved, err := store.SaveIndex(ctx, idx, Meta{Name: "movies", Threshold: 100})
	if err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}
	if saved.BuildID == "" {
		t.Error("expected generated build id")
	}
	if saved.Dim != 3 || saved.Kind != "cosine" {
		t.Errorf("unexpected metadata %+v", saved)
	}

	loaded, meta, err := store.LoadIndex(ctx, "movies")
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if meta.BuildID != saved.BuildID || meta.Threshold != 100 {
		t.Errorf("metadata mismatch: saved %+v, loaded %+v", saved, meta)
	}
	if !meta.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("created_at mismatch: %v vs %v", meta.CreatedAt, saved.CreatedAt)
	}
	if loaded.Kind() != similarity.KindCosine {
		t.Errorf("kind = %s, want cosine", loaded.Kind())
	}

	for i := 0; i < idx.Dim(); i++ {
		if loaded.Title(i) != idx.Title(i) {
			t.Errorf("title %d = %q, want %q", i, loaded.Title(i), idx.Title(i))
		}
		for j := 0; j < idx.Dim(); j++ {
			if loaded.At(i, j) != idx.At(i, j) {
				t.Errorf("S[%d][%d] = %v, want %v", i, j, loaded.At(i, j), idx.At(i, j))
			}
		}
	}
}

func TestSaveReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.SaveIndex(ctx, testIndex(t, similarity.KindCosine), Meta{Name: "movies"})
	if err != nil {
		t.Fatalf("first SaveIndex failed: %v", err)
	}

	small, err := similarity.New(similarity.KindContent, []string{"Heat (1995)"}, []float64{1})
	if err != nil {
		t.Fatalf("similarity.New failed: %v", err)
	}
	second, err := store.SaveIndex(ctx, small, Meta{Name: "movies", BuildID: "fixed"})
	if err != nil {
		t.Fatalf("second SaveIndex failed: %v", err)
	}
	if second.BuildID != "fixed" || second.BuildID == first.BuildID {
		t.Errorf("unexpected build id %q", second.BuildID)
	}

	loaded, meta, err := store.LoadIndex(ctx, "movies")
	if err != nil {
		t.Fatalf("LoadIndex failed: %v", err)
	}
	if loaded.Dim() != 1 || meta.Kind != "content" {
		t.Errorf("expected replaced content index of dim 1, got %s dim %d", meta.Kind, loaded.Dim())
	}
}

func TestLoadMissingIndex(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.LoadIndex(context.Background(), "nope")
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
	if err := store.DeleteIndex(context.Background(), "nope"); !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound on delete, got %v", err)
	}
}

func TestLoadRejectsCorruptRows(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveIndex(ctx, testIndex(t, similarity.KindCosine), Meta{Name: "movies"}); err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}
	if _, err := store.db.Exec("UPDATE index_rows SET vector = '[1, 0.5, 0.2]' WHERE name = 'movies' AND pos = 0"); err != nil {
		t.Fatalf("failed to corrupt row: %v", err)
	}

	if _, _, err := store.LoadIndex(ctx, "movies"); err == nil {
		t.Error("expected asymmetric index to be rejected")
	}
}

func TestListAndDeleteIndexes(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	metas, err := store.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes failed: %v", err)
	}
	if len(metas) != 0 {
		t.Errorf("expected no indexes, got %d", len(metas))
	}

	for _, name := range []string{"a", "b"} {
		if _, err := store.SaveIndex(ctx, testIndex(t, similarity.KindContent), Meta{Name: name}); err != nil {
			t.Fatalf("SaveIndex(%s) failed: %v", name, err)
		}
	}

	metas, err = store.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 indexes, got %d", len(metas))
	}

	if err := store.DeleteIndex(ctx, "a"); err != nil {
		t.Fatalf("DeleteIndex failed: %v", err)
	}
	metas, err = store.ListIndexes(ctx)
	if err != nil {
		t.Fatalf("ListIndexes failed: %v", err)
	}
	if len(metas) != 1 || metas[0].Name != "b" {
		t.Errorf("expected only b to remain, got %+v", metas)
	}

	var rows int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM index_rows WHERE name = 'a'").Scan(&rows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 0 {
		t.Errorf("expected rows of a to be deleted, %d remain", rows)
	}
}

func TestSaveRequiresName(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SaveIndex(context.Background(), testIndex(t, similarity.KindCosine), Meta{}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestVectorJSONRoundTrip(t *testing.T) {
	in := []float64{0.1, 1.0 / 3.0, -0.7071067811865476, 1e-300, 0}
	s, err := vectorToJSON(in)
	if err != nil {
		t.Fatalf("vectorToJSON failed: %v", err)
	}
	out, err := jsonToVector(s)
	if err != nil {
		t.Fatalf("jsonToVector failed: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("value %d: %v != %v", i, in[i], out[i])
		}
	}
}
