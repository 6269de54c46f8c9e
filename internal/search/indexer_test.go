package search

import (
	"testing"

	"github.com/khanglvm/movie-picker/internal/catalog"
)

func newTestIndexer(t *testing.T) *Indexer {
	t.Helper()

	cat, err := catalog.New([]catalog.Entry{
		{ID: 1, Title: "Toy Story (1995)", Genres: []string{"Adventure", "Animation", "Children", "Comedy"}},
		{ID: 2, Title: "Jumanji (1995)", Genres: []string{"Adventure", "Children", "Fantasy"}},
		{ID: 6, Title: "Heat (1995)", Genres: []string{"Action", "Crime", "Thriller"}},
		{ID: 588, Title: "Aladdin (1992)", Genres: []string{"Adventure", "Animation", "Children", "Comedy", "Musical"}},
		{ID: 3114, Title: "Toy Story 2 (1999)", Genres: []string{"Adventure", "Animation", "Children", "Comedy", "Fantasy"}},
		{ID: 9000, Title: "Untitled (2001)"},
	})
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	indexer, err := NewIndexer()
	if err != nil {
		t.Fatalf("failed to create indexer: %v", err)
	}
	t.Cleanup(func() { indexer.Close() })

	if err := indexer.IndexCatalog(cat); err != nil {
		t.Fatalf("failed to index catalog: %v", err)
	}
	return indexer
}

func TestIndexCatalog(t *testing.T) {
	indexer := newTestIndexer(t)

	count, err := indexer.Count()
	if err != nil {
		t.Fatalf("failed to get count: %v", err)
	}
	if count != 6 {
		t.Errorf("expected 6 indexed movies, got %d", count)
	}
}

func TestSearchTitles(t *testing.T) {
	indexer := newTestIndexer(t)

	tests := []struct {
		name    string
		keyword string
		want    []string
	}{
		{"exact word", "heat", []string{"Heat (1995)"}},
		{"case insensitive", "ALADDIN", []string{"Aladdin (1992)"}},
		{"typo", "jumanjy", []string{"Jumanji (1995)"}},
		{"prefix", "alad", []string{"Aladdin (1992)"}},
		{"two words with partial last", "toy sto", []string{"Toy Story (1995)", "Toy Story 2 (1999)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := indexer.SearchTitles(tt.keyword, 10)
			if err != nil {
				t.Fatalf("search failed: %v", err)
			}

			got := make(map[string]bool)
			for _, r := range results {
				got[r.Title] = true
			}
			for _, title := range tt.want {
				if !got[title] {
					t.Errorf("expected %q in results for %q, got %+v", title, tt.keyword, results)
				}
			}
			if len(results) != len(tt.want) {
				t.Errorf("expected %d results for %q, got %d", len(tt.want), tt.keyword, len(results))
			}
		})
	}
}

func TestSearchResultFields(t *testing.T) {
	indexer := newTestIndexer(t)

	results, err := indexer.SearchTitles("heat", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %d", len(results))
	}

	r := results[0]
	if r.ID != 6 {
		t.Errorf("expected id 6, got %d", r.ID)
	}
	if len(r.Genres) != 3 || r.Genres[0] != "Action" {
		t.Errorf("unexpected genres %v", r.Genres)
	}
	if r.Score <= 0 {
		t.Errorf("expected positive score, got %v", r.Score)
	}
}

func TestSearchTitlesNoResults(t *testing.T) {
	indexer := newTestIndexer(t)

	for _, keyword := range []string{"", "   ", "xyzzyplugh"} {
		results, err := indexer.SearchTitles(keyword, 10)
		if err != nil {
			t.Fatalf("search %q failed: %v", keyword, err)
		}
		if len(results) != 0 {
			t.Errorf("expected 0 results for %q, got %d", keyword, len(results))
		}
	}
}

func TestSearchTitlesLimit(t *testing.T) {
	indexer := newTestIndexer(t)

	results, err := indexer.SearchTitles("1995", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected limit of 2 results, got %d", len(results))
	}
}

func TestSearchByGenre(t *testing.T) {
	indexer := newTestIndexer(t)

	results, err := indexer.SearchByGenre("toy", "Fantasy", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Toy Story 2 (1999)" {
		t.Errorf("expected only Toy Story 2, got %+v", results)
	}

	results, err = indexer.SearchByGenre("", "Crime", 10)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Heat (1995)" {
		t.Errorf("expected only Heat, got %+v", results)
	}
}
