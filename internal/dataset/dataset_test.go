package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const moviesCSV = `movieId,title,genres
1,Toy Story (1995),Adventure|Animation|Children|Comedy|Fantasy
6,Heat (1995),Action|Crime|Thriller
11,"American President, The (1995)",Comedy|Drama|Romance
99,Unknown Genres (2000),(no genres listed)
`

const ratingsCSV = `userId,movieId,rating,timestamp
1,1,4.0,964982703
1,6,4.0,964981247
2,11,3.5,1445714835
3,1,0.5,
`

func TestReadCatalog(t *testing.T) {
	c, err := ReadCatalog(strings.NewReader(moviesCSV))
	if err != nil {
		t.Fatalf("ReadCatalog failed: %v", err)
	}

	if c.Len() != 4 {
		t.Fatalf("expected 4 entries, got %d", c.Len())
	}

	e, ok := c.Lookup(11)
	if !ok {
		t.Fatal("expected movie 11")
	}
	if e.Title != "American President, The (1995)" {
		t.Errorf("quoted title not parsed: %q", e.Title)
	}
	if len(e.Genres) != 3 || e.Genres[0] != "Comedy" {
		t.Errorf("unexpected genres: %v", e.Genres)
	}

	if e, _ := c.Lookup(99); len(e.Genres) != 0 {
		t.Errorf("(no genres listed) should produce no genres, got %v", e.Genres)
	}
}

func TestReadCatalogInvalidID(t *testing.T) {
	_, err := ReadCatalog(strings.NewReader("movieId,title,genres\nabc,Bad,Drama\n"))
	if err == nil {
		t.Fatal("expected error for invalid movieId")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should carry the line number, got %v", err)
	}
}

func TestReadRatings(t *testing.T) {
	events, err := ReadRatings(strings.NewReader(ratingsCSV), 0)
	if err != nil {
		t.Fatalf("ReadRatings failed: %v", err)
	}

	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[2].UserID != 2 || events[2].ItemID != 11 || events[2].Rating != 3.5 {
		t.Errorf("unexpected event: %+v", events[2])
	}
	if events[0].Timestamp != 964982703 {
		t.Errorf("unexpected timestamp: %d", events[0].Timestamp)
	}
	if events[3].Timestamp != 0 {
		t.Errorf("empty timestamp should be 0, got %d", events[3].Timestamp)
	}
}

func TestReadRatingsLimit(t *testing.T) {
	events, err := ReadRatings(strings.NewReader(ratingsCSV), 2)
	if err != nil {
		t.Fatalf("ReadRatings failed: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("expected 2 events with limit, got %d", len(events))
	}
}

func TestReadRatingsInvalidRating(t *testing.T) {
	_, err := ReadRatings(strings.NewReader("userId,movieId,rating\n1,2,five\n"), 0)
	if err == nil {
		t.Fatal("expected error for invalid rating")
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	moviesPath := filepath.Join(dir, "movies.csv")
	ratingsPath := filepath.Join(dir, "ratings.csv")

	if err := os.WriteFile(moviesPath, []byte(moviesCSV), 0644); err != nil {
		t.Fatalf("failed to write movies: %v", err)
	}
	if err := os.WriteFile(ratingsPath, []byte(ratingsCSV), 0644); err != nil {
		t.Fatalf("failed to write ratings: %v", err)
	}

	c, err := LoadCatalog(moviesPath)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if c.Len() != 4 {
		t.Errorf("expected 4 movies, got %d", c.Len())
	}

	events, err := LoadRatings(ratingsPath, DefaultRatingsLimit)
	if err != nil {
		t.Fatalf("LoadRatings failed: %v", err)
	}
	if len(events) != 4 {
		t.Errorf("expected 4 events, got %d", len(events))
	}

	if _, err := LoadCatalog(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}
