package catalog

import "testing"

func sample() []Entry {
	return []Entry{
		{ID: 1, Title: "Toy Story (1995)", Genres: []string{"Animation", "Children"}},
		{ID: 2, Title: "Jumanji (1995)", Genres: []string{"Adventure"}},
		{ID: 6, Title: "Heat (1995)", Genres: []string{"Action", "Crime"}},
	}
}

func TestNewAndLookup(t *testing.T) {
	c, err := New(sample())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if c.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", c.Len())
	}

	e, ok := c.Lookup(6)
	if !ok {
		t.Fatal("expected id 6 to be found")
	}
	if e.Title != "Heat (1995)" {
		t.Errorf("expected Heat (1995), got %q", e.Title)
	}

	if _, ok := c.Lookup(99); ok {
		t.Error("unknown id should not be found")
	}
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	entries := append(sample(), Entry{ID: 2, Title: "Other"})
	if _, err := New(entries); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestTitlesKeepOrder(t *testing.T) {
	c, _ := New(sample())
	titles := c.Titles()
	if titles[0] != "Toy Story (1995)" || titles[2] != "Heat (1995)" {
		t.Errorf("titles out of order: %v", titles)
	}
	if c.At(1).ID != 2 {
		t.Errorf("At(1) should be id 2, got %d", c.At(1).ID)
	}
}

func TestHead(t *testing.T) {
	c, _ := New(sample())

	if got := c.Head(2).Len(); got != 2 {
		t.Errorf("Head(2) length = %d, want 2", got)
	}
	if c.Head(0) != c {
		t.Error("Head(0) should return the same catalog")
	}
	if c.Head(10) != c {
		t.Error("Head(n > Len) should return the same catalog")
	}
}
