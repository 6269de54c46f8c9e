/*
Package catalog holds the static table of known movies.

Entries keep their source order. That order is the "catalog position" used
by position-keyed similarity matrices.
*/
package catalog

import "fmt"

// Entry is one known item.
type Entry struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres,omitempty"`
}

// Catalog is an immutable, ordered set of entries with unique ids.
type Catalog struct {
	entries []Entry
	byID    map[int]int
}

// New builds a catalog, rejecting duplicate ids.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, len(entries)),
		byID:    make(map[int]int, len(entries)),
	}
	copy(c.entries, entries)

	for pos, e := range c.entries {
		if prev, exists := c.byID[e.ID]; exists {
			return nil, fmt.Errorf("duplicate item id %d at positions %d and %d", e.ID, prev, pos)
		}
		c.byID[e.ID] = pos
	}

	return c, nil
}

// Lookup returns the entry for an item id.
func (c *Catalog) Lookup(id int) (Entry, bool) {
	pos, ok := c.byID[id]
	if !ok {
		return Entry{}, false
	}
	return c.entries[pos], true
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// At returns the entry at a catalog position.
func (c *Catalog) At(pos int) Entry {
	return c.entries[pos]
}

// Entries returns a copy of all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Titles returns titles in catalog order. Titles may repeat.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.entries))
	for i, e := range c.entries {
		titles[i] = e.Title
	}
	return titles
}

// Head returns a catalog restricted to the first n positions.
// n <= 0 or n >= Len returns c itself.
func (c *Catalog) Head(n int) *Catalog {
	if n <= 0 || n >= len(c.entries) {
		return c
	}
	head, _ := New(c.entries[:n])
	return head
}
