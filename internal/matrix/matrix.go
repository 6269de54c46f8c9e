/*
Package matrix builds the dense item x user rating matrix that feeds the
similarity index.

Rows are items (keyed by canonical title) whose event count exceeds the
popularity threshold; columns are users; absent ratings are 0. An unrated
cell is treated as a neutral zero, which is a modeling simplification.
*/
package matrix

import (
	"fmt"
	"sort"

	"github.com/khanglvm/movie-picker/internal/catalog"
)

// DefaultThreshold is the default popularity floor. A title needs strictly
// more events than this to get a row.
const DefaultThreshold = 100

// Event is one historical rating.
type Event struct {
	UserID    int
	ItemID    int
	Rating    float64
	Timestamp int64
}

// EmptyCatalogError reports that the popularity filter removed every item.
type EmptyCatalogError struct {
	Threshold  int
	Candidates int
}

func (e *EmptyCatalogError) Error() string {
	return fmt.Sprintf("no items have more than %d ratings (%d candidate items)", e.Threshold, e.Candidates)
}

// Interaction is the dense rating matrix. It is immutable once built.
type Interaction struct {
	titles []string
	users  []int
	counts []int
	values []float64 // row-major, len(titles) * len(users)
}

// Build joins events to the catalog, drops unknown items, keeps titles
// with more than threshold events and returns the dense matrix.
//
// Catalog ids sharing a title count together and share a row. Repeated
// ratings for one (title, user) cell are averaged.
func Build(events []Event, cat *catalog.Catalog, threshold int) (*Interaction, error) {
	type cell struct {
		sum float64
		n   int
	}

	counts := make(map[string]int)
	cells := make(map[string]map[int]*cell)

	for _, ev := range events {
		entry, ok := cat.Lookup(ev.ItemID)
		if !ok {
			continue
		}
		counts[entry.Title]++

		byUser := cells[entry.Title]
		if byUser == nil {
			byUser = make(map[int]*cell)
			cells[entry.Title] = byUser
		}
		c := byUser[ev.UserID]
		if c == nil {
			c = &cell{}
			byUser[ev.UserID] = c
		}
		c.sum += ev.Rating
		c.n++
	}

	titles := make([]string, 0, len(counts))
	for title, n := range counts {
		if n > threshold {
			titles = append(titles, title)
		}
	}
	if len(titles) == 0 {
		return nil, &EmptyCatalogError{Threshold: threshold, Candidates: len(counts)}
	}
	sort.Strings(titles)

	userSet := make(map[int]struct{})
	for _, title := range titles {
		for uid := range cells[title] {
			userSet[uid] = struct{}{}
		}
	}
	users := make([]int, 0, len(userSet))
	for uid := range userSet {
		users = append(users, uid)
	}
	sort.Ints(users)

	col := make(map[int]int, len(users))
	for j, uid := range users {
		col[uid] = j
	}

	m := &Interaction{
		titles: titles,
		users:  users,
		counts: make([]int, len(titles)),
		values: make([]float64, len(titles)*len(users)),
	}
	for i, title := range titles {
		m.counts[i] = counts[title]
		row := m.values[i*len(users) : (i+1)*len(users)]
		for uid, c := range cells[title] {
			row[col[uid]] = c.sum / float64(c.n)
		}
	}

	return m, nil
}

// Rows returns the number of retained items.
func (m *Interaction) Rows() int { return len(m.titles) }

// Cols returns the number of users.
func (m *Interaction) Cols() int { return len(m.users) }

// Titles returns row labels in row order.
func (m *Interaction) Titles() []string {
	out := make([]string, len(m.titles))
	copy(out, m.titles)
	return out
}

// Users returns column labels in column order.
func (m *Interaction) Users() []int {
	out := make([]int, len(m.users))
	copy(out, m.users)
	return out
}

// Counts returns the event count behind each row.
func (m *Interaction) Counts() []int {
	out := make([]int, len(m.counts))
	copy(out, m.counts)
	return out
}

// Row returns row i. The slice aliases the matrix and must not be modified.
func (m *Interaction) Row(i int) []float64 {
	n := len(m.users)
	return m.values[i*n : (i+1)*n : (i+1)*n]
}

// At returns the cell for row i, column j.
func (m *Interaction) At(i, j int) float64 {
	return m.values[i*len(m.users)+j]
}
