/*
Package similarity builds and serves the square item x item similarity
matrix.

Two kinds exist:

  - cosine: title-keyed, built from rating co-occurrence (BuildCosine)
  - content: position-keyed over a catalog, built from genres (BuildContent)

An Index is immutable after construction and safe for concurrent readers.
*/
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Kind identifies how an index is keyed.
type Kind string

const (
	// KindCosine is the title-keyed rating cosine matrix.
	KindCosine Kind = "cosine"
	// KindContent is the catalog-position-keyed content matrix.
	KindContent Kind = "content"
)

// ErrDegenerateVector marks an item whose vector has zero norm. Its
// similarities are defined as 0; the error is only ever logged.
var ErrDegenerateVector = errors.New("zero-norm item vector")

// Index is a symmetric n x n similarity matrix with title labels.
type Index struct {
	kind   Kind
	titles []string
	pos    map[string]int
	values []float64
}

// Neighbor is one entry of a ranked row.
type Neighbor struct {
	Position int
	Title    string
	Score    float64
}

// New validates and wraps a row-major n x n matrix.
//
// Values must be exactly symmetric and free of NaN. Cosine indexes need
// unique titles; content indexes may repeat titles, in which case Lookup
// returns the first position.
func New(kind Kind, titles []string, values []float64) (*Index, error) {
	if kind != KindCosine && kind != KindContent {
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}

	n := len(titles)
	if len(values) != n*n {
		return nil, fmt.Errorf("index is not square: %d titles, %d values", n, len(values))
	}

	idx := &Index{
		kind:   kind,
		titles: make([]string, n),
		pos:    make(map[string]int, n),
		values: values,
	}
	copy(idx.titles, titles)

	for i, title := range idx.titles {
		if _, exists := idx.pos[title]; exists {
			if kind == KindCosine {
				return nil, fmt.Errorf("duplicate title %q in cosine index", title)
			}
			continue
		}
		idx.pos[title] = i
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			a, b := values[i*n+j], values[j*n+i]
			if math.IsNaN(a) {
				return nil, fmt.Errorf("NaN similarity at (%d, %d)", i, j)
			}
			if a != b {
				return nil, fmt.Errorf("index is not symmetric at (%d, %d): %v != %v", i, j, a, b)
			}
		}
	}

	return idx, nil
}

// Kind returns how the index is keyed.
func (x *Index) Kind() Kind { return x.kind }

// Dim returns the number of items.
func (x *Index) Dim() int { return len(x.titles) }

// Titles returns a copy of the labels in index order.
func (x *Index) Titles() []string {
	out := make([]string, len(x.titles))
	copy(out, x.titles)
	return out
}

// Title returns the label at position i.
func (x *Index) Title(i int) string { return x.titles[i] }

// Lookup maps a canonical title to its position.
func (x *Index) Lookup(title string) (int, bool) {
	i, ok := x.pos[title]
	return i, ok
}

// At returns S[i][j].
func (x *Index) At(i, j int) float64 {
	return x.values[i*len(x.titles)+j]
}

// Row returns row i. The slice aliases the index and must not be modified.
func (x *Index) Row(i int) []float64 {
	n := len(x.titles)
	return x.values[i*n : (i+1)*n : (i+1)*n]
}

// Neighbors returns up to k positions ranked by S[i][*] descending,
// excluding i itself. Ties keep position order.
func (x *Index) Neighbors(i, k int) []Neighbor {
	row := x.Row(i)
	ranked := make([]Neighbor, 0, len(row))
	for j, s := range row {
		if j == i {
			continue
		}
		ranked = append(ranked, Neighbor{Position: j, Title: x.titles[j], Score: s})
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
