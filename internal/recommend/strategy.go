package recommend

import (
	"fmt"
	"sort"

	"github.com/khanglvm/movie-picker/internal/similarity"
)

// Strategy ranks unseen titles for a resolved profile.
//
// Implementations are read-only over their index and safe for concurrent
// use.
type Strategy interface {
	Mode() Mode
	// Titles are the canonical titles the resolver matches against, in
	// index position order.
	Titles() []string
	// Rank returns at most k recommendations. An empty profile yields an
	// empty, non-nil slice.
	Rank(resolved []Resolved, k int) []Recommendation
}

// NewStrategy picks the strategy that matches the index kind.
func NewStrategy(idx *similarity.Index) (Strategy, error) {
	switch idx.Kind() {
	case similarity.KindCosine:
		return NewCosineStrategy(idx), nil
	case similarity.KindContent:
		return NewAnchorStrategy(idx), nil
	default:
		return nil, fmt.Errorf("no strategy for index kind %q", idx.Kind())
	}
}

// CosineStrategy sums weighted similarity rows over every resolved entry
// and drops the titles the user already rated.
type CosineStrategy struct {
	idx *similarity.Index
}

// NewCosineStrategy wraps a title-keyed index.
func NewCosineStrategy(idx *similarity.Index) *CosineStrategy {
	return &CosineStrategy{idx: idx}
}

func (s *CosineStrategy) Mode() Mode { return ModeCosine }

func (s *CosineStrategy) Titles() []string { return s.idx.Titles() }

func (s *CosineStrategy) Rank(resolved []Resolved, k int) []Recommendation {
	if len(resolved) == 0 {
		return []Recommendation{}
	}

	scores := make([]float64, s.idx.Dim())
	watched := make(map[string]struct{}, len(resolved))
	for _, r := range resolved {
		watched[r.Title] = struct{}{}
		// A midpoint rating contributes nothing.
		if r.Weight == 0 {
			continue
		}
		for j, v := range s.idx.Row(r.Position) {
			scores[j] += r.Weight * v
		}
	}

	ranked := make([]Recommendation, 0, len(scores))
	for j, score := range scores {
		title := s.idx.Title(j)
		if _, seen := watched[title]; seen {
			continue
		}
		ranked = append(ranked, Recommendation{Title: title, Score: score})
	}

	return top(ranked, k)
}

// AnchorStrategy ranks the row of the single highest-rated entry. Every
// other profile entry is ignored.
type AnchorStrategy struct {
	idx *similarity.Index
}

// NewAnchorStrategy wraps a content index.
func NewAnchorStrategy(idx *similarity.Index) *AnchorStrategy {
	return &AnchorStrategy{idx: idx}
}

func (s *AnchorStrategy) Mode() Mode { return ModeAnchor }

func (s *AnchorStrategy) Titles() []string { return s.idx.Titles() }

func (s *AnchorStrategy) Rank(resolved []Resolved, k int) []Recommendation {
	anchor, ok := Anchor(resolved)
	if !ok {
		return []Recommendation{}
	}

	neighbors := s.idx.Neighbors(anchor.Position, k)
	out := make([]Recommendation, len(neighbors))
	for i, nb := range neighbors {
		out[i] = Recommendation{Title: nb.Title, Score: nb.Score}
	}
	return out
}

// Anchor returns the highest-rated entry. Ties go to the entry listed first.
func Anchor(resolved []Resolved) (Resolved, bool) {
	if len(resolved) == 0 {
		return Resolved{}, false
	}
	best := resolved[0]
	for _, r := range resolved[1:] {
		if r.Rating > best.Rating {
			best = r
		}
	}
	return best, true
}

// top sorts by score descending, keeping input order on ties, and keeps k.
func top(ranked []Recommendation, k int) []Recommendation {
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
