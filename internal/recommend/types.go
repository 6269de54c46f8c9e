/*
Package recommend turns a short user profile of (title, rating) pairs into a
ranked list of unseen titles.

The Engine resolves each profile title to a canonical title, derives a
centered weight (rating - midpoint) and hands the resolved entries to a
Strategy. Two strategies exist, chosen from the loaded index kind:

  - CosineStrategy: weighted sum of title-keyed cosine rows
  - AnchorStrategy: ranks the content row of the single highest-rated entry

The engine keeps no per-request state; one Engine serves all requests.
*/
package recommend

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// Mode names a scoring strategy.
type Mode string

const (
	// ModeCosine scores with the title-keyed cosine index.
	ModeCosine Mode = "cosine"
	// ModeAnchor scores with a position-keyed content index.
	ModeAnchor Mode = "anchor"
)

// Rating is one profile entry.
//
// On the wire it is either a two-element array ["Heat (1995)", 4.5] or an
// object {"title": "Heat (1995)", "rating": 4.5}.
type Rating struct {
	Title  string  `json:"title" validate:"max=512"`
	Rating float64 `json:"rating"`
}

// UnmarshalJSON accepts both the tuple and the object form.
func (r *Rating) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var tuple []json.RawMessage
		if err := json.Unmarshal(data, &tuple); err != nil {
			return err
		}
		if len(tuple) != 2 {
			return fmt.Errorf("rating tuple must have 2 elements, got %d", len(tuple))
		}
		if err := json.Unmarshal(tuple[0], &r.Title); err != nil {
			return fmt.Errorf("rating tuple title: %w", err)
		}
		if err := json.Unmarshal(tuple[1], &r.Rating); err != nil {
			return fmt.Errorf("rating tuple value: %w", err)
		}
		return nil
	}

	type plain Rating
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rating(p)
	return nil
}

// Recommendation is one ranked title.
type Recommendation struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Resolved is a profile entry whose title matched the index.
type Resolved struct {
	// Query is the title as supplied by the caller.
	Query string
	// Title is the canonical title.
	Title string
	// Position is the index row of Title.
	Position int
	Rating   float64
	// Weight is Rating minus the rating-scale midpoint.
	Weight float64
}

// Titles extracts the titles of a result list.
func Titles(recs []Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Title
	}
	return out
}
