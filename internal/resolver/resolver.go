/*
Package resolver maps free-text titles to canonical catalog titles.

Similarity is the Ratcliff/Obershelp ratio (2*M/T over Unicode code points,
as in difflib's SequenceMatcher). A match is returned only when its ratio is
strictly above the cutoff. When several candidates share the best ratio the
first one in canonical order wins, so results are deterministic for a given
title list.
*/
package resolver

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultCutoff is the minimum confidence (exclusive) for a match.
const DefaultCutoff = 0.6

// Match is a resolved title.
type Match struct {
	Title    string
	Position int
	Ratio    float64
}

type candidate struct {
	title string
	pos   int
	chars []string
}

// Resolver is immutable and safe for concurrent use.
type Resolver struct {
	candidates []candidate
	exact      map[string]int
	cutoff     float64
}

// New indexes canonical titles. Repeated titles keep their first position.
func New(titles []string, cutoff float64) *Resolver {
	r := &Resolver{
		candidates: make([]candidate, 0, len(titles)),
		exact:      make(map[string]int, len(titles)),
		cutoff:     cutoff,
	}

	for pos, title := range titles {
		if _, dup := r.exact[title]; dup {
			continue
		}
		r.exact[title] = pos
		r.candidates = append(r.candidates, candidate{
			title: title,
			pos:   pos,
			chars: splitChars(title),
		})
	}

	return r
}

// Cutoff returns the configured confidence cutoff.
func (r *Resolver) Cutoff() float64 { return r.cutoff }

// Len returns the number of distinct canonical titles.
func (r *Resolver) Len() int { return len(r.candidates) }

// Resolve returns the closest canonical title, or false when nothing
// scores above the cutoff. No match is a normal outcome, not an error.
func (r *Resolver) Resolve(query string) (Match, bool) {
	if strings.TrimSpace(query) == "" {
		return Match{}, false
	}
	if pos, ok := r.exact[query]; ok {
		return Match{Title: query, Position: pos, Ratio: 1}, true
	}

	// Query is sequence B so its index is built once per call.
	m := difflib.NewMatcher(nil, splitChars(query))

	best := r.cutoff
	var found Match
	ok := false

	for _, c := range r.candidates {
		m.SetSeq1(c.chars)
		// Each bound is >= Ratio; a candidate that cannot beat best is skipped.
		if m.RealQuickRatio() <= best || m.QuickRatio() <= best {
			continue
		}
		ratio := m.Ratio()
		if ratio > best {
			best = ratio
			found = Match{Title: c.title, Position: c.pos, Ratio: ratio}
			ok = true
		}
	}

	return found, ok
}

// Ratio returns the SequenceMatcher ratio between two strings.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(splitChars(a), splitChars(b)).Ratio()
}

func splitChars(s string) []string {
	return strings.Split(s, "")
}
