/*
Package search implements keyword search over the movie catalog.

Titles and genres are indexed in an in-memory Bleve index when the catalog
is loaded. Queries combine a fuzzy match (edit distance 1) with a prefix
match on the last word, so partial and slightly misspelled titles still
find their movie.
*/
package search

// SearchResult represents a single search result with relevance score.
type SearchResult struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres,omitempty"`
	Score  float64  `json:"score"`
}

// movieDocument is a catalog entry as stored in the search index.
type movieDocument struct {
	ID     int      `json:"id"`
	Title  string   `json:"title"`
	Genres []string `json:"genres"`
}
