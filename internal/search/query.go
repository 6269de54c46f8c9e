package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 10

var resultFields = []string{"id", "title", "genres"}

// SearchTitles finds catalog titles matching keyword. A blank keyword
// returns no results.
func (i *Indexer) SearchTitles(keyword string, limit int) ([]SearchResult, error) {
	q := buildTitleQuery(keyword)
	if q == nil {
		return []SearchResult{}, nil
	}
	return i.search(q, limit)
}

// SearchByGenre performs a title search scoped to one genre. The genre is
// matched exactly, e.g. "Sci-Fi".
func (i *Indexer) SearchByGenre(keyword, genre string, limit int) ([]SearchResult, error) {
	genreQuery := bleve.NewTermQuery(genre)
	genreQuery.SetField("genres")

	titleQuery := buildTitleQuery(keyword)
	if titleQuery == nil {
		return i.search(genreQuery, limit)
	}
	return i.search(bleve.NewConjunctionQuery(titleQuery, genreQuery), limit)
}

func (i *Indexer) search(q query.Query, limit int) ([]SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if limit <= 0 {
		limit = DefaultLimit
	}

	searchRequest := bleve.NewSearchRequestOptions(q, limit, 0, false)
	searchRequest.Fields = resultFields
	searchRequest.SortBy([]string{"-_score", "_id"})

	results, err := i.bleveIndex.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	return convertBleveResults(results), nil
}

// buildTitleQuery matches every word with edit distance 1, or the last
// word as a prefix.
func buildTitleQuery(keyword string) query.Query {
	words := strings.Fields(strings.ToLower(keyword))
	if len(words) == 0 {
		return nil
	}

	match := bleve.NewMatchQuery(strings.Join(words, " "))
	match.SetField("title")
	match.SetFuzziness(1)
	match.SetOperator(query.MatchQueryOperatorAnd)

	prefix := bleve.NewPrefixQuery(words[len(words)-1])
	prefix.SetField("title")

	if len(words) == 1 {
		return bleve.NewDisjunctionQuery(match, prefix)
	}

	// Earlier words must still match when the last one is partial.
	head := bleve.NewMatchQuery(strings.Join(words[:len(words)-1], " "))
	head.SetField("title")
	head.SetFuzziness(1)
	head.SetOperator(query.MatchQueryOperatorAnd)

	return bleve.NewDisjunctionQuery(match, bleve.NewConjunctionQuery(head, prefix))
}

// convertBleveResults converts Bleve search results to our SearchResult format.
func convertBleveResults(results *bleve.SearchResult) []SearchResult {
	searchResults := make([]SearchResult, 0, len(results.Hits))

	for _, hit := range results.Hits {
		title, _ := hit.Fields["title"].(string)
		id, _ := hit.Fields["id"].(float64)

		searchResults = append(searchResults, SearchResult{
			ID:     int(id),
			Title:  title,
			Genres: stringsField(hit.Fields["genres"]),
			Score:  hit.Score,
		})
	}

	return searchResults
}

// stringsField reads a stored text field that may hold one or many values.
func stringsField(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
