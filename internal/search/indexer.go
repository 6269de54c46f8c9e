package search

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/rs/zerolog"

	"github.com/khanglvm/movie-picker/internal/catalog"
	"github.com/khanglvm/movie-picker/internal/logging"
)

// Indexer manages the search index for the catalog.
type Indexer struct {
	bleveIndex bleve.Index
	mu         sync.RWMutex
	logger     zerolog.Logger
}

// NewIndexer creates a new search indexer with in-memory Bleve index.
func NewIndexer() (*Indexer, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Indexer{
		bleveIndex: index,
		logger:     logging.Component("search"),
	}, nil
}

// buildIndexMapping creates the Bleve index mapping.
func buildIndexMapping() mapping.IndexMapping {
	movieMapping := bleve.NewDocumentMapping()

	// Title: analyzed text, the main search target
	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Store = true
	movieMapping.AddFieldMappingsAt("title", titleFieldMapping)

	// Genres: exact terms for filtering
	genresFieldMapping := bleve.NewTextFieldMapping()
	genresFieldMapping.Analyzer = keyword.Name
	genresFieldMapping.IncludeInAll = false
	movieMapping.AddFieldMappingsAt("genres", genresFieldMapping)

	// ID: stored for retrieval only
	idFieldMapping := bleve.NewNumericFieldMapping()
	idFieldMapping.Index = false
	idFieldMapping.IncludeInAll = false
	movieMapping.AddFieldMappingsAt("id", idFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", movieMapping)
	indexMapping.DefaultField = "title"

	return indexMapping
}

// IndexCatalog indexes every catalog entry in one batch.
func (i *Indexer) IndexCatalog(cat *catalog.Catalog) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.bleveIndex.NewBatch()

	for _, entry := range cat.Entries() {
		doc := movieDocument{
			ID:     entry.ID,
			Title:  entry.Title,
			Genres: entry.Genres,
		}

		docID := strconv.Itoa(entry.ID)
		if err := batch.Index(docID, doc); err != nil {
			i.logger.Warn().Err(err).Str("id", docID).Msg("failed to index movie")
		}
	}

	if err := i.bleveIndex.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index catalog: %w", err)
	}

	i.logger.Debug().Int("movies", cat.Len()).Msg("catalog indexed")
	return nil
}

// Count returns the total number of indexed movies.
func (i *Indexer) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	docCount, err := i.bleveIndex.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}

	return docCount, nil
}

// Close closes the index and releases resources.
func (i *Indexer) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.bleveIndex != nil {
		return i.bleveIndex.Close()
	}

	return nil
}
