// Package blevestore keeps lecture chunks in a bleve full-text index.
package blevestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/spigell/interviewer/internal/retrieval"
)

const (
	fieldText   = "text"
	fieldSource = "source"

	indexBatchSize = 500
)

var _ retrieval.Searcher = (*Store)(nil)

// ErrStoreClosed is returned when the store is used after Close.
var ErrStoreClosed = errors.New("knowledge store is closed")

// Store is a full-text knowledge store over lecture chunks.
type Store struct {
	mu    sync.RWMutex
	index bleve.Index
}

type chunkDocument struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Open opens the index at path or creates it when missing.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		index, err := bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open knowledge index %q: %w", path, err)
		}
		return &Store{index: index}, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat knowledge index %q: %w", path, err)
	}

	index, err := bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create knowledge index %q: %w", path, err)
	}

	return &Store{index: index}, nil
}

// NewMemStore creates an in-memory store. Used by tests and dry runs.
func NewMemStore() (*Store, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory knowledge index: %w", err)
	}
	return &Store{index: index}, nil
}

func buildMapping() mapping.IndexMapping {
	text := mapping.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName
	text.Store = true

	source := mapping.NewTextFieldMapping()
	source.Analyzer = keyword.Name
	source.Store = true

	doc := mapping.NewDocumentMapping()
	doc.AddFieldMappingsAt(fieldText, text)
	doc.AddFieldMappingsAt(fieldSource, source)

	m := mapping.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Index adds chunks to the store in batches.
func (s *Store) Index(ctx context.Context, chunks []retrieval.Chunk) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return ErrStoreClosed
	}

	batch := s.index.NewBatch()
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := batch.Index(chunk.ID, chunkDocument{Text: chunk.Text, Source: chunk.Source}); err != nil {
			return fmt.Errorf("index chunk %s: %w", chunk.ID, err)
		}

		if batch.Size() >= indexBatchSize {
			if err := s.index.Batch(batch); err != nil {
				return fmt.Errorf("flush batch: %w", err)
			}
			batch.Reset()
		}
	}

	if batch.Size() > 0 {
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("flush batch: %w", err)
		}
	}

	return nil
}

// Search implements retrieval.Searcher with a match query over chunk text.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]retrieval.Passage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return nil, ErrStoreClosed
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if topK <= 0 {
		topK = retrieval.DefaultTopK
	}

	count, err := s.index.DocCount()
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		return nil, retrieval.ErrEmptyIndex
	}

	match := bleve.NewMatchQuery(query)
	match.SetField(fieldText)

	req := bleve.NewSearchRequest(match)
	req.Size = topK
	req.Fields = []string{fieldText, fieldSource}

	result, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	passages := make([]retrieval.Passage, 0, len(result.Hits))
	for _, hit := range result.Hits {
		text, _ := hit.Fields[fieldText].(string)
		source, _ := hit.Fields[fieldSource].(string)
		passages = append(passages, retrieval.Passage{
			ID:       hit.ID,
			Source:   source,
			Text:     text,
			Distance: scoreToDistance(hit.Score),
		})
	}

	return passages, nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return 0, ErrStoreClosed
	}
	return s.index.DocCount()
}

// Close releases the index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// scoreToDistance maps a relevance score onto (0, 1].
func scoreToDistance(score float64) float64 {
	if score < 0 {
		score = 0
	}
	return 1 / (1 + score)
}
