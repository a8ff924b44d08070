// Package retrieval provides lecture-context lookup for interview turns.
package retrieval

import (
	"context"
	"errors"
	"math"
)

const DefaultTopK = 3

// ErrEmptyIndex is returned by searchers that hold no documents.
var ErrEmptyIndex = errors.New("knowledge index is empty")

// Passage is a ranked piece of lecture material. Lower Distance means more relevant.
type Passage struct {
	ID       string  `json:"id,omitempty"`
	Source   string  `json:"source,omitempty"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}

// Searcher is the external knowledge store.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Passage, error)
}

// Fallback is returned in place of search results whenever the store cannot answer.
func Fallback() []Passage {
	return []Passage{{Text: "", Distance: math.MaxFloat64}}
}

// IsFallback reports whether passages carry no usable context.
func IsFallback(passages []Passage) bool {
	for _, p := range passages {
		if p.Text != "" {
			return false
		}
	}
	return true
}
