package retrieval

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/logger"
)

const defaultCacheSize = 256

// AdapterConfig tunes the retrieval adapter.
type AdapterConfig struct {
	// CacheSize bounds the number of cached queries. Negative disables caching.
	CacheSize int
	MaxLogLen int
}

// Adapter wraps a Searcher and never propagates its failures.
type Adapter struct {
	searcher  Searcher
	cache     *lru.Cache[string, []Passage]
	maxLogLen int
	logger    *zap.Logger
}

// NewAdapter creates an Adapter. A nil searcher makes every lookup fall back.
func NewAdapter(searcher Searcher, cfg AdapterConfig, log *zap.Logger) *Adapter {
	a := &Adapter{
		searcher:  searcher,
		maxLogLen: cfg.MaxLogLen,
		logger:    logger.OrNop(log),
	}
	if a.maxLogLen <= 0 {
		a.maxLogLen = 80
	}

	size := cfg.CacheSize
	if size == 0 {
		size = defaultCacheSize
	}
	if size > 0 {
		// lru.New only fails for non-positive sizes.
		a.cache, _ = lru.New[string, []Passage](size)
	}

	return a
}

// Retrieve returns up to topK passages for the query, or the Fallback passage
// when the searcher fails, returns nothing or the query is blank.
func (a *Adapter) Retrieve(ctx context.Context, query string, topK int) []Passage {
	if topK <= 0 {
		topK = DefaultTopK
	}

	query = strings.TrimSpace(query)
	log := a.logger.With(
		zap.String("query_preview", logger.TruncateForLog(query, a.maxLogLen)),
		zap.Int("top_k", topK),
	)

	if query == "" {
		log.Warn("retrieval skipped", zap.String("reason", "empty query"))
		return Fallback()
	}

	if a.searcher == nil {
		log.Warn("retrieval skipped", zap.String("reason", "knowledge store is not configured"))
		return Fallback()
	}

	key := cacheKey(query, topK)
	if a.cache != nil {
		if cached, ok := a.cache.Get(key); ok {
			log.Debug("retrieval cache hit", zap.Int("passages", len(cached)))
			return clonePassages(cached)
		}
	}

	passages, err := a.searcher.Search(ctx, query, topK)
	if err != nil {
		log.Warn("retrieval failed, continuing without context", zap.Error(err))
		return Fallback()
	}

	if len(passages) == 0 {
		log.Warn("retrieval returned no passages, continuing without context")
		return Fallback()
	}

	if len(passages) > topK {
		passages = passages[:topK]
	}

	if a.cache != nil {
		a.cache.Add(key, clonePassages(passages))
	}

	log.Debug("retrieval completed", zap.Int("passages", len(passages)))

	return passages
}

// JoinContext concatenates passage texts into a prompt section.
func JoinContext(passages []Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		if text := strings.TrimSpace(p.Text); text != "" {
			texts = append(texts, text)
		}
	}
	return strings.Join(texts, "\n\n")
}

func cacheKey(query string, topK int) string {
	return fmt.Sprintf("%d|%s", topK, strings.ToLower(query))
}

func clonePassages(in []Passage) []Passage {
	out := make([]Passage, len(in))
	copy(out, in)
	return out
}
