package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/ai/gemini"
	"github.com/spigell/interviewer/internal/ai/ollama"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/retrieval"
	"github.com/spigell/interviewer/internal/retrieval/blevestore"
	"github.com/spigell/interviewer/internal/secrets"
	"github.com/spigell/interviewer/internal/seeds"

	"go.uber.org/zap"
)

// newEngine wires the interview engine from config. The returned closer releases the knowledge index.
func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*interview.Engine, func() error, error) {
	model, err := newModel(ctx, config.Model, logger)
	if err != nil {
		return nil, nil, err
	}

	closer := func() error { return nil }

	var searcher retrieval.Searcher
	indexPath := config.Knowledge.IndexPath
	if _, statErr := os.Stat(indexPath); errors.Is(statErr, fs.ErrNotExist) {
		logger.Warn("knowledge index not found, questions will not be grounded",
			zap.String("index_path", indexPath),
			zap.String("hint", "build the index with the ingest command"),
		)
	} else if store, err := blevestore.Open(indexPath); err != nil {
		// The interview still works without lecture context.
		logger.Warn("knowledge index unavailable, questions will not be grounded",
			zap.String("index_path", indexPath),
			zap.Error(err),
		)
	} else {
		searcher = store
		closer = store.Close

		if count, err := store.Count(); err == nil {
			logger.Info("knowledge index opened",
				zap.String("index_path", indexPath),
				zap.Uint64("documents", count),
			)
		}
	}

	retriever := retrieval.NewAdapter(searcher, retrieval.AdapterConfig{
		CacheSize: config.Knowledge.CacheSize,
		MaxLogLen: config.Model.MaxLogLength,
	}, logger.With(zap.String("component", "retrieval")))

	engine := interview.NewEngine(interview.Config{
		TopK:             config.Knowledge.TopK,
		RetrievalTimeout: config.Knowledge.Timeout,
		ModelTimeout:     config.Model.Timeout,
		MaxLogLength:     config.Model.MaxLogLength,
	}, interview.Deps{
		Model:     model,
		Retriever: retriever,
		Seeds:     seeds.NewFileStore(config.SeedsFile),
		Detector:  interview.NewPhraseDetector(),
		Logger:    logger.With(zap.String("component", "engine")),
	})

	return engine, closer, nil
}

func newModel(ctx context.Context, cfg *ModelConfig, logger *zap.Logger) (ai.Model, error) {
	if cfg == nil {
		return nil, errors.New("model configuration is required")
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case "", ai.ProviderGemini:
		gemCfg := cfg.Gemini
		if gemCfg == nil {
			gemCfg = &GeminiConfig{}
		}

		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			File:  gemCfg.APIKeyFile,
			Value: gemCfg.APIKey,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set model.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
		}

		genLogger := logger.With(zap.Int("ai_retry_attempts", gemCfg.MaxRetries))

		generator, err := gemini.NewGenerator(ctx, apiKey, gemCfg.Model, gemCfg.MaxRetries, genLogger)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case ai.ProviderOllama:
		olCfg := cfg.Ollama
		if olCfg == nil {
			olCfg = &OllamaConfig{}
		}
		client, err := ollama.NewClient(olCfg.Host, olCfg.Model, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Provider)
	}
}
