package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spigell/interviewer/internal/interview"

	"go.uber.org/zap"
)

func TestNewModelProviders(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "gemini.key")
	if err := os.WriteFile(keyFile, []byte("test-key\n"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	tests := []struct {
		name      string
		cfg       *ModelConfig
		wantModel string
		wantErr   string
	}{
		{
			name:      "gemini with key file",
			cfg:       &ModelConfig{Provider: "Gemini", Gemini: &GeminiConfig{APIKeyFile: keyFile}},
			wantModel: "gemini-2.5-flash",
		},
		{
			name:      "ollama defaults",
			cfg:       &ModelConfig{Provider: "ollama", Ollama: &OllamaConfig{Model: "mistral"}},
			wantModel: "mistral",
		},
		{
			name:    "gemini without key",
			cfg:     &ModelConfig{Provider: "gemini", Gemini: &GeminiConfig{APIKeyFile: filepath.Join(t.TempDir(), "missing")}},
			wantErr: "gemini api key",
		},
		{
			name:    "unknown provider",
			cfg:     &ModelConfig{Provider: "gpt"},
			wantErr: "unsupported model provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, err := newModel(context.Background(), tt.cfg, zap.NewNop())
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if model.Model() != tt.wantModel {
				t.Fatalf("expected model %q, got %q", tt.wantModel, model.Model())
			}
		})
	}
}

func TestNewEngineWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	seedsFile := filepath.Join(dir, "seeds.json")
	if err := os.WriteFile(seedsFile, []byte(`["What is a perceptron?"]`), 0o600); err != nil {
		t.Fatalf("write seeds: %v", err)
	}

	config := &Config{
		SeedsFile: seedsFile,
		Knowledge: &KnowledgeConfig{IndexPath: filepath.Join(dir, "knowledge.bleve")},
		Model:     &ModelConfig{Provider: "ollama", Ollama: &OllamaConfig{}},
		Server:    &ServerConfig{},
	}

	engine, closer, err := newEngine(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer closer()

	if _, err := os.Stat(config.Knowledge.IndexPath); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("a missing index must not be created, stat err: %v", err)
	}

	res, err := engine.Start(context.Background())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if res.Question != "Question 1: What is a perceptron?" {
		t.Fatalf("unexpected first question %q", res.Question)
	}

	config.SeedsFile = filepath.Join(dir, "missing.json")
	engine, closer2, err := newEngine(context.Background(), config, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	defer closer2()

	if _, err := engine.Start(context.Background()); !errors.Is(err, interview.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing seeds, got %v", err)
	}
}
