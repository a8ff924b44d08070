package ai

import "context"

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Model produces raw text for a prompt. Output is untrusted and must be
// validated by the caller.
type Model interface {
	Complete(ctx context.Context, prompt, systemInstruction string) (string, error)
	Model() string
}
