package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/logger"
)

const (
	defaultHost  = "http://localhost:11434"
	defaultModel = "llama3"
)

type chatter interface {
	Chat(ctx context.Context, req *api.ChatRequest, fn api.ChatResponseFunc) error
}

// Client talks to a local Ollama server.
type Client struct {
	api       chatter
	model     string
	maxLogLen int
	logger    *zap.Logger
}

var _ ai.Model = (*Client)(nil)

// NewClient creates a Client for the given host and model. Empty values fall back to defaults.
func NewClient(host, model string, log *zap.Logger) (*Client, error) {
	if host = strings.TrimSpace(host); host == "" {
		host = defaultHost
	}

	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host %q: %w", host, err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Client{
		api:       api.NewClient(base, &http.Client{Timeout: 5 * time.Minute}),
		model:     model,
		maxLogLen: 200,
		logger:    logger.WithCommonFields(log, ai.ProviderOllama, model),
	}, nil
}

// Complete implements ai.Model. The model is asked for JSON output.
func (c *Client) Complete(ctx context.Context, prompt, systemInstruction string) (string, error) {
	if c == nil || c.api == nil {
		return "", errors.New("ollama client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	messages := make([]api.Message, 0, 2)
	if systemInstruction = strings.TrimSpace(systemInstruction); systemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemInstruction})
	}
	messages = append(messages, api.Message{Role: "user", Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Format:   json.RawMessage(`"json"`),
	}

	var builder strings.Builder
	err := c.api.Chat(ctx, req, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("ollama returned empty response")
	}

	logger.OrNop(c.logger).Debug("ollama response",
		zap.String("response_preview", logger.TruncateForLog(output, c.maxLogLen)),
	)

	return output, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}
