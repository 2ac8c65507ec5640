package extractor

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Supported model providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// ModelConfig selects and configures the language model.
type ModelConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// NewModel creates the process-wide model client. It is built once at startup and
// shared by every request.
func NewModel(cfg ModelConfig) (llms.Model, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		opts := []openai.Option{openai.WithModel(cfg.Model)}
		if cfg.APIKey != "" {
			opts = append(opts, openai.WithToken(cfg.APIKey))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(opts...)
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(cfg.Model), ollama.WithFormat("json")}
		if cfg.BaseURL != "" {
			opts = append(opts, ollama.WithServerURL(cfg.BaseURL))
		}
		return ollama.New(opts...)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}

// LangChainBackend runs extractions as JSON-mode chat completions.
type LangChainBackend struct {
	llm llms.Model
}

// NewLangChainBackend wraps llm, which is shared and safe for concurrent use.
func NewLangChainBackend(llm llms.Model) *LangChainBackend {
	return &LangChainBackend{llm: llm}
}

// Complete sends the system and user prompts in JSON mode and returns the first choice.
func (b *LangChainBackend) Complete(ctx context.Context, pc PromptContext) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, pc.System),
		llms.TextParts(llms.ChatMessageTypeHuman, pc.User),
	}
	resp, err := b.llm.GenerateContent(ctx, messages, llms.WithJSONMode(), llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
