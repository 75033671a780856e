package factory

import (
	"fmt"

	"kidsgpt-be/pkg/llm"
	"kidsgpt-be/pkg/llm/ollama"
	"kidsgpt-be/pkg/llm/openai"
)

type Config struct {
	Provider      string
	Model         string
	OllamaBaseURL string
	OpenAIBaseURL string
	DefaultAPIKey string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "openai", "":
		return openai.NewOpenAIProvider(cfg.DefaultAPIKey, cfg.OpenAIBaseURL, cfg.Model), nil
	case "ollama":
		baseURL := cfg.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
