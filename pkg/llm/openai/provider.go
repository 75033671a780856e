package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kidsgpt-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

const DefaultBaseURL = "https://api.openai.com/v1"

type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// Ensure OpenAIProvider implements LLMProvider
var _ llm.LLMProvider = &OpenAIProvider{}

// NewOpenAIProvider builds a provider. apiKey is a server-wide fallback and
// may be empty when every request carries its own key.
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// NewClient returns a go-openai client bound to one key.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" && baseURL != DefaultBaseURL {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	return goopenai.NewClientWithConfig(cfg)
}

// IsReasoningModel reports models that reject max_tokens and temperature.
func IsReasoningModel(model string) bool {
	m := strings.ToLower(model)
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, prefix) {
			return true
		}
	}
	return false
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(opts...)

	key := options.APIKey
	if key == "" {
		key = p.apiKey
	}
	if strings.TrimSpace(key) == "" {
		return "", llm.ErrMissingAPIKey
	}

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	req := goopenai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if IsReasoningModel(model) {
		req.MaxCompletionTokens = options.MaxTokens
	} else {
		req.MaxTokens = options.MaxTokens
		if options.Temperature != nil {
			req.Temperature = float32(*options.Temperature)
		}
	}

	resp, err := NewClient(key, p.baseURL, p.httpClient).CreateChatCompletion(ctx, req)
	if err != nil {
		return "", MapError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: goopenai.ChatMessageRoleUser, Content: prompt}}, opts...)
}

// MapError folds HTTP status codes into the llm sentinel errors.
func MapError(err error) error {
	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if mapped := llm.ClassifyStatus(status, err); mapped != err {
		return mapped
	}
	return fmt.Errorf("openai request failed: %w", err)
}
