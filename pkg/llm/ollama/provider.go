package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kidsgpt-be/pkg/llm"
)

const defaultTemperature = 0.7

var errEmptyReply = errors.New("ollama: empty reply")

// OllamaProvider talks to a local Ollama daemon. Keys are ignored.
type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  modelOptions  `json:"options"`
}

type generateRequest struct {
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	Stream  bool         `json:"stream"`
	Options modelOptions `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// errorResponse is the body Ollama sends with a non-2xx status.
type errorResponse struct {
	Error string `json:"error"`
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	model, options := o.resolve(opts...)
	messages := make([]chatMessage, len(history))
	for i, msg := range history {
		messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	var res chatResponse
	if err := o.post(ctx, "/api/chat", chatRequest{Model: model, Messages: messages, Options: options}, &res); err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Message.Content) == "" {
		return "", errEmptyReply
	}
	return res.Message.Content, nil
}

// Generate uses the single-prompt endpoint rather than a one-message chat.
func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	model, options := o.resolve(opts...)

	var res generateResponse
	if err := o.post(ctx, "/api/generate", generateRequest{Model: model, Prompt: prompt, Options: options}, &res); err != nil {
		return "", err
	}
	if strings.TrimSpace(res.Response) == "" {
		return "", errEmptyReply
	}
	return res.Response, nil
}

func (o *OllamaProvider) resolve(opts ...llm.Option) (string, modelOptions) {
	options := llm.Apply(opts...)
	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}
	mo := modelOptions{Temperature: defaultTemperature, NumPredict: options.MaxTokens}
	if options.Temperature != nil {
		mo.Temperature = *options.Temperature
	}
	return model, mo
}

func (o *OllamaProvider) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

// statusError maps a failed reply to the shared provider errors, keeping
// Ollama's own message when the body carries one.
func statusError(status int, raw []byte) error {
	msg := strings.TrimSpace(string(raw))
	var body errorResponse
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return llm.ClassifyStatus(status, &llm.StatusError{Provider: "ollama", StatusCode: status, Message: msg})
}
