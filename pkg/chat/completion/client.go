package completion

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"kidsgpt-be/internal/entity"
	"kidsgpt-be/internal/pkg/logger"
	"kidsgpt-be/pkg/llm"
)

type Request struct {
	Type    entity.ConversationType
	Age     *int
	History []*entity.Message
	APIKey  string
}

// Result always carries text fit to show the user. Err is set when the text
// is a failure explanation rather than a model reply.
type Result struct {
	Text string
	Err  error
}

type Config struct {
	Model      string
	ScoreModel string
	MaxTokens  int
}

type Client struct {
	provider llm.LLMProvider
	cfg      Config
	logger   logger.ILogger
}

func NewClient(provider llm.LLMProvider, cfg Config, logger logger.ILogger) *Client {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.ScoreModel == "" {
		cfg.ScoreModel = cfg.Model
	}
	return &Client{provider: provider, cfg: cfg, logger: logger}
}

// Reply produces the assistant's answer to the conversation so far.
func (c *Client) Reply(ctx context.Context, req Request) Result {
	if strings.TrimSpace(req.APIKey) == "" {
		return Result{Text: MissingKeyText, Err: llm.ErrMissingAPIKey}
	}

	history := make([]llm.Message, 0, len(req.History)+1)
	history = append(history, llm.Message{Role: "system", Content: SystemPrompt(req.Type, req.Age)})
	for _, m := range req.History {
		content := renderContent(m)
		if content == "" {
			continue
		}
		history = append(history, llm.Message{Role: string(m.Role), Content: content})
	}

	text, err := c.provider.Chat(ctx, history,
		llm.WithModel(c.cfg.Model),
		llm.WithMaxTokens(c.cfg.MaxTokens),
		llm.WithTemperature(0.7),
		llm.WithAPIKey(req.APIKey),
	)
	if err != nil {
		c.logger.Warn("COMPLETION", "Chat completion failed", map[string]interface{}{
			"error": err.Error(),
			"type":  string(req.Type),
		})
		return Result{Text: FailureTextFor(err), Err: err}
	}
	return Result{Text: strings.TrimSpace(text)}
}

// Score asks a second, independent model call how much answer hands over a
// homework solution. Only the question and the answer are sent.
func (c *Client) Score(ctx context.Context, question, answer, apiKey string) (int, error) {
	raw, err := c.provider.Generate(ctx, ScorePrompt(question, answer),
		llm.WithModel(c.cfg.ScoreModel),
		llm.WithMaxTokens(16),
		llm.WithTemperature(0),
		llm.WithAPIKey(apiKey),
	)
	if err != nil {
		c.logger.Warn("COMPLETION", "Misuse scoring failed", map[string]interface{}{"error": err.Error()})
		return 0, err
	}
	score, err := ParseScore(raw)
	if err != nil {
		c.logger.Warn("COMPLETION", "Unparseable misuse score", map[string]interface{}{"raw": raw})
		return 0, err
	}
	return score, nil
}

// FailureTextFor maps an error to the text shown instead of a reply.
func FailureTextFor(err error) string {
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey):
		return MissingKeyText
	case errors.Is(err, llm.ErrInvalidAPIKey):
		return InvalidKeyText
	case errors.Is(err, llm.ErrRateLimited):
		return RateLimitedText
	default:
		return FailureText
	}
}

var scorePattern = regexp.MustCompile(`-?\d+`)

// ParseScore pulls the first integer out of a model reply and clamps it to [0,100].
func ParseScore(raw string) (int, error) {
	match := scorePattern.FindString(raw)
	if match == "" {
		return 0, fmt.Errorf("no score in %q", raw)
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, err
	}
	return entity.ClampMisuseScore(n), nil
}

func renderContent(m *entity.Message) string {
	var b strings.Builder
	b.WriteString(m.Content)
	for _, a := range m.Attachments {
		fmt.Fprintf(&b, "\n[Attached file: %s (%s)]", a.Name, a.Url)
	}
	if m.GeneratedImage != nil {
		fmt.Fprintf(&b, "\n[Generated image for: %s]", m.GeneratedImage.Prompt)
	}
	return strings.TrimSpace(b.String())
}
