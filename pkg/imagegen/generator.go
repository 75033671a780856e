package imagegen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kidsgpt-be/pkg/llm"
	"kidsgpt-be/pkg/llm/openai"

	goopenai "github.com/sashabaranov/go-openai"
)

type Request struct {
	Prompt  string
	Size    string
	Quality string
	Style   string
	APIKey  string
}

type Result struct {
	URL           string
	RevisedPrompt string
	Size          string
	Quality       string
	Style         string
}

// ErrInvalidRequest wraps every validation failure from Normalize.
var ErrInvalidRequest = errors.New("imagegen: invalid request")

type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

var (
	sizes     = map[string]bool{"1024x1024": true, "1792x1024": true, "1024x1792": true}
	qualities = map[string]bool{"standard": true, "hd": true}
	styles    = map[string]bool{"vivid": true, "natural": true}
)

// Normalize fills defaults and rejects values the endpoint does not accept.
func Normalize(req Request) (Request, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return req, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}
	if req.Size == "" {
		req.Size = "1024x1024"
	}
	if req.Quality == "" {
		req.Quality = "standard"
	}
	if req.Style == "" {
		req.Style = "vivid"
	}
	if !sizes[req.Size] {
		return req, fmt.Errorf("%w: unsupported size %q", ErrInvalidRequest, req.Size)
	}
	if !qualities[req.Quality] {
		return req, fmt.Errorf("%w: unsupported quality %q", ErrInvalidRequest, req.Quality)
	}
	if !styles[req.Style] {
		return req, fmt.Errorf("%w: unsupported style %q", ErrInvalidRequest, req.Style)
	}
	return req, nil
}

type OpenAIGenerator struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	if model == "" {
		model = goopenai.CreateImageModelDallE3
	}
	return &OpenAIGenerator{
		baseURL: baseURL,
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
		},
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	req, err := Normalize(req)
	if err != nil {
		return nil, err
	}

	key := req.APIKey
	if key == "" {
		key = g.apiKey
	}
	if strings.TrimSpace(key) == "" {
		return nil, llm.ErrMissingAPIKey
	}

	resp, err := openai.NewClient(key, g.baseURL, g.httpClient).CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          g.model,
		N:              1,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, openai.MapError(err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("imagegen: empty response")
	}

	return &Result{
		URL:           resp.Data[0].URL,
		RevisedPrompt: resp.Data[0].RevisedPrompt,
		Size:          req.Size,
		Quality:       req.Quality,
		Style:         req.Style,
	}, nil
}
