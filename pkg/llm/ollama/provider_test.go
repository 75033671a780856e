package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"kidsgpt-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "Hello there!"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3")
	out, err := p.Chat(context.Background(),
		[]llm.Message{{Role: "system", Content: "be kind"}, {Role: "user", Content: "hi"}},
		llm.WithTemperature(0.2), llm.WithMaxTokens(64))

	require.NoError(t, err)
	assert.Equal(t, "Hello there!", out)
	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Len(t, got.Messages, 2)
	assert.InDelta(t, 0.2, got.Options.Temperature, 0.0001)
	assert.Equal(t, 64, got.Options.NumPredict)
}

func TestOllamaProvider_GenerateUsesPromptEndpoint(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: "42", Done: true})
	}))
	defer srv.Close()

	out, err := NewOllamaProvider(srv.URL, "llama3").Generate(context.Background(), "score this",
		llm.WithModel("phi3"), llm.WithTemperature(0))

	require.NoError(t, err)
	assert.Equal(t, "42", out)
	assert.Equal(t, "phi3", got.Model)
	assert.Equal(t, "score this", got.Prompt)
	assert.Zero(t, got.Options.Temperature)
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     error
		wantText string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":"too many requests"}`, llm.ErrRateLimited, "too many requests"},
		{"proxy rejected key", http.StatusUnauthorized, "unauthorized", llm.ErrInvalidAPIKey, "status 401"},
		{"forbidden", http.StatusForbidden, `{"error":"forbidden"}`, llm.ErrInvalidAPIKey, "forbidden"},
		{"model missing", http.StatusNotFound, `{"error":"model 'missing' not found"}`, nil, "model 'missing' not found"},
		{"server error", http.StatusInternalServerError, "boom", nil, "status 500"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaProvider(srv.URL, "missing").Generate(context.Background(), "hi")
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantText)

			var statusErr *llm.StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.NotErrorIs(t, err, llm.ErrRateLimited)
				assert.NotErrorIs(t, err, llm.ErrInvalidAPIKey)
			}
		})
	}
}

func TestOllamaProvider_EmptyReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{Done: true})
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "llama3").Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, errEmptyReply)
}
