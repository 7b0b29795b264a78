package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/intellidocs/internal/core/ports/driven"
)

func TestNewLLMService_RequiresKey(t *testing.T) {
	_, err := NewLLMService(Config{})
	assert.Error(t, err)
}

func TestLLMService_Chat_LiftsSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rules", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	s, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "rules"},
		{Role: driven.RoleUser, Content: "question"},
	}, driven.ChatOptions{})

	require.NoError(t, err)
	assert.Equal(t, "part one part two", out)
}

func TestLLMService_Chat_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	}))
	defer server.Close()

	s, err := NewLLMService(Config{APIKey: "key", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = s.Chat(context.Background(), nil, driven.ChatOptions{})
	assert.ErrorContains(t, err, "max_tokens")
}
