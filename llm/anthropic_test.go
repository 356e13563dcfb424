package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicBuildRequest(t *testing.T) {
	c := NewAnthropicClient("k")
	req := c.buildRequest(Request{
		Model: "m",
		Messages: []Message{
			{Role: "system", Content: "you are a travel agent"},
			{Role: "user", Content: "weather?"},
			{Role: "assistant", ToolCalls: []ToolCallInfo{{ID: "tu_1", Name: "get_current_weather", Args: map[string]any{"city": "Rome"}}}},
			{Role: "tool", Content: "24°C", ToolCallID: "tu_1", Name: "get_current_weather"},
		},
		Tools: []ToolSchema{{Name: "get_current_weather", Description: "d", Parameters: map[string]any{"type": "object"}}},
	})

	// System prompt travels out of band.
	assert.Equal(t, "you are a travel agent", req.System)
	require.Len(t, req.Messages, 3)

	// Tool results become user-role tool_result blocks.
	last := req.Messages[2]
	assert.Equal(t, "user", last.Role)
	blocks, ok := last.Content.([]anthropicContentBlock)
	require.True(t, ok)
	require.Len(t, blocks, 1)
	assert.Equal(t, "tool_result", blocks[0].Type)
	assert.Equal(t, "tu_1", blocks[0].ToolUseID)
	assert.Equal(t, "24°C", blocks[0].Content)

	require.NotNil(t, req.ToolChoice)
	assert.Equal(t, "auto", req.ToolChoice.Type)
	assert.True(t, req.ToolChoice.DisableParallelToolUse)

	assert.Equal(t, 4096, req.MaxTokens)
}

func TestAnthropicCallCollectsBlocks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))
		io.WriteString(w, `{
			"content": [
				{"type": "text", "text": "Checking the weather. "},
				{"type": "tool_use", "id": "tu_9", "name": "get_current_weather", "input": {"city": "Oslo"}}
			],
			"stop_reason": "tool_use"
		}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("k")
	c.baseURL = srv.URL

	resp, err := c.Call(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "Checking the weather. ", resp.Content)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "tu_9", resp.ToolCalls[0].ID)
	assert.Equal(t, map[string]any{"city": "Oslo"}, resp.ToolCalls[0].Args)
}

func TestAnthropicCallErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error": {"type": "rate_limit_error"}}`)
	}))
	defer srv.Close()

	c := NewAnthropicClient("k")
	c.baseURL = srv.URL

	_, err := c.Call(context.Background(), Request{Model: "m"})
	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "anthropic", pe.Provider)
	assert.True(t, pe.CreditExhausted())
}
