package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAICallParsesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_abc", "type": "function",
						 "function": {"name": "get_current_weather", "arguments": "{\"city\":\"Paris\"}"}},
						{"id": "", "type": "function",
						 "function": {"name": "search_hotels", "arguments": "{\"query\":\"Paris hotels\"}"}}
					]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test", srv.URL, "k")
	resp, err := c.Call(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 2)
	assert.Equal(t, "call_abc", resp.ToolCalls[0].ID)
	assert.Equal(t, "get_current_weather", resp.ToolCalls[0].Name)
	assert.Equal(t, map[string]any{"city": "Paris"}, resp.ToolCalls[0].Args)
	// Missing ids are filled so every call can be paired with its result.
	assert.NotEmpty(t, resp.ToolCalls[1].ID)
}

func TestOpenAICallMalformedToolArguments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"choices": [{
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [
						{"id": "call_1", "type": "function",
						 "function": {"name": "get_current_weather", "arguments": "{city: Paris"}}
					]
				},
				"finish_reason": "tool_calls"
			}]
		}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test", srv.URL, "k")
	resp, err := c.Call(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	// Undecodable argument JSON yields empty args, not nil and not a
	// partially-decoded map, so downstream validation can flag it.
	require.Len(t, resp.ToolCalls, 1)
	require.NotNil(t, resp.ToolCalls[0].Args)
	assert.Empty(t, resp.ToolCalls[0].Args)
}

func TestOpenAICallNon200BecomesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		io.WriteString(w, `{"error": "Insufficient Balance"}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("deepseek", srv.URL, "k")
	_, err := c.Call(context.Background(), Request{Model: "m"})
	require.Error(t, err)

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, "deepseek", pe.Provider)
	assert.Equal(t, http.StatusPaymentRequired, pe.StatusCode)
	assert.True(t, pe.CreditExhausted())
}

func TestOpenAIBuildRequestRoundTripsToolResults(t *testing.T) {
	var got openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test", srv.URL, "k")
	_, err := c.Call(context.Background(), Request{
		Model: "m",
		Messages: []Message{
			{Role: "user", Content: "weather?"},
			{Role: "assistant", ToolCalls: []ToolCallInfo{{ID: "call_1", Name: "get_current_weather", Args: map[string]any{"city": "Paris"}}}},
			{Role: "tool", Content: "18°C", ToolCallID: "call_1", Name: "get_current_weather"},
		},
		Tools: []ToolSchema{{Name: "get_current_weather", Description: "d", Parameters: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)

	require.Len(t, got.Messages, 3)
	asst := got.Messages[1]
	require.Len(t, asst.ToolCalls, 1)
	assert.Equal(t, "call_1", asst.ToolCalls[0].ID)
	assert.Equal(t, "function", asst.ToolCalls[0].Type)
	assert.JSONEq(t, `{"city":"Paris"}`, asst.ToolCalls[0].Function.Arguments)

	toolMsg := got.Messages[2]
	assert.Equal(t, "tool", toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)

	require.NotNil(t, got.ParallelToolCalls)
	assert.False(t, *got.ParallelToolCalls)
}

func TestOpenAIOmitsParallelFlagWithoutTools(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &raw))
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewOpenAIClient("test", srv.URL, "k")
	_, err := c.Call(context.Background(), Request{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)

	_, present := raw["parallel_tool_calls"]
	assert.False(t, present)
}
