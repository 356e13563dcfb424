package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrependsSystemPromptOnce(t *testing.T) {
	msgs := []Message{
		Human("plan a trip"),
		AI("sure"),
	}
	out := Sanitize(msgs)
	require.Len(t, out, 3)
	assert.Equal(t, RoleSystem, out[0].Role)
	assert.Equal(t, SystemPrompt, out[0].Content)
	assert.Equal(t, "plan a trip", out[1].Content)
}

func TestSanitizeDropsStaleSystemMessages(t *testing.T) {
	msgs := []Message{
		System("old prompt v1"),
		Human("hello"),
		System("old prompt v2"),
	}
	out := Sanitize(msgs)
	require.Len(t, out, 2)
	assert.Equal(t, SystemPrompt, out[0].Content)
	assert.Equal(t, RoleUser, out[1].Role)
}

func TestSanitizeDropsHallucinationMarkers(t *testing.T) {
	msgs := []Message{
		Human("hello"),
		AI(`<function=get_current_weather{"city":"Paris"}</function>`),
		AI("normal reply"),
		AI("oops <tool_call> leaked"),
		AI(`{"error": {"failed_generation": "..."}}`),
		Human("still here"),
	}
	out := Sanitize(msgs)
	require.Len(t, out, 4)
	assert.Equal(t, "hello", out[1].Content)
	assert.Equal(t, "normal reply", out[2].Content)
	assert.Equal(t, "still here", out[3].Content)
}

func TestSanitizeDropsWholeGroupWhenResultIsTainted(t *testing.T) {
	msgs := []Message{
		Human("find hotels"),
		AI("", ToolCall{ID: "call_1", Name: "search_hotels", Args: map[string]any{"place": "Rome"}}),
		ToolMsg("call_1", "search_hotels", "<function=search_hotels leaked into output"),
		AI("final answer"),
	}
	out := Sanitize(msgs)

	// The request whose result was tainted goes too: no dangling call.
	require.Len(t, out, 3)
	assert.Equal(t, RoleSystem, out[0].Role)
	assert.Equal(t, "find hotels", out[1].Content)
	assert.Equal(t, "final answer", out[2].Content)
	require.NoError(t, Validate(out[1:]))
}

func TestSanitizeDropsWholeGroupWhenCallIsTainted(t *testing.T) {
	msgs := []Message{
		Human("weather please"),
		AI("<tool_call> raw syntax",
			ToolCall{ID: "call_1", Name: "get_current_weather", Args: map[string]any{"city": "Oslo"}}),
		ToolMsg("call_1", "get_current_weather", "Current Weather in Oslo: 5°C, rain"),
		AI("done"),
	}
	out := Sanitize(msgs)

	require.Len(t, out, 3)
	for _, m := range out {
		assert.NotEqual(t, RoleTool, m.Role)
	}
	require.NoError(t, Validate(out[1:]))
}

func TestSanitizeLeavesCleanGroupsAlone(t *testing.T) {
	msgs := []Message{
		Human("q"),
		AI("", ToolCall{ID: "call_1", Name: "add", Args: map[string]any{"a": 1, "b": 2}}),
		ToolMsg("call_1", "add", "3"),
		AI("<function=bad standalone hallucination"),
		AI("answer"),
	}
	out := Sanitize(msgs)

	// Only the standalone hallucinated reply goes; the clean tool
	// exchange survives intact.
	require.Len(t, out, 5)
	assert.Equal(t, RoleTool, out[3].Role)
	require.NoError(t, Validate(out[1:]))
}

func TestSanitizeIsIdempotent(t *testing.T) {
	msgs := []Message{
		Human("hello"),
		AI("<function=bad"),
		AI("fine"),
	}
	once := Sanitize(msgs)
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	msgs := []Message{
		System("old"),
		Human("hello"),
	}
	Sanitize(msgs)
	assert.Equal(t, "old", msgs[0].Content)
	assert.Len(t, msgs, 2)
}
