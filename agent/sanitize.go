package agent

import "strings"

// hallucinationMarkers are literal substrings that indicate a model
// emitted raw tool-call syntax or a failed generation into its text
// instead of structured tool calls. Messages carrying them would poison
// later turns, so the sanitizer drops them before each model request.
var hallucinationMarkers = []string{
	"<function=",
	"<tool_call>",
	"failed_generation",
}

// Sanitize filters a transcript before it reaches the model: non-system
// messages containing a hallucination marker are dropped, and the fixed
// system prompt is placed at index 0 exactly once. A marker inside a tool
// call/result group drops the whole group, so the output never carries a
// tool call without its result or a result without its call. The input is
// not mutated. Sanitize is idempotent.
func Sanitize(msgs []Message) []Message {
	drop := markDrops(msgs)

	out := make([]Message, 0, len(msgs)+1)
	out = append(out, System(SystemPrompt))
	for i, m := range msgs {
		if m.Role == RoleSystem || drop[i] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// markDrops flags marker-bearing messages, then widens each flag to the
// rest of its call/result group: an assistant message with tool calls and
// the tool results answering them stand or fall together.
func markDrops(msgs []Message) []bool {
	drop := make([]bool, len(msgs))
	for i, m := range msgs {
		drop[i] = containsMarker(m.Content)
	}

	for i, m := range msgs {
		if m.Role != RoleAssistant || len(m.ToolCalls) == 0 {
			continue
		}
		group := []int{i}
		pending := make(map[string]bool, len(m.ToolCalls))
		for _, tc := range m.ToolCalls {
			pending[tc.ID] = true
		}
		for j := i + 1; j < len(msgs) && len(pending) > 0; j++ {
			if msgs[j].Role == RoleTool && pending[msgs[j].ToolCallID] {
				group = append(group, j)
				delete(pending, msgs[j].ToolCallID)
			}
		}

		tainted := false
		for _, idx := range group {
			if drop[idx] {
				tainted = true
				break
			}
		}
		if tainted {
			for _, idx := range group {
				drop[idx] = true
			}
		}
	}
	return drop
}

func containsMarker(content string) bool {
	for _, marker := range hallucinationMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
