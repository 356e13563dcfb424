package agent

import "fmt"

// Message represents one entry in a conversation transcript.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"` // set when Role == "tool"
	Name       string     `json:"name,omitempty"`         // tool name when Role == "tool"
}

// ToolCall is the model's request to invoke a registered tool.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolResult holds the outcome of one tool invocation. Failures are
// carried in Output as human-readable text so the model can see and
// recover from them; Error is kept for logging only.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Name       string `json:"name"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ValidRole returns true if r is a known message role.
func ValidRole(r string) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// Human creates a user message.
func Human(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AI creates an assistant message with optional tool calls.
func AI(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMsg creates a tool result message.
func ToolMsg(toolCallID, name, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: toolCallID, Name: name}
}

// Validate checks that a transcript is well-formed:
//   - all roles are valid
//   - tool messages carry a call id and tool name
//   - assistant tool calls carry ids and names
//   - every assistant tool call is answered by exactly one tool result
//     before the next assistant message
func Validate(msgs []Message) error {
	pending := make(map[string]string) // call id → tool name
	for i, msg := range msgs {
		if !ValidRole(msg.Role) {
			return fmt.Errorf("message[%d]: unknown role %q", i, msg.Role)
		}

		switch msg.Role {
		case RoleAssistant:
			if len(pending) > 0 {
				return fmt.Errorf("message[%d]: %d tool calls still unanswered", i, len(pending))
			}
			if msg.Content == "" && len(msg.ToolCalls) == 0 {
				return fmt.Errorf("message[%d]: assistant message has no content and no tool calls", i)
			}
			for j, tc := range msg.ToolCalls {
				if tc.ID == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing id", i, j)
				}
				if tc.Name == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing name", i, j)
				}
				if _, dup := pending[tc.ID]; dup {
					return fmt.Errorf("message[%d].tool_calls[%d]: duplicate id %q", i, j, tc.ID)
				}
				pending[tc.ID] = tc.Name
			}

		case RoleTool:
			if msg.ToolCallID == "" {
				return fmt.Errorf("message[%d]: tool message missing tool_call_id", i)
			}
			if msg.Name == "" {
				return fmt.Errorf("message[%d]: tool message missing name", i)
			}
			if _, ok := pending[msg.ToolCallID]; !ok {
				return fmt.Errorf("message[%d]: tool result %q answers no pending call", i, msg.ToolCallID)
			}
			delete(pending, msg.ToolCallID)

		case RoleUser, RoleSystem:
			if msg.Content == "" {
				return fmt.Errorf("message[%d]: %s message has empty content", i, msg.Role)
			}
		}
	}
	if len(pending) > 0 {
		return fmt.Errorf("%d tool calls left unanswered at end of transcript", len(pending))
	}
	return nil
}

// LastAssistant returns the most recent assistant message, or a zero
// Message when none exists.
func LastAssistant(msgs []Message) Message {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == RoleAssistant {
			return msgs[i]
		}
	}
	return Message{}
}
