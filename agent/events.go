package agent

// StreamEvent is emitted by the planner loop for streaming surfaces
// (SSE, websocket). Event names follow the chat-model/tool lifecycle.
type StreamEvent struct {
	Event    string `json:"event"` // on_chat_model_start, on_chat_model_end, on_tool_start, on_tool_end, done, error
	Name     string `json:"name,omitempty"`
	RunID    string `json:"run_id,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
	Data     any    `json:"data,omitempty"`
}
