package agent

import "encoding/json"

// DefaultThreadID is used when a request does not name a thread.
const DefaultThreadID = "default"

// ThreadState holds the persisted conversation state for one thread.
type ThreadState struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`

	// Structured is the last structured payload embedded in an
	// assistant reply, when one parsed. Nil otherwise.
	Structured json.RawMessage `json:"structured,omitempty"`
}

// NewThreadState creates an empty state for a thread.
func NewThreadState(threadID string) *ThreadState {
	if threadID == "" {
		threadID = DefaultThreadID
	}
	return &ThreadState{ThreadID: threadID, Messages: []Message{}}
}

// Clone returns a deep copy of the state. Checkpoint backends hand out
// clones so callers never mutate a stored snapshot.
func (s *ThreadState) Clone() *ThreadState {
	out := &ThreadState{
		ThreadID: s.ThreadID,
		Messages: make([]Message, len(s.Messages)),
	}
	copy(out.Messages, s.Messages)
	for i, m := range s.Messages {
		if len(m.ToolCalls) > 0 {
			out.Messages[i].ToolCalls = make([]ToolCall, len(m.ToolCalls))
			copy(out.Messages[i].ToolCalls, m.ToolCalls)
		}
	}
	if s.Structured != nil {
		out.Structured = append(json.RawMessage(nil), s.Structured...)
	}
	return out
}

// Checkpointer persists thread state under a thread id. Load returns
// (nil, nil) for a thread that has never been saved.
type Checkpointer interface {
	Load(threadID string) (*ThreadState, error)
	Save(threadID string, state *ThreadState) error
}
