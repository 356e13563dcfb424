package agent

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"tripagent/llm"
)

// DefaultMaxHops is the maximum number of AGENT→TOOLS cycles per turn.
// The bound guarantees termination even when a model keeps requesting
// tools; hitting it produces a degraded-but-safe answer.
const DefaultMaxHops = 12

const (
	apologyGeneric = "I'm sorry, I ran into a problem reaching my planning engine. " +
		"Please try again in a moment."
	apologyToolReset = "I'm sorry, my last attempt to use one of my research tools went wrong. " +
		"I've reset my approach. Please resend your request and I'll try a different way."
	answerHopLimit = "I wasn't able to finish researching your trip within a reasonable " +
		"number of steps. Here is what I have so far. Please ask again with a narrower " +
		"request and I'll fill in the gaps."
)

// ModelGateway is the model backend capability the planner consumes.
type ModelGateway interface {
	Generate(ctx context.Context, msgs []llm.Message, tools []llm.ToolSchema, overrideKey string) (*llm.Reply, error)
}

// Planner drives one conversation turn through the agent/tools state
// machine: invoke the model, execute any requested tools, feed the
// results back, repeat until the model answers without tool calls.
type Planner struct {
	gateway  ModelGateway
	registry *Registry
	store    Checkpointer
	maxHops  int
	log      *slog.Logger
}

// NewPlanner creates a planner over the given gateway, tool registry and
// checkpoint store.
func NewPlanner(gw ModelGateway, reg *Registry, store Checkpointer, maxHops int, logger *slog.Logger) *Planner {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{gateway: gw, registry: reg, store: store, maxHops: maxHops, log: logger}
}

// TurnResult is the outcome of one completed turn.
type TurnResult struct {
	ThreadID   string          `json:"thread_id"`
	Answer     string          `json:"answer"`
	Structured json.RawMessage `json:"structured,omitempty"`
	Hops       int             `json:"hops"`

	// ProviderFailure is set when the turn ended because the model
	// backend rejected the request. The conversation already carries an
	// apology; the request boundary uses this to pick a status code.
	ProviderFailure error `json:"-"`
}

type loopState int

const (
	stateAgent loopState = iota
	stateTools
	stateDone
)

// Run executes one synchronous turn: append the user message to the
// thread, drive the loop to DONE, checkpoint, and return the final
// answer. Callers must serialize turns per thread id.
func (p *Planner) Run(ctx context.Context, threadID, userMsg string, creds Credentials) (*TurnResult, error) {
	return p.run(ctx, threadID, userMsg, creds, nil)
}

// RunStream is Run with lifecycle events delivered to eventCh. The
// channel is closed when the turn finishes; the caller must drain it.
func (p *Planner) RunStream(ctx context.Context, threadID, userMsg string, creds Credentials, eventCh chan<- StreamEvent) (*TurnResult, error) {
	defer close(eventCh)
	return p.run(ctx, threadID, userMsg, creds, eventCh)
}

func (p *Planner) run(ctx context.Context, threadID, userMsg string, creds Credentials, eventCh chan<- StreamEvent) (*TurnResult, error) {
	if threadID == "" {
		threadID = DefaultThreadID
	}
	runID := uuid.NewString()

	state, err := p.store.Load(threadID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewThreadState(threadID)
	}
	state.Messages = append(state.Messages, Human(userMsg))

	var providerFailure error
	hops := 0

	st := stateAgent
	for st != stateDone {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch st {
		case stateAgent:
			if hops >= p.maxHops {
				p.log.Warn("hop limit reached, forcing done",
					"thread_id", threadID, "hops", hops)
				state.Messages = append(state.Messages, AI(answerHopLimit))
				state.Structured = nil
				st = stateDone
				break
			}
			emit(eventCh, StreamEvent{Event: "on_chat_model_start", RunID: runID})
			reply, stepErr := p.step(ctx, state, creds)
			emit(eventCh, StreamEvent{Event: "on_chat_model_end", RunID: runID})
			if stepErr != nil {
				// Absorbed: the apology is already in the transcript.
				providerFailure = stepErr
				st = stateDone
				break
			}
			if len(reply.ToolCalls) == 0 {
				st = stateDone
				break
			}
			st = stateTools

		case stateTools:
			hops++
			calls := LastAssistant(state.Messages).ToolCalls
			for _, tc := range calls {
				emit(eventCh, StreamEvent{Event: "on_tool_start", Name: tc.Name, RunID: tc.ID, Data: tc.Args})
			}
			results := Dispatch(ctx, calls, p.registry, creds)
			for _, res := range results {
				if res.Error != "" {
					p.log.Warn("tool call failed", "tool", res.Name, "error", res.Error)
				}
				emit(eventCh, StreamEvent{Event: "on_tool_end", Name: res.Name, RunID: res.ToolCallID, Data: res.Output})
				state.Messages = append(state.Messages, ToolMsg(res.ToolCallID, res.Name, res.Output))
			}
			if err := p.store.Save(threadID, state); err != nil {
				p.log.Warn("checkpoint save failed", "thread_id", threadID, "error", err)
			}
			st = stateAgent
		}
	}

	if err := p.store.Save(threadID, state); err != nil {
		return nil, err
	}

	final := LastAssistant(state.Messages)
	result := &TurnResult{
		ThreadID:        threadID,
		Answer:          final.Content,
		Structured:      state.Structured,
		Hops:            hops,
		ProviderFailure: providerFailure,
	}
	emit(eventCh, StreamEvent{Event: "done", ThreadID: threadID, RunID: runID})
	return result, nil
}

// step runs one agent transition: sanitize the history, call the model
// gateway, and append the assistant reply. A gateway failure does not
// propagate: a user-safe apology is appended instead and the error is
// returned so the loop can finish the turn.
func (p *Planner) step(ctx context.Context, state *ThreadState, creds Credentials) (Message, error) {
	msgs := Sanitize(state.Messages)

	reply, err := p.gateway.Generate(ctx, toLLMMessages(msgs), p.registry.Schemas(), creds.Get(CredProvider))
	if err != nil {
		p.log.Error("model call failed", "thread_id", state.ThreadID, "error", err)
		apology := apologyGeneric
		if llm.IsToolUseFailure(err) {
			apology = apologyToolReset
		}
		msg := AI(apology)
		state.Messages = append(state.Messages, msg)
		state.Structured = nil
		return msg, err
	}

	msg := AI(reply.Content, fromLLMToolCalls(reply.ToolCalls)...)
	state.Messages = append(state.Messages, msg)
	state.Structured = reply.Structured
	return msg, nil
}

func emit(ch chan<- StreamEvent, ev StreamEvent) {
	if ch != nil {
		ch <- ev
	}
}

func toLLMMessages(msgs []Message) []llm.Message {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCallInfo{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Args,
			})
		}
	}
	return out
}

func fromLLMToolCalls(calls []llm.ToolCallResult) []ToolCall {
	out := make([]ToolCall, len(calls))
	for i, tc := range calls {
		id := tc.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out[i] = ToolCall{ID: id, Name: tc.Name, Args: tc.Args}
	}
	return out
}
