// Package handlers wires the planner to its HTTP surface: the /query
// endpoint, the transcript and tool catalog views, and the SSE and
// websocket event streams.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"tripagent/agent"
	"tripagent/llm"
	"tripagent/sse"
)

// Deps holds shared dependencies injected into handlers.
type Deps struct {
	Planner  *agent.Planner
	Registry *agent.Registry
	Store    agent.Checkpointer
	Log      *slog.Logger

	locks threadLocks
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query    string `json:"query"`
	ThreadID string `json:"thread_id,omitempty"`

	// Optional trip metadata, rendered into a Trip Context preamble.
	Travelers   int    `json:"travelers,omitempty"`
	Month       string `json:"month,omitempty"`
	Currency    string `json:"currency,omitempty"`
	AutoConvert bool   `json:"auto_convert,omitempty"`

	// APIKeys carries per-service BYOK overrides (weather, serpapi,
	// tavily, exchange, provider). Never persisted.
	APIKeys map[string]string `json:"api_keys,omitempty"`
}

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	Answer     string          `json:"answer"`
	Structured json.RawMessage `json:"structured,omitempty"`
	ThreadID   string          `json:"thread_id"`
}

// RegisterRoutes registers all routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps *Deps) {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	mux.HandleFunc("POST /query", deps.handleQuery)
	mux.HandleFunc("POST /query/stream", deps.handleQueryStream)
	mux.HandleFunc("GET /ws", deps.handleWS)
	mux.HandleFunc("GET /tools", deps.handleTools)
	mux.HandleFunc("GET /threads/{id}", deps.handleThread)
}

func (d *Deps) handleQuery(w http.ResponseWriter, r *http.Request) {
	req, ok := d.decodeQuery(w, r)
	if !ok {
		return
	}

	unlock := d.locks.lock(threadID(req))
	defer unlock()

	result, err := d.Planner.Run(r.Context(), threadID(req), composeUserMessage(req), agent.Credentials(req.APIKeys))
	if err != nil {
		d.internalError(w, err)
		return
	}
	d.writeResult(w, result)
}

func (d *Deps) handleQueryStream(w http.ResponseWriter, r *http.Request) {
	req, ok := d.decodeQuery(w, r)
	if !ok {
		return
	}

	writer := sse.NewWriter(w)
	if writer == nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	unlock := d.locks.lock(threadID(req))
	defer unlock()

	eventCh := make(chan agent.StreamEvent, 64)
	done := make(chan struct{})
	var result *agent.TurnResult
	var runErr error
	go func() {
		defer close(done)
		result, runErr = d.Planner.RunStream(r.Context(), threadID(req), composeUserMessage(req), agent.Credentials(req.APIKeys), eventCh)
	}()

	for ev := range eventCh {
		writer.SendEvent(ev.Event, ev)
	}
	<-done

	if runErr != nil {
		d.Log.Error("turn failed", "error", runErr)
		writer.SendEvent("error", map[string]string{"error": "An internal server error occurred. Please try again later."})
		return
	}
	writer.SendEvent("result", QueryResponse{
		Answer:     result.Answer,
		Structured: result.Structured,
		ThreadID:   result.ThreadID,
	})
}

func (d *Deps) handleTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tools": d.Registry.Names(),
		"count": d.Registry.Len(),
	})
}

func (d *Deps) handleThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := d.Store.Load(id)
	if err != nil {
		d.internalError(w, err)
		return
	}
	if state == nil {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("thread %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (d *Deps) decodeQuery(w http.ResponseWriter, r *http.Request) (*QueryRequest, bool) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSONError(w, http.StatusBadRequest, "query must not be empty")
		return nil, false
	}
	return &req, true
}

func (d *Deps) writeResult(w http.ResponseWriter, result *agent.TurnResult) {
	if result.ProviderFailure != nil {
		if pe, ok := llm.AsProviderError(result.ProviderFailure); ok && pe.CreditExhausted() {
			// The apology is already in the transcript; the status code
			// tells the caller this is a billing problem, not a bug.
			writeJSON(w, http.StatusPaymentRequired, map[string]any{
				"answer":    result.Answer,
				"thread_id": result.ThreadID,
				"error":     "Provider API Error: model provider credits exhausted",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:     result.Answer,
		Structured: result.Structured,
		ThreadID:   result.ThreadID,
	})
}

func (d *Deps) internalError(w http.ResponseWriter, err error) {
	d.Log.Error("request failed", "error", err)
	writeJSONError(w, http.StatusInternalServerError, "An internal server error occurred. Please try again later.")
}

// composeUserMessage renders optional trip metadata into a Trip Context
// preamble ahead of the raw query.
func composeUserMessage(req *QueryRequest) string {
	var ctx []string
	if req.Travelers > 0 {
		ctx = append(ctx, fmt.Sprintf("- Travelers: %d", req.Travelers))
	}
	if req.Month != "" {
		ctx = append(ctx, "- Travel month: "+req.Month)
	}
	if req.Currency != "" {
		ctx = append(ctx, "- Preferred Currency: "+strings.ToUpper(req.Currency))
		if req.AutoConvert {
			ctx = append(ctx, "- Proactive conversion: requested")
		}
	}
	if len(ctx) == 0 {
		return req.Query
	}
	return "Trip Context:\n" + strings.Join(ctx, "\n") + "\n\n" + req.Query
}

func threadID(req *QueryRequest) string {
	if req.ThreadID == "" {
		return agent.DefaultThreadID
	}
	return req.ThreadID
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
