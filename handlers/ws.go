package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"

	"tripagent/agent"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The chat UI is served from arbitrary dev origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWS runs query turns over a websocket: the client sends one
// QueryRequest JSON message per turn and receives the planner's lifecycle
// events followed by a final "result" event.
func (d *Deps) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		d.Log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req QueryRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		if req.Query == "" {
			conn.WriteJSON(agent.StreamEvent{Event: "error", Data: "query must not be empty"})
			continue
		}

		d.runWSTurn(r, conn, &req)
	}
}

func (d *Deps) runWSTurn(r *http.Request, conn *websocket.Conn, req *QueryRequest) {
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
		if err := conn.WriteJSON(ev); err != nil {
			// Keep draining so the turn finishes and checkpoints.
			for range eventCh {
			}
			break
		}
	}
	<-done

	if runErr != nil {
		d.Log.Error("turn failed", "error", runErr)
		conn.WriteJSON(agent.StreamEvent{Event: "error", Data: "An internal server error occurred. Please try again later."})
		return
	}
	conn.WriteJSON(agent.StreamEvent{
		Event:    "result",
		ThreadID: result.ThreadID,
		Data: QueryResponse{
			Answer:     result.Answer,
			Structured: result.Structured,
			ThreadID:   result.ThreadID,
		},
	})
}
