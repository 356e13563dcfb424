package handlers

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripagent/llm"
)

func dialWS(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebsocketTurn(t *testing.T) {
	gw := &scriptedGateway{replies: []*llm.Reply{{Content: "ws answer"}}}
	srv, _, _ := newTestServer(t, gw)
	conn := dialWS(t, srv.URL)

	require.NoError(t, conn.WriteJSON(QueryRequest{Query: "hello", ThreadID: "ws-1"}))

	var events []string
	for {
		var ev struct {
			Event string `json:"event"`
			Data  any    `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&ev))
		events = append(events, ev.Event)
		if ev.Event == "result" {
			data, ok := ev.Data.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, "ws answer", data["answer"])
			assert.Equal(t, "ws-1", data["thread_id"])
			break
		}
		require.NotEqual(t, "error", ev.Event)
	}
	assert.Contains(t, events, "on_chat_model_start")
	assert.Contains(t, events, "done")
}

func TestWebsocketEmptyQuery(t *testing.T) {
	srv, _, _ := newTestServer(t, &scriptedGateway{})
	conn := dialWS(t, srv.URL)

	require.NoError(t, conn.WriteJSON(QueryRequest{Query: ""}))

	var ev struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "error", ev.Event)
}

func TestWebsocketMultipleTurnsShareThread(t *testing.T) {
	gw := &scriptedGateway{replies: []*llm.Reply{
		{Content: "first"},
		{Content: "second"},
	}}
	srv, _, sg := newTestServer(t, gw)
	conn := dialWS(t, srv.URL)

	for _, q := range []string{"turn one", "turn two"} {
		require.NoError(t, conn.WriteJSON(QueryRequest{Query: q, ThreadID: "ws-2"}))
		for {
			var ev struct {
				Event string `json:"event"`
			}
			require.NoError(t, conn.ReadJSON(&ev))
			if ev.Event == "result" {
				break
			}
		}
	}

	require.Len(t, sg.seen, 2)
	// Second model call sees the first turn's exchange.
	assert.Equal(t, "first", sg.seen[1][2].Content)
}
