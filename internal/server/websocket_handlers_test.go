package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketConn records the messages written to it.
type mockWebSocketConn struct {
	sent []WebSocketResponse
	fail bool
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	if m.fail {
		return errors.New("connection closed")
	}
	var resp WebSocketResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return err
	}
	m.sent = append(m.sent, resp)
	return nil
}

func (m *mockWebSocketConn) types() []string {
	out := make([]string, len(m.sent))
	for i, r := range m.sent {
		out[i] = r.Type
	}
	return out
}

const squareMessage = `"points":[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10},{"x":0,"y":10},{"x":4,"y":6}]`

func TestServer_HandleWebSocketMessage_Hull(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(context.Background(), conn, []byte(`{"type":"hull","request_id":"r1",`+squareMessage+`}`))

	require.GreaterOrEqual(t, len(conn.sent), 2)
	for i, msg := range conn.sent[:len(conn.sent)-1] {
		assert.Equal(t, wsTypeHullStep, msg.Type)
		assert.Equal(t, i+1, msg.Step)
		assert.NotEmpty(t, msg.Stack)
		assert.Equal(t, "r1", msg.RequestID)
	}
	last := conn.sent[len(conn.sent)-1]
	assert.Equal(t, wsTypeHull, last.Type)
	assert.Equal(t, "completed", last.Status)
	result, ok := last.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, result["vertices"], 4)
}

func TestServer_HandleWebSocketMessage_NoSteps(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(context.Background(), conn, []byte(`{"type":"hull","steps":false,`+squareMessage+`}`))

	require.Len(t, conn.sent, 1)
	assert.Equal(t, wsTypeHull, conn.sent[0].Type)
	assert.NotEmpty(t, conn.sent[0].RequestID, "a request id is generated")
}

func TestServer_HandleWebSocketMessage_Rectangle(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(context.Background(), conn, []byte(`{"type":"rectangle","steps":false,"orientation":0,`+squareMessage+`}`))

	assert.Equal(t, []string{wsTypeHull, wsTypeRectangle}, conn.types())
	assert.Equal(t, "processing", conn.sent[0].Status)
	assert.Equal(t, "completed", conn.sent[1].Status)
	result, ok := conn.sent[1].Result.(map[string]interface{})
	require.True(t, ok)
	assert.InDelta(t, 100.0, result["area"], 1e-3)
}

func TestServer_HandleWebSocketMessage_Contains(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(context.Background(), conn,
		[]byte(`{"type":"contains","steps":false,"queries":[{"x":5,"y":5},{"x":20,"y":5}],`+squareMessage+`}`))

	assert.Equal(t, []string{wsTypeHull, wsTypeContains}, conn.types())
	results, ok := conn.sent[1].Result.([]interface{})
	require.True(t, ok)
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]interface{})["inside"])
	assert.Equal(t, false, results[1].(map[string]interface{})["inside"])
}

func TestServer_HandleWebSocketMessage_Errors(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.MaxPoints = 4 })

	tests := []struct {
		name      string
		message   string
		errorType string
	}{
		{"malformed", `{"type":`, codeBadRequest},
		{"unknown type", `{"type":"triangulate",` + `"points":[{"x":0,"y":0}]}`, codeBadRequest},
		{"no points", `{"type":"hull"}`, codeBadRequest},
		{"too many points", `{"type":"hull",` + squareMessage + `}`, codeBadRequest},
		{"collinear", `{"type":"hull","points":[{"x":0,"y":0},{"x":1,"y":1},{"x":2,"y":2}]}`, codeDegenerate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockWebSocketConn{}
			s.handleWebSocketMessage(context.Background(), conn, []byte(tt.message))

			require.NotEmpty(t, conn.sent)
			last := conn.sent[len(conn.sent)-1]
			assert.Equal(t, wsTypeError, last.Type)
			assert.Equal(t, "error", last.Status)
			assert.Equal(t, tt.errorType, last.ErrorType)
			assert.NotEmpty(t, last.Error)
		})
	}
}

func TestServer_HandleWebSocketMessage_SolveFailure(t *testing.T) {
	s := newTestServer(t, func(c *Config) { c.PipelineConfig.Solver.MaxOuterIterations = 1 })
	conn := &mockWebSocketConn{}

	s.handleWebSocketMessage(context.Background(), conn, []byte(`{"type":"rectangle","steps":false,`+squareMessage+`}`))

	assert.Equal(t, []string{wsTypeHull, wsTypeError}, conn.types())
	assert.Equal(t, codeNotConverged, conn.sent[1].ErrorType)
}

func TestServer_HandleWebSocketMessage_WriteFailureStopsStream(t *testing.T) {
	s := newTestServer(t, nil)
	conn := &mockWebSocketConn{fail: true}

	s.handleWebSocketMessage(context.Background(), conn, []byte(`{"type":"rectangle",`+squareMessage+`}`))
	assert.Empty(t, conn.sent)
}

func TestServer_SendWebSocketError(t *testing.T) {
	server := &Server{}
	conn := &mockWebSocketConn{}

	server.sendWebSocketError(conn, "r9", "test_error", "Test error message")

	require.Len(t, conn.sent, 1)
	assert.Equal(t, WebSocketResponse{
		Type:      wsTypeError,
		Status:    "error",
		Error:     "Test error message",
		ErrorType: "test_error",
		RequestID: "r9",
	}, conn.sent[0])
}

func TestWebSocket_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(newTestServer(t, nil).Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"rectangle","request_id":"e2e",`+squareMessage+`}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))
	var types []string
	for {
		var msg WebSocketResponse
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "e2e", msg.RequestID)
		types = append(types, msg.Type)
		if msg.Type == wsTypeRectangle || msg.Type == wsTypeError {
			break
		}
	}

	assert.Equal(t, wsTypeHullStep, types[0])
	assert.Equal(t, wsTypeHull, types[len(types)-2])
	assert.Equal(t, wsTypeRectangle, types[len(types)-1])
}

func TestWebSocketUpgrader(t *testing.T) {
	assert.True(t, upgrader.CheckOrigin(&http.Request{
		Header: http.Header{"Origin": []string{"http://example.com"}},
	}))
	assert.Equal(t, 1024, upgrader.ReadBufferSize)
	assert.Equal(t, 1024, upgrader.WriteBufferSize)
}
