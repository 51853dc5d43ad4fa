package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/hullrect/internal/geometry"
	"github.com/MeKo-Tech/hullrect/internal/pointset"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

// Message types of the websocket protocol.
const (
	wsTypeHull      = "hull"
	wsTypeHullStep  = "hull_step"
	wsTypeContains  = "contains"
	wsTypeRectangle = "rectangle"
	wsTypeError     = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketRequest is a client message. The point set fields follow the
// JSON point-set encoding; Type selects the operation.
type WebSocketRequest struct {
	Type      string `json:"type"` // "hull", "contains" or "rectangle"
	RequestID string `json:"request_id,omitempty"`
	Steps     *bool  `json:"steps,omitempty"` // stream hull steps, default true
}

// WebSocketResponse is a server message. A request produces zero or more
// "hull_step" messages, then a "hull" message, then a "contains" or
// "rectangle" message when asked for.
type WebSocketResponse struct {
	Type      string           `json:"type"`
	Status    string           `json:"status"` // "processing", "completed", "error"
	Step      int              `json:"step,omitempty"`
	Stack     []geometry.Point `json:"stack,omitempty"`
	Result    interface{}      `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// WebSocketConnWriter is the write side of a websocket connection.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// webSocketHandler upgrades the connection and serves requests until the
// client disconnects.
func (s *Server) webSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage runs one request, streaming its progress to conn.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", codeBadRequest, fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	switch req.Type {
	case wsTypeHull, wsTypeContains, wsTypeRectangle:
	default:
		s.sendWebSocketError(conn, req.RequestID, codeBadRequest, "Unsupported request type: "+req.Type)
		return
	}

	set, err := pointset.Parse(bytes.NewReader(data), pointset.FormatJSON)
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, codeBadRequest, fmt.Sprintf("Invalid point set: %v", err))
		return
	}
	if n := len(set.Points) + len(set.Queries); n > s.maxPoints {
		s.sendWebSocketError(conn, req.RequestID, codeBadRequest, fmt.Sprintf("Too many points: %d (max %d)", n, s.maxPoints))
		return
	}

	streamSteps := req.Steps == nil || *req.Steps
	hr, err := s.pipeline.HullSteps(set.Points, func(step int, stack []geometry.Point) error {
		if !streamSteps {
			return nil
		}
		return s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      wsTypeHullStep,
			Status:    "processing",
			Step:      step,
			Stack:     stack,
			RequestID: req.RequestID,
		})
	})
	if err != nil {
		status, code := errorStatus(err)
		requestsTotal.WithLabelValues("websocket_"+req.Type, code).Inc()
		logFailure("websocket_"+req.Type, status, err)
		s.sendWebSocketError(conn, req.RequestID, code, err.Error())
		return
	}
	recordHull("websocket_"+req.Type, hr)

	hullStatus := "completed"
	if req.Type != wsTypeHull {
		hullStatus = "processing"
	}
	if err := s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      wsTypeHull,
		Status:    hullStatus,
		Result:    hr,
		RequestID: req.RequestID,
	}); err != nil {
		return
	}

	switch req.Type {
	case wsTypeContains:
		_, results, err := s.pipeline.Contains(set.Points, set.Queries)
		if err != nil {
			_, code := errorStatus(err)
			s.sendWebSocketError(conn, req.RequestID, code, err.Error())
			return
		}
		_ = s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      wsTypeContains,
			Status:    "completed",
			Result:    results,
			RequestID: req.RequestID,
		})

	case wsTypeRectangle:
		t := 0.0
		if set.Orientation != nil {
			t = *set.Orientation
		}
		solveCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		_, rr, err := s.pipeline.Rectangle(solveCtx, set.Points, t)
		if err != nil {
			status, code := errorStatus(err)
			requestsTotal.WithLabelValues("websocket_rectangle", code).Inc()
			logFailure("websocket_rectangle", status, err)
			s.sendWebSocketError(conn, req.RequestID, code, err.Error())
			return
		}
		recordSolve(rr)
		_ = s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      wsTypeRectangle,
			Status:    "completed",
			Result:    rr,
			RequestID: req.RequestID,
		})
	}
}

// sendWebSocketResponse sends a message over the websocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) error {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return err
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return nil
}

// sendWebSocketError sends an error message over the websocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	_ = s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      wsTypeError,
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
