package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/assetflow/backend/internal/infrastructure/feed"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	errCodeMaxConnections = "MAX_CONNECTIONS_REACHED"

	wsWriteWait      = 10 * time.Second
	wsMaxMessageSize = 512
)

// FeedFrame is what a live-feed client receives for one event
type FeedFrame struct {
	ID     string          `json:"id"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

func frameOf(msg feed.Message) FeedFrame {
	return FeedFrame{ID: msg.ID, Event: msg.Event, Data: msg.Data, SentAt: msg.SentAt}
}

// FeedHandler streams workflow events to browsers over SSE or WebSocket
type FeedHandler struct {
	BaseHandler
	hub        *feed.Hub
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int
	upgrader   websocket.Upgrader
}

// FeedOption is a functional option for configuring the handler
type FeedOption func(*FeedHandler)

// WithFeedLogger sets the logger for the handler
func WithFeedLogger(logger *zap.Logger) FeedOption {
	return func(h *FeedHandler) {
		h.logger = logger
	}
}

// WithFeedHeartbeat sets the keep-alive interval
func WithFeedHeartbeat(interval time.Duration) FeedOption {
	return func(h *FeedHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithFeedMaxClients caps concurrent feed connections; 0 disables the cap
func WithFeedMaxClients(max int) FeedOption {
	return func(h *FeedHandler) {
		h.maxClients = max
	}
}

// WithFeedAllowedOrigins restricts WebSocket upgrades to the given origins.
// "*" accepts any origin; an empty list accepts same-origin requests only.
func WithFeedAllowedOrigins(origins []string) FeedOption {
	return func(h *FeedHandler) {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(origins, "*") {
				return true
			}
			if slices.Contains(origins, origin) {
				return true
			}
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		}
	}
}

// NewFeedHandler creates a new FeedHandler over hub
func NewFeedHandler(hub *feed.Hub, opts ...FeedOption) *FeedHandler {
	h := &FeedHandler{
		hub:        hub,
		logger:     zap.NewNop(),
		heartbeat:  30 * time.Second,
		maxClients: 10000,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *FeedHandler) full() bool {
	return h.maxClients > 0 && h.hub.Count() >= h.maxClients
}

// Stream serves the feed as Server-Sent Events.
// GET /feed/stream
func (h *FeedHandler) Stream(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	if h.full() {
		h.Error(c, http.StatusServiceUnavailable, errCodeMaxConnections, "Maximum number of feed connections reached")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	listener := h.hub.Subscribe(actor)
	defer h.hub.Unsubscribe(listener)

	h.logger.Info("Feed SSE client connected",
		zap.String("listener_id", listener.ID),
		zap.String("user_id", actor.UserID.String()))

	c.Status(http.StatusOK)
	writeSSE(c.Writer, "connected", "", fmt.Sprintf(`{"listener_id":%q,"timestamp":%d}`, listener.ID, time.Now().Unix()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			h.logger.Info("Feed SSE client disconnected", zap.String("listener_id", listener.ID))
			return
		case <-ticker.C:
			writeSSE(c.Writer, "heartbeat", "", fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case msg, ok := <-listener.C:
			if !ok {
				return
			}
			data, err := json.Marshal(frameOf(msg))
			if err != nil {
				h.logger.Error("Failed to marshal feed frame", zap.Error(err))
				continue
			}
			writeSSE(c.Writer, msg.Event, msg.ID, string(data))
			c.Writer.Flush()
		}
	}
}

// writeSSE writes one event in text/event-stream framing
func writeSSE(w io.Writer, event, id, data string) {
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// WebSocket serves the feed over a WebSocket connection. Client messages are
// read only to detect disconnects.
// GET /feed/ws
func (h *FeedHandler) WebSocket(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	if h.full() {
		h.Error(c, http.StatusServiceUnavailable, errCodeMaxConnections, "Maximum number of feed connections reached")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already answered the client
		h.logger.Warn("Failed to upgrade feed connection", zap.Error(err))
		return
	}

	listener := h.hub.Subscribe(actor)
	h.logger.Info("Feed WebSocket client connected",
		zap.String("listener_id", listener.ID),
		zap.String("user_id", actor.UserID.String()))

	go h.writePump(conn, listener)
	h.readPump(conn, listener)
}

// readPump blocks until the client goes away, then releases the listener
func (h *FeedHandler) readPump(conn *websocket.Conn, listener *feed.Listener) {
	defer h.hub.Unsubscribe(listener)

	pongWait := 2 * h.heartbeat
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Unexpected feed websocket close", zap.Error(err))
			}
			h.logger.Info("Feed WebSocket client disconnected", zap.String("listener_id", listener.ID))
			return
		}
	}
}

// writePump forwards listener messages and pings until the listener closes
func (h *FeedHandler) writePump(conn *websocket.Conn, listener *feed.Listener) {
	ticker := time.NewTicker(h.heartbeat)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-listener.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(frameOf(msg)); err != nil {
				h.logger.Warn("Failed to write feed frame", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
