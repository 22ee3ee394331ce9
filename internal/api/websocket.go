package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/leonardpitzu/it600d/internal/infrastructure/config"
	"github.com/leonardpitzu/it600d/internal/infrastructure/logging"
)

// Broadcast channels clients can subscribe to.
const (
	// ChannelDeviceState carries interpreted state for devices that
	// changed in a poll cycle.
	ChannelDeviceState = "device.state_changed"

	// ChannelConnectivity carries gateway reachability transitions.
	ChannelConnectivity = "gateway.connectivity"
)

// wsSendBufferSize is the per-client outbound queue. A client that
// cannot drain this many events is disconnected.
const wsSendBufferSize = 256

// WSMessage is the envelope for all WebSocket traffic in both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// wsSubscribePayload is the payload of subscribe/unsubscribe requests.
type wsSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub tracks connected WebSocket clients and fans events out to the
// ones subscribed to each channel.
type Hub struct {
	cfg    config.WebSocketConfig
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*WSClient]struct{}

	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// NewHub creates a hub. Run must be called before clients connect.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		logger:     logger,
		clients:    make(map[*WSClient]struct{}),
		broadcast:  make(chan WSMessage, wsSendBufferSize),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run processes registration and broadcast events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Broadcast queues an event for all clients subscribed to channel.
// Drops the event if the hub's queue is full rather than blocking the
// poll loop.
func (h *Hub) Broadcast(channel string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("websocket payload marshal failed", "channel", channel, "error", err)
		return
	}
	msg := WSMessage{
		Type:      "event",
		Channel:   channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   raw,
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping event", "channel", channel)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) deliver(msg WSMessage) {
	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		if c.subscribed(msg.Channel) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(msg)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// WSClient is one connected WebSocket session.
type WSClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan WSMessage

	mu       sync.Mutex
	channels map[string]struct{}
}

func (c *WSClient) subscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

// trySend queues a message without blocking. Sending on a channel the
// hub may have closed is guarded by recover; a full queue drops the
// slow client's message.
func (c *WSClient) trySend(msg WSMessage) {
	defer func() { _ = recover() }()
	select {
	case c.send <- msg:
	default:
	}
}

// readPump consumes client requests until the connection drops.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(c.hub.cfg.MaxMessageSize))
	pongWait := time.Duration(c.hub.cfg.PingInterval+c.hub.cfg.PongTimeout) * time.Second
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		c.handleMessage(msg)
	}
}

// writePump pushes queued events and periodic pings to the client.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(time.Duration(c.hub.cfg.PingInterval) * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	writeWait := time.Duration(c.hub.cfg.PongTimeout) * time.Second

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "subscribe":
		var p wsSubscribePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.reply(msg.ID, "error", "invalid subscribe payload")
			return
		}
		c.mu.Lock()
		for _, ch := range p.Channels {
			if ch == ChannelDeviceState || ch == ChannelConnectivity {
				c.channels[ch] = struct{}{}
			}
		}
		c.mu.Unlock()
		c.reply(msg.ID, "subscribed", "")
	case "unsubscribe":
		var p wsSubscribePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.reply(msg.ID, "error", "invalid unsubscribe payload")
			return
		}
		c.mu.Lock()
		for _, ch := range p.Channels {
			delete(c.channels, ch)
		}
		c.mu.Unlock()
		c.reply(msg.ID, "unsubscribed", "")
	case "ping":
		c.reply(msg.ID, "pong", "")
	default:
		c.reply(msg.ID, "error", "unknown message type")
	}
}

func (c *WSClient) reply(id, typ, detail string) {
	msg := WSMessage{
		Type:      typ,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if detail != "" {
		raw, _ := json.Marshal(map[string]string{"message": detail})
		msg.Payload = raw
	}
	c.trySend(msg)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon serves trusted local networks; browser origin checks
	// would only get in the way of LAN dashboards.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket upgrades the connection and starts the client pumps.
// New clients start with a subscription to both channels; subscribe and
// unsubscribe messages narrow it afterwards.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	client := &WSClient{
		hub:  s.hub,
		conn: conn,
		send: make(chan WSMessage, wsSendBufferSize),
		channels: map[string]struct{}{
			ChannelDeviceState:  {},
			ChannelConnectivity: {},
		},
	}

	s.hub.register <- client

	go client.writePump()
	go client.readPump()
}
