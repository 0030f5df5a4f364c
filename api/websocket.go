package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/dashboard"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/datasource"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/render/ws"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/internal/series"
	"github.com/OpenChemFacts/OpenChemFacts-frontend/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the HTTP routes only
	},
}

const (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// Outgoing messages queued per client.
	sendBuffer = 64
)

// WSMessage is a message exchanged over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// inbound is a client message with its payload left undecoded.
type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// SelectRequest is the payload of a "select" message.
type SelectRequest struct {
	Container string `json:"container"`
	CAS       string `json:"cas"`
	Color     string `json:"color,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

// CloseRequest is the payload of a "close" message.
type CloseRequest struct {
	Container string `json:"container"`
}

// WSClient is one browser connection. It owns one dashboard session per
// container the browser displays.
type WSClient struct {
	ID   string
	hub  *WSHub
	send chan any

	mu       sync.Mutex
	sessions map[string]*dashboard.Session
	closed   bool
}

func newWSClient(hub *WSHub) *WSClient {
	return &WSClient{
		ID:       uuid.NewString(),
		hub:      hub,
		send:     make(chan any, sendBuffer),
		sessions: make(map[string]*dashboard.Session),
	}
}

// Send queues v for the write pump. It implements ws.Sender, so sessions
// render through it.
func (c *WSClient) Send(ctx context.Context, v any) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ws.ErrConnClosed
	}
	select {
	case c.send <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reply queues a control message, dropping it when the buffer is full.
func (c *WSClient) reply(msg WSMessage) {
	select {
	case c.send <- msg:
	default:
		logger.Warn("websocket send buffer full", "client", c.ID, "type", msg.Type)
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket and binds a
// client to the hub.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := newWSClient(s.wsHub)
	s.wsHub.Register(client)
	logger.Info("websocket connected", "client", client.ID)

	out := ws.NewConn(conn)
	go wsWritePump(out, client)
	go s.wsReadPump(conn, out, client)
}

// wsReadPump dispatches client messages until the connection drops, then
// tears every session of the client down.
func (s *Server) wsReadPump(conn *websocket.Conn, out *ws.Conn, client *WSClient) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		client.closeSessions()
		client.hub.Unregister(client)
		out.Close()
		logger.Info("websocket disconnected", "client", client.ID)
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "client", client.ID, "err", err)
			}
			return
		}
		var msg inbound
		if err := json.Unmarshal(message, &msg); err != nil {
			client.reply(WSMessage{Type: "error", Data: map[string]string{"error": "invalid message"}})
			continue
		}
		s.dispatch(ctx, client, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, client *WSClient, msg inbound) {
	switch msg.Type {
	case "select":
		var req SelectRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Container == "" || req.CAS == "" {
			client.reply(WSMessage{Type: "error", Data: map[string]string{"error": "select needs container and cas"}})
			return
		}
		sel, err := selectionOf(req)
		if err != nil {
			client.reply(WSMessage{Type: "error", Data: map[string]string{"container": req.Container, "error": err.Error()}})
			return
		}
		sess := s.sessionFor(client, req.Container)
		if sess == nil {
			return
		}
		if err := sess.Select(ctx, sel); err != nil {
			client.reply(WSMessage{Type: "error", Data: map[string]string{"container": req.Container, "error": err.Error()}})
			return
		}
		client.reply(WSMessage{Type: "selected", Data: map[string]string{"container": req.Container, "session": sess.ID, "cas": sel.CAS}})

	case "close":
		var req CloseRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil || req.Container == "" {
			return
		}
		client.closeSession(req.Container)

	case "ping":
		client.reply(WSMessage{Type: "pong"})
	}
}

func selectionOf(req SelectRequest) (dashboard.Selection, error) {
	mode, err := series.ParseColorMode(req.Color)
	if err != nil {
		return dashboard.Selection{}, err
	}
	sel := dashboard.Selection{CAS: req.CAS, Color: mode}
	if req.Kind != "" {
		kind := datasource.ChartKind(req.Kind)
		if !kind.Valid() {
			return dashboard.Selection{}, fmt.Errorf("unknown chart kind %q", req.Kind)
		}
		sel.Kind = kind
	}
	return sel, nil
}

// sessionFor returns the session bound to container, creating it on first
// use. It returns nil once the client is closing.
func (s *Server) sessionFor(client *WSClient, container string) *dashboard.Session {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.closed {
		return nil
	}
	if sess, ok := client.sessions[container]; ok {
		return sess
	}

	sess := dashboard.NewSession(container,
		dashboard.PipelineLoader{Source: s.source, Defaults: s.defaults},
		ws.Renderer{Sender: client},
	)
	sess.OnEmpty = func(sel dashboard.Selection) {
		client.reply(WSMessage{Type: "empty", Data: map[string]interface{}{
			"container": container, "cas": sel.CAS, "no_data": true,
		}})
	}
	sess.OnError = func(sel dashboard.Selection, err error) {
		logger.Warn("dashboard load failed", "client", client.ID, "container", container, "cas", sel.CAS, "err", err)
		client.reply(WSMessage{Type: "error", Data: map[string]interface{}{
			"container": container, "cas": sel.CAS, "error": datasource.PublicMessage(err), "status": statusFor(err),
		}})
	}
	client.sessions[container] = sess
	return sess
}

func (c *WSClient) closeSession(container string) {
	c.mu.Lock()
	sess, ok := c.sessions[container]
	delete(c.sessions, container)
	c.mu.Unlock()
	if ok {
		ctx, cancel := context.WithTimeout(context.Background(), ws.WriteWait)
		defer cancel()
		if err := sess.Close(ctx); err != nil {
			logger.Debug("session close", "client", c.ID, "container", container, "err", err)
		}
	}
}

// closeSessions closes every session. Renders still in flight are
// cancelled; purges that can no longer be delivered are dropped.
func (c *WSClient) closeSessions() {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = map[string]*dashboard.Session{}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), ws.WriteWait)
	defer cancel()
	for _, sess := range sessions {
		_ = sess.Close(ctx)
	}

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// wsWritePump pumps messages from the client queue to the connection.
func wsWritePump(out *ws.Conn, client *WSClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		out.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				// Hub closed the channel
				return
			}
			if err := out.Send(context.Background(), msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := out.Ping(); err != nil {
				return
			}
		}
	}
}

// ============================================================
// Hub
// ============================================================

// WSHub tracks connected clients and fans broadcasts out to them.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
		stop:       make(chan struct{}),
	}
}

// Run starts the hub event loop. It returns after Stop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Slow client; it catches up on the next message.
				}
			}
			h.mu.RUnlock()
		case <-h.stop:
			return
		}
	}
}

// Stop ends Run.
func (h *WSHub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}

// Broadcast sends a message to all connected WebSocket clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	select {
	case h.register <- client:
	case <-h.stop:
	}
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	select {
	case h.unregister <- client:
	case <-h.stop:
	}
}
