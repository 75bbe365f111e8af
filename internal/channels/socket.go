package channels

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chronos-ua/chronos-backend/internal/notify"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the envelope for everything pushed over a socket.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const WSTypeNotification = "notification"

// SocketClient is one live websocket connection. A user may hold several at
// once (multiple tabs, devices).
type SocketClient struct {
	hub    *SocketHub
	conn   *websocket.Conn
	send   chan []byte
	userID string
	connID string
}

// SocketHub tracks which users are connected and delivers payloads to them.
type SocketHub struct {
	mu      sync.RWMutex
	clients map[*SocketClient]bool
	byUser  map[string]map[*SocketClient]bool

	register   chan *SocketClient
	unregister chan *SocketClient
}

func NewSocketHub() *SocketHub {
	return &SocketHub{
		clients:    make(map[*SocketClient]bool),
		byUser:     make(map[string]map[*SocketClient]bool),
		register:   make(chan *SocketClient, 16),
		unregister: make(chan *SocketClient, 16),
	}
}

// Run processes connection lifecycle events until ctx is cancelled. Blocks;
// run it on its own goroutine.
func (h *SocketHub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			slog.Debug("socket client registered", "user", client.userID, "conn", client.connID)

		case client := <-h.unregister:
			if h.removeClient(client) {
				slog.Debug("socket client unregistered", "user", client.userID, "conn", client.connID)
			}

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *SocketHub) addClient(client *SocketClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.byUser[client.userID] == nil {
		h.byUser[client.userID] = make(map[*SocketClient]bool)
	}
	h.byUser[client.userID][client] = true
}

func (h *SocketHub) removeClient(client *SocketClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.removeClientLocked(client)
}

func (h *SocketHub) removeClientLocked(client *SocketClient) bool {
	if !h.clients[client] {
		return false
	}
	delete(h.clients, client)
	close(client.send)

	if conns, ok := h.byUser[client.userID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.byUser, client.userID)
		}
	}
	return true
}

func (h *SocketHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[*SocketClient]bool)
	h.byUser = make(map[string]map[*SocketClient]bool)
}

// ConnectionCount returns how many live connections the user holds.
func (h *SocketHub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

// TotalConnections returns the number of live connections across all users.
func (h *SocketHub) TotalConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendToUser pushes a notification to every live connection of the user and
// reports whether at least one accepted it. Connections with a full buffer
// are evicted as stale.
func (h *SocketHub) SendToUser(userID string, payload notify.Payload) bool {
	data, err := json.Marshal(WSMessage{Type: WSTypeNotification, Payload: payload})
	if err != nil {
		slog.Error("failed to marshal socket notification", "error", err)
		return false
	}

	var stale []*SocketClient
	sent := 0

	h.mu.RLock()
	for client := range h.byUser[userID] {
		select {
		case client.send <- data:
			sent++
		default:
			stale = append(stale, client)
		}
	}
	h.mu.RUnlock()

	if len(stale) > 0 {
		h.mu.Lock()
		for _, client := range stale {
			if h.removeClientLocked(client) {
				if client.conn != nil {
					client.conn.Close()
				}
				slog.Warn("evicted stale socket client", "user", client.userID, "conn", client.connID)
			}
		}
		h.mu.Unlock()
	}

	return sent > 0
}

// HandleConnection upgrades the request and attaches the connection to the
// hub. The caller has already authenticated the user.
func (h *SocketHub) HandleConnection(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	client := &SocketClient{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		userID: userID,
		connID: uuid.NewString(),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return nil
}

func (c *SocketClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Inbound messages are drained only to detect disconnects; the
		// notification stream is one-way.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("socket read error", "user", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *SocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
