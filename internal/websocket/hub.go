package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"edms/internal/middleware"
	"edms/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins for dev simplicity
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a single connected WebSocket client
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send    chan []byte
	UserID  uuid.UUID
	UnitUIC string
}

type envelope struct {
	unitUIC string
	message []byte
}

// Hub maintains the set of active clients and delivers request events to
// the clients of the unit that owns the request
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	roster     middleware.Roster
	mu         sync.Mutex
	logger     *slog.Logger
}

// NewHub initializes a new WS Hub instance. Connecting users are looked up
// in roster to learn their unit.
func NewHub(logger *slog.Logger, roster middleware.Roster) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		roster:     roster,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "ws_hub")),
	}
}

// Run dispatches hub events until ctx is cancelled. Once it returns,
// registering and unregistering clients no longer block.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("WebSocket client connected", "user_id", client.UserID)
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.logger.Debug("WebSocket client disconnected", "user_id", client.UserID)
			}
			h.mu.Unlock()
		case env := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if client.UnitUIC != env.unitUIC {
					continue
				}
				select {
				case client.Send <- env.message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish encodes v as JSON and queues it for the clients of unitUIC. A
// full queue drops the event rather than stalling the caller.
func (h *Hub) Publish(unitUIC string, v any) {
	message, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("Failed to encode event", "error", err)
		return
	}
	select {
	case h.broadcast <- envelope{unitUIC: unitUIC, message: message}:
	default:
		h.logger.Warn("Dropping event, broadcast queue is full")
	}
}

// ClientCount reports how many clients are registered.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// writePump handles writing messages from the Hub to the WebSocket connection
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		_, _ = w.Write(message)

		// Fast track writing queued messages
		n := len(c.Send)
		for i := 0; i < n; i++ {
			_, _ = w.Write([]byte{'\n'})
			_, _ = w.Write(<-c.Send)
		}

		if err := w.Close(); err != nil {
			return
		}
	}
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	for {
		// Clients only listen; reads keep the connection alive and detect closes
		_, _, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("WebSocket read failed", "user_id", c.UserID, "error", err)
			}
			break
		}
	}
}

// ServeWs upgrades an authenticated request. Browsers cannot set headers on
// a WebSocket handshake, so the token travels in the query string.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	tokenString := c.Query("token")
	if tokenString == "" {
		hub.logger.Warn("WebSocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	userID, err := middleware.ParseSubject(tokenString, secret)
	if err != nil {
		hub.logger.Warn("WebSocket connection rejected: invalid token", "error", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	user, err := hub.roster.GetByID(c.Request.Context(), userID)
	if errors.Is(err, repository.ErrNotFound) {
		hub.logger.Warn("WebSocket connection rejected: not on the roster", "user_id", userID)
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	if err != nil {
		hub.logger.Error("WebSocket roster lookup failed", "user_id", userID, "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, 256), UserID: userID, UnitUIC: user.UnitUIC}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in new goroutines
	go client.writePump()
	go client.readPump()
}
