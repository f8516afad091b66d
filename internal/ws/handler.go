package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playmatatu/pooltable/internal/models"
	"github.com/playmatatu/pooltable/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin is checked by middleware.WebSocketCORSCheck
	},
}

// Auditor records operator commands. *operators.Store satisfies it.
type Auditor interface {
	LogCommand(ctx context.Context, operator, tableID, command, source string)
}

// Client represents a connected WebSocket viewer
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	id        string
	operator  *models.OperatorAccount
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub fans table updates out to every connected viewer of one session.
type Hub struct {
	session    *session.Session
	secret     string
	auditor    Auditor
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// HubOptions configures operator access over the socket.
type HubOptions struct {
	JWTSecret string
	Auditor   Auditor
}

// NewHub creates a hub for sess. Call Run before serving connections.
func NewHub(sess *session.Session, opts HubOptions) *Hub {
	return &Hub{
		session:    sess,
		secret:     opts.JWTSecret,
		auditor:    opts.Auditor,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// ClientCount returns the number of connected viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed once Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast sends a message to every connected viewer
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if !client.trySend(data) {
			log.Printf("[WS] send buffer full for client %s, dropping message", client.id)
		}
	}
}

// SendTo sends a message to a single viewer
func (c *Client) SendTo(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	if !c.trySend(data) {
		log.Printf("[WS] SendTo dropped message for client %s (buffer full)", c.id)
	}
}

func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for client %s: %v", c.id, err)
				return
			}

		case <-c.done:
			// Best-effort close frame; the peer may already be gone.
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "table closed"))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for client %s: %v", c.id, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.SendTo(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
