package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	uuid "github.com/satori/go.uuid"

	"github.com/playmatatu/pooltable/internal/middleware"
	"github.com/playmatatu/pooltable/internal/models"
	"github.com/playmatatu/pooltable/internal/session"
	"github.com/playmatatu/pooltable/internal/shell"
)

// CommandData is the payload of a "command" message.
type CommandData struct {
	Command string `json:"command"`
}

// KeyData is the payload of a "key" message; keys map through the shell bindings.
type KeyData struct {
	Key string `json:"key"`
}

// HandleWebSocket upgrades a viewer connection. An operator JWT in the "auth"
// query parameter enables table commands on the socket.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	var op *models.OperatorAccount
	if token := c.Query("auth"); token != "" {
		parsed, err := middleware.ParseOperatorToken(h.secret, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		op = parsed
	}

	select {
	case <-h.done:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "table closed"})
		return
	default:
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		id:       uuid.NewV4().String(),
		operator: op,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// Run relays session updates to viewers until ctx ends or the session stops.
func (h *Hub) Run(ctx context.Context) {
	updates, unsubscribe := h.session.Subscribe(256)
	defer unsubscribe()
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

			who := "viewer"
			if client.operator != nil {
				who = "operator " + client.operator.Name
			}
			log.Printf("[WS] %s connected to table %s as %s", who, h.session.TableID(), client.id)
			client.SendTo(snapshotMessage(h.session.Snapshot()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
				log.Printf("[WS] client %s disconnected from table %s", client.id, h.session.TableID())
			}
			h.mu.Unlock()

		case u, ok := <-updates:
			if !ok {
				log.Printf("[WS] table %s session ended; closing %d clients", h.session.TableID(), h.ClientCount())
				return
			}
			if u.Type == session.UpdateSnapshot && u.Snapshot != nil {
				h.Broadcast(snapshotMessage(*u.Snapshot))
				continue
			}
			h.Broadcast(map[string]interface{}{"type": "event", "data": u})
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
}

func snapshotMessage(snap interface{}) map[string]interface{} {
	return map[string]interface{}{"type": "snapshot", "data": snap}
}

// readPump reads viewer messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[WS] unexpected close for client %s: %v", c.id, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes incoming viewer messages.
func (c *Client) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "command":
		var data CommandData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid command data")
			return
		}
		cmd, err := session.ParseCommand(data.Command)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.handleCommand(cmd, "ws")

	case "key":
		var data KeyData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("Invalid key data")
			return
		}
		action, ok := shell.Lookup(data.Key)
		if !ok {
			c.sendError("Unbound key")
			return
		}
		cmd, err := session.ParseCommand(string(action))
		if err != nil {
			c.sendError(err.Error())
			return
		}
		c.handleCommand(cmd, "ws-key")

	case "get_state":
		c.SendTo(snapshotMessage(c.hub.session.Snapshot()))

	default:
		c.sendError("Unknown message type")
	}
}

// handleCommand forwards an operator command to the session loop.
func (c *Client) handleCommand(cmd session.Command, source string) {
	tableID := c.hub.session.TableID()
	if c.operator == nil {
		c.sendError("Operator token required")
		return
	}
	if !c.operator.CanOperate(tableID) {
		c.sendError("Operator may not command this table")
		return
	}

	if err := c.hub.session.Submit(cmd); err != nil {
		c.sendError(err.Error())
		return
	}
	if c.hub.auditor != nil {
		c.hub.auditor.LogCommand(context.Background(), c.operator.Name, tableID, string(cmd), source)
	}

	c.SendTo(map[string]interface{}{
		"type":    "command_accepted",
		"command": cmd,
	})
}
