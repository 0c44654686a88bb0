package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
)

// MessageType names a websocket message.
type MessageType string

const (
	MessageTypeAck    MessageType = "ack"
	MessageTypeEvent  MessageType = "event"
	MessageTypeNotice MessageType = "notice"
	MessageTypePing   MessageType = "ping"
)

// Message is pushed to every connected client.
type Message struct {
	Type      MessageType `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

const (
	sendBuffer   = 256
	pingInterval = 54 * time.Second
	writeWait    = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// local tool; the page may be served from a file or another port
		return true
	},
}

// Hub fans registry events and notices out to websocket clients.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	done       chan struct{}
	closeOnce  sync.Once
	logger     hclog.Logger
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

func newHub(logger hclog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Message, sendBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger.Named("hub"),
	}
}

// run handles the main hub loop until close is called.
func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			select {
			case c.send <- Message{Type: MessageTypeAck, Data: c.id, Timestamp: time.Now()}:
			default:
				h.drop(c)
			}
			h.logger.Debug("🔌 Client connected", "client", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("🔌 Client disconnected", "client", c.id, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.logger.Warn("⚠️ Client too slow, dropping", "client", c.id)
					h.drop(c)
				}
			}

		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Broadcast queues msg for every client. Messages are dropped when the
// queue is full or the hub has stopped.
func (h *Hub) Broadcast(typ MessageType, data interface{}) {
	msg := Message{Type: typ, Data: data, Timestamp: time.Now()}
	select {
	case <-h.done:
	case h.broadcast <- msg:
	default:
		h.logger.Warn("⚠️ Broadcast queue full, message dropped", "type", string(typ))
	}
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("❌ WebSocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// writePump pumps messages from the hub to the websocket connection.
func (c *client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.hub.logger.Debug("❌ Write failed", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(Message{Type: MessageTypePing, Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

// readPump discards client input and unregisters on disconnect.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("⚠️ WebSocket error", "client", c.id, "error", err)
			}
			return
		}
	}
}
