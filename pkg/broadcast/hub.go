// Package broadcast fans out accounting events (points credited, epoch
// finalized) to connected websocket clients. The HTTP upgrade handler
// that accepts connections is out of scope here; this package owns only
// the hub's registration/broadcast loop and the narrow Publisher
// interface the accounting engine calls into.
package broadcast

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Publisher is the narrow surface the accounting engine depends on. It
// never sees *Client or *websocket.Conn.
type Publisher interface {
	PublishToChannel(channel string, event any)
}

// Hub maintains registered clients and fans out channel-scoped events.
type Hub struct {
	clients map[*Client]bool

	broadcast  chan channelMessage
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

type channelMessage struct {
	channel string
	payload []byte
}

// NewHub builds an unstarted Hub; call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan channelMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run drives the hub's main loop until ctx-equivalent shutdown; callers
// stop it by closing the process, matching the teacher's run-forever
// ticker loops elsewhere in the codebase.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("[broadcast] client connected: %s (total: %d)", client.id, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("[broadcast] client disconnected: %s (total: %d)", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.IsSubscribed(msg.channel) {
					continue
				}
				select {
				case client.send <- msg.payload:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// PublishToChannel marshals event and enqueues it for delivery to every
// client subscribed to channel. Marshal errors are logged, never panicked.
func (h *Hub) PublishToChannel(channel string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[broadcast] marshal error: %v", err)
		return
	}
	select {
	case h.broadcast <- channelMessage{channel: channel, payload: payload}:
	default:
		log.Printf("[broadcast] broadcast queue full, dropping event on %s", channel)
	}
}

// Register hands ownership of client to the hub's run loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister requests the hub drop client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Client represents one registered websocket connection. The HTTP
// upgrade handler that constructs these (out of scope) is responsible
// for calling Register and starting WritePump/ReadPump.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	id   string

	subscriptions map[string]bool
	subsMu        sync.RWMutex
}

// NewClient wraps an already-upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan []byte, 256),
		id:            id,
		subscriptions: make(map[string]bool),
	}
}

// IsSubscribed reports whether the client is listening on channel.
func (c *Client) IsSubscribed(channel string) bool {
	c.subsMu.RLock()
	defer c.subsMu.RUnlock()
	return c.subscriptions[channel]
}

// Subscribe adds channel to the client's subscription set.
func (c *Client) Subscribe(channel string) {
	c.subsMu.Lock()
	c.subscriptions[channel] = true
	c.subsMu.Unlock()
}

// Unsubscribe removes channel from the client's subscription set.
func (c *Client) Unsubscribe(channel string) {
	c.subsMu.Lock()
	delete(c.subscriptions, channel)
	c.subsMu.Unlock()
}

// WritePump pumps hub-delivered messages to the underlying connection.
// Callers start this as its own goroutine after Register.
func (c *Client) WritePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains the connection, honoring subscribe/unsubscribe frames,
// and unregisters the client on any read error or close.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[broadcast] read error: %v", err)
			}
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}
		switch req.Op {
		case "subscribe":
			for _, ch := range req.Channels {
				c.Subscribe(ch)
			}
		case "unsubscribe":
			for _, ch := range req.Channels {
				c.Unsubscribe(ch)
			}
		}
	}
}

type subscribeRequest struct {
	Op       string   `json:"op"`
	Channels []string `json:"channels"`
}
