package feed

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 32
)

// client owns one connection. Messages queue on send and writePump writes them.
type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	mu     sync.Mutex
	send   chan any
	done   chan struct{}
	once   sync.Once
}

func newClient(userID uuid.UUID, conn *websocket.Conn) *client {
	return &client{
		userID: userID,
		conn:   conn,
		send:   make(chan any, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *client) write(fn func(*websocket.Conn) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return fn(c.conn)
}

// enqueue drops the message when the queue is full or the client is gone.
func (c *client) enqueue(message any) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		log.Printf("feed_queue_full user_id=%s dropped=1", c.userID)
		return false
	}
}

func (c *client) stop() {
	c.once.Do(func() {
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

// Hub keeps one connection per user; a new connection replaces the old one.
type Hub struct {
	clients map[uuid.UUID]*client
	mutex   sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*client),
	}
}

func (h *Hub) Register(userID uuid.UUID, conn *websocket.Conn) {
	c := newClient(userID, conn)

	h.mutex.Lock()
	if old, exists := h.clients[userID]; exists && old != nil {
		old.stop()
	}
	h.clients[userID] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// Unregister drops userID only if conn is still the registered connection.
func (h *Hub) Unregister(userID uuid.UUID, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if c, exists := h.clients[userID]; exists && c != nil && c.conn == conn {
		c.stop()
		delete(h.clients, userID)
	}
}

func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			if err := c.write(func(conn *websocket.Conn) error { return conn.WriteJSON(message) }); err != nil {
				log.Printf("feed_write_failed user_id=%s error=%v", c.userID, err)
				h.Unregister(c.userID, c.conn)
				return
			}
		}
	}
}

func (h *Hub) get(userID uuid.UUID) *client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.clients[userID]
}

// SendToUser queues message for userID. It reports false when the user is offline
// or their queue is full.
func (h *Hub) SendToUser(userID uuid.UUID, message any) bool {
	c := h.get(userID)
	if c == nil {
		return false
	}
	return c.enqueue(message)
}

// Publish implements Publisher.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	h.SendToUser(e.TrainerID, e)
}

func (h *Hub) IsOnline(userID uuid.UUID) bool {
	return h.get(userID) != nil
}

func (h *Hub) OnlineCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.clients)
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for userID, c := range h.clients {
		if c != nil {
			c.stop()
		}
		delete(h.clients, userID)
	}
}
