package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/posebridge/internal/app"
)

// DefaultFrameRate caps how many frame snapshots per second reach clients.
const DefaultFrameRate = 30

const clientBuffer = 8

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// FrameHub broadcasts frame snapshots to WebSocket clients. Publish never
// blocks: a client that falls behind misses frames.
type FrameHub struct {
	minInterval time.Duration

	mu      sync.RWMutex
	clients map[*client]bool
	last    time.Time
}

// NewFrameHub creates a hub that forwards at most rate frames per second.
// Frames in which a gesture fired are always forwarded.
func NewFrameHub(rate int) *FrameHub {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	return &FrameHub{
		minInterval: time.Second / time.Duration(rate),
		clients:     make(map[*client]bool),
	}
}

// Clients returns the number of connected clients.
func (h *FrameHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish queues f for every connected client.
func (h *FrameHub) Publish(f app.Frame) {
	h.mu.Lock()
	if len(h.clients) == 0 {
		h.mu.Unlock()
		return
	}
	if len(f.Gestures) == 0 && !h.last.IsZero() && f.Time.Sub(h.last) < h.minInterval {
		h.mu.Unlock()
		return
	}
	h.last = f.Time
	h.mu.Unlock()

	msg, err := json.Marshal(f)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writePump(c, done)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()
	<-done
}

func (h *FrameHub) writePump(c *client, done chan<- struct{}) {
	defer close(done)
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			// Unblock the read loop so the client is removed.
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
}
