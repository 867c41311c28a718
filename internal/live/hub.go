// Package live pushes completed sales to dashboard screens over websockets.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"go-coffee-pos/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// SaleEvent is broadcast after every committed checkout.
type SaleEvent struct {
	Type     string    `json:"type"` // "sale.completed"
	BranchID uint      `json:"branch_id"`
	SaleID   uint      `json:"sale_id"`
	Total    float64   `json:"total"`
	Items    int       `json:"items"`
	SoldAt   time.Time `json:"sold_at"`
}

type client struct {
	hub      *Hub
	conn     *websocket.Conn
	branchID uint // 0 receives every branch
	send     chan []byte
}

type outbound struct {
	branchID uint
	data     []byte
}

// Hub fans sale events out to subscribed dashboards.
type Hub struct {
	upgrader   websocket.Upgrader
	register   chan *client
	unregister chan *client
	broadcast  chan outbound
	done       chan struct{} // closed when Run returns
	count      atomic.Int64
}

func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop; it returns when ctx is cancelled. It must be
// called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	clients := make(map[*client]struct{})
	for {
		select {
		case <-ctx.Done():
			for c := range clients {
				close(c.send)
			}
			h.count.Store(0)
			return

		case c := <-h.register:
			clients[c] = struct{}{}
			h.count.Store(int64(len(clients)))

		case c := <-h.unregister:
			if _, ok := clients[c]; ok {
				delete(clients, c)
				close(c.send)
				h.count.Store(int64(len(clients)))
			}

		case msg := <-h.broadcast:
			for c := range clients {
				if c.branchID != 0 && c.branchID != msg.branchID {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					// slow subscriber
					close(c.send)
					delete(clients, c)
				}
			}
			h.count.Store(int64(len(clients)))
		}
	}
}

// Publish queues ev for delivery. It never blocks the caller; events are
// dropped when the queue is full.
func (h *Hub) Publish(ev SaleEvent) {
	if ev.Type == "" {
		ev.Type = "sale.completed"
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- outbound{branchID: ev.BranchID, data: data}:
	default:
		logger.L.Warn("live: broadcast queue full, dropping event", "sale_id", ev.SaleID)
	}
}

// Clients is the number of connected subscribers.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Serve upgrades the request and subscribes it to branchID (0 for all).
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, branchID uint) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L.Error("live: upgrade failed", "error", err)
		return
	}
	c := &client{hub: h, conn: conn, branchID: branchID, send: make(chan []byte, 64)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// readPump only watches for close and pong frames; dashboards do not send.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
