// Package feed streams executed trades to websocket subscribers. Delivery
// is best-effort: a subscriber that cannot keep up is dropped rather than
// allowed to apply backpressure to the matching path.
package feed

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/book"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type Hub struct {
	logger     *zap.Logger
	sendBuffer int

	register   chan *client
	unregister chan *client
	broadcast  chan book.Trade
	done       chan struct{}

	clients map[*client]bool
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub(logger *zap.Logger, sendBuffer, queueSize int) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Hub{
		logger:     logger,
		sendBuffer: sendBuffer,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan book.Trade, queueSize),
		done:       make(chan struct{}),
		clients:    make(map[*client]bool),
	}
}

// Run owns the client set. It returns when Close is called.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case t := <-h.broadcast:
			payload, err := json.Marshal(t)
			if err != nil {
				h.logger.Error("trade feed marshal failed", zap.Error(err))
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// Slow consumer: drop it.
					delete(h.clients, c)
					close(c.send)
				}
			}
		case <-h.done:
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

// Close stops the hub and disconnects all subscribers.
func (h *Hub) Close() {
	close(h.done)
}

// PublishTrade queues a trade for broadcast. Implements engine.TradeSink;
// never blocks — if the queue is full the trade is dropped from the feed
// (it is still returned to the submitting caller).
func (h *Hub) PublishTrade(t book.Trade) {
	select {
	case h.broadcast <- t:
	default:
		h.logger.Warn("trade feed queue full, dropping trade",
			zap.String("symbol", t.Symbol),
			zap.String("trade_id", t.ID.String()))
	}
}

// ServeWS upgrades an HTTP request to a feed subscription.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, h.sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		// Hub already shut down; nobody will ever receive the client.
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

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
		// The feed is one-way; inbound frames are drained for control only.
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
