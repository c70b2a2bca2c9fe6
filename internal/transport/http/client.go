package http

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64
)

// Client is one websocket connection. Only writePump writes to conn.
type Client struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(id string, conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		logger: logger.With("connection_id", id),
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue never blocks: when the buffer is full the oldest queued frame is dropped.
func (c *Client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.send <- data:
			return
		default:
		}
		select {
		case <-c.send:
			c.logger.Warn("send buffer full, dropping oldest frame")
		default:
		}
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump delivers each inbound frame to handle until the connection fails.
func (c *Client) readPump(handle func([]byte)) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", "error", err)
			}
			return
		}
		handle(message)
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *Client) writePump() {
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
				c.logger.Debug("websocket write error", "error", err)
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
