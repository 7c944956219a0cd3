package stream

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client drains one subscriber's queue into a websocket connection. The
// write pump assigns the per-connection monotonic record ids; the read pump
// exists only to notice the peer going away.
type Client struct {
	conn   *websocket.Conn
	sub    *Subscriber
	logger *slog.Logger
}

func NewClient(conn *websocket.Conn, sub *Subscriber, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{conn: conn, sub: sub, logger: logger}
}

// WritePump streams envelopes until the subscription closes or a write
// fails. Any exit releases the subscription, which also stops ReadPump via
// the closed connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sub.Close()
		c.conn.Close()
	}()

	var nextID uint64
	for {
		select {
		case ev, ok := <-c.sub.Events():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription closed"))
				return
			}
			nextID++
			env := Envelope{EventName: ev.Name, Data: ev.Payload, ID: nextID}
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Debug("stream write failed",
					slog.String("stream_id", c.sub.StreamID()),
					slog.Any("error", err))
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

// ReadPump consumes and discards inbound frames; it returns when the peer
// disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.sub.Close()
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("stream read closed",
					slog.String("stream_id", c.sub.StreamID()),
					slog.Any("error", err))
			}
			return
		}
	}
}
