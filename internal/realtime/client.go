package realtime

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ferrohaus/dwelling/backend/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client bridges one websocket connection to a hub subscription. Incoming
// frames are only read to detect disconnects; the stream is one-way.
type Client struct {
	conn        *websocket.Conn
	send        chan models.Notification
	done        chan struct{}
	unsubscribe func()
	log         zerolog.Logger
}

// NewClient subscribes the connection's user on the hub and returns the
// client. Run must be called to start the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, log zerolog.Logger) *Client {
	c := &Client{
		conn: conn,
		send: make(chan models.Notification, 64),
		done: make(chan struct{}),
		log:  log.With().Str("component", "realtime").Str("user_id", userID).Logger(),
	}
	c.unsubscribe = hub.Subscribe(userID, func(n models.Notification) {
		// Drop rather than block a slow connection; the consumer
		// reconciles through the feed endpoint on reconnect.
		select {
		case <-c.done:
		case c.send <- n:
		default:
			c.log.Warn().Str("notification_id", n.ID).Msg("send buffer full, event dropped")
		}
	})
	return c
}

// Run starts the read and write pumps and blocks until the connection
// drops. The hub subscription is released before Run returns.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.unsubscribe()
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case n := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
