package ordersessions

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/angelmondragon/restaurant-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Upgrader accepts any origin; routes authenticate before upgrading.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client pumps one subscription over one websocket connection.
type client struct {
	conn *websocket.Conn
	sub  *Subscription
	logg *logger.Logger
}

// Serve upgrades the request and streams topic to it until either side goes
// away. It blocks for the life of the connection.
func Serve(ctx context.Context, hub *Hub, logg *logger.Logger, w http.ResponseWriter, r *http.Request, topic, sessionID string) error {
	sub, err := hub.Subscribe(ctx, topic, sessionID)
	if err != nil {
		return err
	}
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		return err
	}
	c := &client{conn: conn, sub: sub, logg: logg}
	if logg != nil {
		ctx = logg.WithSessionID(ctx, sessionID)
	}

	go c.readPump(ctx)
	c.writePump(ctx)
	return nil
}

// readPump only watches for disconnects and pongs; clients send nothing.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.sub.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && c.logg != nil {
				c.logg.Warn(ctx, "order session socket closed: "+err.Error())
			}
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.sub.Close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			return
		case payload, ok := <-c.sub.Messages():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
