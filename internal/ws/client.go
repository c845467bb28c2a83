package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/messywasayzafar/nursify-sub001/internal/chat"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256

	actionSendMessage = "sendMessage"
)

// client sits between one websocket connection and the hub. Outbound
// payloads go through send; done closes exactly once on teardown so
// in-flight pushes see the connection as gone instead of blocking.
type client struct {
	id         string
	userID     uuid.UUID
	groupID    uuid.UUID
	senderName string

	h    *Handler
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

// inboundFrame is what a connected client may send over the socket. Only
// the sendMessage action is recognized; anything else is dropped.
type inboundFrame struct {
	Action   string `json:"action"`
	Message  string `json:"message"`
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
}

func (c *client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
			) {
				c.h.logger.Warn("websocket read error",
					zap.String("connection_id", c.id),
					zap.Error(err),
				)
			}
			return
		}

		var frame inboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.h.logger.Debug("unparseable websocket frame",
				zap.String("connection_id", c.id),
				zap.Error(err),
			)
			continue
		}
		if frame.Action != actionSendMessage {
			continue
		}

		// Socket sends reuse the same dispatcher as the REST route.
		// The sender identity comes from the handshake, never from
		// the frame.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err = c.h.dispatcher.Send(ctx, chat.SendRequest{
			GroupID:    c.groupID,
			SenderID:   c.userID,
			SenderName: c.senderName,
			Body:       frame.Message,
			FileURL:    frame.FileURL,
			FileName:   frame.FileName,
		})
		cancel()
		if err != nil {
			c.h.logger.Warn("websocket send rejected",
				zap.String("connection_id", c.id),
				zap.Error(err),
			)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.teardown()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}

// teardown runs the disconnect transition exactly once: drop the socket
// from the hub, delete the durable registry row, close the connection.
func (c *client) teardown() {
	c.once.Do(func() {
		close(c.done)
		c.h.hub.remove(c.id)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.h.registry.Unregister(ctx, c.id); err != nil {
			c.h.logger.Warn("unregister connection failed",
				zap.String("connection_id", c.id),
				zap.Error(err),
			)
		}

		c.conn.Close()
		c.h.logger.Info("connection closed",
			zap.String("connection_id", c.id),
			zap.String("user_id", c.userID.String()),
		)
	})
}
