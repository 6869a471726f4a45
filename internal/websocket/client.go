package websocket

import (
	"context"
	"encoding/json"
	"time"

	"content-editor-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Dispatcher runs a command a socket client sent. Implemented by the editor
// session service.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *dto.DispatchCommandRequest) (*dto.DispatchCommandResponse, error)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// SessionID is the editor session this socket is attached to.
	SessionID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	dispatcher Dispatcher
}

// readPump turns incoming frames into editor commands. Results reach every
// client through the hub; only failures are answered on this socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{
					"session_id": c.SessionID,
					"error":      err.Error(),
				})
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var req dto.DispatchCommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(dto.SessionEvent{Type: dto.SessionEventError, SessionId: c.SessionID, Message: "invalid command frame"})
		return
	}
	req.SessionId = c.SessionID

	res, err := c.dispatcher.Dispatch(context.Background(), &req)
	switch {
	case err != nil:
		c.reply(dto.SessionEvent{Type: dto.SessionEventError, SessionId: c.SessionID, Message: err.Error()})
	case res.Error != "":
		c.reply(dto.SessionEvent{Type: dto.SessionEventError, SessionId: c.SessionID, Version: res.Version, Message: res.Error})
	case !res.Handled:
		c.reply(dto.SessionEvent{Type: dto.SessionEventError, SessionId: c.SessionID, Version: res.Version, Message: "command not handled"})
	}
}

// reply queues a message for this socket only.
func (c *Client) reply(event dto.SessionEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	for _, registered := range c.Hub.clients[c.SessionID] {
		if registered != c {
			continue
		}
		select {
		case c.Send <- data:
		default:
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// One frame per event; clients parse each frame as a single JSON document.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
