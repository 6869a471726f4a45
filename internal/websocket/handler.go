package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches conn to the session and blocks until the peer leaves.
// greeting, when set, is the first frame the peer receives.
func ServeWs(hub *Hub, dispatcher Dispatcher, c *websocket.Conn, sessionID uuid.UUID, greeting []byte) {
	client := newClient(hub, dispatcher, sessionID)
	client.Conn = c
	if greeting != nil {
		client.Send <- greeting
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func newClient(hub *Hub, dispatcher Dispatcher, sessionID uuid.UUID) *Client {
	return &Client{Hub: hub, SessionID: sessionID, Send: make(chan []byte, 256), dispatcher: dispatcher}
}
