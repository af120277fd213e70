package server

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// sendBuffer is how many outgoing messages may queue before a client is
// considered stuck and dropped.
const sendBuffer = 256

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Tables are joined by game code, not by origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		ID:   uuid.NewString(),
	}
}

// ServeWs upgrades the request and starts the client pumps. Name and seat
// arrive later with create_game or join_game.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		hub.log.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}

	c := newClient(hub, conn)
	hub.log.Debug("client connected", zap.String("client_id", c.ID), zap.String("remote", r.RemoteAddr))
	if !hub.join(c) {
		conn.Close()
		return
	}

	go c.WritePump()
	go c.ReadPump()
}
