package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades an authenticated request to a WebSocket
// connection and registers the client with the hub.
func HandleWebSocket(c echo.Context, hub *Hub, userID primitive.ObjectID, isAdmin bool) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		UserID:  userID,
		IsAdmin: isAdmin,
		Conn:    conn,
	}

	hub.register <- client

	conn.WriteJSON(Notification{
		Type:    "connected",
		Message: "WebSocket connection established",
		UserID:  userID.Hex(),
	})

	// Drain the connection until the client disconnects
	go func() {
		defer func() {
			hub.unregister <- client
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()

	return nil
}
