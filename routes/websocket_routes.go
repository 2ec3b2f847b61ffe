package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tanamvest/tanamvest_backend/middleware"
	"github.com/tanamvest/tanamvest_backend/models"
	"github.com/tanamvest/tanamvest_backend/websocket"
)

// RegisterWebSocketRoutes sets up the authenticated WebSocket endpoint used
// by admin dashboards and member apps for live review events.
func RegisterWebSocketRoutes(e *echo.Echo, hub *websocket.Hub) {
	ws := e.Group("/ws")
	ws.Use(middleware.JWTMiddleware())
	ws.GET("", func(c echo.Context) error {
		userID, err := middleware.ExtractUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Authentication failed",
			})
		}
		userObjID, err := primitive.ObjectIDFromHex(userID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid user ID",
			})
		}

		isAdmin := middleware.ExtractRole(c) == models.RoleAdmin
		return websocket.HandleWebSocket(c, hub, userObjID, isAdmin)
	})
}
