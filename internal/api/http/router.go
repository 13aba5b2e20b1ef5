package http

import (
	"snatch/internal/api/ws"
	"snatch/internal/room"

	"github.com/gin-gonic/gin"
)

func NewRouter(reg *room.Registry, hub *ws.Hub) *gin.Engine {
	r := gin.Default()

	// All gameplay flows over the WebSocket command surface.
	r.GET("/ws", hub.HandleWS)

	// --- ADMIN ENDPOINTS ---
	r.GET("/health", HealthHandler(reg))
	r.GET("/rooms", RoomsHandler(reg))

	return r
}
