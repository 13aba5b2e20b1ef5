package http

import (
	"net/http"

	"snatch/internal/room"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness plus a summary of active rooms.
func HealthHandler(reg *room.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"games":  reg.ActiveRooms(),
		})
	}
}

// RoomsHandler lists active rooms for debugging and admin tooling.
func RoomsHandler(reg *room.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": reg.ActiveRooms()})
	}
}
