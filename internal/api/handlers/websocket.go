package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/ws"
)

// HandleTableWebSocket streams table snapshots and accepts operator commands
func HandleTableWebSocket(hub *ws.Hub) gin.HandlerFunc {
	return hub.HandleWebSocket
}
