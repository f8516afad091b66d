package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/session"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status
func HealthCheck(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		select {
		case <-sess.Done():
			status = "stopped"
		default:
		}
		info := sess.Info()
		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"service":   "pooltable-api",
			"version":   version,
			"uptime":    time.Since(startTime).String(),
			"table_id":  info.TableID,
			"run_state": info.State,
		})
	}
}
