package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playmatatu/pooltable/internal/middleware"
	"github.com/playmatatu/pooltable/internal/session"
)

// Auditor records operator commands. *operators.Store satisfies it.
type Auditor interface {
	LogCommand(ctx context.Context, operator, tableID, command, source string)
}

// GetTable returns the latest table snapshot with session info.
func GetTable(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Table-ID", sess.TableID())
		c.Header("X-Run-ID", sess.RunID())
		c.JSON(http.StatusOK, gin.H{
			"session":  sess.Info(),
			"snapshot": sess.Snapshot(),
		})
	}
}

// GetCaptures lists the balls pocketed in the current run.
func GetCaptures(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := sess.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"run_id":         sess.RunID(),
			"pocketed_count": snap.PocketedCount,
			"captures":       snap.Captures,
		})
	}
}

// TableCommand submits a fixed command on behalf of the authenticated operator.
func TableCommand(sess *session.Session, auditor Auditor, cmd session.Command) gin.HandlerFunc {
	return func(c *gin.Context) {
		op := middleware.CurrentOperator(c)
		if op == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		if err := sess.Submit(cmd); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, session.ErrClosed):
				status = http.StatusGone
			case errors.Is(err, session.ErrBusy):
				status = http.StatusTooManyRequests
			}
			log.Printf("[API] %s by %s rejected: %v", cmd, op.Name, err)
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		if auditor != nil {
			auditor.LogCommand(c.Request.Context(), op.Name, sess.TableID(), string(cmd), "api")
		}
		log.Printf("[API] %s queued for table %s by %s", cmd, sess.TableID(), op.Name)
		c.JSON(http.StatusAccepted, gin.H{
			"status":   "queued",
			"command":  cmd,
			"table_id": sess.TableID(),
		})
	}
}
